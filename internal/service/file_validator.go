package service

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"pdf-epub-converter/internal/domain"
	apperrors "pdf-epub-converter/pkg/errors"
)

var pdfMagic = []byte("%PDF-")

// FileValidator checks an uploaded file before it enters the pipeline:
// extension, size bound, magic bytes and a structural validation pass.
type FileValidator struct {
	maxSize int64
	conf    *model.Configuration
	logger  domain.Logger
}

// NewFileValidator creates a file validator with the given size limit
func NewFileValidator(maxSize int64, logger domain.Logger) *FileValidator {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &FileValidator{
		maxSize: maxSize,
		conf:    conf,
		logger:  logger,
	}
}

// Validate returns a validation AppError when the file is not an acceptable
// PDF.
func (v *FileValidator) Validate(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return apperrors.NewValidationError("only PDF files are supported")
	}

	info, err := os.Stat(path)
	if err != nil {
		return apperrors.NewValidationError("file not accessible", err.Error())
	}
	if info.Size() == 0 {
		return apperrors.NewValidationError("file is empty")
	}
	if v.maxSize > 0 && info.Size() > v.maxSize {
		return apperrors.NewValidationError(
			fmt.Sprintf("file exceeds maximum size of %d bytes", v.maxSize))
	}

	f, err := os.Open(path)
	if err != nil {
		return apperrors.NewValidationError("file not accessible", err.Error())
	}
	header := make([]byte, len(pdfMagic))
	_, readErr := f.Read(header)
	f.Close()
	if readErr != nil || !bytes.Equal(header, pdfMagic) {
		return apperrors.NewValidationError("file is not a PDF")
	}

	if err := api.ValidateFile(path, v.conf); err != nil {
		v.logger.Warn("PDF structural validation failed", "path", path, "error", err)
		return apperrors.NewValidationError("PDF structure is invalid or corrupted", err.Error())
	}

	pages, err := api.PageCountFile(path)
	if err != nil || pages == 0 {
		return apperrors.NewValidationError("PDF has no readable pages")
	}

	return nil
}
