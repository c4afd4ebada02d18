// Package ocr provides the pluggable optical character recognition backend.
// The default implementation shells out to the tesseract binary.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"pdf-epub-converter/internal/domain"
	apperrors "pdf-epub-converter/pkg/errors"
)

// Tesseract implements domain.OCREngine by invoking the tesseract binary.
// Every invocation is bounded by the configured timeout; a timeout or a
// missing binary is reported as an external-tool error so the orchestrator
// can retry it.
type Tesseract struct {
	binary  string
	timeout time.Duration
	logger  domain.Logger
}

// NewTesseract creates a tesseract-backed OCR engine
func NewTesseract(binary string, timeout time.Duration, logger domain.Logger) *Tesseract {
	if binary == "" {
		binary = "tesseract"
	}
	return &Tesseract{binary: binary, timeout: timeout, logger: logger}
}

// Recognize runs OCR over a rasterized page image and returns the
// recognized text.
func (t *Tesseract) Recognize(ctx context.Context, image []byte, lang string) (string, error) {
	if lang == "" {
		lang = "eng"
	}

	// tesseract reads from a file; stage the image in an operation-scoped
	// temp dir removed on every exit path.
	tmpDir, err := os.MkdirTemp("", "ocr-*")
	if err != nil {
		return "", apperrors.NewExternalToolError("failed to stage OCR input", err)
	}
	defer os.RemoveAll(tmpDir)

	imgPath := filepath.Join(tmpDir, "page.png")
	if err := os.WriteFile(imgPath, image, 0o644); err != nil {
		return "", apperrors.NewExternalToolError("failed to stage OCR input", err)
	}

	runCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, t.binary, imgPath, "stdout", "-l", lang)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", apperrors.NewExternalToolError(
				fmt.Sprintf("OCR timed out after %s", t.timeout), runCtx.Err())
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", apperrors.NewExternalToolError("OCR failed: "+detail, err)
	}

	t.logger.Debug("OCR completed", "lang", lang, "duration", time.Since(start))
	return stdout.String(), nil
}
