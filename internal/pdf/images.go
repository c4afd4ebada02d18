package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"pdf-epub-converter/internal/domain"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfcpu writes extracted images as <base>_<pageNr>_<resourceID>.<ext>.
var imageNameRe = regexp.MustCompile(`_(\d+)_[^_.]+\.([A-Za-z0-9]+)$`)

// Extractor pulls embedded image resources out of a PDF using pdfcpu.
type Extractor struct {
	conf *model.Configuration
}

// NewExtractor creates a pdfcpu backed image extractor
func NewExtractor() *Extractor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Extractor{conf: conf}
}

// ExtractImages extracts every embedded image, keyed by 1-indexed page
// number. Images land in a temp directory that is removed before returning.
func (e *Extractor) ExtractImages(path string) (map[int][]domain.EmbeddedImage, error) {
	tempDir, err := os.MkdirTemp("", "pdf-images-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if err := api.ExtractImagesFile(path, tempDir, nil, e.conf); err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read extracted images: %w", err)
	}

	// Deterministic order so image indexes are stable across runs.
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	images := make(map[int][]domain.EmbeddedImage)
	for _, name := range names {
		m := imageNameRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		page, err := strconv.Atoi(m[1])
		if err != nil || page < 1 {
			continue
		}
		data, err := os.ReadFile(filepath.Join(tempDir, name))
		if err != nil {
			continue
		}
		ext := strings.ToLower(m[2])
		if ext == "jpg" {
			ext = "jpeg"
		}
		images[page] = append(images[page], domain.EmbeddedImage{
			Index: len(images[page]),
			Ext:   ext,
			Data:  data,
		})
	}
	return images, nil
}
