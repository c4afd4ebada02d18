package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// InjectFragments splices per-page HTML fragments into an already written
// EPUB archive, inserting each fragment before the closing body tag of the
// matching page entry. The patched archive is drafted as a sibling temp file
// and published by rename; on any error the original archive is left
// untouched.
func InjectFragments(epubPath string, fragments map[int][]string) error {
	if len(fragments) == 0 {
		return nil
	}

	zr, err := zip.OpenReader(epubPath)
	if err != nil {
		return fmt.Errorf("failed to open EPUB for patching: %w", err)
	}
	defer zr.Close()

	tmp, err := os.CreateTemp(filepath.Dir(epubPath), ".patch-*")
	if err != nil {
		return fmt.Errorf("failed to stage patched EPUB: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	zw := zip.NewWriter(tmp)
	patchErr := rewriteEntries(zr, zw, fragments)
	if err := zw.Close(); patchErr == nil {
		patchErr = err
	}
	if err := tmp.Close(); patchErr == nil {
		patchErr = err
	}
	if patchErr != nil {
		return fmt.Errorf("failed to patch EPUB: %w", patchErr)
	}

	if err := os.Rename(tmpName, epubPath); err != nil {
		return fmt.Errorf("failed to publish patched EPUB: %w", err)
	}
	return nil
}

func rewriteEntries(zr *zip.ReadCloser, zw *zip.Writer, fragments map[int][]string) error {
	for _, f := range zr.File {
		page, patchable := pageNumber(f.Name)
		pageFragments := fragments[page]
		if !patchable || len(pageFragments) == 0 {
			// Raw copy preserves compression and the stored mimetype entry.
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("entry %s: %w", f.Name, err)
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("entry %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("entry %s: %w", f.Name, err)
		}

		patched, err := insertBeforeBodyClose(string(content), pageFragments)
		if err != nil {
			return fmt.Errorf("entry %s: %w", f.Name, err)
		}

		out, err := zw.Create(f.Name)
		if err != nil {
			return fmt.Errorf("entry %s: %w", f.Name, err)
		}
		if _, err := out.Write([]byte(patched)); err != nil {
			return fmt.Errorf("entry %s: %w", f.Name, err)
		}
	}
	return nil
}

// pageNumber extracts the 1-indexed page number from a content entry name
// like EPUB/page_3.xhtml.
func pageNumber(entryName string) (int, bool) {
	var page int
	if _, err := fmt.Sscanf(entryName, contentDir+"/page_%d.xhtml", &page); err != nil {
		return 0, false
	}
	return page, page > 0
}

// insertBeforeBodyClose splices the fragments in front of the last closing
// body tag and verifies the patched document still parses as HTML.
func insertBeforeBodyClose(content string, fragments []string) (string, error) {
	idx := strings.LastIndex(content, "</body>")
	if idx < 0 {
		return "", fmt.Errorf("no closing body tag")
	}
	patched := content[:idx] + strings.Join(fragments, "\n") + content[idx:]
	if _, err := html.Parse(strings.NewReader(patched)); err != nil {
		return "", fmt.Errorf("patched document does not parse: %w", err)
	}
	return patched, nil
}
