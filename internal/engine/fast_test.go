package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"pdf-epub-converter/internal/domain"
)

func TestFastEngine_OneChapterPerPage(t *testing.T) {
	opener := &fakeOpener{texts: []string{"first page", "second page", "third page"}}
	e := NewFast(opener, &mockLogger{})
	out := filepath.Join(t.TempDir(), "out.epub")

	result := e.Convert(context.Background(), "in.pdf", out, &domain.DocumentAnalysis{}, domain.Metadata{Title: "Book"})

	if !result.Success {
		t.Fatalf("conversion failed: %s", result.Message)
	}
	if result.Metrics.TextPreserved != 100 || result.Metrics.ImagesPreserved != 0 || result.Metrics.Overall != 70 {
		t.Errorf("unexpected metrics: %+v", result.Metrics)
	}

	for i, text := range []string{"first page", "second page", "third page"} {
		entry := readEpubEntry(t, out, fmt.Sprintf("EPUB/page_%d.xhtml", i+1))
		if !strings.Contains(entry, text) {
			t.Errorf("page %d missing text %q", i+1, text)
		}
	}
	if epubHasEntry(t, out, "EPUB/page_4.xhtml") {
		t.Error("unexpected extra chapter")
	}
}

func TestFastEngine_OpenFailure(t *testing.T) {
	e := NewFast(&fakeOpener{err: errors.New("unreadable")}, &mockLogger{})

	result := e.Convert(context.Background(), "in.pdf", filepath.Join(t.TempDir(), "out.epub"), &domain.DocumentAnalysis{}, domain.Metadata{})

	if result.Success {
		t.Error("expected failure when the document cannot be opened")
	}
	if result.Transient {
		t.Error("open failures are not transient")
	}
}

func TestFastEngine_Cancellation(t *testing.T) {
	opener := &fakeOpener{texts: []string{"one", "two"}}
	e := NewFast(opener, &mockLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := e.Convert(ctx, "in.pdf", filepath.Join(t.TempDir(), "out.epub"), &domain.DocumentAnalysis{}, domain.Metadata{})

	if result.Success {
		t.Error("expected failure on cancelled context")
	}
}
