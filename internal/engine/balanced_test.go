package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pdf-epub-converter/internal/domain"
)

func TestBalancedEngine_ChaptersStayInPageOrder(t *testing.T) {
	const pages = 8

	texts := make([]string, pages)
	delays := make([]time.Duration, pages)
	for i := range texts {
		texts[i] = fmt.Sprintf("content of page %d", i+1)
		// Early pages finish last so workers complete out of order.
		delays[i] = time.Duration(pages-i) * 2 * time.Millisecond
	}
	opener := &fakeOpener{texts: texts, delays: delays}
	e := NewBalanced(opener, &fakeImages{}, &mockLogger{})
	out := filepath.Join(t.TempDir(), "out.epub")

	result := e.Convert(context.Background(), "in.pdf", out, &domain.DocumentAnalysis{}, domain.Metadata{Title: "Book", MaxWorkers: 4})

	if !result.Success {
		t.Fatalf("conversion failed: %s", result.Message)
	}
	for i := 0; i < pages; i++ {
		entry := readEpubEntry(t, out, fmt.Sprintf("EPUB/page_%d.xhtml", i+1))
		if !strings.Contains(entry, texts[i]) {
			t.Errorf("page %d holds wrong content", i+1)
		}
	}
}

func TestBalancedEngine_MetricsAndWorkerCount(t *testing.T) {
	opener := &fakeOpener{texts: []string{"a", "b"}}
	e := NewBalanced(opener, &fakeImages{}, &mockLogger{})
	out := filepath.Join(t.TempDir(), "out.epub")

	result := e.Convert(context.Background(), "in.pdf", out, &domain.DocumentAnalysis{}, domain.Metadata{MaxWorkers: 3})

	if !result.Success {
		t.Fatalf("conversion failed: %s", result.Message)
	}
	if result.Metrics.TextPreserved != 100 || result.Metrics.ImagesPreserved != 90 || result.Metrics.Overall != 85 {
		t.Errorf("unexpected metrics: %+v", result.Metrics)
	}
	if result.WorkersUsed != 3 {
		t.Errorf("expected 3 workers, got %d", result.WorkersUsed)
	}
	if result.Duration <= 0 {
		t.Error("expected a positive duration")
	}
}

func TestBalancedEngine_EmbedsImages(t *testing.T) {
	opener := &fakeOpener{texts: []string{"page one", "page two"}}
	images := &fakeImages{byPage: map[int][]domain.EmbeddedImage{
		2: {{Index: 0, Ext: "png", Data: []byte("raw png bytes")}},
	}}
	e := NewBalanced(opener, images, &mockLogger{})
	out := filepath.Join(t.TempDir(), "out.epub")

	result := e.Convert(context.Background(), "in.pdf", out, &domain.DocumentAnalysis{}, domain.Metadata{MaxWorkers: 2})

	if !result.Success {
		t.Fatalf("conversion failed: %s", result.Message)
	}
	if !epubHasEntry(t, out, "EPUB/images/image_p2_0.png") {
		t.Error("embedded image missing from archive")
	}
	page2 := readEpubEntry(t, out, "EPUB/page_2.xhtml")
	if !strings.Contains(page2, `src="images/image_p2_0.png"`) {
		t.Error("page 2 does not reference its image")
	}
}

func TestBalancedEngine_ImageExtractionFailureDegrades(t *testing.T) {
	opener := &fakeOpener{texts: []string{"page one"}}
	images := &fakeImages{err: fmt.Errorf("extractor broken")}
	e := NewBalanced(opener, images, &mockLogger{})
	out := filepath.Join(t.TempDir(), "out.epub")

	result := e.Convert(context.Background(), "in.pdf", out, &domain.DocumentAnalysis{}, domain.Metadata{MaxWorkers: 1})

	if !result.Success {
		t.Fatalf("expected text-only fallback, got: %s", result.Message)
	}
}

func TestBalancedEngine_WorkersOpenOwnHandles(t *testing.T) {
	opener := &fakeOpener{texts: []string{"a", "b", "c"}}
	e := NewBalanced(opener, &fakeImages{}, &mockLogger{})
	out := filepath.Join(t.TempDir(), "out.epub")

	result := e.Convert(context.Background(), "in.pdf", out, &domain.DocumentAnalysis{}, domain.Metadata{MaxWorkers: 2})

	if !result.Success {
		t.Fatalf("conversion failed: %s", result.Message)
	}
	// One open for the page count plus one per page worker.
	if opener.opens != 4 {
		t.Errorf("expected 4 opens, got %d", opener.opens)
	}
}
