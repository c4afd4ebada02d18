package epub

import (
	"archive/zip"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func readEntry(t *testing.T, zr *zip.ReadCloser, name string) string {
	t.Helper()
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("failed to open entry %s: %v", name, err)
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("failed to read entry %s: %v", name, err)
			}
			return string(data)
		}
	}
	t.Fatalf("entry %s not found", name)
	return ""
}

func writeTestBook(t *testing.T, w *Writer) (string, *zip.ReadCloser) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.epub")
	if err := w.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("failed to open written EPUB: %v", err)
	}
	t.Cleanup(func() { zr.Close() })
	return path, zr
}

func TestWriter_MimetypeFirstAndStored(t *testing.T) {
	w := NewWriter("Test Book", "en")
	w.AddChapter("Page 1", "<p>hello</p>")

	_, zr := writeTestBook(t, w)

	if len(zr.File) == 0 {
		t.Fatal("empty archive")
	}
	first := zr.File[0]
	if first.Name != "mimetype" {
		t.Errorf("expected mimetype as first entry, got %s", first.Name)
	}
	if first.Method != zip.Store {
		t.Errorf("expected mimetype stored uncompressed, got method %d", first.Method)
	}
	if content := readEntry(t, zr, "mimetype"); content != "application/epub+zip" {
		t.Errorf("unexpected mimetype content: %q", content)
	}
}

func TestWriter_RequiredEntriesPresent(t *testing.T) {
	w := NewWriter("Test Book", "en")
	w.AddChapter("Page 1", "<p>one</p>")
	w.AddChapter("Page 2", "<p>two</p>")

	_, zr := writeTestBook(t, w)

	for _, name := range []string{
		"META-INF/container.xml",
		"EPUB/package.opf",
		"EPUB/nav.xhtml",
		"EPUB/style/default.css",
		"EPUB/page_1.xhtml",
		"EPUB/page_2.xhtml",
	} {
		readEntry(t, zr, name)
	}
}

func TestWriter_ChapterNumberingFollowsInsertionOrder(t *testing.T) {
	w := NewWriter("Test Book", "en")
	first := w.AddChapter("Intro", "<p>intro</p>")
	second := w.AddChapter("Body", "<p>body</p>")

	if first != "EPUB/page_1.xhtml" || second != "EPUB/page_2.xhtml" {
		t.Errorf("unexpected entry names: %s, %s", first, second)
	}
	if w.ChapterCount() != 2 {
		t.Errorf("expected 2 chapters, got %d", w.ChapterCount())
	}
}

func TestWriter_PackageMetadata(t *testing.T) {
	w := NewWriter("Mi Libro", "es")
	w.SetAuthor("Ana <Author>")
	w.AddChapter("Page 1", "<p>hola</p>")
	w.AddImage("image_p1_0.png", "image/png", []byte{137, 80, 78, 71})

	_, zr := writeTestBook(t, w)

	opf := readEntry(t, zr, "EPUB/package.opf")
	for _, want := range []string{
		"<dc:title>Mi Libro</dc:title>",
		"<dc:language>es</dc:language>",
		"<dc:creator>Ana &lt;Author&gt;</dc:creator>",
		`href="images/image_p1_0.png" media-type="image/png"`,
		`<itemref idref="page-1"/>`,
	} {
		if !strings.Contains(opf, want) {
			t.Errorf("package.opf missing %q", want)
		}
	}
}

func TestWriter_NavListsChapters(t *testing.T) {
	w := NewWriter("Test Book", "en")
	w.AddChapter("Page 1", "<p>one</p>")
	w.AddChapter("Page 2", "<p>two</p>")

	_, zr := writeTestBook(t, w)

	nav := readEntry(t, zr, "EPUB/nav.xhtml")
	if !strings.Contains(nav, `<a href="page_1.xhtml">Page 1</a>`) ||
		!strings.Contains(nav, `<a href="page_2.xhtml">Page 2</a>`) {
		t.Errorf("nav document missing chapter links:\n%s", nav)
	}
}

func TestWriter_DefaultLanguage(t *testing.T) {
	w := NewWriter("Untitled", "")
	w.AddChapter("Page 1", "<p>text</p>")

	_, zr := writeTestBook(t, w)

	opf := readEntry(t, zr, "EPUB/package.opf")
	if !strings.Contains(opf, "<dc:language>en</dc:language>") {
		t.Error("expected language to default to en")
	}
}
