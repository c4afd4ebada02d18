// Package epub writes reflowable EPUB 3 archives: a stored mimetype entry
// first, the META-INF container descriptor, a package document, a navigation
// document and one XHTML content document per source page, plus optional
// image resources. It also supports a post-write patch pass that rewrites
// individual content entries in place (see patch.go).
package epub

import (
	"archive/zip"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	mimetypeEntry   = "mimetype"
	mimetypeContent = "application/epub+zip"
	containerEntry  = "META-INF/container.xml"
	packageEntry    = "EPUB/package.opf"
	navEntry        = "EPUB/nav.xhtml"
	styleEntry      = "EPUB/style/default.css"
	contentDir      = "EPUB"
)

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="EPUB/package.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

const defaultCSS = `body { font-family: sans-serif; margin: 1em; }
h1 { text-align: center; }
p { margin: 0.5em 0; }
.image-container { text-align: center; margin: 1em 0; }
img { max-width: 100%; height: auto; }
table { border-collapse: collapse; margin: 1em auto; }
td, th { border: 1px solid #999; padding: 0.3em 0.6em; }
`

// Chapter is one content document in reading order.
type Chapter struct {
	Title    string
	FileName string // relative to the EPUB content directory
	Body     string // inner body HTML
}

// Resource is an auxiliary file (an image) referenced by chapters.
type Resource struct {
	FileName  string // relative to the EPUB content directory
	MediaType string
	Data      []byte
}

// Writer accumulates chapters and resources and serializes them into an
// EPUB 3 archive. It is not safe for concurrent use; engines finish their
// fan-in reordering before touching the writer.
type Writer struct {
	title     string
	author    string
	language  string
	chapters  []Chapter
	resources []Resource
}

// NewWriter creates a writer for a book with the given title and language.
func NewWriter(title, language string) *Writer {
	if language == "" {
		language = "en"
	}
	return &Writer{title: title, language: language}
}

// SetAuthor sets the dc:creator entry.
func (w *Writer) SetAuthor(author string) {
	w.author = author
}

// AddChapter appends a chapter and returns its archive entry name. Chapter
// files are numbered in insertion order as page_1.xhtml, page_2.xhtml, ...
func (w *Writer) AddChapter(title, body string) string {
	fileName := fmt.Sprintf("page_%d.xhtml", len(w.chapters)+1)
	w.chapters = append(w.chapters, Chapter{Title: title, FileName: fileName, Body: body})
	return contentDir + "/" + fileName
}

// AddImage registers an image resource under images/<name>.
func (w *Writer) AddImage(name, mediaType string, data []byte) string {
	fileName := "images/" + name
	w.resources = append(w.resources, Resource{FileName: fileName, MediaType: mediaType, Data: data})
	return fileName
}

// ChapterCount returns the number of chapters added so far.
func (w *Writer) ChapterCount() int {
	return len(w.chapters)
}

// WriteFile serializes the book to path. The archive is staged in a temp
// file and published by rename so a failed write never leaves a truncated
// EPUB behind.
func (w *Writer) WriteFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".epub-*")
	if err != nil {
		return fmt.Errorf("failed to stage EPUB: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	zw := zip.NewWriter(tmp)
	writeErr := w.writeArchive(zw)
	if err := zw.Close(); writeErr == nil {
		writeErr = err
	}
	if err := tmp.Close(); writeErr == nil {
		writeErr = err
	}
	if writeErr != nil {
		return fmt.Errorf("failed to write EPUB: %w", writeErr)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to publish EPUB: %w", err)
	}
	return nil
}

func (w *Writer) writeArchive(zw *zip.Writer) error {
	// The mimetype entry must be first and stored uncompressed.
	mt, err := zw.CreateHeader(&zip.FileHeader{Name: mimetypeEntry, Method: zip.Store})
	if err != nil {
		return err
	}
	if _, err := mt.Write([]byte(mimetypeContent)); err != nil {
		return err
	}

	entries := []struct {
		name string
		data []byte
	}{
		{containerEntry, []byte(containerXML)},
		{packageEntry, w.packageOPF()},
		{navEntry, w.navDocument()},
		{styleEntry, []byte(defaultCSS)},
	}
	for _, ch := range w.chapters {
		entries = append(entries, struct {
			name string
			data []byte
		}{contentDir + "/" + ch.FileName, chapterXHTML(ch)})
	}
	for _, res := range w.resources {
		entries = append(entries, struct {
			name string
			data []byte
		}{contentDir + "/" + res.FileName, res.Data})
	}

	for _, entry := range entries {
		f, err := zw.Create(entry.name)
		if err != nil {
			return err
		}
		if _, err := f.Write(entry.data); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) packageOPF() []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	b.WriteString(`<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="book-id">` + "\n")
	b.WriteString("  <metadata xmlns:dc=\"http://purl.org/dc/elements/1.1/\">\n")
	fmt.Fprintf(&b, "    <dc:identifier id=\"book-id\">urn:uuid:%s</dc:identifier>\n", uuid.NewString())
	fmt.Fprintf(&b, "    <dc:title>%s</dc:title>\n", html.EscapeString(w.title))
	fmt.Fprintf(&b, "    <dc:language>%s</dc:language>\n", html.EscapeString(w.language))
	if w.author != "" {
		fmt.Fprintf(&b, "    <dc:creator>%s</dc:creator>\n", html.EscapeString(w.author))
	}
	fmt.Fprintf(&b, "    <meta property=\"dcterms:modified\">%s</meta>\n", time.Now().UTC().Format("2006-01-02T15:04:05Z"))
	b.WriteString("  </metadata>\n")

	b.WriteString("  <manifest>\n")
	b.WriteString("    <item id=\"nav\" href=\"nav.xhtml\" media-type=\"application/xhtml+xml\" properties=\"nav\"/>\n")
	b.WriteString("    <item id=\"style-default\" href=\"style/default.css\" media-type=\"text/css\"/>\n")
	for i, ch := range w.chapters {
		fmt.Fprintf(&b, "    <item id=\"page-%d\" href=\"%s\" media-type=\"application/xhtml+xml\"/>\n", i+1, ch.FileName)
	}
	for i, res := range w.resources {
		fmt.Fprintf(&b, "    <item id=\"img-%d\" href=\"%s\" media-type=\"%s\"/>\n", i+1, res.FileName, res.MediaType)
	}
	b.WriteString("  </manifest>\n")

	b.WriteString("  <spine>\n")
	for i := range w.chapters {
		fmt.Fprintf(&b, "    <itemref idref=\"page-%d\"/>\n", i+1)
	}
	b.WriteString("  </spine>\n")
	b.WriteString("</package>\n")
	return []byte(b.String())
}

func (w *Writer) navDocument() []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	b.WriteString(`<!DOCTYPE html>` + "\n")
	b.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">` + "\n")
	fmt.Fprintf(&b, "<head><title>%s</title></head>\n", html.EscapeString(w.title))
	b.WriteString("<body>\n<nav epub:type=\"toc\">\n<ol>\n")
	for _, ch := range w.chapters {
		fmt.Fprintf(&b, "<li><a href=\"%s\">%s</a></li>\n", ch.FileName, html.EscapeString(ch.Title))
	}
	b.WriteString("</ol>\n</nav>\n</body>\n</html>\n")
	return []byte(b.String())
}

func chapterXHTML(ch Chapter) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	b.WriteString(`<!DOCTYPE html>` + "\n")
	b.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml">` + "\n")
	fmt.Fprintf(&b, "<head><title>%s</title><link rel=\"stylesheet\" type=\"text/css\" href=\"style/default.css\"/></head>\n", html.EscapeString(ch.Title))
	b.WriteString("<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(ch.Title))
	b.WriteString(ch.Body)
	b.WriteString("\n</body>\n</html>\n")
	return []byte(b.String())
}
