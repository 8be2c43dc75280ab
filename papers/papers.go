// Package papers handles intake of uploaded source documents. Uploaded
// PDFs wait in a queue until the upstream extraction pipeline processes
// them; this package only pulls out the metadata the queue displays.
package papers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// FileInfo is the metadata extracted from an uploaded paper.
type FileInfo struct {
	Filename    string `json:"filename"`
	Title       string `json:"title,omitempty"`
	Pages       int    `json:"pages"`
	ContentHash string `json:"content_hash"`
}

// FromPDF reads an uploaded PDF's metadata: a title guessed from the
// first page text, the page count, and a content hash for upload dedup.
// name is the display filename; pass "" to use the path's basename.
// Uploads read from temp files carry the client's filename here instead.
// Scan-only PDFs with no extractable text fall back to the filename stem
// as title; only an unreadable file fails.
func FromPDF(path, name string) (*FileInfo, error) {
	hash, err := fileHash(path)
	if err != nil {
		return nil, fmt.Errorf("hashing file: %w", err)
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	filename := name
	if filename == "" {
		filename = filepath.Base(path)
	}
	info := &FileInfo{
		Filename:    filename,
		Pages:       reader.NumPage(),
		ContentHash: hash,
	}

	if info.Title = firstPageTitle(reader); info.Title == "" {
		info.Title = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	return info, nil
}

// titleScanLines bounds how far into the first page the title search
// looks; past that the text is body, not front matter.
const titleScanLines = 12

// firstPageTitle guesses the paper title from the first page: the longest
// of the early non-empty lines. Headers and journal banners tend to be
// short, titles tend to be the longest line near the top.
func firstPageTitle(reader *pdf.Reader) string {
	if reader.NumPage() == 0 {
		return ""
	}
	page := reader.Page(1)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}

	var best string
	scanned := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if scanned++; scanned > titleScanLines {
			break
		}
		if len(line) > len(best) {
			best = line
		}
	}
	// A one-word "title" is a header fragment, not a title.
	if !strings.Contains(best, " ") {
		return ""
	}
	return best
}

// fileHash computes the SHA-256 hash of a file's content.
func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
