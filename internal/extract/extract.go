package extract

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"briefly-backend/internal/shared/apperr"
)

// ErrUnsupportedEncoding is returned when file bytes cannot be read as text.
var ErrUnsupportedEncoding = apperr.New(apperr.ErrUnsupportedEncoding, "Unsupported file encoding. Please upload a UTF-8 text, PDF or Word file.")

// Source is an uploaded or stored file: its declared name and raw bytes.
type Source struct {
	FileName string
	Data     []byte
}

var plainTextExts = map[string]struct{}{
	".txt":  {},
	".py":   {},
	".js":   {},
	".html": {},
	".css":  {},
	".json": {},
	".md":   {},
}

// Text converts src into plain text, branching on the file extension.
func Text(src Source) (string, error) {
	return FromReaderAt(src.FileName, bytes.NewReader(src.Data), int64(len(src.Data)))
}

// FromReaderAt converts size bytes of r into plain text. PDF and Word files
// are read in place; plain text is read fully since it becomes the prompt.
func FromReaderAt(fileName string, r io.ReaderAt, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch {
	case ext == ".pdf":
		text, err := extractPDF(r, size)
		if err != nil {
			return "", fmt.Errorf("%w: pdf %s: %v", ErrUnsupportedEncoding, fileName, err)
		}
		return text, nil
	case ext == ".doc" || ext == ".docx":
		text, err := extractDOCX(r, size)
		if err != nil {
			return "", fmt.Errorf("%w: word %s: %v", ErrUnsupportedEncoding, fileName, err)
		}
		return text, nil
	default:
		// Listed text extensions and unknown ones both decode as UTF-8.
		data, err := io.ReadAll(io.NewSectionReader(r, 0, size))
		if err != nil {
			return "", fmt.Errorf("read %s: %w", fileName, err)
		}
		return decodeUTF8(data)
	}
}

// IsPlainText reports whether fileName has one of the plain-text extensions.
func IsPlainText(fileName string) bool {
	_, ok := plainTextExts[strings.ToLower(filepath.Ext(fileName))]
	return ok
}

func decodeUTF8(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrUnsupportedEncoding
	}
	return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), nil
}

func extractPDF(ra io.ReaderAt, size int64) (string, error) {
	r, err := pdf.NewReader(ra, size)
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

func extractDOCX(ra io.ReaderAt, size int64) (string, error) {
	if size == 0 {
		return "", fmt.Errorf("empty document")
	}
	r, err := docx.ReadDocxFromMemory(ra, size)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return paragraphs(r.Editable().GetContent())
}

// paragraphs walks document XML and emits one line per <w:p>.
func paragraphs(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var lines []string
	var cur strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				cur.WriteString("\t")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				lines = append(lines, cur.String())
				cur.Reset()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return strings.Join(lines, "\n"), nil
}
