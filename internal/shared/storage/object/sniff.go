package object

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// SniffContentType returns contentType if set, otherwise detects it from the
// first bytes of r. The returned reader replays the sniffed prefix.
func SniffContentType(contentType string, r io.Reader) (string, io.Reader, error) {
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType, r, nil
	}
	var sniff [3072]byte
	n, err := io.ReadFull(r, sniff[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read sniff: %w", err)
	}
	prefix := append([]byte(nil), sniff[:n]...)
	return mimetype.Detect(prefix).String(), io.MultiReader(bytes.NewReader(prefix), r), nil
}
