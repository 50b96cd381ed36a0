package statement

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// DecodeLatin1 converts ISO-8859-1 statement bytes to a UTF-8 string.
// Brazilian banks still export OFX in Latin-1, so accented memos would be
// mangled if the bytes were read as UTF-8.
func DecodeLatin1(raw []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode statement: %w", err)
	}
	return string(out), nil
}
