package ingestion

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding names the character set an upload was decoded with.
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingLatin1      Encoding = "iso-8859-1"
	EncodingWindows1252 Encoding = "windows-1252"
)

// utf8BOM is stripped from decoded UTF-8 text.
const utf8BOM = "\ufeff"

// DecodeText decodes uploaded bytes as UTF-8, falling back to ISO-8859-1.
// The fallback is only taken when the bytes are not valid UTF-8. Bytes in
// 0x80-0x9F are read as Windows-1252 punctuation, which is what spreadsheet
// exports put there. Text with NUL or other C0 controls besides whitespace is
// treated as binary and rejected.
func DecodeText(data []byte) (string, Encoding, error) {
	if utf8.Valid(data) {
		return strings.TrimPrefix(string(data), utf8BOM), EncodingUTF8, nil
	}

	if hasControlBytes(data) {
		return "", "", ErrUnsupportedEncoding
	}

	cm, enc := charmap.ISO8859_1, EncodingLatin1
	if hasC1Bytes(data) {
		cm, enc = charmap.Windows1252, EncodingWindows1252
	}

	decoded, err := cm.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", ErrUnsupportedEncoding
	}
	return string(decoded), enc, nil
}

func hasControlBytes(data []byte) bool {
	for _, b := range data {
		switch {
		case b == '\t', b == '\n', b == '\r', b == '\f':
		case b < 0x20:
			return true
		}
	}
	return false
}

func hasC1Bytes(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 && b <= 0x9f {
			return true
		}
	}
	return false
}
