package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeText_UTF8(t *testing.T) {
	text, enc, err := DecodeText([]byte("Name\nSociété Générale\n"))
	require.NoError(t, err)
	assert.Equal(t, EncodingUTF8, enc)
	assert.Equal(t, "Name\nSociété Générale\n", text)
}

func TestDecodeText_UTF8NeverFallsBack(t *testing.T) {
	// Valid UTF-8 that would decode differently as Latin-1.
	data := []byte("Caf\xc3\xa9")
	text, enc, err := DecodeText(data)
	require.NoError(t, err)
	assert.Equal(t, EncodingUTF8, enc)
	assert.Equal(t, "Café", text)
}

func TestDecodeText_StripsBOM(t *testing.T) {
	text, enc, err := DecodeText([]byte("\xef\xbb\xbfName\nAcme"))
	require.NoError(t, err)
	assert.Equal(t, EncodingUTF8, enc)
	assert.Equal(t, "Name\nAcme", text)
}

func TestDecodeText_Latin1Fallback(t *testing.T) {
	// 0xE9 is "é" in ISO-8859-1 and an invalid UTF-8 sequence on its own.
	data := []byte("Name\nCaf\xe9 Holdings\n")
	text, enc, err := DecodeText(data)
	require.NoError(t, err)
	assert.Equal(t, EncodingLatin1, enc)
	assert.Equal(t, "Name\nCafé Holdings\n", text)
}

func TestDecodeText_Windows1252Punctuation(t *testing.T) {
	// 0x96 is an en dash and 0x92 a right single quote in Windows-1252.
	data := []byte("Name\nAT&T \x96 Mobility\nMcDonald\x92s\n")
	text, enc, err := DecodeText(data)
	require.NoError(t, err)
	assert.Equal(t, EncodingWindows1252, enc)
	assert.Equal(t, "Name\nAT&T \u2013 Mobility\nMcDonald\u2019s\n", text)
}

func TestDecodeText_Windows1252Euro(t *testing.T) {
	text, _, err := DecodeText([]byte("Name\n\x80 Capital \xe9\n"))
	require.NoError(t, err)
	assert.Equal(t, "Name\n\u20ac Capital \u00e9\n", text)
}

func TestDecodeText_InvalidInBoth(t *testing.T) {
	data := []byte{'N', 'a', 'm', 'e', 0x81, 0x9d, 0x00}
	text, enc, err := DecodeText(data)
	assert.ErrorIs(t, err, ErrUnsupportedEncoding)
	assert.Empty(t, text)
	assert.Empty(t, enc)
}

func TestDecodeText_Empty(t *testing.T) {
	text, enc, err := DecodeText(nil)
	require.NoError(t, err)
	assert.Equal(t, EncodingUTF8, enc)
	assert.Empty(t, text)
}

func TestDecodeText_RejectsControlBytes(t *testing.T) {
	for _, data := range [][]byte{
		{'A', 'c', 'm', 'e', 0xe9, 0x00},
		{0x01, 0x02, 0xff},
		{'x', 0x1b, 0xe9},
	} {
		_, _, err := DecodeText(data)
		assert.ErrorIs(t, err, ErrUnsupportedEncoding, "%q", data)
	}
}
