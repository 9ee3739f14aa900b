// Package encoding normalises uploaded text files to UTF-8. Bank exports
// arrive in whatever code page the bank's software uses.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sampleSize = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Fallback decodes anything that is neither UTF-8 nor recognised.
var Fallback encoding.Encoding = charmap.Windows1252

// charsets maps chardet names onto decoders. ISO-8859-1 is read as
// Windows-1252, its superset.
var charsets = map[string]encoding.Encoding{
	"ISO-8859-1":   charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"ISO-8859-15":  charmap.ISO8859_15,
	"ISO-8859-9":   charmap.ISO8859_9,
	"ISO-8859-2":   charmap.ISO8859_2,
}

// NewUTF8Reader returns a reader yielding r decoded to UTF-8.
//
// A byte order mark wins; otherwise valid UTF-8 passes through, then
// chardet's best guess is used, then Fallback.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, sampleSize)

	sample, err := br.Peek(sampleSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(sample, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, nil
	case bytes.HasPrefix(sample, bomUTF16LE):
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), nil
	case bytes.HasPrefix(sample, bomUTF16BE):
		return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()), nil
	}

	enc := Detect(sample, len(sample) == sampleSize)
	if enc == nil {
		return br, nil
	}

	return transform.NewReader(br, enc.NewDecoder()), nil
}

// Detect guesses the encoding of sample. It returns nil for UTF-8. When
// truncated is set the sample is a prefix of a longer input and may end in
// the middle of a rune.
func Detect(sample []byte, truncated bool) encoding.Encoding {
	if truncated {
		sample = trimPartialRune(sample)
	}

	if utf8.Valid(sample) {
		return nil
	}

	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil {
		return Fallback
	}

	if result.Charset == "UTF-8" {
		return nil
	}

	if enc, ok := charsets[result.Charset]; ok {
		return enc
	}

	return Fallback
}

// trimPartialRune drops an incomplete multi-byte rune from the end of buf.
func trimPartialRune(buf []byte) []byte {
	for i := len(buf) - 1; i >= 0 && i >= len(buf)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(buf[i]) {
			continue
		}

		if !utf8.FullRune(buf[i:]) {
			return buf[:i]
		}

		break
	}

	return buf
}
