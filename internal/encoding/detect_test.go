package encoding_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/MrJamesThe3rd/ledgerly/internal/encoding"
)

func utf16(t *testing.T, e unicode.Endianness, s string) []byte {
	t.Helper()

	b, err := unicode.UTF16(e, unicode.UseBOM).NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)

	return b
}

func TestNewUTF8Reader(t *testing.T) {
	const text = "Descrição;Montante\nCafé;12,50\nOperação;-3,00\n"

	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "UTF8Passthrough", input: []byte(text), want: text},
		{
			// ç = 0xE7, ã = 0xE3 in Windows-1252.
			name:  "Latin1",
			input: []byte{'D', 'e', 's', 'c', 'r', 'i', 0xE7, 0xE3, 'o', ';', 'M', 'o', 'n', 't', 'a', 'n', 't', 'e', '\n'},
			want:  "Descrição;Montante\n",
		},
		{name: "UTF8BOMStripped", input: append([]byte{0xEF, 0xBB, 0xBF}, text...), want: text},
		{name: "UTF16LE", input: utf16(t, unicode.LittleEndian, text), want: text},
		{name: "UTF16BE", input: utf16(t, unicode.BigEndian, text), want: text},
		{name: "Empty", input: nil, want: ""},
		{
			// The sample window ends between the two bytes of "ç".
			name:  "RuneSplitAtSampleBoundary",
			input: []byte(strings.Repeat("a", 4095) + "ção\n"),
			want:  strings.Repeat("a", 4095) + "ção\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := encoding.NewUTF8Reader(bytes.NewReader(tt.input))
			require.NoError(t, err)

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestDetect(t *testing.T) {
	t.Run("UTF8IsNil", func(t *testing.T) {
		assert.Nil(t, encoding.Detect([]byte("Operação"), false))
	})

	t.Run("InvalidTailNotTrimmedWhenComplete", func(t *testing.T) {
		assert.NotNil(t, encoding.Detect([]byte("Opera\xc3"), false))
	})

	t.Run("PartialRuneTrimmedWhenTruncated", func(t *testing.T) {
		assert.Nil(t, encoding.Detect([]byte("Opera\xc3"), true))
	})

	t.Run("StrayContinuationByteNotTrimmed", func(t *testing.T) {
		assert.NotNil(t, encoding.Detect([]byte("Caf\xe9 12,50 \xa7"), true))
	})

	t.Run("FallbackIsWindows1252", func(t *testing.T) {
		assert.Equal(t, charmap.Windows1252, encoding.Fallback)
	})
}
