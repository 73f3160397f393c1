package subtitle

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// ReadFile loads a subtitle file and decodes it to UTF-8, trying UTF-8
// first and falling back to GBK and then UTF-16 (either byte order).
// Scraped subtitle packs mix all three in practice.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read subtitle file: %w", err)
	}
	return Decode(data)
}

// Decode converts raw subtitle bytes to a UTF-8 string.
func Decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoders := []encoding.Encoding{
		simplifiedchinese.GBK,
		unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
		unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	}
	for _, enc := range decoders {
		decoded, decodeErr := enc.NewDecoder().Bytes(data)
		// Decoders substitute U+FFFD instead of failing, so treat any
		// replacement rune as a wrong-encoding signal and try the next one.
		if decodeErr == nil && utf8.Valid(decoded) && !bytes.ContainsRune(decoded, utf8.RuneError) {
			return string(decoded), nil
		}
	}
	return "", fmt.Errorf("%w: undecodable subtitle encoding", ErrParse)
}
