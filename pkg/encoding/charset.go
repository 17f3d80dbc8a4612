// Package encoding converts mesh text between legacy charsets and UTF-8.
// Exporters for CJK locales often write object and material names in the
// system code page.
package encoding

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// ErrUnknownCharset is returned for charset names without a decoder.
var ErrUnknownCharset = errors.New("unknown charset")

// charsets maps accepted names to encodings. A nil encoding means UTF-8,
// which needs no transformation.
var charsets = map[string]encoding.Encoding{
	"utf-8":        nil,
	"utf8":         nil,
	"euc-kr":       korean.EUCKR,
	"shift-jis":    japanese.ShiftJIS,
	"sjis":         japanese.ShiftJIS,
	"gbk":          simplifiedchinese.GBK,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
}

// Lookup returns the encoding for a charset name. Names are case-insensitive
// and the empty name means UTF-8. The returned encoding is nil for UTF-8.
func Lookup(name string) (encoding.Encoding, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, nil
	}
	enc, ok := charsets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharset, name)
	}
	return enc, nil
}

// Supported returns the accepted charset names, sorted.
func Supported() []string {
	names := make([]string, 0, len(charsets))
	for name := range charsets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToUTF8 decodes data from the named charset.
func ToUTF8(charset string, data []byte) ([]byte, error) {
	enc, err := Lookup(charset)
	if err != nil || enc == nil {
		return data, err
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", charset, err)
	}
	return out, nil
}

// FromUTF8 encodes UTF-8 data into the named charset. Characters the charset
// cannot represent are an error.
func FromUTF8(charset string, data []byte) ([]byte, error) {
	enc, err := Lookup(charset)
	if err != nil || enc == nil {
		return data, err
	}
	out, _, err := transform.Bytes(enc.NewEncoder(), data)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", charset, err)
	}
	return out, nil
}
