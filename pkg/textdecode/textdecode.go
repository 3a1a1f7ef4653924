// Package textdecode turns raw HTTP payloads into readable text when the
// server misreports (or does not report) compression and charset.
package textdecode

import (
	"bytes"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// Fallback is the last candidate of every decode, it maps every byte to a
// rune so it always succeeds.
const Fallback = "latin1"

// Candidates tried after the declared and detected encodings, in order.
var Candidates = []string{"utf-8", "gb18030", "gbk", "gb2312"}

// second bytes that form a valid zlib header together with 0x78
var zlibHeaders = [...]byte{0x01, 0x5e, 0x9c, 0xda}

// Decompress inflates gzip or zlib payloads identified by their magic bytes.
// Anything else, or anything that fails to inflate, is returned unchanged.
func Decompress(raw []byte) []byte {
	if len(raw) < 2 {
		return raw
	}

	var reader io.Reader
	var err error
	switch {
	case raw[0] == 0x1f && raw[1] == 0x8b:
		reader, err = gzip.NewReader(bytes.NewReader(raw))
	case raw[0] == 0x78 && bytes.IndexByte(zlibHeaders[:], raw[1]) >= 0:
		reader, err = zlib.NewReader(bytes.NewReader(raw))
	default:
		return raw
	}
	if err != nil {
		return raw
	}

	out, err := io.ReadAll(reader)
	if err != nil {
		return raw
	}
	return out
}

// CharsetFromContentType returns the charset parameter of a Content-Type
// header value or "" if there is none.
func CharsetFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}

// Detect guesses the charset of raw from a BOM or a <meta> declaration. It
// returns "" when it has nothing better than the windows-1252 default.
func Detect(raw []byte) string {
	_, name, certain := charset.DetermineEncoding(raw, "")
	if !certain && name == "windows-1252" {
		return ""
	}
	return name
}

func lookup(name string) (encoding.Encoding, bool) {
	switch name {
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1", "l1":
		return charmap.ISO8859_1, true
	}
	enc, err := htmlindex.Get(name)
	if err != nil || enc == nil {
		return nil, false
	}
	return enc, true
}

// decodeStrict decodes raw and reports whether it did so without replacing
// any byte sequence.
func decodeStrict(enc encoding.Encoding, raw []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	replacement := string(utf8.RuneError)
	if bytes.Count(out, []byte(replacement)) != bytes.Count(raw, []byte(replacement)) {
		return "", false
	}
	return string(out), true
}

// Decode decompresses raw if it carries a gzip/zlib header, then decodes it
// with the first candidate encoding that reads it cleanly. Candidates are
// tried in this order: `hints` (e.g. the declared transport charset), the
// detected charset, Candidates, Fallback.
//
// Decode never fails: it always returns a string and the non-empty name of
// the encoding that produced it.
func Decode(raw []byte, hints ...string) (text string, encodingUsed string) {
	raw = Decompress(raw)

	names := make([]string, 0, len(hints)+len(Candidates)+1)
	names = append(names, hints...)
	names = append(names, Detect(raw))
	names = append(names, Candidates...)

	seen := map[string]struct{}{}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, tried := seen[name]; tried {
			continue
		}
		seen[name] = struct{}{}

		enc, ok := lookup(name)
		if !ok {
			continue
		}
		if text, ok := decodeStrict(enc, raw); ok {
			return text, name
		}
	}

	text, _ = charmap.ISO8859_1.NewDecoder().String(string(raw))
	return text, Fallback
}
