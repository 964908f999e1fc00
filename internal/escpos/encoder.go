// internal/escpos/encoder.go
package escpos

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Charset names accepted by NewEncoder
const (
	CharsetUTF8        = "utf8"
	CharsetCP437       = "cp437"
	CharsetCP858       = "cp858"
	CharsetWindows1252 = "windows1252"
)

// code page numbers for ESC t n
var codePages = map[string]struct {
	page byte
	enc  *charmap.Charmap
}{
	CharsetCP437:       {page: 0x00, enc: charmap.CodePage437},
	CharsetCP858:       {page: 0x13, enc: charmap.CodePage858},
	CharsetWindows1252: {page: 0x10, enc: charmap.Windows1252},
}

// Encoder maps text to the byte form the printer expects
type Encoder struct {
	charset string
	page    byte
	cm      *charmap.Charmap
}

// NewEncoder creates an encoder for the given charset. An empty name selects UTF-8.
func NewEncoder(charset string) (*Encoder, error) {
	name := strings.ToLower(strings.TrimSpace(charset))
	if name == "" || name == "utf-8" {
		name = CharsetUTF8
	}
	if name == CharsetUTF8 {
		return &Encoder{charset: name}, nil
	}

	cp, ok := codePages[name]
	if !ok {
		return nil, fmt.Errorf("unsupported charset: %s", charset)
	}

	return &Encoder{
		charset: name,
		page:    cp.page,
		cm:      cp.enc,
	}, nil
}

// UTF8 returns the default encoder
func UTF8() *Encoder {
	return &Encoder{charset: CharsetUTF8}
}

// Charset returns the configured charset name
func (e *Encoder) Charset() string {
	return e.charset
}

// Setup returns the commands that put the printer in this encoder's code
// page. It is empty for UTF-8.
func (e *Encoder) Setup() []byte {
	if e.cm == nil {
		return []byte{}
	}
	return append(clone(Commands.SelectCodePage), e.page)
}

// Encode converts text to printer bytes. Runes the code page cannot
// represent become '?'. Empty text yields a zero-length slice.
func (e *Encoder) Encode(text string) []byte {
	if text == "" {
		return []byte{}
	}
	if e.cm == nil {
		return []byte(text)
	}

	out := make([]byte, 0, len(text))
	for _, r := range text {
		if b, ok := e.cm.EncodeRune(r); ok {
			out = append(out, b)
			continue
		}
		out = append(out, '?')
	}
	return out
}

// Text converts text to UTF-8 bytes. Empty text yields a zero-length slice.
func Text(text string) []byte {
	if text == "" {
		return []byte{}
	}
	return []byte(text)
}

// BytesToHex renders a buffer as lowercase hex
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}
