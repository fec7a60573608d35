package catalog

// streaming.go provides io.Reader wrappers applied to upload streams before
// CSV decoding:
//
//   - bomStripper: drops the UTF-8 BOM (0xEF 0xBB 0xBF) that Windows
//     spreadsheet exports commonly prepend
//   - utf8Checker: rejects streams containing invalid UTF-8 so a corrupt
//     upload fails as one ParseError instead of storing garbage values
//   - countingReader: tracks bytes consumed for logging
//
// All three process the stream in O(buffer) memory.

import (
	"bytes"
	"errors"
	"io"
	"unicode/utf8"
)

// errInvalidUTF8 is reported (wrapped in a ParseError) when the upload
// stream is not valid UTF-8.
var errInvalidUTF8 = errors.New("invalid UTF-8 encoding")

// bomStripper removes a leading UTF-8 BOM from the wrapped reader, if
// present. Bytes read past the BOM check are replayed untouched.
type bomStripper struct {
	r       io.Reader
	checked bool
}

func newBOMStripper(r io.Reader) *bomStripper {
	return &bomStripper{r: r}
}

func (b *bomStripper) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true

		var head [3]byte
		n, err := io.ReadFull(b.r, head[:])
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return 0, err
		}

		rest := head[:n]
		if n == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
			rest = nil
		}
		if len(rest) > 0 {
			b.r = io.MultiReader(bytes.NewReader(append([]byte(nil), rest...)), b.r)
		}
	}
	return b.r.Read(p)
}

// utf8Checker passes bytes through unchanged but fails the read when the
// stream contains invalid UTF-8. A multi-byte sequence split across reads
// is held back until its remaining bytes arrive; a sequence truncated by
// EOF is invalid.
type utf8Checker struct {
	r    io.Reader
	tail []byte // held-back bytes that may begin an incomplete rune
}

func newUTF8Checker(r io.Reader) *utf8Checker {
	return &utf8Checker{r: r, tail: make([]byte, 0, utf8.UTFMax)}
}

func (c *utf8Checker) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := copy(p, c.tail)
	c.tail = c.tail[:0]

	m, err := c.r.Read(p[n:])
	n += m
	if n == 0 {
		return 0, err
	}

	valid := n
	if err == nil {
		// Hold back a possibly incomplete rune at the chunk boundary.
		if k := incompleteTail(p[:n]); k > 0 {
			c.tail = append(c.tail, p[n-k:n]...)
			valid = n - k
		}
	}

	if !utf8.Valid(p[:valid]) {
		return 0, errInvalidUTF8
	}
	return valid, err
}

// incompleteTail returns how many bytes at the end of b form the start of
// a multi-byte sequence whose remaining bytes have not arrived yet.
func incompleteTail(b []byte) int {
	for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if c < 0x80 {
			return 0 // ASCII, nothing pending
		}
		if c >= 0xC0 {
			if runeWidth(c) > i {
				return i
			}
			return 0
		}
		// continuation byte, keep scanning backwards
	}
	return 0
}

// runeWidth returns the encoded length implied by a UTF-8 leading byte.
func runeWidth(b byte) int {
	switch {
	case b < 0xC0:
		return 1
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

// countingReader tracks bytes read from the wrapped reader.
type countingReader struct {
	r io.Reader
	n int64
}

func newCountingReader(r io.Reader) *countingReader {
	return &countingReader{r: r}
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Count returns the number of bytes consumed so far.
func (c *countingReader) Count() int64 { return c.n }
