// internal/escpos/builder.go
package escpos

// Builder accumulates an ESC/POS job
type Builder struct {
	buf []byte
	enc *Encoder
}

// NewBuilder creates a builder that encodes text with enc (UTF-8 when nil)
func NewBuilder(enc *Encoder) *Builder {
	if enc == nil {
		enc = UTF8()
	}
	return &Builder{
		buf: make([]byte, 0, 1024),
		enc: enc,
	}
}

// Raw appends command bytes as-is
func (b *Builder) Raw(cmd ...[]byte) *Builder {
	for _, c := range cmd {
		b.buf = append(b.buf, c...)
	}
	return b
}

// Text appends encoded text without a line feed
func (b *Builder) Text(s string) *Builder {
	b.buf = append(b.buf, b.enc.Encode(s)...)
	return b
}

// Line appends encoded text followed by LF
func (b *Builder) Line(s string) *Builder {
	return b.Text(s).Raw(Commands.LineFeed)
}

// Len returns the number of bytes accumulated so far
func (b *Builder) Len() int {
	return len(b.buf)
}

// Bytes returns an independent copy of the job
func (b *Builder) Bytes() []byte {
	return clone(b.buf)
}
