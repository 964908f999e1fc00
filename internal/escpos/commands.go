// internal/escpos/commands.go
package escpos

// Commands contains the ESC/POS command definitions used by the receipt
// printers. Values are shared, never mutate them; the helper functions below
// return fresh copies.
var Commands = struct {
	// Basic commands
	Initialize []byte

	// Text formatting
	BoldOn         []byte
	BoldOff        []byte
	UnderlineOn    []byte
	UnderlineOff   []byte
	ResetMode      []byte
	CharSpacing0   []byte
	FontA          []byte
	FontB          []byte
	SizeNormal     []byte
	SizeDoubleH    []byte
	SizeDoubleW    []byte
	SizeDoubleHW   []byte
	AlignLeft      []byte
	AlignCenter    []byte
	AlignRight     []byte
	SelectCodePage []byte // + page byte

	// Paper handling
	LineFeed  []byte
	FeedLines []byte // + line count byte

	// Cutting
	CutFull    []byte
	CutPartial []byte

	// Graphics
	RasterImage []byte // + m xL xH yL yH
}{
	Initialize: []byte{0x1B, 0x40}, // ESC @

	BoldOn:         []byte{0x1B, 0x45, 0x01}, // ESC E 1
	BoldOff:        []byte{0x1B, 0x45, 0x00}, // ESC E 0
	UnderlineOn:    []byte{0x1B, 0x2D, 0x01}, // ESC - 1
	UnderlineOff:   []byte{0x1B, 0x2D, 0x00}, // ESC - 0
	ResetMode:      []byte{0x1B, 0x21, 0x00}, // ESC ! 0
	CharSpacing0:   []byte{0x1B, 0x20, 0x00}, // ESC SP 0
	FontA:          []byte{0x1B, 0x4D, 0x00}, // ESC M 0
	FontB:          []byte{0x1B, 0x4D, 0x01}, // ESC M 1
	SizeNormal:     []byte{0x1D, 0x21, 0x00}, // GS ! 0
	SizeDoubleH:    []byte{0x1D, 0x21, 0x01}, // GS ! 1
	SizeDoubleW:    []byte{0x1D, 0x21, 0x10}, // GS ! 16
	SizeDoubleHW:   []byte{0x1D, 0x21, 0x11}, // GS ! 17
	AlignLeft:      []byte{0x1B, 0x61, 0x00}, // ESC a 0
	AlignCenter:    []byte{0x1B, 0x61, 0x01}, // ESC a 1
	AlignRight:     []byte{0x1B, 0x61, 0x02}, // ESC a 2
	SelectCodePage: []byte{0x1B, 0x74},       // ESC t + n

	LineFeed:  []byte{0x0A},       // LF
	FeedLines: []byte{0x1B, 0x64}, // ESC d + n

	CutFull:    []byte{0x1D, 0x56, 0x00}, // GS V 0
	CutPartial: []byte{0x1D, 0x56, 0x01}, // GS V 1

	RasterImage: []byte{0x1D, 0x76, 0x30}, // GS v 0
}

// Alignment is a horizontal justification mode
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// String returns the lower-case name used in logs and JSON
func (a Alignment) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

// CharSize selects a GS ! character size mode
type CharSize int

const (
	SizeNormal CharSize = iota
	SizeDoubleHeight
	SizeDoubleWidth
	SizeDoubleBoth
)

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Initialize resets the printer to its power-on state
func Initialize() []byte { return clone(Commands.Initialize) }

// CharSpacing sets the right-side character spacing in dots
func CharSpacing(n byte) []byte { return []byte{0x1B, 0x20, n} }

// Align selects justification
func Align(a Alignment) []byte {
	switch a {
	case AlignCenter:
		return clone(Commands.AlignCenter)
	case AlignRight:
		return clone(Commands.AlignRight)
	default:
		return clone(Commands.AlignLeft)
	}
}

// Bold toggles emphasized mode
func Bold(on bool) []byte {
	if on {
		return clone(Commands.BoldOn)
	}
	return clone(Commands.BoldOff)
}

// Size selects one of the character size modes
func Size(s CharSize) []byte {
	switch s {
	case SizeDoubleHeight:
		return clone(Commands.SizeDoubleH)
	case SizeDoubleWidth:
		return clone(Commands.SizeDoubleW)
	case SizeDoubleBoth:
		return clone(Commands.SizeDoubleHW)
	default:
		return clone(Commands.SizeNormal)
	}
}

// SmallFont switches between font A (false) and the condensed font B (true)
func SmallFont(on bool) []byte {
	if on {
		return clone(Commands.FontB)
	}
	return clone(Commands.FontA)
}

// LineFeed prints the buffer and advances one line
func LineFeed() []byte { return clone(Commands.LineFeed) }

// Feed prints the buffer and advances n lines
func Feed(n byte) []byte { return append(clone(Commands.FeedLines), n) }

// Cut performs a full cut
func Cut() []byte { return clone(Commands.CutFull) }

// CutPartial performs a partial cut
func CutPartial() []byte { return clone(Commands.CutPartial) }

// RasterHeader returns the GS v 0 header for a normal-density raster image of
// widthBytes bytes per row and height rows.
func RasterHeader(widthBytes, height int) []byte {
	h := clone(Commands.RasterImage)
	return append(h,
		0x00,
		byte(widthBytes&0xFF), byte((widthBytes>>8)&0xFF),
		byte(height&0xFF), byte((height>>8)&0xFF),
	)
}
