// internal/layout/paper.go
package layout

import (
	"fmt"
	"strings"
)

// Paper widths accepted by the composer
const (
	Width58 = "58"
	Width80 = "80"
)

// PaperProfile describes the usable print area of one paper stock
type PaperProfile struct {
	Width   string `json:"width"`
	Columns int    `json:"columns"`
	Dots    int    `json:"dots"`
}

// Text-mode profiles (font A with reduced character spacing)
var (
	Paper58 = PaperProfile{Width: Width58, Columns: 29, Dots: 384}
	Paper80 = PaperProfile{Width: Width80, Columns: 44, Dots: 576}
)

// Raster-mode profiles, one monospace cell per 12 dots
var (
	Paper58Wide = PaperProfile{Width: Width58, Columns: 32, Dots: 384}
	Paper80Wide = PaperProfile{Width: Width80, Columns: 48, Dots: 576}
)

// ParsePaperWidth resolves "58"/"80" (an "mm" suffix is allowed) to the
// text-mode profile.
func ParsePaperWidth(width string) (PaperProfile, error) {
	w := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(width)), "mm")
	switch w {
	case Width58:
		return Paper58, nil
	case Width80:
		return Paper80, nil
	default:
		return PaperProfile{}, fmt.Errorf("unsupported paper width: %q", width)
	}
}

// Profile returns the profile for width, falling back to 80mm for anything
// unrecognised. wide selects the raster variant.
func Profile(width string, wide bool) PaperProfile {
	p, err := ParsePaperWidth(width)
	if err != nil {
		p = Paper80
	}
	if wide {
		return p.Wide()
	}
	return p
}

// Wide returns the raster variant of the same stock
func (p PaperProfile) Wide() PaperProfile {
	if p.Width == Width58 {
		return Paper58Wide
	}
	return Paper80Wide
}

// Narrow reports whether this is 58mm stock
func (p PaperProfile) Narrow() bool {
	return p.Width == Width58
}
