// internal/layout/desc.go
package layout

import "strings"

// DefaultDescPerLine is how many comma-separated parts share a line
const DefaultDescPerLine = 2

// DescOptions controls descriptor formatting
type DescOptions struct {
	// PerLine groups comma-separated parts; zero means DefaultDescPerLine
	PerLine int
	// KeepOverflow keeps every wrapped segment of a long plain descriptor
	// instead of only the first one
	KeepOverflow bool
}

// DescLines formats a ticket descriptor for a cell of the given width.
// "12,34,56" becomes ["12 , 34", "56"]. A plain descriptor longer than width
// is wrapped and, unless KeepOverflow is set, cut to its first segment.
func DescLines(desc string, width int, opts DescOptions) []string {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return []string{""}
	}

	perLine := opts.PerLine
	if perLine <= 0 {
		perLine = DefaultDescPerLine
	}

	if strings.Contains(desc, ",") {
		var parts []string
		for _, p := range strings.Split(desc, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			return []string{""}
		}

		lines := make([]string, 0, (len(parts)+perLine-1)/perLine)
		for i := 0; i < len(parts); i += perLine {
			end := i + perLine
			if end > len(parts) {
				end = len(parts)
			}
			lines = append(lines, strings.Join(parts[i:end], " , "))
		}
		return lines
	}

	wrapped := WrapText(desc, width)
	if opts.KeepOverflow {
		return wrapped
	}
	return wrapped[:1]
}
