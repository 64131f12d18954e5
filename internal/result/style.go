package result

import (
	"fmt"
	"strings"

	"github.com/roach88/pivotql/internal/cellset"
)

// CSS renders cell style properties as CSS declarations, in the order
// background, colour, weight, style, decoration, family, size. A nil or
// empty property set renders as "".
func CSS(p *cellset.CellProperties) string {
	if p == nil {
		return ""
	}
	var decls []string
	if p.BackColor != nil {
		decls = append(decls, "background-color: "+color(*p.BackColor))
	}
	if p.ForeColor != nil {
		decls = append(decls, "color: "+color(*p.ForeColor))
	}
	if p.FontFlags != nil {
		flags := *p.FontFlags
		if flags&cellset.FontBold != 0 {
			decls = append(decls, "font-weight: bold")
		}
		if flags&cellset.FontItalic != 0 {
			decls = append(decls, "font-style: italic")
		}
		var lines []string
		if flags&cellset.FontUnderline != 0 {
			lines = append(lines, "underline")
		}
		if flags&cellset.FontStrikeout != 0 {
			lines = append(lines, "line-through")
		}
		if len(lines) > 0 {
			decls = append(decls, "text-decoration: "+strings.Join(lines, " "))
		}
	}
	if p.FontName != nil {
		decls = append(decls, "font-family: "+*p.FontName)
	}
	if p.FontSize != nil {
		decls = append(decls, fmt.Sprintf("font-size: %dpx", *p.FontSize))
	}
	return strings.Join(decls, "; ")
}

func color(c cellset.Color) string {
	if !c.IsPacked() {
		return c.Token
	}
	r, g, b := c.RGB()
	return fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
}
