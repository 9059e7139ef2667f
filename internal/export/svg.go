package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/pimsim/internal/field"
	"github.com/san-kum/pimsim/internal/geom"
	"github.com/san-kum/pimsim/internal/viz"
)

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2   // 2 sub-pixels per char
	height := float64(canvas.Height) * scale * 4 // 4 sub-pixels per char

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height))

	// Braille dot-to-bit mapping
	pixelMap := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}

	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r < 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] != 0 {
						cx := baseX + float64(dx)*scale + scale/2
						cy := baseY + float64(dy)*scale + scale/2
						sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, cx, cy, dotRadius))
					}
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

type FieldSVG struct {
	Width, Height float64
	// Scale is pixels per inch.
	Scale   float64
	Objects field.Snapshot
	Path    []geom.Vec
	// Robot is drawn when set.
	Robot *geom.Rect
}

func polygon(sb *strings.Builder, r geom.Rect, scale float64, fill, stroke string) {
	pts := r.Points()
	coords := make([]string, len(pts))
	for i, p := range pts {
		coords[i] = fmt.Sprintf("%.1f,%.1f", p.X()*scale, p.Y()*scale)
	}
	sb.WriteString(fmt.Sprintf(`<polygon points="%s" fill="%s" stroke="%s"/>
`, strings.Join(coords, " "), fill, stroke))
}

func colorOf(sh field.Shape) string {
	if sh.Color != "" {
		return sh.Color
	}
	return "#888888"
}

// Render draws the field, the path travelled and the robot. Field y grows
// downward as in SVG.
func (f FieldSVG) Render() string {
	scale := f.Scale
	if scale <= 0 {
		scale = 4
	}
	width, height := f.Width*scale, f.Height*scale

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#1a1a1a"/>
`, width, height, width, height))

	for _, sh := range f.Objects.Ramps {
		polygon(&sb, sh.Corners, scale, colorOf(sh), "none")
	}
	for _, sh := range f.Objects.TapeLines {
		polygon(&sb, sh.Corners, scale, colorOf(sh), colorOf(sh))
	}
	for _, sh := range f.Objects.Obstacles {
		polygon(&sb, sh.Corners, scale, colorOf(sh), "none")
	}

	if len(f.Path) > 1 {
		sb.WriteString(`<path fill="none" stroke="#00ffff" stroke-width="1.5" d="M`)
		for i, p := range f.Path {
			if i > 0 {
				sb.WriteString(" L")
			}
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", p.X()*scale, p.Y()*scale))
		}
		sb.WriteString("\"/>\n")
	}

	if f.Robot != nil {
		polygon(&sb, *f.Robot, scale, "#00aa55", "#00ff88")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
