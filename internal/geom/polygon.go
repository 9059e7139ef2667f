package geom

import (
	"fmt"

	sf "github.com/peterstace/simplefeatures/geom"
)

// Polygon converts r into a closed simplefeatures polygon. Degenerate
// rectangles, such as those built by Segment, fail validation.
func (r Rect) Polygon() (sf.Polygon, error) {
	pts := r.Points()
	coords := make([]float64, 0, 10)
	for _, p := range pts {
		coords = append(coords, p.X(), p.Y())
	}
	coords = append(coords, pts[0].X(), pts[0].Y())
	ring, err := sf.NewLineString(sf.NewSequence(coords, sf.DimXY))
	if err != nil {
		return sf.Polygon{}, fmt.Errorf("ring: %w", err)
	}
	poly, err := sf.NewPolygon([]sf.LineString{ring})
	if err != nil {
		return sf.Polygon{}, fmt.Errorf("polygon: %w", err)
	}
	return poly, nil
}

// WKT renders r as well-known text, the format render clients use to draw
// arbitrary obstacle outlines. It is empty when r is not a valid polygon.
func (r Rect) WKT() string {
	poly, err := r.Polygon()
	if err != nil {
		return ""
	}
	return poly.AsText()
}

// Segment returns a degenerate rectangle covering the segment a-b.
func Segment(a, b Vec) Rect {
	return Rect{TopL: a, TopR: b, BotL: a, BotR: b}
}
