// Package geom is the geometry kernel shared by the field, sensor and robot
// packages.
//
// Every solid on the field is a four-corner rectangle ([Rect]) expressed in
// field inches, with y growing downward as on the rendered page. Headings
// are in degrees; a body at heading 0 has its leading ("top") edge facing
// negative x.
//
//   - [Corners]: corners of a centered body rotated by a heading
//   - [AxisAligned], [Rotated]: corners of placed field objects
//   - [Ahead], [Behind]: probe regions on a body's leading or trailing edge
//   - [Intersects]: separating-axis test between two rectangles
//
// Nothing in this package allocates beyond the returned values, and every
// function is safe for concurrent use.
package geom
