// Package bev implements bird's-eye-view (XY plane) geometry for oriented
// 3D boxes: box corners, convex polygon clipping and the XY IOU metric used
// to grade detection submissions.
//
// Heading convention: a box is built as an axis-aligned rectangle centred at
// the origin, rotated by -Heading degrees and then translated to (X, Y). A
// positive heading therefore rotates the box clockwise. Ground truth and
// submissions are produced under the same convention, so it is fixed and not
// configurable.
package bev
