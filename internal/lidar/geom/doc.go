// Package geom is the geometry kernel shared by every stage of wall
// detection.
//
// Responsibilities: the polar line representation (closest point to the
// scanner), angular distance with half-turn periodicity, parallel and
// perpendicular tests, line intersection, and polar/Cartesian conversion.
// Key types: PolarPoint, PolarLine, Point.
//
// Convention: meters and radians. A PolarLine is the set of points with
// x·cos(Angle) + y·sin(Angle) = Distance. Canonical lines have Angle in
// [0, π) and a signed Distance; every constructor and every function in
// this package returns canonical lines.
//
// No I/O and no logging is allowed in this package.
package geom
