// Package walls finds the four boundary walls of a rectangular field among
// weighted line candidates.
//
// Responsibilities: the 4-wall search over parallel pairs of known
// separation, the 3-wall fallback that infers a missing wall from the
// field dimensions, and vote-weighted refinement of the chosen walls.
// Key types: Config, WallLine, FieldWalls, Pair, MatchResult.
//
// Dependency rule: walls depends on geom and hough. It performs no I/O and
// keeps no state between calls.
package walls
