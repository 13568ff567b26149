// Package hough owns the vote accumulator and the candidate extractor.
//
// Responsibilities: discretised (distance, angle) voting for every scanner
// return, thresholding the grid back into weighted line candidates, and
// neighbourhood lookups for the wall matcher.
// Key types: Config, Accumulator, Cell, HoughLine.
//
// Dependency rule: hough depends on geom only. An Accumulator is built
// per scan and discarded; nothing here is shared between scans.
package hough
