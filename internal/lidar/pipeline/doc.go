// Package pipeline runs wall detection on one scan at a time.
//
// It wires the layer packages together: hough (vote accumulation and
// candidate extraction), walls (matching, fallback and refinement) and ld06
// (scans from the serial stream). It is the composition root: it imports
// those packages and none of them import pipeline.
//
// The detector keeps no state between scans. LastGood is the caller-side
// holder that retains the most recent successful FieldWalls.
package pipeline
