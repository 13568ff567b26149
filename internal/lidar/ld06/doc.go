// Package ld06 decodes the serial stream of LD06/LD19 triangulation
// scanners into scans of polar points.
//
// Responsibilities: 47-byte packet framing and CRC checks, realignment of a
// misaligned UART stream, conversion of fixed-point millimetres and
// hundredths of a degree into meters and radians, and assembly of packets
// into one scan per revolution.
//
// Dependency rule: ld06 depends on geom and units only. Everything past
// Scan.Points is in SI units.
package ld06
