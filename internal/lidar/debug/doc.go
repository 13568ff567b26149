// Package debug renders wall-detection internals for offline tuning: PNG
// plots of a scan with the detected walls (gonum/plot) and HTML heatmaps of
// the Hough accumulator (go-echarts).
package debug
