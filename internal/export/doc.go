// Package export renders runs and constraint graphs for external tools:
// PNG joint plots via gonum/plot, and JSON factor graphs whose variables
// carry a display location.
package export
