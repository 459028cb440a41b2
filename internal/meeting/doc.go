// Package meeting holds the value types shared by the scheduling pipeline:
// the extracted intent, busy intervals, candidate slots and booking results.
package meeting
