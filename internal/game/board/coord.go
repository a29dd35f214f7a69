// Package board models the square battle grid: flat cell indices, tile
// labels and the square neighbourhoods used for movement and attack ranges.
package board

// NoCell marks the absence of a cell, e.g. when nothing is selected.
const NoCell = -1

// DefaultSize is the side length of the standard board.
const DefaultSize = 8

// RowOf returns the row of cell i on an n×n board.
func RowOf(i, n int) int { return i / n }

// ColOf returns the column of cell i on an n×n board.
func ColOf(i, n int) int { return i % n }

// IndexOf returns the flat index of (row, col) on an n×n board.
//
// Precondition: 0 <= row, col < n.
func IndexOf(row, col, n int) int { return row*n + col }

// Contains reports whether i is a cell of an n×n board.
func Contains(i, n int) bool { return i >= 0 && i < n*n }
