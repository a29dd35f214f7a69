package board

// TileClass is the border label of a cell, used by renderers to pick a tile.
type TileClass string

const (
	TileTopLeft     TileClass = "top-left"
	TileTop         TileClass = "top"
	TileTopRight    TileClass = "top-right"
	TileLeft        TileClass = "left"
	TileCenter      TileClass = "center"
	TileRight       TileClass = "right"
	TileBottomLeft  TileClass = "bottom-left"
	TileBottom      TileClass = "bottom"
	TileBottomRight TileClass = "bottom-right"
)

// TileOf labels cell i of an n×n board. Top wins over bottom and left wins
// over right, which only matters on a 1×1 board: its single cell is
// TileTopLeft, not TileBottomLeft.
//
// Precondition: Contains(i, n).
func TileOf(i, n int) TileClass {
	var vertical, horizontal string
	switch row := RowOf(i, n); {
	case row == 0:
		vertical = "top"
	case row == n-1:
		vertical = "bottom"
	}
	switch col := ColOf(i, n); {
	case col == 0:
		horizontal = "left"
	case col == n-1:
		horizontal = "right"
	}
	switch {
	case vertical != "" && horizontal != "":
		return TileClass(vertical + "-" + horizontal)
	case vertical != "":
		return TileClass(vertical)
	case horizontal != "":
		return TileClass(horizontal)
	default:
		return TileCenter
	}
}
