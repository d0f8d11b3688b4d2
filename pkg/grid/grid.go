package grid

// GetGridCoords converts a row-major cell index into column and row.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

// CellAt returns the index of the cell under pixel (px, py) in a grid of
// cols×rows cells, each cellW×cellH pixels, drawn with its top-left corner at
// (originX, originY). ok is false outside the grid.
func CellAt(px, py, originX, originY, cellW, cellH, cols, rows int) (index int, ok bool) {
	dx, dy := px-originX, py-originY
	if dx < 0 || dy < 0 {
		return 0, false
	}
	x, y := dx/cellW, dy/cellH
	if x >= cols || y >= rows {
		return 0, false
	}
	return y*cols + x, true
}
