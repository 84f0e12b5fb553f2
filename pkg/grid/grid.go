package grid

// GetGridCoords maps a linear index onto a grid that is cols wide.
func GetGridCoords(index, cols int) (x, y int) {
	if cols <= 0 {
		return index, 0
	}
	return index % cols, index / cols
}

// GetIndex is the inverse of GetGridCoords.
func GetIndex(x, y, cols int) int {
	return y*cols + x
}
