package grid

import "testing"

func TestGetGridCoords(t *testing.T) {
	tests := []struct {
		index int
		cols  int
		wantX int
		wantY int
	}{
		// 16 cells per tape row
		{0, 16, 0, 0},
		{15, 16, 15, 0},
		{16, 16, 0, 1},
		{33, 16, 1, 2},

		// 32 cells per tape row
		{31, 32, 31, 0},
		{32, 32, 0, 1},
		{1023, 32, 31, 31},

		// no columns keeps everything on one row
		{7, 0, 7, 0},
	}

	for _, tc := range tests {
		gotX, gotY := GetGridCoords(tc.index, tc.cols)
		if gotX != tc.wantX || gotY != tc.wantY {
			t.Errorf("GetGridCoords(%d, %d) = (%d, %d); want (%d, %d)", tc.index, tc.cols, gotX, gotY, tc.wantX, tc.wantY)
		}
		if tc.cols > 0 {
			if back := GetIndex(gotX, gotY, tc.cols); back != tc.index {
				t.Errorf("GetIndex(%d, %d, %d) = %d; want %d", gotX, gotY, tc.cols, back, tc.index)
			}
		}
	}
}
