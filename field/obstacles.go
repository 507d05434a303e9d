package field

import opensimplex "github.com/ojrac/opensimplex-go"

// BuildObstacles materializes the configured obstacle preset as a row-major
// mask. Unknown presets yield an open grid; the config sanitizer normally
// catches them first.
func BuildObstacles(rows, cols int, preset string, threshold, scale float64, seed int64) []bool {
	mask := make([]bool, rows*cols)

	switch preset {
	case "border":
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				if row == 0 || col == 0 || row == rows-1 || col == cols-1 {
					mask[row*cols+col] = true
				}
			}
		}

	case "pillars":
		// 2x2 pillars on an 8-tile lattice, offset from the edges so the
		// border stays passable.
		for row := 2; row < rows-2; row += 8 {
			for col := 2; col < cols-2; col += 8 {
				for dr := 0; dr < 2 && row+dr < rows; dr++ {
					for dc := 0; dc < 2 && col+dc < cols; dc++ {
						mask[(row+dr)*cols+col+dc] = true
					}
				}
			}
		}

	case "noise":
		noise := opensimplex.New(seed)
		if scale <= 0 {
			scale = 8
		}
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				v := noise.Eval2(float64(col)/scale, float64(row)/scale)
				// Eval2 is in [-1, 1]; remap before thresholding.
				if (v+1)/2 > threshold {
					mask[row*cols+col] = true
				}
			}
		}
	}

	return mask
}
