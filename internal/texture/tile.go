package texture

import "github.com/ctrsuite/ctrimage/internal/pixel"

// blockOrder generates the scrambled block traversal used by ETC1A4
// streams. The returned table maps arrival order to the destination
// block index in row-major order.
//
// The order walks a running counter: within a row of the block grid
// it alternately advances by 1 and by 3; at every block-row boundary
// it toggles between bumping the row base by 2 and stepping the
// counter back by 2. The net effect pairs two block rows at a time,
// interleaving their 2x1 block groups.
func blockOrder(blocksPerRow, blocksPerColumn int) []int {
	order := make([]int, blocksPerRow*blocksPerColumn)

	cur, rowBase := 0, 0
	bump := true   // next boundary bumps the row base instead of stepping back
	step3 := false // alternates the +1 / +3 advance

	for i := range order {
		if i > 0 && i%blocksPerRow == 0 {
			if bump {
				rowBase += 2
				cur = rowBase
			} else {
				cur -= 2
				rowBase = cur
			}
			bump = !bump
			step3 = false
		}
		order[i] = cur
		if step3 {
			cur += 3
		} else {
			cur++
		}
		step3 = !step3
	}
	return order
}

// descramble permutes whole 4x4 blocks of the arrival-order raster
// into their row-major destinations. It must run only after every
// block has been decoded, since the permutation is global.
func descramble(scrambled *pixel.Image, width, height int) *pixel.Image {
	blocksPerRow := width / blockDim
	blocksPerColumn := height / blockDim
	order := blockOrder(blocksPerRow, blocksPerColumn)

	out := pixel.NewImage(width, height)
	for i, dest := range order {
		srcX := (i % blocksPerRow) * blockDim
		srcY := (i / blocksPerRow) * blockDim
		dstX := (dest % blocksPerRow) * blockDim
		dstY := (dest / blocksPerRow) * blockDim

		for y := 0; y < blockDim; y++ {
			for x := 0; x < blockDim; x++ {
				out.Set(dstX+x, dstY+y, scrambled.At(srcX+x, srcY+y))
			}
		}
	}
	return out
}
