// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chip8

// Framebuffer dimensions in cells.
const (
	FrameWidth  = 64
	FrameHeight = 32
)

// A Frame is a snapshot of the framebuffer. A nonzero cell is lit.
type Frame [FrameHeight][FrameWidth]byte

// A Framebuffer is the CHIP-8 monochrome display. Sprites are
// composited onto it with XOR, which is also how programs erase them.
type Framebuffer struct {
	cells [FrameHeight][FrameWidth]byte
}

// Clear turns off every cell.
func (f *Framebuffer) Clear() {
	f.cells = [FrameHeight][FrameWidth]byte{}
}

// DrawSprite XORs a sprite onto the framebuffer at (x, y) and reports
// whether any lit cell was turned off. Each sprite byte is one row,
// most significant bit leftmost. The starting position wraps around
// the screen edges; the sprite body does not, so rows below the
// bottom edge and columns past the right edge are clipped.
func (f *Framebuffer) DrawSprite(sprite []byte, x, y int) bool {
	x %= FrameWidth
	y %= FrameHeight

	collision := false
	for r, row := range sprite {
		if y+r >= FrameHeight {
			break
		}
		for c := 0; c < 8; c++ {
			if x+c >= FrameWidth {
				break
			}
			if row&(0x80>>c) == 0 {
				continue
			}
			cell := &f.cells[y+r][x+c]
			*cell ^= 1
			if *cell == 0 {
				collision = true
			}
		}
	}
	return collision
}

// Frame returns a copy of the framebuffer contents.
func (f *Framebuffer) Frame() Frame {
	return f.cells
}
