package chip8_test

import (
	"testing"

	"github.com/ypro/chip8/chip8"
)

func countLit(f chip8.Frame) int {
	n := 0
	for r := range f {
		for c := range f[r] {
			if f[r][c] != 0 {
				n++
			}
		}
	}
	return n
}

func TestDrawWrapStart(t *testing.T) {
	// Start coordinates wrap around the screen dimensions.
	var fb chip8.Framebuffer
	fb.DrawSprite([]byte{0x80}, chip8.FrameWidth+3, chip8.FrameHeight+5)

	f := fb.Frame()
	if f[5][3] != 1 {
		t.Error("wrapped start cell not lit")
	}
	if countLit(f) != 1 {
		t.Errorf("lit cells incorrect. exp: 1, got: %d", countLit(f))
	}
}

func TestDrawClipRight(t *testing.T) {
	// A sprite body crossing the right edge is clipped, not wrapped.
	var fb chip8.Framebuffer
	fb.DrawSprite([]byte{0xFF}, chip8.FrameWidth-3, 0)

	f := fb.Frame()
	for c := 0; c < chip8.FrameWidth; c++ {
		want := byte(0)
		if c >= chip8.FrameWidth-3 {
			want = 1
		}
		if f[0][c] != want {
			t.Errorf("f[0][%d] incorrect. exp: %d, got: %d", c, want, f[0][c])
		}
	}
}

func TestDrawClipBottom(t *testing.T) {
	var fb chip8.Framebuffer
	fb.DrawSprite([]byte{0x80, 0x80, 0x80, 0x80}, 0, chip8.FrameHeight-2)

	f := fb.Frame()
	if f[chip8.FrameHeight-2][0] != 1 || f[chip8.FrameHeight-1][0] != 1 {
		t.Error("rows above the bottom edge not drawn")
	}
	if f[0][0] != 0 || f[1][0] != 0 {
		t.Error("sprite wrapped past the bottom edge")
	}
}

func TestDrawXORInvolution(t *testing.T) {
	sprite := []byte{0x3C, 0x42, 0x42, 0x3C}

	var fb chip8.Framebuffer
	if fb.DrawSprite(sprite, 10, 10) {
		t.Error("collision on first draw")
	}
	if !fb.DrawSprite(sprite, 10, 10) {
		t.Error("no collision on erasing draw")
	}
	if countLit(fb.Frame()) != 0 {
		t.Error("double draw did not erase the sprite")
	}
}

func TestDrawCollisionAccumulates(t *testing.T) {
	// A draw that erases any cell reports a collision even when its
	// last examined cells only turn on.
	var fb chip8.Framebuffer
	fb.DrawSprite([]byte{0x80}, 0, 0)

	if !fb.DrawSprite([]byte{0xC0}, 0, 0) {
		t.Error("collision lost when a later cell turned on")
	}

	f := fb.Frame()
	if f[0][0] != 0 || f[0][1] != 1 {
		t.Error("XOR compositing incorrect")
	}
}

func TestClear(t *testing.T) {
	var fb chip8.Framebuffer
	fb.DrawSprite([]byte{0xFF, 0xFF}, 0, 0)
	fb.Clear()
	if countLit(fb.Frame()) != 0 {
		t.Error("clear left lit cells")
	}
}
