// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ui provides a graphical front end for the CHIP-8 virtual
// machine: a window displaying the framebuffer, keyboard input mapped
// onto the 16-key keypad, and a tone driven by the sound timer. The
// VM itself stays presentation-free; this package only shuttles
// frames, key events and the sound flag between it and the host
// windowing system.
package ui

import (
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/ypro/chip8/chip8"
)

// The conventional mapping of the 4x4 keyboard block 1234/QWER/ASDF/
// ZXCV onto keypad values, indexed by keypad value.
var keypadKeys = [chip8.NumKeys]ebiten.Key{
	0x0: ebiten.KeyX,
	0x1: ebiten.KeyDigit1,
	0x2: ebiten.KeyDigit2,
	0x3: ebiten.KeyDigit3,
	0x4: ebiten.KeyQ,
	0x5: ebiten.KeyW,
	0x6: ebiten.KeyE,
	0x7: ebiten.KeyA,
	0x8: ebiten.KeyS,
	0x9: ebiten.KeyD,
	0xA: ebiten.KeyZ,
	0xB: ebiten.KeyC,
	0xC: ebiten.KeyDigit4,
	0xD: ebiten.KeyR,
	0xE: ebiten.KeyF,
	0xF: ebiten.KeyV,
}

// Options configures the front end window and execution rate.
type Options struct {
	Title          string
	Scale          int // window pixels per framebuffer cell
	CyclesPerFrame int // VM instructions executed per display frame
	Muted          bool
}

// A UI runs a CHIP-8 virtual machine inside a window. It implements
// the ebiten.Game interface.
type UI struct {
	chip   *chip8.Chip
	tone   *Tone
	opts   Options
	pix    []byte
	runErr error
}

// New creates a graphical front end for the virtual machine.
func New(ch *chip8.Chip, opts Options) (*UI, error) {
	if opts.Scale <= 0 {
		opts.Scale = 10
	}
	if opts.CyclesPerFrame <= 0 {
		opts.CyclesPerFrame = 10
	}
	if opts.Title == "" {
		opts.Title = "chip8"
	}

	u := &UI{
		chip: ch,
		opts: opts,
		pix:  make([]byte, chip8.FrameWidth*chip8.FrameHeight*4),
	}

	if !opts.Muted {
		tone, err := NewTone()
		if err != nil {
			return nil, err
		}
		u.tone = tone
	}
	return u, nil
}

// Run opens the window and drives the virtual machine until the
// program errors, the user closes the window, or Escape is pressed.
func (u *UI) Run() error {
	ebiten.SetWindowSize(chip8.FrameWidth*u.opts.Scale, chip8.FrameHeight*u.opts.Scale)
	ebiten.SetWindowTitle(u.opts.Title)

	err := ebiten.RunGame(u)
	if u.tone != nil {
		u.tone.Close()
	}
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return u.runErr
}

// Update advances the virtual machine by one display frame: keypad
// events, a batch of instruction cycles, and one timer tick.
func (u *UI) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	for k, key := range keypadKeys {
		if inpututil.IsKeyJustPressed(key) {
			u.chip.KeyPress(byte(k))
		}
		if inpututil.IsKeyJustReleased(key) {
			u.chip.KeyRelease(byte(k))
		}
	}

	for i := 0; i < u.opts.CyclesPerFrame; i++ {
		if err := u.chip.Cycle(); err != nil {
			u.runErr = err
			return ebiten.Termination
		}
	}

	u.chip.CycleTimers()
	if u.tone != nil {
		u.tone.SetPlaying(u.chip.IsSoundOn())
	}
	return nil
}

// Draw blits the framebuffer to the screen.
func (u *UI) Draw(screen *ebiten.Image) {
	frame := u.chip.Frame()

	i := 0
	for y := 0; y < chip8.FrameHeight; y++ {
		for x := 0; x < chip8.FrameWidth; x++ {
			var c byte
			if frame[y][x] != 0 {
				c = 0xFF
			}
			u.pix[i] = c
			u.pix[i+1] = c
			u.pix[i+2] = c
			u.pix[i+3] = 0xFF
			i += 4
		}
	}
	screen.WritePixels(u.pix)
}

// Layout reports the logical screen size; ebiten scales it to the
// window.
func (u *UI) Layout(outsideWidth, outsideHeight int) (int, int) {
	return chip8.FrameWidth, chip8.FrameHeight
}
