package chip8_test

import (
	"testing"

	"github.com/ypro/chip8/chip8"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		opcode uint16
		c      byte
		x      byte
		y      byte
		n      byte
		nn     byte
		nnn    uint16
	}{
		{0x0000, 0x0, 0x0, 0x0, 0x0, 0x00, 0x000},
		{0xFFFF, 0xF, 0xF, 0xF, 0xF, 0xFF, 0xFFF},
		{0x1234, 0x1, 0x2, 0x3, 0x4, 0x34, 0x234},
		{0x8AB6, 0x8, 0xA, 0xB, 0x6, 0xB6, 0xAB6},
		{0xD01F, 0xD, 0x0, 0x1, 0xF, 0x1F, 0x01F},
	}

	for _, c := range cases {
		in := chip8.Decode(c.opcode)
		if in.Opcode != c.opcode || in.C != c.c || in.X != c.x ||
			in.Y != c.y || in.N != c.n || in.NN != c.nn || in.NNN != c.nnn {
			t.Errorf("Decode($%04X) incorrect: %+v", c.opcode, in)
		}
	}
}

func TestDecodeFieldRelations(t *testing.T) {
	// Field decomposition must be consistent for every word.
	for op := 0; op <= 0xFFFF; op += 0x101 {
		in := chip8.Decode(uint16(op))
		if uint16(in.C)<<12|in.NNN != in.Opcode {
			t.Fatalf("class/address split broken at $%04X", op)
		}
		if uint16(in.X)<<8|uint16(in.NN) != in.NNN {
			t.Fatalf("x/immediate split broken at $%04X", op)
		}
		if in.Y<<4|in.N != in.NN {
			t.Fatalf("y/nibble split broken at $%04X", op)
		}
	}
}
