package chip8_test

import (
	"errors"
	"testing"

	"github.com/ypro/chip8/chip8"
)

func expectRangeError(t *testing.T, err error, addr uint16) {
	t.Helper()
	var aerr *chip8.AddressRangeError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected address range error, got: %v", err)
	}
	if aerr.Addr != addr {
		t.Errorf("error address incorrect. exp: $%04X, got: $%04X", addr, aerr.Addr)
	}
}

func TestMemoryByte(t *testing.T) {
	m := chip8.NewMemory()
	if err := m.StoreByte(0xFFF, 0x42); err != nil {
		t.Fatal(err)
	}

	v, err := m.LoadByte(0xFFF)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x42 {
		t.Errorf("byte incorrect. exp: $42, got: $%02X", v)
	}

	_, err = m.LoadByte(0x1000)
	expectRangeError(t, err, 0x1000)
	expectRangeError(t, m.StoreByte(0x1000, 0), 0x1000)
}

func TestMemoryWord(t *testing.T) {
	m := chip8.NewMemory()
	if err := m.StoreWord(0x200, 0x1234); err != nil {
		t.Fatal(err)
	}

	// Words are stored big-endian.
	hi, _ := m.LoadByte(0x200)
	lo, _ := m.LoadByte(0x201)
	if hi != 0x12 || lo != 0x34 {
		t.Errorf("byte order incorrect. got: $%02X $%02X", hi, lo)
	}

	w, err := m.LoadWord(0x200)
	if err != nil {
		t.Fatal(err)
	}
	if w != 0x1234 {
		t.Errorf("word incorrect. exp: $1234, got: $%04X", w)
	}

	// A word access may not straddle the end of memory.
	_, err = m.LoadWord(0xFFF)
	expectRangeError(t, err, 0xFFF)
	expectRangeError(t, m.StoreWord(0xFFF, 0), 0xFFF)
}

func TestMemoryBlock(t *testing.T) {
	m := chip8.NewMemory()

	next, err := m.StoreBytes(0x300, []byte{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if next != 0x303 {
		t.Errorf("next address incorrect. exp: $0303, got: $%04X", next)
	}

	b := make([]byte, 3)
	if err := m.LoadBytes(0x300, b); err != nil {
		t.Fatal(err)
	}
	if b[0] != 1 || b[1] != 2 || b[2] != 3 {
		t.Errorf("block contents incorrect: %v", b)
	}

	_, err = m.StoreBytes(0xFFE, []byte{1, 2, 3})
	expectRangeError(t, err, 0xFFE)
	expectRangeError(t, m.LoadBytes(0xFFE, b), 0xFFE)
}

func TestMemoryWords(t *testing.T) {
	m := chip8.NewMemory()

	next, err := m.StoreWords(0x200, []uint16{0x6222, 0x6015})
	if err != nil {
		t.Fatal(err)
	}
	if next != 0x204 {
		t.Errorf("next address incorrect. exp: $0204, got: $%04X", next)
	}

	w, _ := m.LoadWord(0x202)
	if w != 0x6015 {
		t.Errorf("word incorrect. exp: $6015, got: $%04X", w)
	}

	_, err = m.StoreWords(0xFFE, []uint16{1, 2})
	expectRangeError(t, err, 0xFFE)
}
