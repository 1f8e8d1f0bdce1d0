package chip8_test

import (
	"errors"
	"testing"

	"github.com/ypro/chip8/chip8"
)

func loadVM(t *testing.T, words []uint16) *chip8.Chip {
	return loadVMQuirks(t, chip8.ModernQuirks(), words)
}

func loadVMQuirks(t *testing.T, q chip8.Quirks, words []uint16) *chip8.Chip {
	ch := chip8.NewWithSeed(q, 1)
	if _, err := ch.Mem.StoreWords(0x200, words); err != nil {
		t.Fatal(err)
	}
	ch.SetPC(0x200)
	return ch
}

func stepVM(t *testing.T, ch *chip8.Chip, steps int) {
	for i := 0; i < steps; i++ {
		if err := ch.Cycle(); err != nil {
			t.Fatal(err)
		}
	}
}

func runVM(t *testing.T, words []uint16, steps int) *chip8.Chip {
	ch := loadVM(t, words)
	stepVM(t, ch, steps)
	return ch
}

func expectPC(t *testing.T, ch *chip8.Chip, pc uint16) {
	t.Helper()
	if ch.Reg.PC != pc {
		t.Errorf("PC incorrect. exp: $%04X, got: $%04X", pc, ch.Reg.PC)
	}
}

func expectV(t *testing.T, ch *chip8.Chip, x int, v byte) {
	t.Helper()
	if ch.Reg.V[x] != v {
		t.Errorf("V%X incorrect. exp: $%02X, got: $%02X", x, v, ch.Reg.V[x])
	}
}

func expectI(t *testing.T, ch *chip8.Chip, i uint16) {
	t.Helper()
	if ch.Reg.I != i {
		t.Errorf("I incorrect. exp: $%04X, got: $%04X", i, ch.Reg.I)
	}
}

func expectMem(t *testing.T, ch *chip8.Chip, addr uint16, v byte) {
	t.Helper()
	got, err := ch.Mem.LoadByte(addr)
	if err != nil {
		t.Fatal(err)
	}
	if got != v {
		t.Errorf("Memory at $%04X incorrect. exp: $%02X, got: $%02X", addr, v, got)
	}
}

func TestLoadImmediate(t *testing.T) {
	ch := runVM(t, []uint16{0x6222, 0x6015, 0x6FFF}, 3)

	expectPC(t, ch, 0x206)
	expectV(t, ch, 0x2, 0x22)
	expectV(t, ch, 0x0, 0x15)
	expectV(t, ch, 0xF, 0xFF)
}

func TestAddImmediate(t *testing.T) {
	ch := runVM(t, []uint16{0x6310, 0x7305, 0x73F0}, 3)

	// The second add wraps and must not touch VF.
	expectV(t, ch, 0x3, 0x05)
	expectV(t, ch, 0xF, 0x00)
}

func TestAddRegisters(t *testing.T) {
	ch := runVM(t, []uint16{0x62FF, 0x6301, 0x8234}, 3)

	expectV(t, ch, 0x2, 0x00)
	expectV(t, ch, 0xF, 0x01)

	ch = runVM(t, []uint16{0x6210, 0x6320, 0x8234}, 3)
	expectV(t, ch, 0x2, 0x30)
	expectV(t, ch, 0xF, 0x00)
}

func TestAddIntoFlagRegister(t *testing.T) {
	// When VF is the destination, the carry flag wins over the sum.
	ch := runVM(t, []uint16{0x6FFF, 0x6101, 0x8F14}, 3)
	expectV(t, ch, 0xF, 0x01)

	ch = runVM(t, []uint16{0x6F10, 0x6101, 0x8F14}, 3)
	expectV(t, ch, 0xF, 0x00)
}

func TestSub(t *testing.T) {
	ch := runVM(t, []uint16{0x6220, 0x6310, 0x8235}, 3)
	expectV(t, ch, 0x2, 0x10)
	expectV(t, ch, 0xF, 0x01)

	ch = runVM(t, []uint16{0x6210, 0x6320, 0x8235}, 3)
	expectV(t, ch, 0x2, 0xF0)
	expectV(t, ch, 0xF, 0x00)

	// Equal operands leave no borrow.
	ch = runVM(t, []uint16{0x6210, 0x6310, 0x8235}, 3)
	expectV(t, ch, 0x2, 0x00)
	expectV(t, ch, 0xF, 0x01)
}

func TestSubn(t *testing.T) {
	ch := runVM(t, []uint16{0x6210, 0x6320, 0x8237}, 3)
	expectV(t, ch, 0x2, 0x10)
	expectV(t, ch, 0xF, 0x01)

	ch = runVM(t, []uint16{0x6220, 0x6310, 0x8237}, 3)
	expectV(t, ch, 0x2, 0xF0)
	expectV(t, ch, 0xF, 0x00)
}

func TestLogicalOps(t *testing.T) {
	ch := runVM(t, []uint16{0x62F0, 0x630F, 0x8231}, 3)
	expectV(t, ch, 0x2, 0xFF)

	ch = runVM(t, []uint16{0x62F0, 0x633C, 0x8232}, 3)
	expectV(t, ch, 0x2, 0x30)

	ch = runVM(t, []uint16{0x62F0, 0x633C, 0x8233}, 3)
	expectV(t, ch, 0x2, 0xCC)

	ch = runVM(t, []uint16{0x62F0, 0x633C, 0x8230}, 3)
	expectV(t, ch, 0x2, 0x3C)
}

func TestShiftRight(t *testing.T) {
	// Modern profile shifts Vx in place.
	ch := runVM(t, []uint16{0x6205, 0x63FF, 0x8236}, 3)
	expectV(t, ch, 0x2, 0x02)
	expectV(t, ch, 0xF, 0x01)

	ch = runVM(t, []uint16{0x6204, 0x63FF, 0x8236}, 3)
	expectV(t, ch, 0x2, 0x02)
	expectV(t, ch, 0xF, 0x00)

	// Original profile copies Vy in first.
	chq := loadVMQuirks(t, chip8.OriginalQuirks(), []uint16{0x6200, 0x6305, 0x8236})
	stepVM(t, chq, 3)
	expectV(t, chq, 0x2, 0x02)
	expectV(t, chq, 0xF, 0x01)
}

func TestShiftLeft(t *testing.T) {
	ch := runVM(t, []uint16{0x6281, 0x63FF, 0x823E}, 3)
	expectV(t, ch, 0x2, 0x02)
	expectV(t, ch, 0xF, 0x01)

	ch = runVM(t, []uint16{0x6241, 0x63FF, 0x823E}, 3)
	expectV(t, ch, 0x2, 0x82)
	expectV(t, ch, 0xF, 0x00)

	chq := loadVMQuirks(t, chip8.OriginalQuirks(), []uint16{0x6200, 0x6381, 0x823E})
	stepVM(t, chq, 3)
	expectV(t, chq, 0x2, 0x02)
	expectV(t, chq, 0xF, 0x01)
}

func TestJump(t *testing.T) {
	ch := runVM(t, []uint16{0x1400}, 1)
	expectPC(t, ch, 0x400)
}

func TestJumpV0(t *testing.T) {
	ch := runVM(t, []uint16{0x6010, 0xB400}, 2)
	expectPC(t, ch, 0x410)
}

func TestCallRet(t *testing.T) {
	// Call a subroutine at $300 that returns immediately.
	ch := loadVM(t, []uint16{0x2300})
	if _, err := ch.Mem.StoreWords(0x300, []uint16{0x00EE}); err != nil {
		t.Fatal(err)
	}

	stepVM(t, ch, 1)
	expectPC(t, ch, 0x300)
	if ch.Reg.SP != 1 {
		t.Errorf("SP incorrect. exp: 1, got: %d", ch.Reg.SP)
	}

	stepVM(t, ch, 1)
	expectPC(t, ch, 0x202)
	if ch.Reg.SP != 0 {
		t.Errorf("SP incorrect. exp: 0, got: %d", ch.Reg.SP)
	}
}

func TestStackOverflow(t *testing.T) {
	// A subroutine that calls itself fills all 16 frames; the next
	// call must fail and leave the stack pointer alone.
	ch := loadVM(t, []uint16{0x2200})
	stepVM(t, ch, 16)

	err := ch.Cycle()
	if !errors.Is(err, chip8.ErrStackOverflow) {
		t.Fatalf("expected stack overflow, got: %v", err)
	}
	if ch.Reg.SP != 16 {
		t.Errorf("SP incorrect. exp: 16, got: %d", ch.Reg.SP)
	}
}

func TestStackUnderflow(t *testing.T) {
	ch := loadVM(t, []uint16{0x00EE})
	err := ch.Cycle()
	if !errors.Is(err, chip8.ErrStackUnderflow) {
		t.Fatalf("expected stack underflow, got: %v", err)
	}
}

func TestUnknownOpcode(t *testing.T) {
	ch := loadVM(t, []uint16{0xFFFF})
	err := ch.Cycle()

	var uerr *chip8.UnknownOpcodeError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected unknown opcode error, got: %v", err)
	}
	if uerr.Opcode != 0xFFFF {
		t.Errorf("opcode incorrect. exp: $FFFF, got: $%04X", uerr.Opcode)
	}
	if uerr.Addr != 0x200 {
		t.Errorf("addr incorrect. exp: $0200, got: $%04X", uerr.Addr)
	}
}

func TestSkipImmediate(t *testing.T) {
	ch := runVM(t, []uint16{0x6242, 0x3242}, 2)
	expectPC(t, ch, 0x206)

	ch = runVM(t, []uint16{0x6242, 0x3243}, 2)
	expectPC(t, ch, 0x204)

	ch = runVM(t, []uint16{0x6242, 0x4243}, 2)
	expectPC(t, ch, 0x206)

	ch = runVM(t, []uint16{0x6242, 0x4242}, 2)
	expectPC(t, ch, 0x204)
}

func TestSkipRegister(t *testing.T) {
	ch := runVM(t, []uint16{0x6242, 0x6342, 0x5230}, 3)
	expectPC(t, ch, 0x208)

	ch = runVM(t, []uint16{0x6242, 0x6343, 0x9230}, 3)
	expectPC(t, ch, 0x208)

	ch = runVM(t, []uint16{0x6242, 0x6342, 0x9230}, 3)
	expectPC(t, ch, 0x206)
}

func TestSkipOnKey(t *testing.T) {
	ch := loadVM(t, []uint16{0x6207, 0xE29E, 0x0000, 0xE2A1})
	ch.KeyPress(0x7)

	stepVM(t, ch, 2)
	expectPC(t, ch, 0x206)

	stepVM(t, ch, 1)
	expectPC(t, ch, 0x208)

	ch.KeyRelease(0x7)
	ch.SetPC(0x206)
	stepVM(t, ch, 1)
	expectPC(t, ch, 0x20A)
}

func TestWaitForKey(t *testing.T) {
	ch := loadVM(t, []uint16{0xF20A})

	// With no key down, the instruction must execute again.
	stepVM(t, ch, 3)
	expectPC(t, ch, 0x200)

	// The lowest-indexed pressed key wins.
	ch.KeyPress(0xB)
	ch.KeyPress(0x4)
	stepVM(t, ch, 1)
	expectPC(t, ch, 0x202)
	expectV(t, ch, 0x2, 0x04)
}

func TestKeyRangeIgnored(t *testing.T) {
	ch := loadVM(t, []uint16{0xF20A})
	ch.KeyPress(0x99)
	stepVM(t, ch, 1)
	expectPC(t, ch, 0x200)
}

func TestTimers(t *testing.T) {
	ch := runVM(t, []uint16{0x6205, 0xF215, 0xF218, 0xF307}, 4)

	expectV(t, ch, 0x3, 0x05)
	if !ch.IsSoundOn() {
		t.Error("expected sound on")
	}

	for i := 0; i < 5; i++ {
		ch.CycleTimers()
	}
	if ch.Reg.DT != 0 || ch.Reg.ST != 0 {
		t.Errorf("timers not exhausted. DT: %d, ST: %d", ch.Reg.DT, ch.Reg.ST)
	}
	if ch.IsSoundOn() {
		t.Error("expected sound off")
	}

	// Further ticks stay at zero.
	ch.CycleTimers()
	if ch.Reg.DT != 0 || ch.Reg.ST != 0 {
		t.Errorf("timers wrapped. DT: %d, ST: %d", ch.Reg.DT, ch.Reg.ST)
	}
}

func TestRandomDeterminism(t *testing.T) {
	a := loadVMQuirks(t, chip8.ModernQuirks(), []uint16{0xC2FF, 0xC3FF, 0xC4FF})
	b := chip8.NewWithSeed(chip8.ModernQuirks(), 1)
	if _, err := b.Mem.StoreWords(0x200, []uint16{0xC2FF, 0xC3FF, 0xC4FF}); err != nil {
		t.Fatal(err)
	}
	b.SetPC(0x200)

	stepVM(t, a, 3)
	stepVM(t, b, 3)

	for x := 2; x <= 4; x++ {
		if a.Reg.V[x] != b.Reg.V[x] {
			t.Errorf("same seed diverged at V%X: $%02X vs $%02X", x, a.Reg.V[x], b.Reg.V[x])
		}
	}
}

func TestRandomMask(t *testing.T) {
	ch := runVM(t, []uint16{0x62FF, 0xC200}, 2)
	expectV(t, ch, 0x2, 0x00)

	ch = runVM(t, []uint16{0xC20F}, 1)
	if ch.Reg.V[2]&0xF0 != 0 {
		t.Errorf("mask not applied: $%02X", ch.Reg.V[2])
	}
}

func TestLoadIndex(t *testing.T) {
	ch := runVM(t, []uint16{0xA123}, 1)
	expectI(t, ch, 0x123)
}

func TestAddIndex(t *testing.T) {
	ch := runVM(t, []uint16{0xA123, 0x6210, 0xF21E}, 3)
	expectI(t, ch, 0x133)
}

func TestBCD(t *testing.T) {
	ch := runVM(t, []uint16{0x62FE, 0xA300, 0xF233}, 3)
	expectMem(t, ch, 0x300, 2)
	expectMem(t, ch, 0x301, 5)
	expectMem(t, ch, 0x302, 4)

	ch = runVM(t, []uint16{0x6207, 0xA300, 0xF233}, 3)
	expectMem(t, ch, 0x300, 0)
	expectMem(t, ch, 0x301, 0)
	expectMem(t, ch, 0x302, 7)
}

func TestStoreRegisters(t *testing.T) {
	ch := runVM(t, []uint16{0x6011, 0x6122, 0x6233, 0xA300, 0xF255}, 5)
	expectMem(t, ch, 0x300, 0x11)
	expectMem(t, ch, 0x301, 0x22)
	expectMem(t, ch, 0x302, 0x33)
	expectI(t, ch, 0x300)

	chq := loadVMQuirks(t, chip8.OriginalQuirks(),
		[]uint16{0x6011, 0x6122, 0x6233, 0xA300, 0xF255})
	stepVM(t, chq, 5)
	expectI(t, chq, 0x303)
}

func TestLoadRegisters(t *testing.T) {
	ch := loadVM(t, []uint16{0xA300, 0xF265})
	if _, err := ch.Mem.StoreBytes(0x300, []byte{0xAA, 0xBB, 0xCC}); err != nil {
		t.Fatal(err)
	}

	stepVM(t, ch, 2)
	expectV(t, ch, 0x0, 0xAA)
	expectV(t, ch, 0x1, 0xBB)
	expectV(t, ch, 0x2, 0xCC)
	expectI(t, ch, 0x300)

	chq := loadVMQuirks(t, chip8.OriginalQuirks(), []uint16{0xA300, 0xF265})
	if _, err := chq.Mem.StoreBytes(0x300, []byte{0xAA, 0xBB, 0xCC}); err != nil {
		t.Fatal(err)
	}
	stepVM(t, chq, 2)
	expectI(t, chq, 0x303)
}

func TestFontSprite(t *testing.T) {
	// LD F, Vx points I at a 5-byte digit sprite in low memory.
	ch := runVM(t, []uint16{0x6200, 0xF229}, 2)
	exp := []byte{0x60, 0x90, 0x90, 0x90, 0x60}
	for i, v := range exp {
		expectMem(t, ch, ch.Reg.I+uint16(i), v)
	}

	// Only the low nibble of Vx selects the digit.
	ch2 := runVM(t, []uint16{0x62F0, 0xF229}, 2)
	if ch2.Reg.I != ch.Reg.I {
		t.Errorf("high nibble not masked: I=$%04X", ch2.Reg.I)
	}
}

func TestDraw(t *testing.T) {
	ch := loadVM(t, []uint16{0xA300, 0x6201, 0x6302, 0xD233})
	if _, err := ch.Mem.StoreBytes(0x300, []byte{0xE7, 0xAA, 0x81}); err != nil {
		t.Fatal(err)
	}

	stepVM(t, ch, 4)
	expectV(t, ch, 0xF, 0x00)

	frame := ch.Frame()
	exp := [3][8]byte{
		{1, 1, 1, 0, 0, 1, 1, 1},
		{1, 0, 1, 0, 1, 0, 1, 0},
		{1, 0, 0, 0, 0, 0, 0, 1},
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 8; c++ {
			if frame[2+r][1+c] != exp[r][c] {
				t.Errorf("frame[%d][%d] incorrect. exp: %d, got: %d",
					2+r, 1+c, exp[r][c], frame[2+r][1+c])
			}
		}
	}

	// Drawing the same sprite again erases it and reports collision.
	ch.SetPC(0x206)
	stepVM(t, ch, 1)
	expectV(t, ch, 0xF, 0x01)

	frame = ch.Frame()
	for r := range frame {
		for c := range frame[r] {
			if frame[r][c] != 0 {
				t.Fatalf("frame[%d][%d] not erased", r, c)
			}
		}
	}
}

func TestClearScreen(t *testing.T) {
	ch := loadVM(t, []uint16{0xA300, 0xD223, 0x00E0})
	if _, err := ch.Mem.StoreBytes(0x300, []byte{0xFF, 0xFF, 0xFF}); err != nil {
		t.Fatal(err)
	}

	stepVM(t, ch, 3)
	frame := ch.Frame()
	for r := range frame {
		for c := range frame[r] {
			if frame[r][c] != 0 {
				t.Fatalf("frame[%d][%d] not cleared", r, c)
			}
		}
	}
}

func TestDelayTimerRoundTrip(t *testing.T) {
	ch := runVM(t, []uint16{0x6230, 0xF215, 0xF307}, 3)
	expectV(t, ch, 0x3, 0x30)

	ch.CycleTimers()
	ch.SetPC(0x204)
	stepVM(t, ch, 1)
	expectV(t, ch, 0x3, 0x2F)
}

func TestLoadROM(t *testing.T) {
	ch := chip8.NewWithSeed(chip8.ModernQuirks(), 1)
	rom := []byte{0x62, 0x42, 0x63, 0x17, 0x99} // trailing odd byte ignored
	if err := ch.LoadROM(rom, 0x200); err != nil {
		t.Fatal(err)
	}
	ch.SetPC(0x200)

	stepVM(t, ch, 2)
	expectV(t, ch, 0x2, 0x42)
	expectV(t, ch, 0x3, 0x17)
	expectMem(t, ch, 0x204, 0x00)
}

func TestLoadROMOutOfRange(t *testing.T) {
	ch := chip8.NewWithSeed(chip8.ModernQuirks(), 1)
	err := ch.LoadROM([]byte{0x12, 0x00}, 0xFFF)

	var aerr *chip8.AddressRangeError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected address range error, got: %v", err)
	}
}

func TestCycleCount(t *testing.T) {
	ch := runVM(t, []uint16{0x6201, 0x6302, 0x8234}, 3)
	if ch.Cycles != 3 {
		t.Errorf("Cycles incorrect. exp: 3, got: %d", ch.Cycles)
	}
}
