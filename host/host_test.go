package host

import (
	"strings"
	"testing"

	"github.com/ypro/chip8/chip8"
)

// runScript feeds a command script to a fresh host and returns the
// output.
func runScript(t *testing.T, script string) (*Host, string) {
	t.Helper()
	h := NewWithSeed(chip8.ModernQuirks(), 1)

	var out strings.Builder
	h.RunCommands(strings.NewReader(script), &out, false)
	return h, out.String()
}

func TestSetRegisters(t *testing.T) {
	h, _ := runScript(t, `
set v2 $42
set vf $01
set i $300
set pc $400
set dt $10
set st $20
quit`)

	reg := &h.Chip().Reg
	if reg.V[2] != 0x42 || reg.V[0xF] != 0x01 {
		t.Errorf("V registers incorrect: V2=$%02X VF=$%02X", reg.V[2], reg.V[0xF])
	}
	if reg.I != 0x300 {
		t.Errorf("I incorrect: $%04X", reg.I)
	}
	if reg.PC != 0x400 {
		t.Errorf("PC incorrect: $%04X", reg.PC)
	}
	if reg.DT != 0x10 || reg.ST != 0x20 {
		t.Errorf("timers incorrect: DT=$%02X ST=$%02X", reg.DT, reg.ST)
	}
}

func TestSetSettings(t *testing.T) {
	h, _ := runScript(t, `
set memdumpbytes 32
set hexmode true
quit`)

	if h.settings.MemDumpBytes != 32 {
		t.Errorf("MemDumpBytes incorrect: %d", h.settings.MemDumpBytes)
	}
	if !h.settings.HexMode {
		t.Error("HexMode not set")
	}
}

func TestStepAndBreakpoint(t *testing.T) {
	h := NewWithSeed(chip8.ModernQuirks(), 1)
	ch := h.Chip()
	if _, err := ch.Mem.StoreWords(0x200, []uint16{
		0x6201, // LD V2, #$01
		0x6302, // LD V3, #$02
		0x1200, // JP $200
	}); err != nil {
		t.Fatal(err)
	}
	ch.SetPC(0x200)

	var out strings.Builder
	h.RunCommands(strings.NewReader(`
breakpoint add $204
step in
run
quit`), &out, false)

	if ch.Reg.PC != 0x204 {
		t.Errorf("PC incorrect after breakpoint: $%04X", ch.Reg.PC)
	}
	if ch.Reg.V[2] != 0x01 || ch.Reg.V[3] != 0x02 {
		t.Errorf("registers incorrect: V2=$%02X V3=$%02X", ch.Reg.V[2], ch.Reg.V[3])
	}
	if !strings.Contains(out.String(), "Breakpoint hit at $0204.") {
		t.Error("breakpoint hit not reported")
	}
}

func TestKeyCommands(t *testing.T) {
	h, out := runScript(t, `
key press a
key release a
key press 5
quit`)

	if !strings.Contains(out, "Key A pressed.") {
		t.Error("key press not reported")
	}
	if !strings.Contains(out, "Key A released.") {
		t.Error("key release not reported")
	}

	// Key 5 is still down; a waiting program must observe it.
	ch := h.Chip()
	if _, err := ch.Mem.StoreWords(0x200, []uint16{0xF00A}); err != nil {
		t.Fatal(err)
	}
	ch.SetPC(0x200)
	if err := ch.Cycle(); err != nil {
		t.Fatal(err)
	}
	if ch.Reg.V[0] != 0x5 {
		t.Errorf("waiting program observed key $%X", ch.Reg.V[0])
	}
}

func TestReset(t *testing.T) {
	h, out := runScript(t, `
set v2 $42
reset original 7
quit`)

	if h.Chip().Reg.V[2] != 0 {
		t.Error("reset did not clear registers")
	}
	if !h.quirks.SHRCopiesVY {
		t.Error("reset did not apply quirk profile")
	}
	if !h.seeded || h.seed != 7 {
		t.Errorf("reset did not apply seed: %d", h.seed)
	}
	if !strings.Contains(out, "Machine reset.") {
		t.Error("reset not reported")
	}
}

func TestParseUint16(t *testing.T) {
	cases := []struct {
		s       string
		hexMode bool
		v       uint16
		ok      bool
	}{
		{"$1234", false, 0x1234, true},
		{"0x1234", false, 0x1234, true},
		{"%1010", false, 10, true},
		{"42", false, 42, true},
		{"42", true, 0x42, true},
		{"bogus", false, 0, false},
		{"$12345", false, 0, false},
	}

	for _, c := range cases {
		v, err := parseUint16(c.s, c.hexMode)
		if c.ok != (err == nil) || v != c.v {
			t.Errorf("parseUint16(%q, %v) = %v, %v", c.s, c.hexMode, v, err)
		}
	}
}

func TestParseKey(t *testing.T) {
	if k, err := parseKey("f"); err != nil || k != 0xF {
		t.Errorf("parseKey(f) = %v, %v", k, err)
	}
	if _, err := parseKey("10"); err == nil {
		t.Error("parseKey(10) did not fail")
	}
	if _, err := parseKey("g"); err == nil {
		t.Error("parseKey(g) did not fail")
	}
}
