// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chip8 implements a CHIP-8 virtual machine: 4K of memory,
// sixteen 8-bit registers, a subroutine call stack, a 16-key keypad,
// delay and sound timers, and a 64x32 monochrome framebuffer driven
// by an interpreter for the CHIP-8 instruction set.
package chip8

// StackDepth is the capacity of the subroutine call stack.
const StackDepth = 16

// NumKeys is the number of keys on the CHIP-8 keypad.
const NumKeys = 16

// A Chip is a complete CHIP-8 virtual machine. The host drives it by
// calling Cycle once per instruction and CycleTimers once per display
// frame (about 60 times per second). A Chip is not safe for concurrent
// use; all calls must come from a single goroutine.
type Chip struct {
	Reg    Registers // register file
	Mem    *Memory   // 4K address space
	Quirks Quirks    // ambiguous-instruction behavior, fixed at construction
	Cycles uint64    // total executed instruction cycles

	stack     [StackDepth]uint16
	keys      [NumKeys]bool
	fb        Framebuffer
	rnd       *prng
	fontAddr  [16]uint16
	debugger  *Debugger
	storeByte func(ch *Chip, addr uint16, v byte) error
}

// New creates a CHIP-8 virtual machine with the requested quirk
// profile. The random number generator is seeded from OS entropy.
func New(quirks Quirks) *Chip {
	return NewWithSeed(quirks, entropySeed())
}

// NewWithSeed creates a CHIP-8 virtual machine with the requested
// quirk profile and a deterministic random number generator seed.
func NewWithSeed(quirks Quirks, seed int64) *Chip {
	ch := &Chip{
		Mem:       NewMemory(),
		Quirks:    quirks,
		rnd:       newPRNG(seed),
		storeByte: (*Chip).storeByteNormal,
	}

	ch.Reg.Init()
	ch.loadFont()
	return ch
}

// SetPC updates the program counter to 'addr'.
func (ch *Chip) SetPC(addr uint16) {
	ch.Reg.PC = addr
}

// KeyPress marks keypad key 'k' (0-15) as held down. Key state is
// level-triggered: the key stays down until KeyRelease is called.
func (ch *Chip) KeyPress(k byte) {
	if k < NumKeys {
		ch.keys[k] = true
	}
}

// KeyRelease marks keypad key 'k' (0-15) as released.
func (ch *Chip) KeyRelease(k byte) {
	if k < NumKeys {
		ch.keys[k] = false
	}
}

// LoadROM copies a ROM image into memory starting at address 'start',
// interpreting the image as a sequence of big-endian 16-bit words. A
// trailing odd byte is ignored.
func (ch *Chip) LoadROM(rom []byte, start uint16) error {
	for i := 0; i+1 < len(rom); i += 2 {
		w := uint16(rom[i])<<8 | uint16(rom[i+1])
		if err := ch.Mem.StoreWord(start+uint16(i), w); err != nil {
			return err
		}
	}
	return nil
}

// Frame returns a snapshot of the current framebuffer contents.
func (ch *Chip) Frame() Frame {
	return ch.fb.Frame()
}

// IsSoundOn reports whether the sound timer is running. The host is
// expected to play a continuous tone while this returns true.
func (ch *Chip) IsSoundOn() bool {
	return ch.Reg.ST > 0
}

// CycleTimers decrements the delay and sound timers if they are
// nonzero. The host calls this once per display frame (~60 Hz).
func (ch *Chip) CycleTimers() {
	if ch.Reg.DT > 0 {
		ch.Reg.DT--
	}
	if ch.Reg.ST > 0 {
		ch.Reg.ST--
	}
}

// Cycle fetches, decodes and executes one instruction. The program
// counter is advanced past the instruction before the handler runs,
// so jumps, skips and the wait-for-key rewind simply overwrite it.
//
// Cycle returns an *UnknownOpcodeError for an instruction word that
// matches no handler, an *AddressRangeError for a memory access
// outside the address space, and ErrStackOverflow/ErrStackUnderflow
// for CALL and RET beyond the stack's bounds. Execution cannot
// meaningfully continue past any of these; the host decides whether
// to abort, log, or halt.
func (ch *Chip) Cycle() error {
	opcode, err := ch.Mem.LoadWord(ch.Reg.PC)
	if err != nil {
		return err
	}

	in := Decode(opcode)
	ch.Reg.PC += 2

	inst := instSet.Lookup(in)
	if inst == nil {
		return &UnknownOpcodeError{Opcode: opcode, Addr: ch.Reg.PC - 2}
	}

	if err := inst.fn(ch, in); err != nil {
		return err
	}

	ch.Cycles++

	// Let an attached debugger check breakpoints.
	if ch.debugger != nil {
		ch.debugger.onUpdatePC(ch, ch.Reg.PC)
	}
	return nil
}

// AttachDebugger attaches a debugger to the virtual machine. The
// debugger receives notifications whenever the VM completes an
// instruction or stores a byte to memory.
func (ch *Chip) AttachDebugger(debugger *Debugger) {
	ch.debugger = debugger
	ch.storeByte = (*Chip).storeByteDebugger
}

// DetachDebugger detaches the currently attached debugger.
func (ch *Chip) DetachDebugger() {
	ch.debugger = nil
	ch.storeByte = (*Chip).storeByteNormal
}

// Store the byte value 'v' at the address 'addr'.
func (ch *Chip) storeByteNormal(addr uint16, v byte) error {
	return ch.Mem.StoreByte(addr, v)
}

// Store the byte value 'v' at the address 'addr', notifying the
// attached debugger.
func (ch *Chip) storeByteDebugger(addr uint16, v byte) error {
	ch.debugger.onDataStore(ch, addr, v)
	return ch.Mem.StoreByte(addr, v)
}

// Copy the built-in digit sprites into low memory and record the base
// address of each digit for the LD F, Vx instruction.
func (ch *Chip) loadFont() {
	var addr uint16
	for i, sprite := range fontSprites {
		ch.fontAddr[i] = addr
		addr, _ = ch.Mem.StoreBytes(addr, sprite[:])
	}
}

// Clear framebuffer (00E0).
func (ch *Chip) opCls(in Instr) error {
	ch.fb.Clear()
	return nil
}

// Return from a subroutine (00EE).
func (ch *Chip) opRet(in Instr) error {
	if ch.Reg.SP == 0 {
		return ErrStackUnderflow
	}
	ch.Reg.SP--
	ch.Reg.PC = ch.stack[ch.Reg.SP]
	return nil
}

// Jump to address (1nnn).
func (ch *Chip) opJp(in Instr) error {
	ch.Reg.PC = in.NNN
	return nil
}

// Call subroutine (2nnn).
func (ch *Chip) opCall(in Instr) error {
	if int(ch.Reg.SP) >= StackDepth {
		return ErrStackOverflow
	}
	ch.stack[ch.Reg.SP] = ch.Reg.PC
	ch.Reg.SP++
	ch.Reg.PC = in.NNN
	return nil
}

// Skip if Vx equals immediate (3xnn).
func (ch *Chip) opSeImm(in Instr) error {
	if ch.Reg.V[in.X] == in.NN {
		ch.Reg.PC += 2
	}
	return nil
}

// Skip if Vx does not equal immediate (4xnn).
func (ch *Chip) opSneImm(in Instr) error {
	if ch.Reg.V[in.X] != in.NN {
		ch.Reg.PC += 2
	}
	return nil
}

// Skip if Vx equals Vy (5xy0).
func (ch *Chip) opSeReg(in Instr) error {
	if ch.Reg.V[in.X] == ch.Reg.V[in.Y] {
		ch.Reg.PC += 2
	}
	return nil
}

// Load immediate into Vx (6xnn).
func (ch *Chip) opLdImm(in Instr) error {
	ch.Reg.V[in.X] = in.NN
	return nil
}

// Add immediate to Vx, modulo 256, without touching VF (7xnn).
func (ch *Chip) opAddImm(in Instr) error {
	ch.Reg.V[in.X] += in.NN
	return nil
}

// Copy Vy into Vx (8xy0).
func (ch *Chip) opLdReg(in Instr) error {
	ch.Reg.V[in.X] = ch.Reg.V[in.Y]
	return nil
}

// Bitwise OR (8xy1).
func (ch *Chip) opOr(in Instr) error {
	ch.Reg.V[in.X] |= ch.Reg.V[in.Y]
	return nil
}

// Bitwise AND (8xy2).
func (ch *Chip) opAnd(in Instr) error {
	ch.Reg.V[in.X] &= ch.Reg.V[in.Y]
	return nil
}

// Bitwise XOR (8xy3).
func (ch *Chip) opXor(in Instr) error {
	ch.Reg.V[in.X] ^= ch.Reg.V[in.Y]
	return nil
}

// Add Vy to Vx; VF becomes the carry flag (8xy4). VF is written after
// the result so that ADD VF, Vy leaves the flag in VF.
func (ch *Chip) opAddReg(in Instr) error {
	sum := uint16(ch.Reg.V[in.X]) + uint16(ch.Reg.V[in.Y])
	ch.Reg.V[in.X] = byte(sum)
	ch.Reg.V[0xF] = boolToByte(sum > 0xFF)
	return nil
}

// Subtract Vy from Vx; VF becomes the no-borrow flag (8xy5).
func (ch *Chip) opSub(in Instr) error {
	noBorrow := ch.Reg.V[in.X] >= ch.Reg.V[in.Y]
	ch.Reg.V[in.X] -= ch.Reg.V[in.Y]
	ch.Reg.V[0xF] = boolToByte(noBorrow)
	return nil
}

// Shift right by one (8xy6). With the SHRCopiesVY quirk, Vy is copied
// into Vx first; VF takes the bit shifted out.
func (ch *Chip) opShr(in Instr) error {
	if ch.Quirks.SHRCopiesVY {
		ch.Reg.V[in.X] = ch.Reg.V[in.Y]
	}
	ch.Reg.V[0xF] = ch.Reg.V[in.X] & 0x01
	ch.Reg.V[in.X] >>= 1
	return nil
}

// Subtract Vx from Vy, storing into Vx; VF is the no-borrow flag (8xy7).
func (ch *Chip) opSubn(in Instr) error {
	noBorrow := ch.Reg.V[in.Y] >= ch.Reg.V[in.X]
	ch.Reg.V[in.X] = ch.Reg.V[in.Y] - ch.Reg.V[in.X]
	ch.Reg.V[0xF] = boolToByte(noBorrow)
	return nil
}

// Shift left by one (8xyE). With the SHLCopiesVY quirk, Vy is copied
// into Vx first; VF takes the bit shifted out.
func (ch *Chip) opShl(in Instr) error {
	if ch.Quirks.SHLCopiesVY {
		ch.Reg.V[in.X] = ch.Reg.V[in.Y]
	}
	ch.Reg.V[0xF] = boolToByte(ch.Reg.V[in.X]&0x80 != 0)
	ch.Reg.V[in.X] <<= 1
	return nil
}

// Skip if Vx does not equal Vy (9xy0).
func (ch *Chip) opSneReg(in Instr) error {
	if ch.Reg.V[in.X] != ch.Reg.V[in.Y] {
		ch.Reg.PC += 2
	}
	return nil
}

// Load address into I (Annn).
func (ch *Chip) opLdI(in Instr) error {
	ch.Reg.I = in.NNN
	return nil
}

// Jump to V0 + address (Bnnn).
func (ch *Chip) opJpV0(in Instr) error {
	ch.Reg.PC = uint16(ch.Reg.V[0]) + in.NNN
	return nil
}

// Random byte masked by immediate (Cxnn).
func (ch *Chip) opRnd(in Instr) error {
	ch.Reg.V[in.X] = ch.rnd.RandomByte() & in.NN
	return nil
}

// Draw an n-byte sprite from memory[I..] at (Vx, Vy); VF reports
// whether any set pixel was erased (Dxyn).
func (ch *Chip) opDrw(in Instr) error {
	sprite := make([]byte, in.N)
	if err := ch.Mem.LoadBytes(ch.Reg.I, sprite); err != nil {
		return err
	}

	collision := ch.fb.DrawSprite(sprite, int(ch.Reg.V[in.X]), int(ch.Reg.V[in.Y]))
	ch.Reg.V[0xF] = boolToByte(collision)
	return nil
}

// Skip if the key indexed by Vx is pressed (Ex9E).
func (ch *Chip) opSkp(in Instr) error {
	if ch.isKeyPressed(ch.Reg.V[in.X]) {
		ch.Reg.PC += 2
	}
	return nil
}

// Skip if the key indexed by Vx is not pressed (ExA1).
func (ch *Chip) opSknp(in Instr) error {
	if !ch.isKeyPressed(ch.Reg.V[in.X]) {
		ch.Reg.PC += 2
	}
	return nil
}

// Read the delay timer into Vx (Fx07).
func (ch *Chip) opLdVxDT(in Instr) error {
	ch.Reg.V[in.X] = ch.Reg.DT
	return nil
}

// Wait for a key press (Fx0A). If no key is down, rewind the program
// counter so the instruction executes again on the next cycle. When a
// key is down, the lowest-indexed pressed key wins.
func (ch *Chip) opLdVxKey(in Instr) error {
	for k := byte(0); k < NumKeys; k++ {
		if ch.keys[k] {
			ch.Reg.V[in.X] = k
			return nil
		}
	}
	ch.Reg.PC -= 2
	return nil
}

// Load Vx into the delay timer (Fx15).
func (ch *Chip) opLdDT(in Instr) error {
	ch.Reg.DT = ch.Reg.V[in.X]
	return nil
}

// Load Vx into the sound timer (Fx18).
func (ch *Chip) opLdST(in Instr) error {
	ch.Reg.ST = ch.Reg.V[in.X]
	return nil
}

// Add Vx to I (Fx1E). The sum is not range-checked here; an I value
// outside the address space surfaces as an error at the next memory
// access through it.
func (ch *Chip) opAddI(in Instr) error {
	ch.Reg.I += uint16(ch.Reg.V[in.X])
	return nil
}

// Point I at the built-in digit sprite for the low nibble of Vx (Fx29).
func (ch *Chip) opLdFont(in Instr) error {
	ch.Reg.I = ch.fontAddr[ch.Reg.V[in.X]&0x0F]
	return nil
}

// Store the BCD digits of Vx at memory[I..I+2] (Fx33).
func (ch *Chip) opLdBCD(in Instr) error {
	v := ch.Reg.V[in.X]
	digits := [3]byte{v / 100, (v / 10) % 10, v % 10}
	for i, d := range digits {
		if err := ch.storeByte(ch, ch.Reg.I+uint16(i), d); err != nil {
			return err
		}
	}
	return nil
}

// Store V0..Vx into memory[I..] (Fx55). With the StoreAdvancesI
// quirk, I advances past the stored block.
func (ch *Chip) opStoreRegs(in Instr) error {
	for i := byte(0); i <= in.X; i++ {
		if err := ch.storeByte(ch, ch.Reg.I+uint16(i), ch.Reg.V[i]); err != nil {
			return err
		}
	}
	if ch.Quirks.StoreAdvancesI {
		ch.Reg.I += uint16(in.X) + 1
	}
	return nil
}

// Load V0..Vx from memory[I..] (Fx65). With the LoadAdvancesI quirk,
// I advances past the loaded block.
func (ch *Chip) opLoadRegs(in Instr) error {
	for i := byte(0); i <= in.X; i++ {
		v, err := ch.Mem.LoadByte(ch.Reg.I + uint16(i))
		if err != nil {
			return err
		}
		ch.Reg.V[i] = v
	}
	if ch.Quirks.LoadAdvancesI {
		ch.Reg.I += uint16(in.X) + 1
	}
	return nil
}

func (ch *Chip) isKeyPressed(k byte) bool {
	return k < NumKeys && ch.keys[k]
}
