// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chip8

// An Instr is a decoded instruction word, split into every field an
// instruction might use. Decoding is total; which fields are
// meaningful depends on the opcode class.
type Instr struct {
	Opcode uint16 // the full 16-bit instruction word
	C      byte   // class: the high nibble
	X      byte   // second nibble, usually a register index
	Y      byte   // third nibble, usually a register index
	N      byte   // low nibble
	NN     byte   // low byte
	NNN    uint16 // low 12 bits, an address
}

// Decode splits a 16-bit instruction word into its fields.
func Decode(opcode uint16) Instr {
	return Instr{
		Opcode: opcode,
		C:      byte(opcode >> 12),
		X:      byte(opcode>>8) & 0x0F,
		Y:      byte(opcode>>4) & 0x0F,
		N:      byte(opcode) & 0x0F,
		NN:     byte(opcode),
		NNN:    opcode & 0x0FFF,
	}
}

// An instruction handler. The program counter has already been
// advanced past the instruction when the handler runs.
type instfunc func(ch *Chip, in Instr) error

// An Instruction describes one entry of the instruction set.
type Instruction struct {
	Name string // mnemonic
	fn   instfunc
}

// An InstructionSet maps dispatch keys to instruction descriptions.
type InstructionSet struct {
	instructions map[uint16]*Instruction
}

// Lookup returns the instruction matching the decoded word, or nil if
// the word matches nothing in the set.
func (s *InstructionSet) Lookup(in Instr) *Instruction {
	return s.instructions[dispatchKey(in)]
}

// dispatchKey collapses a decoded word onto the key its table entry
// was registered under. Classes 0, E and F select on the low byte,
// classes 5, 8 and 9 on the low nibble, and all others on the class
// nibble alone.
func dispatchKey(in Instr) uint16 {
	switch in.C {
	case 0x0:
		return in.Opcode
	case 0x5, 0x8, 0x9:
		return uint16(in.C)<<12 | uint16(in.N)
	case 0xE, 0xF:
		return uint16(in.C)<<12 | uint16(in.NN)
	default:
		return uint16(in.C) << 12
	}
}

// All valid instructions, keyed by dispatch pattern.
var instructionData = []struct {
	key  uint16
	name string
	fn   instfunc
}{
	{0x00E0, "CLS", (*Chip).opCls},
	{0x00EE, "RET", (*Chip).opRet},
	{0x1000, "JP", (*Chip).opJp},
	{0x2000, "CALL", (*Chip).opCall},
	{0x3000, "SE", (*Chip).opSeImm},
	{0x4000, "SNE", (*Chip).opSneImm},
	{0x5000, "SE", (*Chip).opSeReg},
	{0x6000, "LD", (*Chip).opLdImm},
	{0x7000, "ADD", (*Chip).opAddImm},
	{0x8000, "LD", (*Chip).opLdReg},
	{0x8001, "OR", (*Chip).opOr},
	{0x8002, "AND", (*Chip).opAnd},
	{0x8003, "XOR", (*Chip).opXor},
	{0x8004, "ADD", (*Chip).opAddReg},
	{0x8005, "SUB", (*Chip).opSub},
	{0x8006, "SHR", (*Chip).opShr},
	{0x8007, "SUBN", (*Chip).opSubn},
	{0x800E, "SHL", (*Chip).opShl},
	{0x9000, "SNE", (*Chip).opSneReg},
	{0xA000, "LD", (*Chip).opLdI},
	{0xB000, "JP", (*Chip).opJpV0},
	{0xC000, "RND", (*Chip).opRnd},
	{0xD000, "DRW", (*Chip).opDrw},
	{0xE09E, "SKP", (*Chip).opSkp},
	{0xE0A1, "SKNP", (*Chip).opSknp},
	{0xF007, "LD", (*Chip).opLdVxDT},
	{0xF00A, "LD", (*Chip).opLdVxKey},
	{0xF015, "LD", (*Chip).opLdDT},
	{0xF018, "LD", (*Chip).opLdST},
	{0xF01E, "ADD", (*Chip).opAddI},
	{0xF029, "LD", (*Chip).opLdFont},
	{0xF033, "LD", (*Chip).opLdBCD},
	{0xF055, "LD", (*Chip).opStoreRegs},
	{0xF065, "LD", (*Chip).opLoadRegs},
}

// The single instruction set shared by all VM instances.
var instSet *InstructionSet

// Build the instruction set lookup table.
func init() {
	instSet = &InstructionSet{
		instructions: make(map[uint16]*Instruction, len(instructionData)),
	}
	for _, d := range instructionData {
		instSet.instructions[d.key] = &Instruction{Name: d.name, fn: d.fn}
	}
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
