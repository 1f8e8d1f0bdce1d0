// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm implements a CHIP-8 instruction set disassembler.
package disasm

import (
	"fmt"

	"github.com/ypro/chip8/chip8"
)

// Disassemble the machine code in memory 'm' at address 'addr'. Return
// a 'line' string representing the disassembled instruction and a
// 'next' address that starts the following line of machine code. A
// word that matches no instruction is rendered as a .DW directive.
func Disassemble(m *chip8.Memory, addr uint16) (line string, next uint16) {
	next = addr + 2

	opcode, err := m.LoadWord(addr)
	if err != nil {
		return fmt.Sprintf(".DW $%04X", 0), next
	}

	in := chip8.Decode(opcode)
	switch {
	case opcode == 0x00E0:
		line = "CLS"
	case opcode == 0x00EE:
		line = "RET"
	case in.C == 0x1:
		line = fmt.Sprintf("JP $%03X", in.NNN)
	case in.C == 0x2:
		line = fmt.Sprintf("CALL $%03X", in.NNN)
	case in.C == 0x3:
		line = fmt.Sprintf("SE V%X, #$%02X", in.X, in.NN)
	case in.C == 0x4:
		line = fmt.Sprintf("SNE V%X, #$%02X", in.X, in.NN)
	case in.C == 0x5 && in.N == 0x0:
		line = fmt.Sprintf("SE V%X, V%X", in.X, in.Y)
	case in.C == 0x6:
		line = fmt.Sprintf("LD V%X, #$%02X", in.X, in.NN)
	case in.C == 0x7:
		line = fmt.Sprintf("ADD V%X, #$%02X", in.X, in.NN)
	case in.C == 0x8:
		line = disasmALU(in)
	case in.C == 0x9 && in.N == 0x0:
		line = fmt.Sprintf("SNE V%X, V%X", in.X, in.Y)
	case in.C == 0xA:
		line = fmt.Sprintf("LD I, $%03X", in.NNN)
	case in.C == 0xB:
		line = fmt.Sprintf("JP V0, $%03X", in.NNN)
	case in.C == 0xC:
		line = fmt.Sprintf("RND V%X, #$%02X", in.X, in.NN)
	case in.C == 0xD:
		line = fmt.Sprintf("DRW V%X, V%X, #$%X", in.X, in.Y, in.N)
	case in.C == 0xE && in.NN == 0x9E:
		line = fmt.Sprintf("SKP V%X", in.X)
	case in.C == 0xE && in.NN == 0xA1:
		line = fmt.Sprintf("SKNP V%X", in.X)
	case in.C == 0xF:
		line = disasmMisc(in)
	}

	if line == "" {
		line = fmt.Sprintf(".DW $%04X", opcode)
	}
	return line, next
}

// GetRegisterString returns a string describing the contents of the
// special-purpose registers.
func GetRegisterString(r *chip8.Registers) string {
	return fmt.Sprintf("I=%04X DT=%02X ST=%02X SP=%X", r.I, r.DT, r.ST, r.SP)
}

func disasmALU(in chip8.Instr) string {
	switch in.N {
	case 0x0:
		return fmt.Sprintf("LD V%X, V%X", in.X, in.Y)
	case 0x1:
		return fmt.Sprintf("OR V%X, V%X", in.X, in.Y)
	case 0x2:
		return fmt.Sprintf("AND V%X, V%X", in.X, in.Y)
	case 0x3:
		return fmt.Sprintf("XOR V%X, V%X", in.X, in.Y)
	case 0x4:
		return fmt.Sprintf("ADD V%X, V%X", in.X, in.Y)
	case 0x5:
		return fmt.Sprintf("SUB V%X, V%X", in.X, in.Y)
	case 0x6:
		return fmt.Sprintf("SHR V%X, V%X", in.X, in.Y)
	case 0x7:
		return fmt.Sprintf("SUBN V%X, V%X", in.X, in.Y)
	case 0xE:
		return fmt.Sprintf("SHL V%X, V%X", in.X, in.Y)
	}
	return ""
}

func disasmMisc(in chip8.Instr) string {
	switch in.NN {
	case 0x07:
		return fmt.Sprintf("LD V%X, DT", in.X)
	case 0x0A:
		return fmt.Sprintf("LD V%X, K", in.X)
	case 0x15:
		return fmt.Sprintf("LD DT, V%X", in.X)
	case 0x18:
		return fmt.Sprintf("LD ST, V%X", in.X)
	case 0x1E:
		return fmt.Sprintf("ADD I, V%X", in.X)
	case 0x29:
		return fmt.Sprintf("LD F, V%X", in.X)
	case 0x33:
		return fmt.Sprintf("LD B, V%X", in.X)
	case 0x55:
		return fmt.Sprintf("LD [I], V%X", in.X)
	case 0x65:
		return fmt.Sprintf("LD V%X, [I]", in.X)
	}
	return ""
}
