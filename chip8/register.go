// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chip8

// Registers is the CHIP-8 register file.
type Registers struct {
	V  [16]byte // general purpose registers; VF doubles as the flag
	I  uint16   // index register
	PC uint16   // program counter
	SP byte     // stack pointer: number of frames on the call stack
	DT byte     // delay timer
	ST byte     // sound timer
}

// Init initializes the register file to the power-on state.
func (r *Registers) Init() {
	*r = Registers{}
}
