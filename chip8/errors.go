// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chip8

import (
	"errors"
	"fmt"
)

// Errors returned by Cycle when the program misuses the call stack.
var (
	ErrStackOverflow  = errors.New("chip8: call stack overflow")
	ErrStackUnderflow = errors.New("chip8: call stack underflow")
)

// An UnknownOpcodeError is returned by Cycle when the fetched
// instruction word matches no instruction.
type UnknownOpcodeError struct {
	Opcode uint16 // the unrecognized instruction word
	Addr   uint16 // the address it was fetched from
}

// Error implements the error interface.
func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("chip8: unknown opcode $%04X at $%04X", e.Opcode, e.Addr)
}

// An AddressRangeError is returned by a memory access that falls
// outside the 4K address space.
type AddressRangeError struct {
	Addr uint16 // the offending address
}

// Error implements the error interface.
func (e *AddressRangeError) Error() string {
	return fmt.Sprintf("chip8: address $%04X out of range", e.Addr)
}
