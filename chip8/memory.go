// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chip8

// RAMSize is the size of the CHIP-8 address space in bytes.
const RAMSize = 4096

// Memory is the CHIP-8 machine's flat 4K address space. Every access
// is bounds-checked; an access outside the address space returns an
// *AddressRangeError and leaves memory unchanged.
type Memory struct {
	b [RAMSize]byte
}

// NewMemory creates a zeroed 4K memory.
func NewMemory() *Memory {
	return &Memory{}
}

// LoadByte loads a single byte from the address and returns it.
func (m *Memory) LoadByte(addr uint16) (byte, error) {
	if int(addr) >= RAMSize {
		return 0, &AddressRangeError{Addr: addr}
	}
	return m.b[addr], nil
}

// LoadWord loads a big-endian 16-bit word from the address.
func (m *Memory) LoadWord(addr uint16) (uint16, error) {
	if int(addr)+1 >= RAMSize {
		return 0, &AddressRangeError{Addr: addr}
	}
	return uint16(m.b[addr])<<8 | uint16(m.b[addr+1]), nil
}

// LoadBytes fills the buffer 'b' with bytes starting at the address.
func (m *Memory) LoadBytes(addr uint16, b []byte) error {
	if int(addr)+len(b) > RAMSize {
		return &AddressRangeError{Addr: addr}
	}
	copy(b, m.b[addr:int(addr)+len(b)])
	return nil
}

// StoreByte stores a byte at the address.
func (m *Memory) StoreByte(addr uint16, v byte) error {
	if int(addr) >= RAMSize {
		return &AddressRangeError{Addr: addr}
	}
	m.b[addr] = v
	return nil
}

// StoreWord stores a big-endian 16-bit word at the address.
func (m *Memory) StoreWord(addr uint16, v uint16) error {
	if int(addr)+1 >= RAMSize {
		return &AddressRangeError{Addr: addr}
	}
	m.b[addr] = byte(v >> 8)
	m.b[addr+1] = byte(v)
	return nil
}

// StoreBytes stores the block 'b' at the address and returns the
// first address past the stored block.
func (m *Memory) StoreBytes(addr uint16, b []byte) (uint16, error) {
	if int(addr)+len(b) > RAMSize {
		return addr, &AddressRangeError{Addr: addr}
	}
	copy(m.b[addr:int(addr)+len(b)], b)
	return addr + uint16(len(b)), nil
}

// StoreWords stores a sequence of big-endian 16-bit words starting at
// the address and returns the first address past the stored block.
func (m *Memory) StoreWords(addr uint16, words []uint16) (uint16, error) {
	if int(addr)+len(words)*2 > RAMSize {
		return addr, &AddressRangeError{Addr: addr}
	}
	for i, w := range words {
		m.b[int(addr)+i*2] = byte(w >> 8)
		m.b[int(addr)+i*2+1] = byte(w)
	}
	return addr + uint16(len(words)*2), nil
}
