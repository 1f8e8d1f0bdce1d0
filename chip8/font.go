// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chip8

// The built-in hexadecimal digit sprites, 4 cells wide and 5 rows
// tall, copied into low memory at power-on. Only the high nibble of
// each row byte is used.
var fontSprites = [16][5]byte{
	{0x60, 0x90, 0x90, 0x90, 0x60}, // 0
	{0x20, 0x60, 0x20, 0x20, 0x70}, // 1
	{0xF0, 0x10, 0xF0, 0x80, 0xF0}, // 2
	{0xE0, 0x10, 0xE0, 0x10, 0xE0}, // 3
	{0x90, 0x90, 0xF0, 0x10, 0x10}, // 4
	{0xF0, 0x80, 0xE0, 0x10, 0xE0}, // 5
	{0x70, 0x80, 0xE0, 0x90, 0xE0}, // 6
	{0xF0, 0x10, 0x20, 0x40, 0x40}, // 7
	{0x60, 0x90, 0x60, 0x90, 0x60}, // 8
	{0x60, 0x90, 0x70, 0x10, 0xE0}, // 9
	{0x60, 0x90, 0xF0, 0x90, 0x90}, // A
	{0xE0, 0x90, 0xE0, 0x90, 0xE0}, // B
	{0x70, 0x80, 0x80, 0x80, 0x70}, // C
	{0xE0, 0x90, 0x90, 0x90, 0xE0}, // D
	{0xF0, 0x80, 0xE0, 0x80, 0xF0}, // E
	{0xF0, 0x80, 0xF0, 0x80, 0x80}, // F
}
