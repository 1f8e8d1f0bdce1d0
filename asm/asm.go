// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm implements a two-pass CHIP-8 assembler.
package asm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var errParse = errors.New("parse error")

// An Assembly is the output of a successful assembly: a big-endian
// machine code image suitable for the VM's ROM loader.
type Assembly struct {
	Code   []byte   // assembled machine code
	Errors []string // one entry per failed source line
}

// A SourceMap describes where the assembled code lives and which
// addresses its labels resolved to.
type SourceMap struct {
	Origin uint16            // load address of the first code byte
	Size   int               // length of the assembled code in bytes
	Labels map[string]uint16 // label address table
}

// Assemble reads CHIP-8 assembly language from the reader and
// assembles it to machine code starting at the requested origin
// address. The file name is used only for error messages.
func Assemble(r io.Reader, filename string, origin uint16) (*Assembly, *SourceMap, error) {
	a := &assembler{
		filename: filename,
		origin:   origin,
		labels:   make(map[string]uint16),
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		a.lines = append(a.lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}

	a.pass(1)
	a.pass(2)

	asm := &Assembly{Code: a.code, Errors: a.errors}
	sm := &SourceMap{Origin: a.origin, Size: len(a.code), Labels: a.labels}
	if len(a.errors) > 0 {
		return asm, sm, fmt.Errorf("%w: %s", errParse, a.errors[0])
	}
	return asm, sm, nil
}

// AssembleFile assembles a source file and writes the machine code
// image alongside it with a .bin extension. Progress and errors are
// reported to the writer.
func AssembleFile(path string, origin uint16, out io.Writer) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	assembly, sm, err := Assemble(file, path, origin)
	if err != nil {
		if assembly != nil {
			for _, e := range assembly.Errors {
				fmt.Fprintln(out, e)
			}
		}
		return err
	}

	ext := filepath.Ext(path)
	binPath := path[:len(path)-len(ext)] + ".bin"
	if err := os.WriteFile(binPath, assembly.Code, 0600); err != nil {
		return err
	}

	fmt.Fprintf(out, "Assembled '%s' to '%s' (origin $%04X, %d bytes).\n",
		filepath.Base(path), filepath.Base(binPath), sm.Origin, sm.Size)
	return nil
}

type assembler struct {
	filename string
	origin   uint16
	lines    []string
	labels   map[string]uint16
	code     []byte
	addr     uint16
	passNum  int
	errors   []string
}

func (a *assembler) pass(n int) {
	a.passNum = n
	a.addr = a.origin
	a.code = a.code[:0]
	if n == 2 {
		a.errors = a.errors[:0]
	}
	for i, line := range a.lines {
		if err := a.parseLine(line); err != nil {
			a.errors = append(a.errors,
				fmt.Sprintf("%s:%d: %v", a.filename, i+1, err))
		}
	}
}

func (a *assembler) parseLine(line string) error {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	// A leading "name:" defines a label for the current address.
	if i := strings.IndexByte(line, ':'); i >= 0 && isIdent(line[:i]) {
		label := line[:i]
		switch a.passNum {
		case 1:
			if _, ok := a.labels[label]; ok {
				return fmt.Errorf("label '%s' redefined", label)
			}
			a.labels[label] = a.addr
		case 2:
			// The first definition won during pass 1.
			if a.labels[label] != a.addr {
				return fmt.Errorf("label '%s' redefined", label)
			}
		}
		line = strings.TrimSpace(line[i+1:])
		if line == "" {
			return nil
		}
	}

	mnemonic, rest := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		mnemonic, rest = line[:i], strings.TrimSpace(line[i+1:])
	}
	mnemonic = strings.ToUpper(mnemonic)

	var operands []string
	if rest != "" {
		for _, op := range strings.Split(rest, ",") {
			operands = append(operands, strings.TrimSpace(op))
		}
	}

	switch mnemonic {
	case ".ORG":
		return a.parseOrigin(operands)
	case ".DB":
		return a.parseDataBytes(operands)
	case ".DW":
		return a.parseDataWords(operands)
	}

	opcode, err := a.encode(mnemonic, operands)
	if err != nil {
		return err
	}
	a.emit(byte(opcode>>8), byte(opcode))
	return nil
}

func (a *assembler) parseOrigin(operands []string) error {
	if len(operands) != 1 {
		return errors.New(".ORG requires one address")
	}
	v, err := a.eval(operands[0], 0xFFF)
	if err != nil {
		return err
	}
	if len(a.code) == 0 {
		a.origin = v
	}
	a.addr = v
	return nil
}

func (a *assembler) parseDataBytes(operands []string) error {
	for _, op := range operands {
		v, err := a.eval(op, 0xFF)
		if err != nil {
			return err
		}
		a.emit(byte(v))
	}
	return nil
}

func (a *assembler) parseDataWords(operands []string) error {
	for _, op := range operands {
		v, err := a.eval(op, 0xFFFF)
		if err != nil {
			return err
		}
		a.emit(byte(v>>8), byte(v))
	}
	return nil
}

func (a *assembler) emit(b ...byte) {
	a.code = append(a.code, b...)
	a.addr += uint16(len(b))
}

// encode translates one mnemonic and its operands into an instruction
// word.
func (a *assembler) encode(mnemonic string, operands []string) (uint16, error) {
	switch mnemonic {
	case "CLS":
		return 0x00E0, nil

	case "RET":
		return 0x00EE, nil

	case "JP":
		switch {
		case len(operands) == 1:
			return a.encodeAddr(0x1000, operands[0])
		case len(operands) == 2 && strings.EqualFold(operands[0], "V0"):
			return a.encodeAddr(0xB000, operands[1])
		}

	case "CALL":
		if len(operands) == 1 {
			return a.encodeAddr(0x2000, operands[0])
		}

	case "SE":
		return a.encodeCompare(0x3000, 0x5000, operands)

	case "SNE":
		return a.encodeCompare(0x4000, 0x9000, operands)

	case "LD":
		return a.encodeLoad(operands)

	case "ADD":
		if len(operands) == 2 {
			switch {
			case strings.EqualFold(operands[0], "I"):
				return a.encodeFx(0xF01E, operands[1])
			case isReg(operands[1]):
				return a.encodeALU(0x8004, operands)
			default:
				return a.encodeRegImm(0x7000, operands)
			}
		}

	case "OR":
		return a.encodeALU(0x8001, operands)

	case "AND":
		return a.encodeALU(0x8002, operands)

	case "XOR":
		return a.encodeALU(0x8003, operands)

	case "SUB":
		return a.encodeALU(0x8005, operands)

	case "SHR":
		return a.encodeShift(0x8006, operands)

	case "SUBN":
		return a.encodeALU(0x8007, operands)

	case "SHL":
		return a.encodeShift(0x800E, operands)

	case "RND":
		if len(operands) == 2 {
			return a.encodeRegImm(0xC000, operands)
		}

	case "DRW":
		if len(operands) == 3 {
			x, err := regIndex(operands[0])
			if err != nil {
				return 0, err
			}
			y, err := regIndex(operands[1])
			if err != nil {
				return 0, err
			}
			n, err := a.eval(operands[2], 0xF)
			if err != nil {
				return 0, err
			}
			return 0xD000 | uint16(x)<<8 | uint16(y)<<4 | n, nil
		}

	case "SKP":
		if len(operands) == 1 {
			return a.encodeFx(0xE09E, operands[0])
		}

	case "SKNP":
		if len(operands) == 1 {
			return a.encodeFx(0xE0A1, operands[0])
		}

	default:
		return 0, fmt.Errorf("unknown mnemonic '%s'", mnemonic)
	}

	return 0, fmt.Errorf("invalid operands for %s", mnemonic)
}

func (a *assembler) encodeAddr(base uint16, operand string) (uint16, error) {
	v, err := a.eval(operand, 0xFFF)
	if err != nil {
		return 0, err
	}
	return base | v, nil
}

func (a *assembler) encodeRegImm(base uint16, operands []string) (uint16, error) {
	if len(operands) != 2 {
		return 0, errors.New("expected a register and a value")
	}
	x, err := regIndex(operands[0])
	if err != nil {
		return 0, err
	}
	v, err := a.eval(operands[1], 0xFF)
	if err != nil {
		return 0, err
	}
	return base | uint16(x)<<8 | v, nil
}

func (a *assembler) encodeALU(base uint16, operands []string) (uint16, error) {
	if len(operands) != 2 {
		return 0, errors.New("expected two registers")
	}
	x, err := regIndex(operands[0])
	if err != nil {
		return 0, err
	}
	y, err := regIndex(operands[1])
	if err != nil {
		return 0, err
	}
	return base | uint16(x)<<8 | uint16(y)<<4, nil
}

// A shift with one operand shifts the register in place.
func (a *assembler) encodeShift(base uint16, operands []string) (uint16, error) {
	if len(operands) == 1 {
		operands = append(operands, operands[0])
	}
	return a.encodeALU(base, operands)
}

func (a *assembler) encodeCompare(immBase, regBase uint16, operands []string) (uint16, error) {
	if len(operands) != 2 {
		return 0, errors.New("expected two operands")
	}
	if isReg(operands[1]) {
		return a.encodeALU(regBase, operands)
	}
	return a.encodeRegImm(immBase, operands)
}

func (a *assembler) encodeLoad(operands []string) (uint16, error) {
	if len(operands) != 2 {
		return 0, errors.New("expected two operands")
	}
	dst, src := operands[0], operands[1]

	switch {
	case strings.EqualFold(dst, "I"):
		return a.encodeAddr(0xA000, src)
	case strings.EqualFold(dst, "DT"):
		return a.encodeFx(0xF015, src)
	case strings.EqualFold(dst, "ST"):
		return a.encodeFx(0xF018, src)
	case strings.EqualFold(dst, "F"):
		return a.encodeFx(0xF029, src)
	case strings.EqualFold(dst, "B"):
		return a.encodeFx(0xF033, src)
	case strings.EqualFold(dst, "[I]"):
		return a.encodeFx(0xF055, src)
	}

	if !isReg(dst) {
		return 0, fmt.Errorf("invalid destination '%s'", dst)
	}

	switch {
	case strings.EqualFold(src, "DT"):
		return a.encodeFx(0xF007, dst)
	case strings.EqualFold(src, "K"):
		return a.encodeFx(0xF00A, dst)
	case strings.EqualFold(src, "[I]"):
		return a.encodeFx(0xF065, dst)
	case isReg(src):
		return a.encodeALU(0x8000, operands)
	default:
		return a.encodeRegImm(0x6000, operands)
	}
}

func (a *assembler) encodeFx(base uint16, reg string) (uint16, error) {
	x, err := regIndex(reg)
	if err != nil {
		return 0, err
	}
	return base | uint16(x)<<8, nil
}

// eval resolves a numeric literal or label reference. During pass 1,
// an undefined label evaluates to zero so that addresses still
// advance correctly; pass 2 reports it.
func (a *assembler) eval(s string, max uint16) (uint16, error) {
	s = strings.TrimPrefix(s, "#")

	var v int64
	var err error
	switch {
	case s == "":
		return 0, errors.New("missing value")
	case s[0] == '$':
		v, err = strconv.ParseInt(s[1:], 16, 32)
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		v, err = strconv.ParseInt(s[2:], 16, 32)
	case s[0] == '%':
		v, err = strconv.ParseInt(s[1:], 2, 32)
	case s[0] >= '0' && s[0] <= '9':
		v, err = strconv.ParseInt(s, 10, 32)
	default:
		if !isIdent(s) {
			return 0, fmt.Errorf("invalid value '%s'", s)
		}
		addr, ok := a.labels[s]
		if !ok {
			if a.passNum == 1 {
				return 0, nil
			}
			return 0, fmt.Errorf("undefined label '%s'", s)
		}
		v = int64(addr)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid value '%s'", s)
	}
	if v < 0 || v > int64(max) {
		return 0, fmt.Errorf("value '%s' out of range", s)
	}
	return uint16(v), nil
}

func isReg(s string) bool {
	_, err := regIndex(s)
	return err == nil
}

func regIndex(s string) (byte, error) {
	if len(s) == 2 && (s[0] == 'V' || s[0] == 'v') {
		switch {
		case s[1] >= '0' && s[1] <= '9':
			return s[1] - '0', nil
		case s[1] >= 'A' && s[1] <= 'F':
			return s[1] - 'A' + 10, nil
		case s[1] >= 'a' && s[1] <= 'f':
			return s[1] - 'a' + 10, nil
		}
	}
	return 0, fmt.Errorf("invalid register '%s'", s)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c == '_' || c == '.':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
