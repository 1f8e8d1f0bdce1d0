// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"
	"strconv"
	"strings"
)

func codeString(b []byte) string {
	switch len(b) {
	case 1:
		return fmt.Sprintf("%02X", b[0])
	case 2:
		return fmt.Sprintf("%02X %02X", b[0], b[1])
	default:
		return ""
	}
}

func stringToBool(s string) (bool, error) {
	s = strings.ToLower(s)
	switch s {
	case "0", "false":
		return false, nil
	case "1", "true":
		return true, nil
	default:
		return false, fmt.Errorf("invalid bool value '%s'", s)
	}
}

// parseUint16 parses a numeric literal. A '$', '0x' or '%' prefix
// selects the base explicitly; otherwise hexMode decides between
// hexadecimal and decimal.
func parseUint16(s string, hexMode bool) (uint16, error) {
	base := 10
	if hexMode {
		base = 16
	}

	switch {
	case strings.HasPrefix(s, "$"):
		base, s = 16, s[1:]
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base, s = 16, s[2:]
	case strings.HasPrefix(s, "%"):
		base, s = 2, s[1:]
	}

	v, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid value '%s'", s)
	}
	return uint16(v), nil
}

// parseKey parses a keypad key name, a single hexadecimal digit.
func parseKey(s string) (byte, error) {
	if len(s) == 1 {
		if k, err := parseKeyDigit(s[0]); err == nil {
			return k, nil
		}
	}
	return 0, fmt.Errorf("invalid key '%s'; expected 0-F", s)
}

func parseKeyDigit(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	}
	return 0, fmt.Errorf("invalid hex digit '%c'", c)
}

var hexString = "0123456789ABCDEF"

func addrToBuf(addr uint16, b []byte) {
	b[0] = hexString[(addr>>12)&0xf]
	b[1] = hexString[(addr>>8)&0xf]
	b[2] = hexString[(addr>>4)&0xf]
	b[3] = hexString[addr&0xf]
}

func byteToBuf(v byte, b []byte) {
	b[0] = hexString[(v>>4)&0xf]
	b[1] = hexString[v&0xf]
}

func toPrintableChar(v byte) byte {
	switch {
	case v >= 32 && v < 127:
		return v
	case v >= 160 && v < 255:
		return v - 128
	default:
		return '.'
	}
}

// indentWrap word-wraps a string to 80 columns, indenting each line
// by the requested number of spaces.
func indentWrap(indent int, s string) string {
	var sb strings.Builder
	prefix := strings.Repeat(" ", indent)
	width := 80 - indent

	line := ""
	for _, word := range strings.Fields(s) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) > width:
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteByte('\n')
			line = word
		default:
			line += " " + word
		}
	}
	sb.WriteString(prefix)
	sb.WriteString(line)
	return sb.String()
}
