// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chip8

// Quirks selects between the historically ambiguous behaviors of a
// handful of instructions. Interpreters diverged over the decades, and
// ROMs were written against both conventions, so the profile must be
// chosen to match the ROM. The profile is fixed when the VM is
// constructed.
type Quirks struct {
	// SHRCopiesVY makes SHR Vx, Vy copy Vy into Vx before shifting.
	SHRCopiesVY bool

	// SHLCopiesVY makes SHL Vx, Vy copy Vy into Vx before shifting.
	SHLCopiesVY bool

	// StoreAdvancesI makes LD [I], Vx leave I pointing past the
	// stored block.
	StoreAdvancesI bool

	// LoadAdvancesI makes LD Vx, [I] leave I pointing past the
	// loaded block.
	LoadAdvancesI bool
}

// OriginalQuirks returns the behavior of the original 1970s
// interpreter: all quirks enabled.
func OriginalQuirks() Quirks {
	return Quirks{
		SHRCopiesVY:    true,
		SHLCopiesVY:    true,
		StoreAdvancesI: true,
		LoadAdvancesI:  true,
	}
}

// ModernQuirks returns the behavior most interpreters from the 1990s
// onward settled on: all quirks disabled.
func ModernQuirks() Quirks {
	return Quirks{}
}
