// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chip8

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand"
)

// prng is the VM's byte source for the RND instruction. A fixed seed
// makes the instruction stream reproducible, which the tests and the
// monitor's reset command rely on.
type prng struct {
	r *rand.Rand
}

func newPRNG(seed int64) *prng {
	return &prng{r: rand.New(rand.NewSource(seed))}
}

// RandomByte returns a uniformly distributed byte.
func (p *prng) RandomByte() byte {
	return byte(p.r.Intn(256))
}

// entropySeed returns a seed drawn from OS entropy.
func entropySeed() int64 {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		return 1
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
