// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ui

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

const (
	sampleRate   = 48000
	toneHz       = 440
	toneVolume   = 0.25
	bytesPerSamp = 4 // one float32 sample, mono
)

// A Tone is a square wave generator feeding the audio device. While
// the tone is not playing the generator emits silence, so the player
// can stream continuously and sound on/off becomes a single flag
// flip driven by the VM's sound timer.
type Tone struct {
	ctx     *oto.Context
	player  *oto.Player
	playing atomic.Bool
	phase   int
}

// NewTone opens the audio device and starts streaming a muted square
// wave.
func NewTone() (*Tone, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	t := &Tone{ctx: ctx}
	t.player = ctx.NewPlayer(t)
	t.player.Play()
	return t, nil
}

// SetPlaying turns the tone on or off.
func (t *Tone) SetPlaying(on bool) {
	t.playing.Store(on)
}

// Close stops the audio stream.
func (t *Tone) Close() error {
	if t.player != nil {
		return t.player.Close()
	}
	return nil
}

// Read generates the next chunk of samples. It is called by the audio
// device's streaming goroutine.
func (t *Tone) Read(p []byte) (int, error) {
	const halfPeriod = sampleRate / (2 * toneHz)

	playing := t.playing.Load()
	for i := 0; i+bytesPerSamp <= len(p); i += bytesPerSamp {
		var v float32
		if playing {
			if t.phase < halfPeriod {
				v = toneVolume
			} else {
				v = -toneVolume
			}
			t.phase++
			if t.phase >= 2*halfPeriod {
				t.phase = 0
			}
		}
		binary.LittleEndian.PutUint32(p[i:], math.Float32bits(v))
	}
	return len(p) / bytesPerSamp * bytesPerSamp, nil
}
