// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/beevik/term"

	"github.com/ypro/chip8/asm"
	"github.com/ypro/chip8/chip8"
	"github.com/ypro/chip8/host"
	"github.com/ypro/chip8/ui"
)

var (
	assemble string
	romFile  string
	profile  string
	seed     int64
	scale    int
	cycles   int
	fast     bool
	mute     bool
	monitor  bool
)

func init() {
	flag.StringVar(&assemble, "a", "", "assemble file")
	flag.StringVar(&romFile, "r", "", "ROM file to load at $200")
	flag.StringVar(&profile, "p", "modern", "quirk profile (original|modern)")
	flag.Int64Var(&seed, "seed", -1, "random number seed (-1 for entropy)")
	flag.IntVar(&scale, "scale", 10, "window pixels per display cell")
	flag.IntVar(&cycles, "cycles", 10, "instructions per display frame")
	flag.BoolVar(&fast, "fast", false, "run at an uncapped instruction rate")
	flag.BoolVar(&mute, "mute", false, "disable sound output")
	flag.BoolVar(&monitor, "monitor", false, "start the interactive monitor instead of a window")
	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: chip8 [script] ..\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	// Do command-line assemble if requested.
	if assemble != "" {
		err := asm.AssembleFile(assemble, 0x200, os.Stdout)
		if err != nil {
			fmt.Printf("Failed to assemble file '%s'.\n", assemble)
		}
		os.Exit(0)
	}

	quirks, err := parseProfile(profile)
	if err != nil {
		exitOnError(err)
	}

	if monitor || romFile == "" {
		runMonitor(quirks)
		return
	}

	runWindow(quirks)
}

// runWindow loads the ROM and runs it in a graphical window.
func runWindow(quirks chip8.Quirks) {
	ch := newChip(quirks)

	rom, err := os.ReadFile(romFile)
	if err != nil {
		exitOnError(err)
	}
	if err := ch.LoadROM(rom, 0x200); err != nil {
		exitOnError(err)
	}
	ch.SetPC(0x200)

	cyclesPerFrame := cycles
	if fast {
		cyclesPerFrame = 10000
	}

	u, err := ui.New(ch, ui.Options{
		Title:          "chip8 - " + romFile,
		Scale:          scale,
		CyclesPerFrame: cyclesPerFrame,
		Muted:          mute,
	})
	if err != nil {
		exitOnError(err)
	}

	err = u.Run()
	fmt.Printf("%d cycles executed.\n", ch.Cycles)
	if err != nil {
		exitOnError(err)
	}
}

// runMonitor starts the interactive monitor on the terminal.
func runMonitor(quirks chip8.Quirks) {
	h := newHost(quirks)

	if romFile != "" {
		if err := h.LoadFile(romFile, 0x200); err != nil {
			exitOnError(err)
		}
	}

	// Run commands contained in command-line files.
	args := flag.Args()
	for _, filename := range args {
		file, err := os.Open(filename)
		if err != nil {
			exitOnError(err)
		}
		h.RunCommands(file, os.Stdout, false)
		file.Close()
	}

	// Break on Ctrl-C.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go handleInterrupt(h, c)

	// Run commands interactively.
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	h.RunCommands(os.Stdin, os.Stdout, interactive)

	fmt.Printf("%d cycles executed.\n", h.Chip().Cycles)
}

func newChip(quirks chip8.Quirks) *chip8.Chip {
	if seed >= 0 {
		return chip8.NewWithSeed(quirks, seed)
	}
	return chip8.New(quirks)
}

func newHost(quirks chip8.Quirks) *host.Host {
	if seed >= 0 {
		return host.NewWithSeed(quirks, seed)
	}
	return host.New(quirks)
}

func parseProfile(s string) (chip8.Quirks, error) {
	switch strings.ToLower(s) {
	case "original":
		return chip8.OriginalQuirks(), nil
	case "modern":
		return chip8.ModernQuirks(), nil
	default:
		return chip8.Quirks{}, fmt.Errorf("unknown quirk profile '%s'", s)
	}
}

func handleInterrupt(h *host.Host, c chan os.Signal) {
	for {
		<-c
		h.Break()
	}
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
