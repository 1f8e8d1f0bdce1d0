// Copyright 2018 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host allows you to create a "host" that emulates a CHIP-8
// machine with 4K of memory, a built-in assembler, a built-in
// debugger, and other useful tools.
//
// Within the host it is possible to assemble and load machine code
// into memory, debug and step through machine code, measure the
// number of VM cycles elapsed, set address and data breakpoints, dump
// the contents of memory, disassemble the contents of memory,
// manipulate registers and memory, inject keypad events, and inspect
// the contents of the display.
package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/beevik/cmd"

	"github.com/ypro/chip8/asm"
	"github.com/ypro/chip8/chip8"
	"github.com/ypro/chip8/disasm"
)

var cmds *cmd.Tree

func init() {
	// Create a command tree, where the parameter stored with each command is
	// a host callback capable of handling the command.
	cmds = cmd.NewTree("chip8", []cmd.Command{
		{
			Name:     "help",
			Shortcut: "?",
			Data:     (*Host).cmdHelp,
		},
		{
			Name:  "annotate",
			Brief: "Annotate an address",
			Description: "Provide a code annotation at a memory address." +
				" When disassembling code at this address, the annotation will" +
				" be displayed.",
			HelpText: "annotate <address> <string>",
			Data:     (*Host).cmdAnnotate,
		},
		{
			Name:     "assemble",
			Shortcut: "a",
			Brief:    "Assemble a file and save the binary",
			Description: "Run the assembler on the specified file," +
				" producing a binary file suitable for loading if successful.",
			HelpText: "assemble <filename> [<origin>]",
			Data:     (*Host).cmdAssemble,
		},
		{
			Name:     "breakpoint",
			Shortcut: "b",
			Brief:    "Breakpoint commands",
			Subcommands: cmd.NewTree("Breakpoint", []cmd.Command{
				{
					Name:        "list",
					Brief:       "List breakpoints",
					Description: "List all current breakpoints.",
					HelpText:    "breakpoint list",
					Data:        (*Host).cmdBreakpointList,
				},
				{
					Name:  "add",
					Brief: "Add a breakpoint",
					Description: "Add a breakpoint at the specified address." +
						" The breakpoint starts enabled.",
					HelpText: "breakpoint add <address>",
					Data:     (*Host).cmdBreakpointAdd,
				},
				{
					Name:        "remove",
					Brief:       "Remove a breakpoint",
					Description: "Remove a breakpoint at the specified address.",
					HelpText:    "breakpoint remove <address>",
					Data:        (*Host).cmdBreakpointRemove,
				},
				{
					Name:        "enable",
					Brief:       "Enable a breakpoint",
					Description: "Enable a previously added breakpoint.",
					HelpText:    "breakpoint enable <address>",
					Data:        (*Host).cmdBreakpointEnable,
				},
				{
					Name:  "disable",
					Brief: "Disable a breakpoint",
					Description: "Disable a previously added breakpoint. This" +
						" prevents the breakpoint from being hit when running the" +
						" VM.",
					HelpText: "breakpoint disable <address>",
					Data:     (*Host).cmdBreakpointDisable,
				},
			}),
		},
		{
			Name:     "databreakpoint",
			Shortcut: "db",
			Brief:    "Data breakpoint commands",
			Subcommands: cmd.NewTree("Data breakpoint", []cmd.Command{
				{
					Name:        "list",
					Brief:       "List data breakpoints",
					Description: "List all current data breakpoints.",
					HelpText:    "databreakpoint list",
					Data:        (*Host).cmdDataBreakpointList,
				},
				{
					Name:  "add",
					Brief: "Add a data breakpoint",
					Description: "Add a new data breakpoint at the specified" +
						" memory address. When the VM stores data at this address, the" +
						" breakpoint will stop the VM. Optionally, a byte" +
						" value may be specified, and the VM will stop only" +
						" when this value is stored. The data breakpoint starts" +
						" enabled.",
					HelpText: "databreakpoint add <address> [<value>]",
					Data:     (*Host).cmdDataBreakpointAdd,
				},
				{
					Name:  "remove",
					Brief: "Remove a data breakpoint",
					Description: "Remove a previously added data breakpoint at" +
						" the specified memory address.",
					HelpText: "databreakpoint remove <address>",
					Data:     (*Host).cmdDataBreakpointRemove,
				},
				{
					Name:        "enable",
					Brief:       "Enable a data breakpoint",
					Description: "Enable a previously added breakpoint.",
					HelpText:    "databreakpoint enable <address>",
					Data:        (*Host).cmdDataBreakpointEnable,
				},
				{
					Name:        "disable",
					Brief:       "Disable a data breakpoint",
					Description: "Disable a previously added breakpoint.",
					HelpText:    "databreakpoint disable <address>",
					Data:        (*Host).cmdDataBreakpointDisable,
				},
			}),
		},
		{
			Name:     "disassemble",
			Shortcut: "d",
			Brief:    "Disassemble code",
			Description: "Disassemble machine code starting at the requested" +
				" address. The number of instructions to disassemble may be" +
				" specified as an option.",
			HelpText: "disassemble <address> [<count>]",
			Data:     (*Host).cmdDisassemble,
		},
		{
			Name:     "key",
			Shortcut: "k",
			Brief:    "Keypad commands",
			Subcommands: cmd.NewTree("Key", []cmd.Command{
				{
					Name:  "press",
					Brief: "Press a keypad key",
					Description: "Mark a keypad key (0-F) as held down. The key" +
						" remains down until released, so a program waiting on a" +
						" key press will observe it.",
					HelpText: "key press <key>",
					Data:     (*Host).cmdKeyPress,
				},
				{
					Name:        "release",
					Brief:       "Release a keypad key",
					Description: "Mark a keypad key (0-F) as released.",
					HelpText:    "key release <key>",
					Data:        (*Host).cmdKeyRelease,
				},
			}),
		},
		{
			Name:  "load",
			Brief: "Load a ROM file",
			Description: "Load the contents of a ROM file into the emulated" +
				" machine's memory and set the program counter to the load" +
				" address. If no address is specified, the file is loaded at" +
				" the conventional program origin $200.",
			HelpText: "load <filename> [<address>]",
			Data:     (*Host).cmdLoad,
		},
		{
			Name:  "memory",
			Brief: "Memory commands",
			Subcommands: cmd.NewTree("Memory", []cmd.Command{
				{
					Name:  "dump",
					Brief: "Dump memory at address",
					Description: "Dump the contents of memory starting from the" +
						" specified address. The number of bytes to dump may be" +
						" specified as an option.",
					HelpText: "memory dump <address> [<bytes>]",
					Data:     (*Host).cmdMemoryDump,
				},
			}),
		},
		{
			Name:        "quit",
			Brief:       "Quit the program",
			Description: "Quit the program.",
			HelpText:    "quit",
			Data:        (*Host).cmdQuit,
		},
		{
			Name:     "registers",
			Shortcut: "r",
			Brief:    "Display register contents",
			Description: "Display the current contents of all VM registers, and" +
				" disassemble the instruction at the current program counter" +
				" address.",
			HelpText: "registers",
			Data:     (*Host).cmdRegisters,
		},
		{
			Name:  "reset",
			Brief: "Reset the virtual machine",
			Description: "Discard all VM state and create a fresh machine. A" +
				" quirk profile ('original' or 'modern') may be specified, as" +
				" well as a deterministic random number seed. Breakpoints are" +
				" preserved.",
			HelpText: "reset [original|modern] [<seed>]",
			Data:     (*Host).cmdReset,
		},
		{
			Name:  "run",
			Brief: "Run the VM",
			Description: "Run the VM until a breakpoint is hit, an execution" +
				" error occurs, or the user types Ctrl-C. The delay and sound" +
				" timers tick at their usual cadence while running.",
			HelpText: "run [<address>]",
			Data:     (*Host).cmdRun,
		},
		{
			Name:        "screen",
			Brief:       "Display the screen",
			Description: "Render the current contents of the display as text.",
			HelpText:    "screen",
			Data:        (*Host).cmdScreen,
		},
		{
			Name:  "set",
			Brief: "Set a register or configuration variable",
			Description: "Set the value of a register (V0-VF, I, PC, DT, ST) or" +
				" a configuration variable. Type the set command without a" +
				" variable name or value to display the current values of all" +
				" configuration variables.",
			HelpText: "set <var> <value>",
			Data:     (*Host).cmdSet,
		},
		{
			Name:  "step",
			Brief: "Step the debugger",
			Subcommands: cmd.NewTree("Step", []cmd.Command{
				{
					Name:  "in",
					Brief: "Step into next instruction",
					Description: "Step the VM by a single instruction. If the" +
						" instruction is a subroutine call, step into the subroutine." +
						" The number of steps may be specified as an option.",
					HelpText: "step in [<count>]",
					Data:     (*Host).cmdStepIn,
				},
				{
					Name:  "over",
					Brief: "Step over next instruction",
					Description: "Step the VM by a single instruction. If the" +
						" instruction is a subroutine call, step over the subroutine." +
						" The number of steps may be specified as an option.",
					HelpText: "step over [<count>]",
					Data:     (*Host).cmdStepOver,
				},
			}),
		},

		// Aliases for nested commands
		{Name: "ba", Alias: "breakpoint add"},
		{Name: "br", Alias: "breakpoint remove"},
		{Name: "bl", Alias: "breakpoint list"},
		{Name: "be", Alias: "breakpoint enable"},
		{Name: "bd", Alias: "breakpoint disable"},
		{Name: "dbl", Alias: "databreakpoint list"},
		{Name: "dba", Alias: "databreakpoint add"},
		{Name: "dbr", Alias: "databreakpoint remove"},
		{Name: "dbe", Alias: "databreakpoint enable"},
		{Name: "dbd", Alias: "databreakpoint disable"},
		{Name: "kp", Alias: "key press"},
		{Name: "kr", Alias: "key release"},
		{Name: "m", Alias: "memory dump"},
		{Name: "s", Alias: "step over"},
		{Name: "si", Alias: "step in"},
	})
}

type displayFlags uint8

const (
	displayRegisters displayFlags = 1 << iota
	displayCycles
	displayAnnotations

	displayAll = displayRegisters | displayCycles | displayAnnotations
)

type state byte

const (
	stateProcessingCommands state = iota
	stateRunning
	stateBreakpoint
	stateStepOverBreakpoint
)

// A Host represents a fully emulated CHIP-8 machine, its 4K of memory,
// a built-in assembler, a built-in debugger, and other useful tools.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	chip        *chip8.Chip
	debugger    *chip8.Debugger
	quirks      chip8.Quirks
	seed        int64
	seeded      bool
	lastCmd     *cmd.Selection
	state       state
	settings    *settings
	annotations map[uint16]string
}

// New creates a new CHIP-8 host environment with the requested quirk
// profile.
func New(quirks chip8.Quirks) *Host {
	h := &Host{
		state:       stateProcessingCommands,
		quirks:      quirks,
		settings:    newSettings(),
		annotations: make(map[uint16]string),
	}

	// Create the emulated machine.
	h.chip = chip8.New(quirks)

	// Create a debugger and attach it to the machine.
	h.debugger = chip8.NewDebugger(newDebugHandler(h))
	h.chip.AttachDebugger(h.debugger)

	return h
}

// NewWithSeed creates a new CHIP-8 host environment with the requested
// quirk profile and a deterministic random number seed.
func NewWithSeed(quirks chip8.Quirks, seed int64) *Host {
	h := New(quirks)
	h.seed = seed
	h.seeded = true
	h.chip = chip8.NewWithSeed(quirks, seed)
	h.chip.AttachDebugger(h.debugger)
	return h
}

// LoadFile loads the contents of a ROM file into the machine's memory
// at the requested address and sets the program counter to it.
func (h *Host) LoadFile(filename string, addr uint16) error {
	rom, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	if err := h.chip.LoadROM(rom, addr); err != nil {
		return err
	}
	h.chip.SetPC(addr)
	return nil
}

// Chip returns the host's virtual machine.
func (h *Host) Chip() *chip8.Chip {
	return h.chip
}

// RunCommands accepts host commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the next command to be entered.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	if interactive {
		h.println()
	}

	h.displayPC()

	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			break
		}

		var c cmd.Selection
		if line != "" {
			c, err = cmds.Lookup(line)
			switch {
			case err == cmd.ErrNotFound:
				h.println("Command not found.")
				continue
			case err == cmd.ErrAmbiguous:
				h.println("Command is ambiguous.")
				continue
			case err != nil:
				h.printf("ERROR: %v.\n", err)
				continue
			}
		} else if h.lastCmd != nil {
			c = *h.lastCmd
		}

		if c.Command == nil {
			continue
		}
		h.lastCmd = &c

		handler := c.Command.Data.(func(*Host, cmd.Selection) error)
		err = handler(h, c)
		if err != nil {
			break
		}
	}
}

// Break interrupts a running VM.
func (h *Host) Break() {
	h.println()

	if h.state == stateRunning {
		h.displayPC()
	}
	if h.state == stateProcessingCommands {
		h.prompt()
	}
	h.state = stateProcessingCommands
}

func (h *Host) print(args ...any) {
	fmt.Fprint(h.output, args...)
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return h.input.Text(), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("* ")
		h.flush()
	}
}

func (h *Host) displayPC() {
	if h.interactive {
		d, _ := h.disassemble(h.chip.Reg.PC, displayAll)
		h.println(d)
	}
}

func (h *Host) cmdAnnotate(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	var annotation string
	if len(c.Args) >= 2 {
		annotation = strings.Join(c.Args[1:], " ")
	}

	if annotation == "" {
		delete(h.annotations, addr)
		h.printf("Annotation removed at $%04X.\n", addr)
	} else {
		h.annotations[addr] = annotation
		h.printf("Annotation added at $%04X.\n", addr)
	}

	return nil
}

func (h *Host) cmdAssemble(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	filename := c.Args[0]
	if filepath.Ext(filename) == "" {
		filename += ".asm"
	}

	origin := uint16(0x200)
	if len(c.Args) >= 2 {
		o, err := h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		origin = o
	}

	file, err := os.Open(filename)
	if err != nil {
		h.printf("Failed to open '%s': %v\n", filepath.Base(filename), err)
		return nil
	}
	defer file.Close()

	assembly, sourceMap, err := asm.Assemble(file, filename, origin)
	if err != nil {
		h.printf("Failed to assemble: %s\n", filepath.Base(filename))
		if assembly != nil {
			for _, e := range assembly.Errors {
				h.println(e)
			}
		}
		return nil
	}

	file.Close()

	ext := filepath.Ext(filename)
	binFilename := filename[0:len(filename)-len(ext)] + ".bin"
	if err := os.WriteFile(binFilename, assembly.Code, 0600); err != nil {
		h.printf("Failed to save '%s': %v\n", filepath.Base(binFilename), err)
		return nil
	}

	h.printf("Assembled '%s' to '%s' (origin $%04X, %d bytes).\n",
		filepath.Base(filename), filepath.Base(binFilename),
		sourceMap.Origin, sourceMap.Size)
	return nil
}

func (h *Host) cmdBreakpointList(c cmd.Selection) error {
	h.println("Addr  Enabled")
	h.println("----- -------")
	for _, b := range h.debugger.GetBreakpoints() {
		h.printf("$%04X %v\n", b.Address, !b.Disabled)
	}
	return nil
}

func (h *Host) cmdBreakpointAdd(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.debugger.AddBreakpoint(addr)
	h.printf("Breakpoint added at $%04X.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointRemove(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	if h.debugger.GetBreakpoint(addr) == nil {
		h.printf("No breakpoint was set on $%04X.\n", addr)
		return nil
	}

	h.debugger.RemoveBreakpoint(addr)
	h.printf("Breakpoint at $%04X removed.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointEnable(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	b := h.debugger.GetBreakpoint(addr)
	if b == nil {
		h.printf("No breakpoint was set on $%04X.\n", addr)
		return nil
	}

	b.Disabled = false
	h.printf("Breakpoint at $%04X enabled.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointDisable(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	b := h.debugger.GetBreakpoint(addr)
	if b == nil {
		h.printf("No breakpoint was set on $%04X.\n", addr)
		return nil
	}

	b.Disabled = true
	h.printf("Breakpoint at $%04X disabled.\n", addr)
	return nil
}

func (h *Host) cmdDataBreakpointList(c cmd.Selection) error {
	h.println("Addr  Enabled  Value")
	h.println("----- -------  -----")
	for _, b := range h.debugger.GetDataBreakpoints() {
		if b.Conditional {
			h.printf("$%04X %-5v    $%02X\n", b.Address, !b.Disabled, b.Value)
		} else {
			h.printf("$%04X %-5v    <none>\n", b.Address, !b.Disabled)
		}
	}
	return nil
}

func (h *Host) cmdDataBreakpointAdd(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	if len(c.Args) > 1 {
		value, err := h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.debugger.AddConditionalDataBreakpoint(addr, byte(value))
		h.printf("Conditional data breakpoint added at $%04X for value $%02X.\n", addr, value)
	} else {
		h.debugger.AddDataBreakpoint(addr)
		h.printf("Data breakpoint added at $%04X.\n", addr)
	}

	return nil
}

func (h *Host) cmdDataBreakpointRemove(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	if h.debugger.GetDataBreakpoint(addr) == nil {
		h.printf("No data breakpoint was set on $%04X.\n", addr)
		return nil
	}

	h.debugger.RemoveDataBreakpoint(addr)
	h.printf("Data breakpoint at $%04X removed.\n", addr)
	return nil
}

func (h *Host) cmdDataBreakpointEnable(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	b := h.debugger.GetDataBreakpoint(addr)
	if b == nil {
		h.printf("No data breakpoint was set on $%04X.\n", addr)
		return nil
	}

	b.Disabled = false
	h.printf("Data breakpoint at $%04X enabled.\n", addr)
	return nil
}

func (h *Host) cmdDataBreakpointDisable(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	b := h.debugger.GetDataBreakpoint(addr)
	if b == nil {
		h.printf("No data breakpoint was set on $%04X.\n", addr)
		return nil
	}

	b.Disabled = true
	h.printf("Data breakpoint at $%04X disabled.\n", addr)
	return nil
}

func (h *Host) cmdDisassemble(c cmd.Selection) error {
	if len(c.Args) == 0 {
		c.Args = []string{"$"}
	}

	var addr uint16
	switch c.Args[0] {
	case "$":
		addr = h.settings.NextDisasmAddr
		if addr == 0 {
			addr = h.chip.Reg.PC
		}

	case ".":
		addr = h.chip.Reg.PC

	default:
		a, err := h.parseExpr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	lines := h.settings.DisasmLines
	if len(c.Args) > 1 {
		l, err := h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		lines = int(l)
	}

	for i := 0; i < lines; i++ {
		d, next := h.disassemble(addr, displayAnnotations)
		h.println(d)
		addr = next
	}

	h.settings.NextDisasmAddr = addr
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", lines)}
	return nil
}

func (h *Host) cmdHelp(c cmd.Selection) error {
	switch {
	case len(c.Args) == 0:
		h.displayCommands(cmds)
	default:
		s, err := cmds.Lookup(strings.Join(c.Args, " "))
		if err != nil {
			h.printf("%v\n", err)
		} else {
			switch {
			case s.Command.Subcommands != nil:
				h.displayCommands(s.Command.Subcommands)
			default:
				if s.Command.HelpText != "" {
					h.printf("Syntax: %s\n\n", s.Command.HelpText)
				}
				switch {
				case s.Command.Description != "":
					h.printf("Description:\n%s\n\n", indentWrap(3, s.Command.Description))
				case s.Command.Brief != "":
					h.printf("Description:\n%s.\n\n", indentWrap(3, s.Command.Brief))
				}
			}
		}
	}
	return nil
}

func (h *Host) cmdKeyPress(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	k, err := parseKey(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.chip.KeyPress(k)
	h.printf("Key %X pressed.\n", k)
	return nil
}

func (h *Host) cmdKeyRelease(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	k, err := parseKey(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.chip.KeyRelease(k)
	h.printf("Key %X released.\n", k)
	return nil
}

func (h *Host) cmdLoad(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	filename := c.Args[0]
	if filepath.Ext(filename) == "" {
		filename += ".bin"
	}

	addr := uint16(0x200)
	if len(c.Args) >= 2 {
		a, err := h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	rom, err := os.ReadFile(filename)
	if err != nil {
		h.printf("Failed to open '%s': %v\n", filepath.Base(filename), err)
		return nil
	}

	if err := h.chip.LoadROM(rom, addr); err != nil {
		h.printf("Failed to load '%s': %v\n", filepath.Base(filename), err)
		return nil
	}

	h.chip.SetPC(addr)
	h.printf("Loaded '%s' to $%04X..$%04X\n", filepath.Base(filename),
		addr, int(addr)+len(rom)-1)

	h.settings.NextDisasmAddr = addr
	return nil
}

func (h *Host) cmdMemoryDump(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	var addr uint16
	switch c.Args[0] {
	case "$":
		addr = h.settings.NextMemDumpAddr
		if addr == 0 {
			addr = h.chip.Reg.PC
		}

	case ".":
		addr = h.chip.Reg.PC

	default:
		a, err := h.parseExpr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	bytes := uint16(h.settings.MemDumpBytes)
	if len(c.Args) >= 2 {
		var err error
		bytes, err = h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
	}

	h.dumpMemory(addr, bytes)

	h.settings.NextMemDumpAddr = addr + bytes
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", bytes)}
	return nil
}

func (h *Host) cmdQuit(c cmd.Selection) error {
	return errors.New("Exiting program")
}

func (h *Host) cmdRegisters(c cmd.Selection) error {
	reg := &h.chip.Reg
	for i := 0; i < 16; i += 8 {
		line := make([]string, 0, 8)
		for j := i; j < i+8; j++ {
			line = append(line, fmt.Sprintf("V%X=%02X", j, reg.V[j]))
		}
		h.println(strings.Join(line, " "))
	}

	d, _ := h.disassemble(reg.PC, displayAll)
	h.println(d)
	return nil
}

func (h *Host) cmdReset(c cmd.Selection) error {
	quirks := h.quirks
	if len(c.Args) > 0 {
		switch strings.ToLower(c.Args[0]) {
		case "original":
			quirks = chip8.OriginalQuirks()
		case "modern":
			quirks = chip8.ModernQuirks()
		default:
			h.printf("Unknown quirk profile '%s'.\n", c.Args[0])
			return nil
		}
	}

	seed, seeded := h.seed, h.seeded
	if len(c.Args) > 1 {
		s, err := h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		seed, seeded = int64(s), true
	}

	h.quirks = quirks
	h.seed, h.seeded = seed, seeded

	if seeded {
		h.chip = chip8.NewWithSeed(quirks, seed)
	} else {
		h.chip = chip8.New(quirks)
	}
	h.chip.AttachDebugger(h.debugger)

	h.settings.NextDisasmAddr = 0
	h.settings.NextMemDumpAddr = 0

	h.println("Machine reset.")
	return nil
}

func (h *Host) cmdRun(c cmd.Selection) error {
	if len(c.Args) > 0 {
		pc, err := h.parseExpr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.chip.SetPC(pc)
	}

	h.printf("Running from $%04X. Press ctrl-C to break.\n", h.chip.Reg.PC)

	period := time.Duration(h.settings.TimerMillis) * time.Millisecond
	lastTick := time.Now()
	soundOn := h.chip.IsSoundOn()

	h.state = stateRunning
	for h.state == stateRunning {
		h.step()
		if time.Since(lastTick) >= period {
			h.chip.CycleTimers()
			lastTick = time.Now()
			if on := h.chip.IsSoundOn(); on != soundOn {
				soundOn = on
				if on {
					h.println("Sound on.")
				} else {
					h.println("Sound off.")
				}
			}
		}
	}
	h.state = stateProcessingCommands

	h.settings.NextDisasmAddr = h.chip.Reg.PC
	return nil
}

func (h *Host) cmdScreen(c cmd.Selection) error {
	frame := h.chip.Frame()

	border := "+" + strings.Repeat("-", chip8.FrameWidth) + "+"
	h.println(border)

	row := make([]byte, chip8.FrameWidth+2)
	row[0], row[len(row)-1] = '|', '|'
	for r := 0; r < chip8.FrameHeight; r++ {
		for x := 0; x < chip8.FrameWidth; x++ {
			if frame[r][x] != 0 {
				row[x+1] = '#'
			} else {
				row[x+1] = ' '
			}
		}
		h.println(string(row))
	}

	h.println(border)
	return nil
}

func (h *Host) cmdSet(c cmd.Selection) error {
	switch len(c.Args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)

	case 1:
		h.displayHelpText(c.Command)

	default:
		key, value := strings.ToLower(c.Args[0]), strings.Join(c.Args[1:], " ")
		v, errV := h.parseExpr(value)

		// Setting a register?
		if errV == nil && h.setRegister(key, v) {
			return nil
		}

		// Setting a debugger setting?
		var err error
		switch h.settings.Kind(key) {
		case reflect.Invalid:
			err = fmt.Errorf("Setting '%s' not found", key)
		case reflect.Bool:
			var b bool
			b, err = stringToBool(value)
			if err == nil {
				err = h.settings.Set(key, b)
			}
		default:
			err = errV
			if err == nil {
				err = h.settings.Set(key, v)
			}
		}

		if err == nil {
			h.println("Setting updated.")
		} else {
			h.printf("%v\n", err)
		}
	}

	return nil
}

// setRegister updates a machine register addressed by name. It
// reports whether the name matched a register.
func (h *Host) setRegister(key string, v uint16) bool {
	reg := &h.chip.Reg

	if len(key) == 2 && key[0] == 'v' {
		if x, err := parseKeyDigit(key[1]); err == nil {
			reg.V[x] = byte(v)
			h.printf("Register V%X set to $%02X.\n", x, byte(v))
			return true
		}
	}

	switch key {
	case "i":
		reg.I = v
		h.printf("Register I set to $%04X.\n", v)
	case ".", "pc":
		reg.PC = v
		h.printf("Register PC set to $%04X.\n", v)
	case "dt":
		reg.DT = byte(v)
		h.printf("Register DT set to $%02X.\n", byte(v))
	case "st":
		reg.ST = byte(v)
		h.printf("Register ST set to $%02X.\n", byte(v))
	default:
		return false
	}
	return true
}

func (h *Host) cmdStepIn(c cmd.Selection) error {
	// Parse the number of steps.
	count := 1
	if len(c.Args) > 0 {
		n, err := h.parseExpr(c.Args[0])
		if err == nil {
			count = int(n)
		}
	}

	// Step the VM count times.
	h.state = stateRunning
	for i := count - 1; i >= 0 && h.state == stateRunning; i-- {
		h.step()
		switch {
		case i == h.settings.MaxStepLines:
			h.println("...")
		case i < h.settings.MaxStepLines:
			h.displayPC()
		}
	}
	h.state = stateProcessingCommands

	h.settings.NextDisasmAddr = h.chip.Reg.PC
	return nil
}

func (h *Host) cmdStepOver(c cmd.Selection) error {
	// Parse the number of steps.
	count := 1
	if len(c.Args) > 0 {
		n, err := h.parseExpr(c.Args[0])
		if err == nil {
			count = int(n)
		}
	}

	// Step over the next instruction count times.
	h.state = stateRunning
	for i := count - 1; i >= 0 && h.state == stateRunning; i-- {
		h.stepOver()
		switch {
		case i == h.settings.MaxStepLines:
			h.println("...")
		case i < h.settings.MaxStepLines:
			h.displayPC()
		}
	}
	h.state = stateProcessingCommands

	h.settings.NextDisasmAddr = h.chip.Reg.PC
	return nil
}

func (h *Host) step() {
	if err := h.chip.Cycle(); err != nil {
		h.printf("%v\n", err)
		h.state = stateProcessingCommands
	}
}

func (h *Host) stepOver() {
	// CALL instructions need to be handled specially.
	opcode, err := h.chip.Mem.LoadWord(h.chip.Reg.PC)
	if err != nil || opcode>>12 != 0x2 {
		h.step()
		return
	}

	// Place a step-over breakpoint on the instruction following the CALL.
	// Either modify an already existing breakpoint on that instruction, or
	// create a temporary one.
	next := h.chip.Reg.PC + 2
	tmpBreakpointCreated := false
	b := h.debugger.GetBreakpoint(next)
	if b == nil {
		b = h.debugger.AddBreakpoint(next)
		tmpBreakpointCreated = true
	}
	b.StepOver = true

	// Run until interrupted.
	for h.state == stateRunning {
		h.step()
	}
	b.StepOver = false

	// If we were interrupted by the temporary step-over breakpoint,
	// then continue as normal.
	if h.state == stateStepOverBreakpoint {
		h.state = stateRunning
	}

	// Remove the temporarily created breakpoint.
	if tmpBreakpointCreated {
		h.debugger.RemoveBreakpoint(next)
	}
}

// parseExpr resolves a register name or numeric literal. A leading
// '$' or a true HexMode setting selects hexadecimal for bare numbers.
func (h *Host) parseExpr(expr string) (uint16, error) {
	s := strings.ToLower(strings.TrimSpace(expr))

	reg := &h.chip.Reg
	switch s {
	case "i":
		return reg.I, nil
	case ".", "pc":
		return reg.PC, nil
	case "dt":
		return uint16(reg.DT), nil
	case "st":
		return uint16(reg.ST), nil
	}
	if len(s) == 2 && s[0] == 'v' {
		if x, err := parseKeyDigit(s[1]); err == nil {
			return uint16(reg.V[x]), nil
		}
	}

	return parseUint16(s, h.settings.HexMode)
}

func (h *Host) disassemble(addr uint16, flags displayFlags) (str string, next uint16) {
	var line string
	line, next = disasm.Disassemble(h.chip.Mem, addr)

	b := make([]byte, 2)
	h.chip.Mem.LoadBytes(addr, b)

	str = fmt.Sprintf("%04X-   %-8s    %-15s", addr, codeString(b), line)

	if (flags & displayRegisters) != 0 {
		str += " " + disasm.GetRegisterString(&h.chip.Reg)
	}

	if (flags & displayCycles) != 0 {
		str += fmt.Sprintf(" C=%-12d", h.chip.Cycles)
	}

	if (flags & displayAnnotations) != 0 {
		if anno, ok := h.annotations[addr]; ok {
			str += " ; " + anno
		}
	}

	return str, next
}

func (h *Host) dumpMemory(addr0, bytes uint16) {
	if bytes == 0 {
		return
	}

	addr1 := addr0 + bytes - 1
	if addr1 < addr0 || int(addr1) >= chip8.RAMSize {
		addr1 = chip8.RAMSize - 1
	}

	buf := []byte("    -" + strings.Repeat(" ", 35))

	loadByte := func(a uint16) byte {
		v, _ := h.chip.Mem.LoadByte(a)
		return v
	}

	// Don't align display for short dumps.
	if addr1-addr0 < 8 {
		addrToBuf(addr0, buf[0:4])
		for a, c1, c2 := addr0, 6, 32; a <= addr1; a, c1, c2 = a+1, c1+3, c2+1 {
			m := loadByte(a)
			byteToBuf(m, buf[c1:c1+2])
			buf[c2] = toPrintableChar(m)
		}
		h.println(string(buf))
		return
	}

	// Align addr0 and addr1 to 8-byte boundaries.
	start := uint32(addr0) & 0xfff8
	stop := (uint32(addr1) + 8) & 0xffff8
	if stop > chip8.RAMSize {
		stop = chip8.RAMSize
	}

	a := uint16(start)
	for r := start; r < stop; r += 8 {
		addrToBuf(a, buf[0:4])
		for c1, c2 := 6, 32; c1 < 29; c1, c2, a = c1+3, c2+1, a+1 {
			if a >= addr0 && a <= addr1 {
				m := loadByte(a)
				byteToBuf(m, buf[c1:c1+2])
				buf[c2] = toPrintableChar(m)
			} else {
				buf[c1] = ' '
				buf[c1+1] = ' '
				buf[c2] = ' '
			}
		}
		h.println(string(buf))
	}
}

func (h *Host) displayHelpText(c *cmd.Command) {
	if c.HelpText != "" {
		h.printf("Syntax: %s\n", c.HelpText)
	} else {
		h.println("<no help text>")
	}
}

func (h *Host) displayCommands(commands *cmd.Tree) {
	h.printf("%s commands:\n", commands.Title)
	for _, c := range commands.Commands {
		if c.Brief != "" {
			h.printf("    %-15s  %s\n", c.Name, c.Brief)
		}
	}
}

func (h *Host) onBreakpoint(ch *chip8.Chip, b *chip8.Breakpoint) {
	if b.StepOver {
		h.state = stateStepOverBreakpoint
	} else {
		h.state = stateBreakpoint
		h.printf("Breakpoint hit at $%04X.\n", b.Address)
		h.displayPC()
	}
}

func (h *Host) onDataBreakpoint(ch *chip8.Chip, b *chip8.DataBreakpoint) {
	h.printf("Data breakpoint hit on address $%04X.\n", b.Address)
	h.state = stateBreakpoint
	h.displayPC()
}
