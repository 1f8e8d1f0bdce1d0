// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import "github.com/ypro/chip8/chip8"

// The debugHandler receives notifications from the VM debugger and
// forwards them to the host.
type debugHandler struct {
	host *Host
}

func newDebugHandler(h *Host) *debugHandler {
	return &debugHandler{host: h}
}

func (h *debugHandler) OnBreakpoint(ch *chip8.Chip, b *chip8.Breakpoint) {
	h.host.onBreakpoint(ch, b)
}

func (h *debugHandler) OnDataBreakpoint(ch *chip8.Chip, b *chip8.DataBreakpoint) {
	h.host.onDataBreakpoint(ch, b)
}
