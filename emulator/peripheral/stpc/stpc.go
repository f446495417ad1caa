/*
Copyright (c) 2019-2021 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

package stpc

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/andreas-jonsson/virtualstpc/emulator/processor"
	"github.com/andreas-jonsson/virtualstpc/emulator/regfile"
)

var (
	ErrNoPCIBus       = errors.New("no PCI bus")
	ErrUnknownVariant = errors.New("unknown STPC variant")
)

var Trace bool

func init() {
	flag.BoolVar(&Trace, "stpc-trace", false, "Trace STPC register accesses")
}

func logf(format string, v ...interface{}) {
	if Trace {
		log.Printf("STPC: "+format, v...)
	}
}

type Variant int

const (
	Consumer2 Variant = iota
	Elite
	Atlas
)

var variantNames = [...]string{"STPC Consumer-II", "STPC Elite", "STPC Atlas"}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return fmt.Sprintf("STPC (%d)", int(v))
	}
	return variantNames[v]
}

func ParseVariant(s string) (Variant, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch strings.TrimSpace(strings.TrimPrefix(name, "stpc")) {
	case "consumer2", "consumer-ii":
		return Consumer2, nil
	case "elite":
		return Elite, nil
	case "atlas":
		return Atlas, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

type windowSelector byte

const (
	selectNone windowSelector = iota
	selectHost
	selectLocal
)

func selectorFor(v byte) windowSelector {
	switch v {
	case selectHostBus:
		return selectHost
	case selectLocalBus:
		return selectLocal
	}
	return selectNone
}

// busWindow is one of the relocatable host and local bus register windows.
// They only store values and have no side effects.
type busWindow struct {
	*regfile.Window
	name string
}

func newBusWindow(name string) *busWindow {
	return &busWindow{Window: regfile.NewWindow(0, windowSpan, windowDataOffset, nil), name: name}
}

func (w *busWindow) In(port uint16) byte {
	ret := w.Window.In(port)
	logf("%s_read(%04x) = %02x", w.name, port, ret)
	return ret
}

func (w *busWindow) Out(port uint16, data byte) {
	logf("%s_write(%04x, %02x)", w.name, port, data)
	w.Window.Out(port, data)
}

// Device models the STPC SoC: the configuration registers behind ports
// 22h/23h, the host and local bus windows and three PCI functions.
type Device struct {
	Variant Variant

	isa         *regfile.Window
	host, local *busWindow
	selector    windowSelector
	funcs       [numFunctions]*pciFunction

	shadowRead, shadowWrite bool

	p processor.Processor
}

func NewDevice(v Variant) *Device {
	m := &Device{
		Variant: v,
		isa:     regfile.NewWindow(isaIndexPort, 2, 1, &isaRegisters),
		host:    newBusWindow("host"),
		local:   newBusWindow("localbus"),
	}
	m.isa.OnWrite = m.writeRegister
	m.setupFunctions()
	return m
}

func (m *Device) Name() string {
	return m.Variant.String()
}

func (m *Device) Install(p processor.Processor) error {
	logf("init()")

	bus := p.GetPCIBus()
	if bus == nil {
		return ErrNoPCIBus
	}

	var undo []func()
	rollback := func() {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}

	for i, f := range m.funcs {
		f := f
		slot := pciSlots[i]
		if err := bus.AddCard(slot, f); err != nil {
			rollback()
			return fmt.Errorf("stpc: add %s function at slot 0x%X: %w", f.name, slot, err)
		}
		undo = append(undo, func() { bus.RemoveCard(slot, f) })
	}

	if err := p.InstallIODevice(m, isaIndexPort, isaDataPort); err != nil {
		rollback()
		return fmt.Errorf("stpc: configuration ports: %w", err)
	}

	m.p = p
	mapper := p.GetMemoryMapper()
	mapper.SetSMRAM(0, smramBase, smramSize, false)
	mapper.SetSMRAM(1, smramBase, smramSize, true)

	m.Reset()
	return nil
}

func (m *Device) Reset() {
	logf("reset()")

	m.isa.Clear()
	m.isa.Regs[regConfig7B] = 0xFF
	m.selector = selectNone

	if m.p == nil {
		return
	}

	m.p.RemoveIODevice(m, isaIndexPort, isaDataPort)
	if err := m.p.InstallIODevice(m, isaIndexPort, isaDataPort); err != nil {
		log.Print("STPC: could not map configuration ports: ", err)
	}
	m.mapSMRAM(false)
	m.recalcMapping()
}

func (m *Device) Close() error {
	logf("close()")

	if m.p == nil {
		return nil
	}
	m.release(m.host)
	m.release(m.local)
	m.p.RemoveIODevice(m, isaIndexPort, isaDataPort)
	if bus := m.p.GetPCIBus(); bus != nil {
		for i, f := range m.funcs {
			bus.RemoveCard(pciSlots[i], f)
		}
	}
	m.p = nil
	return nil
}

func (m *Device) In(port uint16) byte {
	ret := m.isa.In(port)
	logf("isa_read(%04x) = %02x", port, ret)
	return ret
}

func (m *Device) Out(port uint16, data byte) {
	logf("isa_write(%04x, %02x)", port, data)
	m.isa.Out(port, data)
}

// Register returns the current value of a configuration register.
func (m *Device) Register(reg byte) byte {
	return m.isa.Regs[reg]
}

func (m *Device) HostBase() uint16 {
	return m.host.Base
}

func (m *Device) LocalBase() uint16 {
	return m.local.Base
}

// writeRegister runs the side effects of a configuration register after the
// masked value has been stored.
func (m *Device) writeRegister(reg, data byte) {
	logf("isa_regs[%02x] = %02x", reg, data)

	switch isaRegisters[reg].Effect {
	case effectWindowSelect:
		m.selector = selectorFor(data)
	case effectWindowBaseLow:
		if w := m.selectedWindow(); w != nil {
			m.relocate(w, (w.Base&0xFF00)|uint16(data))
		}
	case effectWindowBaseHigh:
		if w := m.selectedWindow(); w != nil {
			m.relocate(w, (w.Base&0x00FF)|uint16(data)<<8)
		}
	case effectSMRAM:
		m.mapSMRAM(data&smramEnable != 0)
		fallthrough
	case effectShadow:
		m.recalcMapping()
	}
}

func (m *Device) selectedWindow() *busWindow {
	switch m.selector {
	case selectHost:
		return m.host
	case selectLocal:
		return m.local
	}
	return nil
}

// relocate moves a bus window to a new base. The old ports are always
// released before the new ones are claimed.
func (m *Device) relocate(w *busWindow, base uint16) {
	logf("Remapping %s bus from %04x to %04x", w.name, w.Base, base)

	m.release(w)
	if w.Base = base; m.p == nil || !w.Enabled() {
		return
	}

	if base > 0xFFFF-(windowSpan-1) {
		log.Printf("STPC: %s bus window at 0x%X does not fit the I/O space", w.name, base)
		w.Base = 0
		return
	}
	if err := m.p.InstallIODevice(w, w.Base, w.Last()); err != nil {
		log.Printf("STPC: could not map %s bus window: %v", w.name, err)
		w.Base = 0
	}
}

// release unmaps a bus window and disables it.
func (m *Device) release(w *busWindow) {
	if m.p != nil && w.Enabled() {
		m.p.RemoveIODevice(w, w.Base, w.Last())
	}
	w.Base = 0
}
