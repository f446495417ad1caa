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
	"testing"

	"github.com/andreas-jonsson/virtualstpc/emulator/memory"
	"github.com/andreas-jonsson/virtualstpc/emulator/pci"
	"github.com/andreas-jonsson/virtualstpc/emulator/processor"
)

func TestParseVariant(t *testing.T) {
	tests := map[string]Variant{
		"consumer2":        Consumer2,
		"STPC Consumer-II": Consumer2,
		"elite":            Elite,
		"STPC Elite":       Elite,
		"Atlas":            Atlas,
	}
	for name, expected := range tests {
		v, err := ParseVariant(name)
		if err != nil || v != expected {
			t.Errorf("ParseVariant(%q) = %v, %v", name, v, err)
		}
		if v.String() != variantNames[expected] {
			t.Errorf("unexpected name %q", v.String())
		}
	}

	if _, err := ParseVariant("stpc client"); !errors.Is(err, ErrUnknownVariant) {
		t.Errorf("expected ErrUnknownVariant, got %v", err)
	}
}

func TestInstall(t *testing.T) {
	dev, p, bus := newTestDevice(t)

	if p.GetMappedIODevice(isaIndexPort) != dev || p.GetMappedIODevice(isaDataPort) != dev {
		t.Error("configuration ports not mapped")
	}
	for i, slot := range pciSlots {
		if bus.Card(slot) != dev.funcs[i] {
			t.Errorf("function %d not at slot 0x%X", i, slot)
		}
	}
	if p.mapper.SMRAMEnabled(0) || !p.mapper.SMRAMEnabled(1) {
		t.Error("SMRAM should only be visible in SMM after install")
	}
	if dev.Name() != "STPC Consumer-II" {
		t.Errorf("unexpected name %q", dev.Name())
	}
}

func TestInstallFailure(t *testing.T) {
	t.Run("NoPCIBus", func(t *testing.T) {
		p, _ := newTestMachine(t)
		if err := NewDevice(Elite).Install(&noBusProcessor{p}); !errors.Is(err, ErrNoPCIBus) {
			t.Errorf("expected ErrNoPCIBus, got %v", err)
		}
	})

	t.Run("SlotInUse", func(t *testing.T) {
		p, bus := newTestMachine(t)
		other := &pciFunction{policy: bridgePolicy}
		if err := bus.AddCard(ideSlot, other); err != nil {
			t.Fatal(err)
		}

		err := NewDevice(Atlas).Install(p)
		if !errors.Is(err, pci.ErrSlotInUse) {
			t.Fatalf("expected ErrSlotInUse, got %v", err)
		}
		if bus.Card(northBridgeSlot) != nil || bus.Card(southBridgeSlot) != nil {
			t.Error("PCI functions left registered after failure")
		}
		if bus.Card(ideSlot) != other {
			t.Error("foreign card was removed")
		}
		if len(p.io) != 0 {
			t.Error("ports registered after failure")
		}
	})

	t.Run("PortsInUse", func(t *testing.T) {
		p, bus := newTestMachine(t)
		if err := p.InstallIODevice(&memory.DummyIO{}, isaDataPort, isaDataPort); err != nil {
			t.Fatal(err)
		}
		if err := NewDevice(Consumer2).Install(p); err == nil {
			t.Fatal("expected install error")
		}
		for _, slot := range pciSlots {
			if bus.Card(slot) != nil {
				t.Errorf("slot 0x%X left registered", slot)
			}
		}
	})
}

type noBusProcessor struct {
	*testProcessor
}

func (*noBusProcessor) GetPCIBus() processor.PCIBus {
	return nil
}

func TestReset(t *testing.T) {
	dev, p, bus := newTestDevice(t)

	for reg := 0; reg < 256; reg++ {
		expected := byte(0)
		if reg == regConfig7B {
			expected = 0xFF
		}
		if v := dev.Register(byte(reg)); v != expected {
			t.Errorf("register 0x%X = 0x%X after reset", reg, v)
		}
	}

	writeRegister(p, 0x40, 0x12)
	writeRegister(p, regShadowC0, 0xFF)
	writeRegister(p, regWindowSelect, selectHostBus)
	writeRegister(p, regShadowF0, smramEnable)
	bus.Write(northBridgeSlot, 0, 0x40, 0x99)

	p.clear()
	dev.Reset()

	if dev.Register(0x40) != 0 || dev.Register(regShadowC0) != 0 || dev.Register(regConfig7B) != 0xFF {
		t.Error("register file not reset")
	}
	if dev.selector != selectNone {
		t.Error("window selector survived reset")
	}
	if dev.Config(0)[0x40] != 0x99 {
		t.Error("PCI configuration should survive reset")
	}
	if len(p.io) != 2 || p.io[0].install || !p.io[1].install {
		t.Errorf("configuration ports not re-registered: %+v", p.io)
	}
	if s := p.mapper.StateAt(0xC0000); s != memory.StateExternal {
		t.Errorf("shadowing survived reset: %v", s)
	}
	if p.mapper.SMRAMEnabled(0) {
		t.Error("SMRAM still visible after reset")
	}
	if !p.mapper.SMRAMEnabled(1) {
		t.Error("SMRAM hidden from SMM after reset")
	}
}

func TestRegisterReadBack(t *testing.T) {
	dev, p, _ := newTestDevice(t)

	for reg := 0; reg < 256; reg++ {
		for v := 0; v < 256; v++ {
			writeRegister(p, byte(reg), byte(v))
			expected := byte(v) & RegisterMask(byte(reg))
			if got := readRegister(p, byte(reg)); got != expected {
				t.Fatalf("register 0x%X: wrote 0x%X, read 0x%X, expected 0x%X", reg, v, got, expected)
			}
		}
	}

	if p.InByte(isaIndexPort) != 0xFF {
		t.Error("index port does not return the selected index")
	}
	if dev.HostBase() != 0 || dev.LocalBase() != 0 {
		t.Error("bus windows moved without a window selection")
	}
}

func TestRegisterMasks(t *testing.T) {
	tests := []struct {
		reg, mask byte
	}{
		{regConfig21, 0xFE},
		{regConfig22, 0x7F},
		{regShadowF0, 0xE3},
		{regConfig29, 0x0F},
		{regConfig36, 0x3F},
		{regShadowC0, 0xFF},
		{regConfig7B, 0xFF},
		{0x00, 0xFF},
	}
	for _, tt := range tests {
		if m := RegisterMask(tt.reg); m != tt.mask {
			t.Errorf("RegisterMask(0x%X) = 0x%X, expected 0x%X", tt.reg, m, tt.mask)
		}
	}
	if RegisterName(regShadowC0) == "" || RegisterName(0x00) != "" {
		t.Error("unexpected register names")
	}
}

func TestClose(t *testing.T) {
	dev, p, bus := newTestDevice(t)

	writeRegister(p, regWindowSelect, selectHostBus)
	writeRegister(p, regWindowBaseHigh, 0x03)
	writeRegister(p, regWindowSelect, selectLocalBus)
	writeRegister(p, regWindowBaseHigh, 0x04)

	if err := dev.Close(); err != nil {
		t.Fatal(err)
	}

	for _, port := range []uint16{isaIndexPort, isaDataPort, 0x300, 0x304, 0x400, 0x404} {
		if d := p.GetMappedIODevice(port); d != p.GetMappedIODevice(0xFFFF) {
			t.Errorf("port 0x%X still mapped after close", port)
		}
	}
	for _, slot := range pciSlots {
		if bus.Card(slot) != nil {
			t.Errorf("slot 0x%X still registered after close", slot)
		}
	}
	if err := dev.Close(); err != nil {
		t.Error("second close failed")
	}
}
