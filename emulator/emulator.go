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

package emulator

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"strconv"
	"strings"

	"github.com/andreas-jonsson/virtualstpc/emulator/machine"
	"github.com/andreas-jonsson/virtualstpc/emulator/memory"
	"github.com/andreas-jonsson/virtualstpc/emulator/pci"
	"github.com/andreas-jonsson/virtualstpc/emulator/peripheral"
	"github.com/andreas-jonsson/virtualstpc/emulator/peripheral/port92"
	"github.com/andreas-jonsson/virtualstpc/emulator/peripheral/ram"
	"github.com/andreas-jonsson/virtualstpc/emulator/peripheral/ramalias"
	"github.com/andreas-jonsson/virtualstpc/emulator/peripheral/rom"
	"github.com/andreas-jonsson/virtualstpc/emulator/peripheral/stpc"
	"github.com/andreas-jonsson/virtualstpc/emulator/savestate"
	"github.com/andreas-jonsson/virtualstpc/version"
)

const (
	biosTop     = 0x100000
	maxBIOSSize = 0x20000
)

var (
	ErrBIOSSize        = errors.New("BIOS image is larger than 128K")
	ErrVariantMismatch = errors.New("snapshot was taken from another STPC variant")
	ErrBadPortWrite    = errors.New("invalid port write")
)

type Config struct {
	Variant      stpc.Variant
	RAMSize      int // bytes
	ClearRAM     bool
	BIOS         io.Reader
	HighRAMAlias bool
}

// System is a machine built around an STPC chipset.
type System struct {
	*machine.Machine

	Chipset *stpc.Device
	RAM     *ram.Device
	BIOS    *rom.Device
	Port92  *port92.Device
	PCI     *pci.Bus
}

// Build assembles RAM, the BIOS ROM, the PCI bus, the chipset and port 92h
// into a machine. The BIOS image is placed right below 1MB.
func Build(cfg Config) (*System, error) {
	sys := &System{
		Chipset: stpc.NewDevice(cfg.Variant),
		RAM:     ram.NewDevice(cfg.RAMSize),
		BIOS:    &rom.Device{RomName: "BIOS"},
		PCI:     &pci.Bus{},
	}
	sys.RAM.Clear = cfg.ClearRAM

	if cfg.BIOS != nil {
		img, err := ioutil.ReadAll(cfg.BIOS)
		if err != nil {
			return nil, err
		}
		if len(img) > maxBIOSSize {
			return nil, ErrBIOSSize
		}
		sys.BIOS.Base = memory.Pointer(biosTop - len(img))
		sys.BIOS.Reader = bytes.NewReader(img)
	}

	mem := memory.NewMap(sys.RAM, sys.BIOS)
	if size := sys.RAM.Size(); size > biosTop {
		mem.SetState(biosTop, uint32(size-biosTop), memory.StateInternal)
	}

	sys.Port92 = &port92.Device{OnReset: func() { sys.Reset() }}

	peripherals := []peripheral.Peripheral{
		sys.RAM,
		sys.BIOS,
		sys.PCI, // PCI Bus (needs to go before the chipset)
		sys.Chipset,
		sys.Port92,
	}
	if cfg.HighRAMAlias {
		peripherals = append(peripherals, ramalias.NewCompaqHigh(sys.RAM))
	}

	var err error
	if sys.Machine, err = machine.NewMachine(mem, peripherals); err != nil {
		return nil, err
	}
	return sys, nil
}

// Snapshot captures the chipset state.
func (s *System) Snapshot() *savestate.Snapshot {
	return &savestate.Snapshot{
		Version: version.Current,
		Variant: s.Chipset.Variant,
		State:   s.Chipset.Snapshot(),
	}
}

// Restore loads a chipset state taken from the same variant.
func (s *System) Restore(snap *savestate.Snapshot) error {
	if snap.Variant != s.Chipset.Variant {
		return fmt.Errorf("%w: %v", ErrVariantMismatch, snap.Variant)
	}
	s.Chipset.Restore(&snap.State)
	return nil
}

type PortWrite struct {
	Port  uint16
	Value byte
}

// ParsePortWrites parses a comma separated list of port=value pairs. Both
// numbers accept the usual Go prefixes, like 0x22=0x25.
func ParsePortWrites(s string) ([]PortWrite, error) {
	var writes []PortWrite
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}

		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %q", ErrBadPortWrite, item)
		}
		port, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 0, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadPortWrite, item, err)
		}
		value, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 0, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadPortWrite, item, err)
		}
		writes = append(writes, PortWrite{uint16(port), byte(value)})
	}
	return writes, nil
}

func (s *System) Apply(writes []PortWrite) {
	for _, w := range writes {
		log.Printf("OUT 0x%X, 0x%X", w.Port, w.Value)
		s.OutByte(w.Port, w.Value)
	}
}
