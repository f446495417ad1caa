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

package machine

import (
	"errors"
	"fmt"
	"log"

	"github.com/andreas-jonsson/virtualstpc/emulator/memory"
	"github.com/andreas-jonsson/virtualstpc/emulator/peripheral"
	"github.com/andreas-jonsson/virtualstpc/emulator/processor"
)

const MaxIODevices = 64

var (
	ErrPortInUse      = errors.New("IO port already in use")
	ErrTooManyDevices = errors.New("too many IO devices")
)

// Machine owns the port dispatch table, the physical memory map and the
// installed peripherals. It is the processor.Processor seen by devices.
type Machine struct {
	stats       processor.Stats
	peripherals []peripheral.Peripheral
	pci         processor.PCIBus
	mem         *memory.Map

	iomap         [0x10000]byte
	ioPeripherals [MaxIODevices]memory.IO
	ioRefs        [MaxIODevices]int
}

func NewMachine(mem *memory.Map, peripherals []peripheral.Peripheral) (*Machine, error) {
	if mem == nil {
		mem = memory.NewMap(nil, nil)
	}

	p := &Machine{peripherals: peripherals, mem: mem}
	p.ioPeripherals[0] = &memory.DummyIO{}

	for _, d := range peripherals {
		if bus, ok := d.(processor.PCIBus); ok {
			p.pci = bus
		}
	}
	if err := p.installPeripherals(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Machine) installPeripherals() error {
	for i, d := range p.peripherals {
		if err := d.Install(p); err != nil {
			closePeripherals(p.peripherals[:i])
			return fmt.Errorf("failed to install peripheral %q: %w", d.Name(), err)
		}
	}
	return nil
}

func closePeripherals(peripherals []peripheral.Peripheral) {
	for i := len(peripherals) - 1; i >= 0; i-- {
		if cd, b := peripherals[i].(peripheral.PeripheralCloser); b {
			if err := cd.Close(); err != nil {
				log.Print("Failed to close peripheral: ", err)
			}
		}
	}
}

func (p *Machine) Close() {
	closePeripherals(p.peripherals)
}

func (p *Machine) Reset() {
	log.Print("Machine reset!")
	for _, d := range p.peripherals {
		d.Reset()
	}
}

func (p *Machine) Peripherals() []peripheral.Peripheral {
	return p.peripherals
}

func (p *Machine) GetStats() processor.Stats {
	s := p.stats
	p.stats = processor.Stats{}
	return s
}

func (p *Machine) GetMemoryMap() *memory.Map {
	return p.mem
}

func (p *Machine) GetMemoryMapper() memory.Mapper {
	return p.mem
}

func (p *Machine) GetPCIBus() processor.PCIBus {
	return p.pci
}

func (p *Machine) GetMappedIODevice(port uint16) memory.IO {
	return p.ioPeripherals[p.iomap[port]]
}

func (p *Machine) InByte(port uint16) byte {
	p.stats.RX++
	return p.GetMappedIODevice(port).In(port)
}

func (p *Machine) OutByte(port uint16, data byte) {
	p.stats.TX++
	p.GetMappedIODevice(port).Out(port, data)
}

func (p *Machine) InWord(port uint16) uint16 {
	return uint16(p.InByte(port)) | (uint16(p.InByte(port+1)) << 8)
}

func (p *Machine) OutWord(port uint16, data uint16) {
	p.OutByte(port, byte(data&0xFF))
	p.OutByte(port+1, byte(data>>8))
}

func (p *Machine) ReadByte(addr memory.Pointer) byte {
	p.stats.RX++
	return p.mem.ReadByte(addr)
}

func (p *Machine) WriteByte(addr memory.Pointer, data byte) {
	p.stats.TX++
	p.mem.WriteByte(addr, data)
}

func (p *Machine) InstallMemoryDevice(device memory.Memory, from, to memory.Pointer) error {
	return p.mem.InstallDevice(device, from, to)
}

func (p *Machine) findSlot(device memory.IO) byte {
	for i := 1; i < MaxIODevices; i++ {
		if p.ioPeripherals[i] == device {
			return byte(i)
		}
	}
	return 0
}

func (p *Machine) allocSlot(device memory.IO) (byte, error) {
	if slot := p.findSlot(device); slot != 0 {
		return slot, nil
	}
	for i := 1; i < MaxIODevices; i++ {
		if p.ioPeripherals[i] == nil {
			p.ioPeripherals[i] = device
			return byte(i), nil
		}
	}
	return 0, ErrTooManyDevices
}

func (p *Machine) releaseSlot(slot byte) {
	if p.ioRefs[slot] == 0 {
		p.ioPeripherals[slot] = nil
	}
}

// InstallIODevice maps the inclusive port range to the device. Ports that
// are already owned by another device are never taken over.
func (p *Machine) InstallIODevice(device memory.IO, from, to uint16) error {
	slot, err := p.allocSlot(device)
	if err != nil {
		return err
	}

	for port := uint32(from); port <= uint32(to); port++ {
		if s := p.iomap[port]; s != 0 && s != slot {
			p.releaseSlot(slot)
			return fmt.Errorf("%w: 0x%X", ErrPortInUse, port)
		}
	}
	for port := uint32(from); port <= uint32(to); port++ {
		if p.iomap[port] != slot {
			p.iomap[port] = slot
			p.ioRefs[slot]++
		}
	}
	return nil
}

func (p *Machine) InstallIODeviceAt(device memory.IO, port ...uint16) error {
	for _, a := range port {
		if err := p.InstallIODevice(device, a, a); err != nil {
			return err
		}
	}
	return nil
}

// RemoveIODevice unmaps the ports in the range that belong to the device.
func (p *Machine) RemoveIODevice(device memory.IO, from, to uint16) {
	slot := p.findSlot(device)
	if slot == 0 {
		return
	}
	for port := uint32(from); port <= uint32(to); port++ {
		if p.iomap[port] == slot {
			p.iomap[port] = 0
			p.ioRefs[slot]--
		}
	}
	p.releaseSlot(slot)
}
