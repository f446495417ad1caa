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
	"testing"

	"github.com/andreas-jonsson/virtualstpc/emulator/machine"
	"github.com/andreas-jonsson/virtualstpc/emulator/memory"
	"github.com/andreas-jonsson/virtualstpc/emulator/pci"
	"github.com/andreas-jonsson/virtualstpc/emulator/peripheral"
)

type fillMemory byte

func (m fillMemory) ReadByte(memory.Pointer) byte {
	return byte(m)
}

func (m fillMemory) WriteByte(memory.Pointer, byte) {
}

type mapperCall struct {
	Op      string
	Base    memory.Pointer
	Size    uint32
	State   memory.State
	SMM     int
	Enabled bool
}

type recordingMapper struct {
	*memory.Map
	calls []mapperCall
}

func (r *recordingMapper) SetState(base memory.Pointer, size uint32, state memory.State) {
	r.calls = append(r.calls, mapperCall{Op: "state", Base: base, Size: size, State: state})
	r.Map.SetState(base, size, state)
}

func (r *recordingMapper) SetSMRAM(smm int, base memory.Pointer, size uint32, enabled bool) {
	r.calls = append(r.calls, mapperCall{Op: "smram", Base: base, Size: size, SMM: smm, Enabled: enabled})
	r.Map.SetSMRAM(smm, base, size, enabled)
}

func (r *recordingMapper) FlushCache() {
	r.calls = append(r.calls, mapperCall{Op: "flush"})
	r.Map.FlushCache()
}

func (r *recordingMapper) stateCalls() []mapperCall {
	var calls []mapperCall
	for _, c := range r.calls {
		if c.Op == "state" {
			calls = append(calls, c)
		}
	}
	return calls
}

type ioCall struct {
	install  bool
	device   memory.IO
	from, to uint16
}

// testProcessor records the collaborator calls made by the chipset while
// delegating the actual work to a machine.
type testProcessor struct {
	*machine.Machine
	mapper *recordingMapper
	io     []ioCall
}

func (p *testProcessor) GetMemoryMapper() memory.Mapper {
	return p.mapper
}

func (p *testProcessor) InstallIODevice(device memory.IO, from, to uint16) error {
	p.io = append(p.io, ioCall{true, device, from, to})
	return p.Machine.InstallIODevice(device, from, to)
}

func (p *testProcessor) RemoveIODevice(device memory.IO, from, to uint16) {
	p.io = append(p.io, ioCall{false, device, from, to})
	p.Machine.RemoveIODevice(device, from, to)
}

func (p *testProcessor) clear() {
	p.io = nil
	p.mapper.calls = nil
}

func newTestMachine(t *testing.T) (*testProcessor, *pci.Bus) {
	mem := memory.NewMap(fillMemory(0x11), fillMemory(0x22))
	bus := &pci.Bus{}

	m, err := machine.NewMachine(mem, []peripheral.Peripheral{bus})
	if err != nil {
		t.Fatal(err)
	}
	return &testProcessor{Machine: m, mapper: &recordingMapper{Map: mem}}, bus
}

func newTestDevice(t *testing.T) (*Device, *testProcessor, *pci.Bus) {
	p, bus := newTestMachine(t)
	dev := NewDevice(Consumer2)
	if err := dev.Install(p); err != nil {
		t.Fatal(err)
	}
	p.clear()
	return dev, p, bus
}

func writeRegister(p *testProcessor, reg, data byte) {
	p.OutByte(isaIndexPort, reg)
	p.OutByte(isaDataPort, data)
}

func readRegister(p *testProcessor, reg byte) byte {
	p.OutByte(isaIndexPort, reg)
	return p.InByte(isaDataPort)
}
