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

package memory

import "errors"

const (
	PageShift    = 12
	PageSize     = 1 << PageShift
	AddressSpace = 0x1000000 // 16MB
	NumPages     = AddressSpace >> PageShift
)

var ErrUnaligned = errors.New("memory range is not page aligned")

type smramRange struct {
	base    Pointer
	size    uint32
	enabled bool
}

func (r smramRange) contains(addr Pointer) bool {
	return r.enabled && addr >= r.base && uint32(addr-r.base) < r.size
}

type mappedDevice struct {
	from, to Pointer
	dev      Memory
}

// Map decodes the physical address space. Every page routes reads and
// writes either to the internal memory (system RAM) or to the external bus.
// Decoded pages are cached, so state changes only become visible to
// accesses after FlushCache.
type Map struct {
	internal, external, dummy Memory

	states  [NumPages]State
	devices []mappedDevice

	smram [2]smramRange
	smm   bool
	a20   bool

	readCache, writeCache [NumPages]Memory
	flushes               int

	shadowRead, shadowWrite bool
}

// NewMap creates a map where conventional memory is internal and the upper
// memory area (0xA0000-0xFFFFF) is passed to the external bus.
func NewMap(internal, external Memory) *Map {
	m := &Map{dummy: &DummyMemory{}, a20: true}
	if m.internal = internal; internal == nil {
		m.internal = m.dummy
	}
	if m.external = external; external == nil {
		m.external = m.dummy
	}
	m.SetState(0, 0xA0000, StateInternal)
	m.SetState(0xA0000, 0x60000, StateExternal)
	return m
}

func (m *Map) SetState(base Pointer, size uint32, state State) {
	if size == 0 {
		return
	}
	first := int(base >> PageShift)
	last := int((uint32(base) + size - 1) >> PageShift)
	for i := first; i <= last && i < NumPages; i++ {
		m.states[i] = state
	}
}

func (m *Map) StateAt(addr Pointer) State {
	return m.states[(addr&(AddressSpace-1))>>PageShift]
}

func (m *Map) SetSMRAM(smm int, base Pointer, size uint32, enabled bool) {
	if smm < 0 || smm >= len(m.smram) {
		return
	}
	m.smram[smm] = smramRange{base, size, enabled}
}

func (m *Map) SMRAMEnabled(smm int) bool {
	if smm < 0 || smm >= len(m.smram) {
		return false
	}
	return m.smram[smm].enabled
}

// SetSMM switches between the normal and the system management context.
func (m *Map) SetSMM(active bool) {
	if m.smm != active {
		m.smm = active
		m.FlushCache()
	}
}

func (m *Map) FlushCache() {
	m.readCache = [NumPages]Memory{}
	m.writeCache = [NumPages]Memory{}
	m.flushes++
}

// Flushes returns the number of cache flushes since the map was created.
func (m *Map) Flushes() int {
	return m.flushes
}

func (m *Map) SetShadowBIOS(read, write bool) {
	m.shadowRead, m.shadowWrite = read, write
}

func (m *Map) ShadowBIOS() (read, write bool) {
	return m.shadowRead, m.shadowWrite
}

func (m *Map) SetA20(enabled bool) {
	if m.a20 != enabled {
		m.a20 = enabled
		m.FlushCache()
	}
}

func (m *Map) A20() bool {
	return m.a20
}

// InstallDevice maps a device over a page aligned range. Devices take
// precedence over the page state.
func (m *Map) InstallDevice(dev Memory, from, to Pointer) error {
	if from&(PageSize-1) != 0 || (to+1)&(PageSize-1) != 0 || to < from {
		return ErrUnaligned
	}
	m.devices = append(m.devices, mappedDevice{from, to, dev})
	m.FlushCache()
	return nil
}

func (m *Map) RemoveDevice(dev Memory) {
	devices := m.devices[:0]
	for _, d := range m.devices {
		if d.dev != dev {
			devices = append(devices, d)
		}
	}
	m.devices = devices
	m.FlushCache()
}

func (m *Map) ReadByte(addr Pointer) byte {
	addr = m.translate(addr)
	return m.resolve(addr, false).ReadByte(addr)
}

func (m *Map) WriteByte(addr Pointer, data byte) {
	addr = m.translate(addr)
	m.resolve(addr, true).WriteByte(addr, data)
}

func (m *Map) translate(addr Pointer) Pointer {
	addr &= AddressSpace - 1
	if !m.a20 {
		addr &^= 1 << 20
	}
	return addr
}

func (m *Map) resolve(addr Pointer, write bool) Memory {
	cache := &m.readCache
	if write {
		cache = &m.writeCache
	}

	page := addr >> PageShift
	if dev := cache[page]; dev != nil {
		return dev
	}
	dev := m.decode(addr, write)
	cache[page] = dev
	return dev
}

func (m *Map) decode(addr Pointer, write bool) Memory {
	for _, d := range m.devices {
		if addr >= d.from && addr <= d.to {
			return d.dev
		}
	}

	ctx := 0
	if m.smm {
		ctx = 1
	}
	if m.smram[ctx].contains(addr) {
		return m.internal
	}

	s := m.states[addr>>PageShift]
	if write {
		switch {
		case s&WriteInternal != 0:
			return m.internal
		case s&WriteExternal != 0:
			return m.external
		}
	} else {
		switch {
		case s&ReadInternal != 0:
			return m.internal
		case s&ReadExternal != 0:
			return m.external
		}
	}
	return m.dummy
}
