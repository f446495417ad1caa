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

package ramalias

import (
	"github.com/andreas-jonsson/virtualstpc/emulator/memory"
	"github.com/andreas-jonsson/virtualstpc/emulator/processor"
)

// Device makes part of the system RAM visible at a second physical
// address. An access to addr is forwarded to (addr & Mask) + Offset.
type Device struct {
	Base   memory.Pointer
	Size   uint32
	Mask   memory.Pointer
	Offset memory.Pointer
	Target memory.Memory
}

// NewCompaqHigh returns the Compaq style alias of the top 384K of the first
// megabyte at 0xFA0000-0xFFFFFF.
func NewCompaqHigh(target memory.Memory) *Device {
	return &Device{
		Base:   0xFA0000,
		Size:   0x60000,
		Mask:   0x7FFFF,
		Offset: 0x80000,
		Target: target,
	}
}

func (m *Device) Install(p processor.Processor) error {
	return p.InstallMemoryDevice(m, m.Base, m.Base+memory.Pointer(m.Size)-1)
}

func (m *Device) Name() string {
	return "RAM Alias"
}

func (m *Device) Reset() {
}

func (m *Device) translate(addr memory.Pointer) memory.Pointer {
	return (addr & m.Mask) + m.Offset
}

func (m *Device) ReadByte(addr memory.Pointer) byte {
	if m.Target == nil {
		return 0xFF
	}
	return m.Target.ReadByte(m.translate(addr))
}

func (m *Device) WriteByte(addr memory.Pointer, data byte) {
	if m.Target != nil {
		m.Target.WriteByte(m.translate(addr), data)
	}
}
