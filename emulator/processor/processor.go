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

package processor

import (
	"github.com/andreas-jonsson/virtualstpc/emulator/memory"
)

type Stats struct {
	RX, TX uint64
}

// PCICard is a device on the PCI bus. Configuration accesses are byte wide;
// fn is the function number and addr the offset in its configuration space.
type PCICard interface {
	ConfigRead(fn, addr int) byte
	ConfigWrite(fn, addr int, data byte)
}

type PCIBus interface {
	AddCard(slot int, card PCICard) error
	RemoveCard(slot int, card PCICard)
}

type Processor interface {
	InByte(port uint16) byte
	OutByte(port uint16, data byte)
	InWord(port uint16) uint16
	OutWord(port uint16, data uint16)

	ReadByte(addr memory.Pointer) byte
	WriteByte(addr memory.Pointer, data byte)

	GetStats() Stats
	GetMappedIODevice(port uint16) memory.IO
	GetMemoryMapper() memory.Mapper
	GetPCIBus() PCIBus

	InstallMemoryDevice(device memory.Memory, from, to memory.Pointer) error
	InstallIODevice(device memory.IO, from, to uint16) error
	InstallIODeviceAt(device memory.IO, port ...uint16) error
	RemoveIODevice(device memory.IO, from, to uint16)
}
