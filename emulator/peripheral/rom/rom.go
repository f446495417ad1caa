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

package rom

import (
	"fmt"
	"io"
	"io/ioutil"

	"github.com/andreas-jonsson/virtualstpc/emulator/memory"
	"github.com/andreas-jonsson/virtualstpc/emulator/processor"
)

// Device is a BIOS or option ROM image on the external bus. The image is
// read from Reader on install and ends at Base+len-1.
type Device struct {
	mem []byte

	Base    memory.Pointer
	RomName string
	Reader  io.Reader
}

func (m *Device) Install(p processor.Processor) error {
	if m.RomName == "" {
		m.RomName = "ROM"
	}
	if m.Reader == nil {
		return nil
	}

	var err error
	if m.mem, err = ioutil.ReadAll(m.Reader); err != nil {
		return fmt.Errorf("%s: %w", m.RomName, err)
	}
	return nil
}

func (m *Device) Name() string {
	return m.RomName
}

func (m *Device) Reset() {
}

func (m *Device) Size() int {
	return len(m.mem)
}

func (m *Device) ReadByte(addr memory.Pointer) byte {
	if addr < m.Base || int(addr-m.Base) >= len(m.mem) {
		return 0xFF
	}
	return m.mem[addr-m.Base]
}

func (m *Device) WriteByte(addr memory.Pointer, data byte) {
	//log.Printf("don't write to ROM! %v <- 0x%X", addr, data)
}
