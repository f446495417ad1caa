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

package port92

import (
	"log"

	"github.com/andreas-jonsson/virtualstpc/emulator/memory"
	"github.com/andreas-jonsson/virtualstpc/emulator/processor"
)

const (
	Port = 0x92

	fastReset = 0x01
	fastA20   = 0x02
)

// Device is the PS/2 system control port A. Bit 1 gates A20 and a rising
// edge on bit 0 requests a CPU reset.
type Device struct {
	OnReset func()

	reg byte
	a20 memory.A20Gate
}

func (m *Device) Install(p processor.Processor) error {
	if gate, ok := p.GetMemoryMapper().(memory.A20Gate); ok {
		m.a20 = gate
	} else {
		log.Print("Port 92h: memory mapper has no A20 gate")
	}
	if err := p.InstallIODeviceAt(m, Port); err != nil {
		return err
	}
	m.Reset()
	return nil
}

func (m *Device) Name() string {
	return "System Control Port A"
}

func (m *Device) Reset() {
	m.reg = 0
	if m.a20 != nil {
		m.a20.SetA20(false)
	}
}

func (m *Device) In(port uint16) byte {
	ret := m.reg &^ fastA20
	if m.a20 != nil && m.a20.A20() {
		ret |= fastA20
	}
	return ret
}

func (m *Device) Out(port uint16, data byte) {
	old := m.reg
	m.reg = data

	if m.a20 != nil {
		m.a20.SetA20(data&fastA20 != 0)
	}
	if old&fastReset == 0 && data&fastReset != 0 {
		log.Print("Port 92h: fast reset")
		if m.OnReset != nil {
			m.OnReset()
		}
	}
}
