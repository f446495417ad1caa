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
	"bytes"
	"encoding/binary"
	"errors"
)

var ErrStateSize = errors.New("invalid STPC state size")

// State is the complete register state of the chipset.
type State struct {
	ISAIndex     byte
	ISARegisters [256]byte

	HostBase      uint16
	HostIndex     byte
	HostRegisters [256]byte

	LocalBase      uint16
	LocalIndex     byte
	LocalRegisters [256]byte

	PCI [numFunctions][256]byte
}

func (s *State) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *State) UnmarshalBinary(data []byte) error {
	if len(data) != binary.Size(s) {
		return ErrStateSize
	}
	return binary.Read(bytes.NewReader(data), binary.LittleEndian, s)
}

func (m *Device) Snapshot() State {
	s := State{
		ISAIndex:       m.isa.Index,
		ISARegisters:   m.isa.Regs,
		HostBase:       m.host.Base,
		HostIndex:      m.host.Index,
		HostRegisters:  m.host.Regs,
		LocalBase:      m.local.Base,
		LocalIndex:     m.local.Index,
		LocalRegisters: m.local.Regs,
	}
	for i, f := range m.funcs {
		s.PCI[i] = f.conf
	}
	return s
}

// Restore loads a snapshot. The bus windows are moved to their saved bases
// and the memory mapping is recalculated even if nothing changed. PCI
// configuration bytes go through the same policy as configuration writes.
func (m *Device) Restore(s *State) {
	logf("restore()")

	m.isa.Index, m.isa.Regs = s.ISAIndex, s.ISARegisters
	m.host.Index, m.host.Regs = s.HostIndex, s.HostRegisters
	m.local.Index, m.local.Regs = s.LocalIndex, s.LocalRegisters

	for i, f := range m.funcs {
		for addr := 0; addr < len(f.conf); addr++ {
			if v, ok := f.policy.Apply(byte(addr), s.PCI[i][addr]); ok {
				f.conf[addr] = v
			}
		}
	}

	m.selector = selectorFor(m.isa.Regs[regWindowSelect])
	m.release(m.host)
	m.release(m.local)
	m.relocate(m.host, s.HostBase)
	m.relocate(m.local, s.LocalBase)

	if m.p != nil {
		m.mapSMRAM(m.isa.Regs[regShadowF0]&smramEnable != 0)
		m.recalcMapping()
	}
}
