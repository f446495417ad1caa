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

package pci

import (
	"errors"

	"github.com/andreas-jonsson/virtualstpc/emulator/processor"
)

const (
	ConfigAddressPort = 0xCF8
	ConfigDataPort    = 0xCFC
	MaxSlots          = 32
)

var (
	ErrInvalidSlot = errors.New("invalid PCI slot")
	ErrSlotInUse   = errors.New("PCI slot already in use")
)

// Bus implements PCI configuration mechanism #1 for bus 0. Accesses to
// empty slots read as 0xFF and writes are ignored.
type Bus struct {
	address uint32
	cards   [MaxSlots]processor.PCICard
}

func (m *Bus) Install(p processor.Processor) error {
	return p.InstallIODevice(m, ConfigAddressPort, ConfigDataPort+3)
}

func (m *Bus) Name() string {
	return "PCI Bus"
}

func (m *Bus) Reset() {
	m.address = 0
}

func (m *Bus) AddCard(slot int, card processor.PCICard) error {
	if slot < 0 || slot >= MaxSlots {
		return ErrInvalidSlot
	}
	if m.cards[slot] != nil {
		return ErrSlotInUse
	}
	m.cards[slot] = card
	return nil
}

func (m *Bus) RemoveCard(slot int, card processor.PCICard) {
	if slot >= 0 && slot < MaxSlots && m.cards[slot] == card {
		m.cards[slot] = nil
	}
}

func (m *Bus) Card(slot int) processor.PCICard {
	if slot < 0 || slot >= MaxSlots {
		return nil
	}
	return m.cards[slot]
}

// Read accesses configuration space directly without going through the
// address register.
func (m *Bus) Read(slot, fn, addr int) byte {
	if card := m.Card(slot); card != nil {
		return card.ConfigRead(fn, addr&0xFF)
	}
	return 0xFF
}

func (m *Bus) Write(slot, fn, addr int, data byte) {
	if card := m.Card(slot); card != nil {
		card.ConfigWrite(fn, addr&0xFF, data)
	}
}

func (m *Bus) target(offset uint16) (card processor.PCICard, fn, reg int) {
	if m.address&(1<<31) == 0 || (m.address>>16)&0xFF != 0 {
		return nil, 0, 0
	}
	slot := int((m.address >> 11) & 0x1F)
	fn = int((m.address >> 8) & 0x7)
	reg = int(m.address&0xFC) + int(offset)
	return m.cards[slot], fn, reg
}

func (m *Bus) In(port uint16) byte {
	switch {
	case port >= ConfigAddressPort && port < ConfigDataPort:
		return byte(m.address >> ((port - ConfigAddressPort) * 8))
	case port >= ConfigDataPort && port <= ConfigDataPort+3:
		if card, fn, reg := m.target(port - ConfigDataPort); card != nil {
			return card.ConfigRead(fn, reg)
		}
	}
	return 0xFF
}

func (m *Bus) Out(port uint16, data byte) {
	switch {
	case port >= ConfigAddressPort && port < ConfigDataPort:
		shift := (port - ConfigAddressPort) * 8
		m.address = (m.address &^ (0xFF << shift)) | (uint32(data) << shift)
	case port >= ConfigDataPort && port <= ConfigDataPort+3:
		if card, fn, reg := m.target(port - ConfigDataPort); card != nil {
			card.ConfigWrite(fn, reg, data)
		}
	}
}
