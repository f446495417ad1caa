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
	"github.com/andreas-jonsson/virtualstpc/emulator/regfile"
)

const numFunctions = 3

const (
	northBridgeSlot = 0x0B
	southBridgeSlot = 0x0C
	ideSlot         = 0x0D
)

var pciSlots = [numFunctions]int{northBridgeSlot, southBridgeSlot, ideSlot}

// Configuration space offsets.
const (
	pciVendorID   = 0x00
	pciDeviceID   = 0x02
	pciCommand    = 0x04
	pciCommandHi  = 0x05
	pciStatus     = 0x06
	pciRevision   = 0x08
	pciProgIF     = 0x09
	pciSubclass   = 0x0A
	pciClass      = 0x0B
	pciHeaderType = 0x0E
	pciBAR0       = 0x10
)

const stVendorID = 0x104A

func newFunctionPolicy() *regfile.Map {
	m := &regfile.Map{}
	m.Set(regfile.Policy{Name: "identity", Kind: regfile.ReadOnly},
		pciVendorID, pciVendorID+1, pciDeviceID, pciDeviceID+1, pciCommand,
		pciStatus, pciStatus+1, pciRevision, pciProgIF, pciSubclass, pciClass, pciHeaderType)
	m[pciCommandHi] = regfile.Policy{Name: "command", Kind: regfile.Masked, Mask: 0x01}
	return m
}

var (
	bridgePolicy = newFunctionPolicy()

	northBridgePolicy = func() *regfile.Map {
		m := newFunctionPolicy()
		m.Set(regfile.Policy{Name: "strapping", Kind: regfile.ReadOnly}, 0x51, 0x53, 0x54)
		m[0x50] = regfile.Policy{Name: "config 50h", Kind: regfile.Masked, Mask: 0x1F}
		m[0x52] = regfile.Policy{Name: "config 52h", Kind: regfile.Masked, Mask: 0x70}
		return m
	}()
)

// pciFunction is the configuration space of one PCI device in the SoC.
// Only function 0 exists; other functions read as 0xFF.
type pciFunction struct {
	name   string
	conf   [256]byte
	policy *regfile.Map
}

func (f *pciFunction) ConfigRead(fn, addr int) byte {
	ret := byte(0xFF)
	if fn == 0 {
		ret = f.conf[addr&0xFF]
	}
	logf("%s_read(%d, %02x) = %02x", f.name, fn, addr, ret)
	return ret
}

func (f *pciFunction) ConfigWrite(fn, addr int, data byte) {
	logf("%s_write(%d, %02x, %02x)", f.name, fn, addr, data)

	if fn != 0 {
		return
	}
	if v, ok := f.policy.Apply(byte(addr), data); ok {
		f.conf[addr&0xFF] = v
	}
}

func (f *pciFunction) setID(deviceID uint16) {
	f.conf[pciVendorID] = byte(stVendorID & 0xFF)
	f.conf[pciVendorID+1] = byte(stVendorID >> 8)
	f.conf[pciDeviceID] = byte(deviceID & 0xFF)
	f.conf[pciDeviceID+1] = byte(deviceID >> 8)
	f.conf[pciStatus] = 0x80
	f.conf[pciStatus+1] = 0x02
}

func (m *Device) setupFunctions() {
	nb := &pciFunction{name: "nb", policy: northBridgePolicy}
	nb.setID(0x020A)
	nb.conf[pciCommand] = 0x07
	nb.conf[pciClass] = 0x06

	sb := &pciFunction{name: "sb", policy: bridgePolicy}
	sb.setID(0x0210)
	sb.conf[pciCommand] = 0x0F
	sb.conf[pciSubclass] = 0x01
	sb.conf[pciClass] = 0x06
	sb.conf[pciHeaderType] = 0x40

	ide := &pciFunction{name: "ide", policy: bridgePolicy}
	ide.setID(0x0210)
	ide.conf[pciProgIF] = 0x8A
	ide.conf[pciSubclass] = 0x01
	ide.conf[pciClass] = 0x01
	ide.conf[pciHeaderType] = 0x40
	for i := 0; i < 4; i++ {
		ide.conf[pciBAR0+i*4] = 0x01
	}
	for i := 0x40; i < 0x48; i += 2 {
		ide.conf[i] = 0x60
		ide.conf[i+1] = 0x97
	}

	m.funcs = [numFunctions]*pciFunction{nb, sb, ide}
}

// Config returns a copy of the configuration space of function n.
func (m *Device) Config(n int) [256]byte {
	return m.funcs[n].conf
}
