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

import "github.com/andreas-jonsson/virtualstpc/emulator/regfile"

const (
	isaIndexPort = 0x22
	isaDataPort  = 0x23

	windowSpan       = 5
	windowDataOffset = 4
)

// Configuration registers behind ports 22h/23h.
const (
	regWindowSelect   = 0x10
	regWindowBaseLow  = 0x12
	regWindowBaseHigh = 0x13
	regConfig21       = 0x21
	regConfig22       = 0x22
	regShadowC0       = 0x25
	regShadowD0       = 0x26
	regShadowE0       = 0x27
	regShadowF0       = 0x28
	regConfig29       = 0x29
	regConfig36       = 0x36
	regConfig7B       = 0x7B
)

// Values of the window select register.
const (
	selectLocalBus = 0x06
	selectHostBus  = 0x07
)

const smramEnable = 0x80

const (
	effectNone regfile.Effect = iota
	effectWindowSelect
	effectWindowBaseLow
	effectWindowBaseHigh
	effectShadow
	effectSMRAM
)

var isaRegisters = regfile.Map{
	regWindowSelect:   {Name: "window select", Effect: effectWindowSelect},
	regWindowBaseLow:  {Name: "window base low", Effect: effectWindowBaseLow},
	regWindowBaseHigh: {Name: "window base high", Effect: effectWindowBaseHigh},
	regConfig21:       {Name: "config 21h", Kind: regfile.Masked, Mask: 0xFE},
	regConfig22:       {Name: "config 22h", Kind: regfile.Masked, Mask: 0x7F},
	regShadowC0:       {Name: "shadow C0000-CFFFF", Effect: effectShadow},
	regShadowD0:       {Name: "shadow D0000-DFFFF", Effect: effectShadow},
	regShadowE0:       {Name: "shadow E0000-EFFFF", Effect: effectShadow},
	regShadowF0:       {Name: "shadow F0000-FFFFF/SMRAM", Kind: regfile.Masked, Mask: 0xE3, Effect: effectSMRAM},
	regConfig29:       {Name: "config 29h", Kind: regfile.Masked, Mask: 0x0F},
	regConfig36:       {Name: "config 36h", Kind: regfile.Masked, Mask: 0x3F},
	regConfig7B:       {Name: "config 7Bh"},
}

// RegisterName returns the name of a configuration register, if it has one.
func RegisterName(reg byte) string {
	return isaRegisters[reg].Name
}

// RegisterMask returns the writable bits of a configuration register.
func RegisterMask(reg byte) byte {
	return isaRegisters.WriteMask(reg)
}
