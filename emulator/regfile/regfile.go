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

// Package regfile implements byte wide register files accessed through an
// index/data port pair, together with per register write policies.
package regfile

type Kind byte

const (
	Plain Kind = iota
	Masked
	ReadOnly
)

// Effect tags a register for side effects handled by the owner of the file.
// Zero means none.
type Effect byte

// Policy describes how writes to a single register are treated.
type Policy struct {
	Name   string
	Kind   Kind
	Mask   byte
	Effect Effect
}

// Apply returns the value to store and whether the write is accepted.
func (p Policy) Apply(data byte) (byte, bool) {
	switch p.Kind {
	case ReadOnly:
		return 0, false
	case Masked:
		return data & p.Mask, true
	}
	return data, true
}

// Map holds the policy of every register in a file. The zero value treats
// all registers as plain.
type Map [256]Policy

func (m *Map) Apply(reg, data byte) (byte, bool) {
	if m == nil {
		return data, true
	}
	return m[reg].Apply(data)
}

// WriteMask returns the bits of reg that can be changed by a write.
func (m *Map) WriteMask(reg byte) byte {
	if m == nil {
		return 0xFF
	}
	switch p := m[reg]; p.Kind {
	case ReadOnly:
		return 0
	case Masked:
		return p.Mask
	}
	return 0xFF
}

// Set assigns the same policy to a list of registers.
func (m *Map) Set(p Policy, regs ...byte) {
	for _, r := range regs {
		m[r] = p
	}
}

type File struct {
	Index  byte
	Regs   [256]byte
	Policy *Map
}

func (f *File) Read() byte {
	return f.Regs[f.Index]
}

// Write stores data in the selected register after applying its policy.
func (f *File) Write(data byte) (reg, stored byte, ok bool) {
	reg = f.Index
	if stored, ok = f.Policy.Apply(reg, data); ok {
		f.Regs[reg] = stored
	}
	return
}

func (f *File) Clear() {
	f.Regs = [256]byte{}
}
