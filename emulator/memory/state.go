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

import "strings"

// State describes how a region of the physical address space is decoded.
// A region normally carries exactly one read and one write flag.
type State byte

const (
	ReadInternal State = 1 << iota
	ReadExternal
	WriteInternal
	WriteExternal
)

const (
	StateInternal = ReadInternal | WriteInternal
	StateExternal = ReadExternal | WriteExternal
)

func (s State) String() string {
	var parts []string
	switch {
	case s&ReadInternal != 0:
		parts = append(parts, "r:int")
	case s&ReadExternal != 0:
		parts = append(parts, "r:ext")
	default:
		parts = append(parts, "r:-")
	}
	switch {
	case s&WriteInternal != 0:
		parts = append(parts, "w:int")
	case s&WriteExternal != 0:
		parts = append(parts, "w:ext")
	default:
		parts = append(parts, "w:-")
	}
	return strings.Join(parts, ",")
}

// Mapper is the address decoding interface exposed to chipsets.
type Mapper interface {
	SetState(base Pointer, size uint32, state State)
	SetSMRAM(smm int, base Pointer, size uint32, enabled bool)
	FlushCache()
}

// ShadowReporter receives the summary of BIOS shadowing after a chipset
// has recalculated its mapping.
type ShadowReporter interface {
	SetShadowBIOS(read, write bool)
}

type A20Gate interface {
	SetA20(enabled bool)
	A20() bool
}
