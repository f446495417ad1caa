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
	"github.com/andreas-jonsson/virtualstpc/emulator/memory"
)

const (
	smramBase memory.Pointer = 0xA0000
	smramSize                = 0x20000
)

const (
	shadowBase     memory.Pointer = 0xC0000
	shadowPageSize                = 0x4000
	shadowBIOSBase memory.Pointer = 0xF0000
	shadowBIOSSize                = 0x10000

	// Regions at or above this address count as BIOS shadowing.
	shadowBIOSThreshold memory.Pointer = 0xE0000
)

// Region is the decoded state of one shadow RAM region.
type Region struct {
	Base     memory.Pointer
	Size     uint32
	State    memory.State
	Register byte
	Pair     int
}

func (r Region) End() memory.Pointer {
	return r.Base + memory.Pointer(r.Size) - 1
}

// ShadowRegions decodes the shadow control registers. Each bit pair controls
// one region: the low bit enables writes to RAM and the high bit enables
// reads from RAM. Registers 25h-27h hold four 16K regions each while
// register 28h uses a single pair for the 64K BIOS region.
func ShadowRegions(regs *[256]byte) []Region {
	regions := make([]Region, 0, 13)
	for reg := byte(regShadowC0); reg <= regShadowF0; reg++ {
		pairs := 4
		if reg == regShadowF0 {
			pairs = 1
		}

		for pair := 0; pair < pairs; pair++ {
			r := Region{Register: reg, Pair: pair}
			if reg == regShadowF0 {
				r.Base, r.Size = shadowBIOSBase, shadowBIOSSize
			} else {
				r.Size = shadowPageSize
				r.Base = shadowBase + memory.Pointer(shadowPageSize*(int(reg-regShadowC0)*4+pair))
			}

			if regs[reg]&(1<<(pair*2)) != 0 {
				r.State |= memory.WriteInternal
			} else {
				r.State |= memory.WriteExternal
			}
			if regs[reg]&(1<<(pair*2+1)) != 0 {
				r.State |= memory.ReadInternal
			} else {
				r.State |= memory.ReadExternal
			}
			regions = append(regions, r)
		}
	}
	return regions
}

// Regions returns the shadow mapping derived from the current registers.
func (m *Device) Regions() []Region {
	return ShadowRegions(&m.isa.Regs)
}

// ShadowBIOS reports whether any region in the top 128K is read or write
// enabled as RAM.
func (m *Device) ShadowBIOS() (read, write bool) {
	return m.shadowRead, m.shadowWrite
}

func (m *Device) mapSMRAM(enabled bool) {
	m.p.GetMemoryMapper().SetSMRAM(0, smramBase, smramSize, enabled)
}

// recalcMapping applies every shadow region to the memory mapper and
// flushes its translation cache. It always runs in full.
func (m *Device) recalcMapping() {
	mapper := m.p.GetMemoryMapper()
	m.shadowRead, m.shadowWrite = false, false

	for _, r := range ShadowRegions(&m.isa.Regs) {
		logf("Shadowing for %05x-%05x (reg %02x bp %d) = %v", uint32(r.Base), uint32(r.End()), r.Register, r.Pair, r.State)

		if r.Base >= shadowBIOSThreshold {
			m.shadowWrite = m.shadowWrite || r.State&memory.WriteInternal != 0
			m.shadowRead = m.shadowRead || r.State&memory.ReadInternal != 0
		}
		mapper.SetState(r.Base, r.Size, r.State)
	}

	if rep, ok := mapper.(memory.ShadowReporter); ok {
		rep.SetShadowBIOS(m.shadowRead, m.shadowWrite)
	}
	mapper.FlushCache()
}
