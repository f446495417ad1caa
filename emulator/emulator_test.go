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

package emulator

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/andreas-jonsson/virtualstpc/emulator/memory"
	"github.com/andreas-jonsson/virtualstpc/emulator/peripheral/stpc"
)

func testBIOS() *bytes.Reader {
	img := make([]byte, 0x10000)
	for i := range img {
		img[i] = 0xB5
	}
	return bytes.NewReader(img)
}

func newTestSystem(t *testing.T, cfg Config) *System {
	cfg.ClearRAM = true
	sys, err := Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(sys.Close)
	return sys
}

func TestBuild(t *testing.T) {
	sys := newTestSystem(t, Config{Variant: stpc.Atlas, RAMSize: 0x400000, BIOS: testBIOS()})

	if sys.Chipset.Name() != "STPC Atlas" {
		t.Errorf("unexpected chipset %q", sys.Chipset.Name())
	}
	if sys.BIOS.Base != 0xF0000 {
		t.Errorf("BIOS at %v", sys.BIOS.Base)
	}
	if v := sys.ReadByte(0xFFFF0); v != 0xB5 {
		t.Errorf("reset vector read 0x%X", v)
	}

	sys.WriteByte(0x300000, 0x12)
	if v := sys.ReadByte(0x300000); v != 0x12 {
		t.Errorf("extended memory read 0x%X", v)
	}
	if sys.GetMemoryMap().A20() {
		t.Error("A20 enabled after power on")
	}
}

func TestShadowBIOS(t *testing.T) {
	sys := newTestSystem(t, Config{Variant: stpc.Consumer2, BIOS: testBIOS()})

	// Write enable the F segment and copy the BIOS into RAM.
	sys.Apply([]PortWrite{{0x22, 0x28}, {0x23, 0x01}})
	for addr := 0xF0000; addr < 0xF0010; addr++ {
		sys.WriteByte(memory.Pointer(addr), sys.ReadByte(memory.Pointer(addr))+1)
	}
	if v := sys.ReadByte(0xF0000); v != 0xB5 {
		t.Errorf("ROM read 0x%X with read shadowing disabled", v)
	}

	sys.Apply([]PortWrite{{0x22, 0x28}, {0x23, 0x02}})
	if v := sys.ReadByte(0xF0000); v != 0xB6 {
		t.Errorf("shadow read 0x%X", v)
	}
	if read, write := sys.Chipset.ShadowBIOS(); !read || write {
		t.Errorf("ShadowBIOS() = %v, %v", read, write)
	}
}

func TestFastReset(t *testing.T) {
	sys := newTestSystem(t, Config{})

	sys.Apply([]PortWrite{{0x22, 0x25}, {0x23, 0xFF}, {0x92, 0x02}})
	if !sys.GetMemoryMap().A20() {
		t.Fatal("A20 not enabled")
	}

	sys.OutByte(0x92, 0x03)
	if sys.Chipset.Register(0x25) != 0 || sys.Chipset.Register(0x7B) != 0xFF {
		t.Error("chipset not reset")
	}
	if sys.GetMemoryMap().A20() {
		t.Error("A20 still enabled")
	}
}

func TestHighRAMAlias(t *testing.T) {
	sys := newTestSystem(t, Config{HighRAMAlias: true})
	sys.OutByte(0x92, 0x02)

	sys.WriteByte(0xFB0000, 0x77)
	if v := sys.RAM.ReadByte(0xB0000); v != 0x77 {
		t.Errorf("alias write landed elsewhere: 0x%X", v)
	}
}

func TestBIOSTooLarge(t *testing.T) {
	_, err := Build(Config{BIOS: bytes.NewReader(make([]byte, 0x20001))})
	if !errors.Is(err, ErrBIOSSize) {
		t.Errorf("expected ErrBIOSSize, got %v", err)
	}
}

func TestSnapshotRestore(t *testing.T) {
	src := newTestSystem(t, Config{Variant: stpc.Elite})
	src.Apply([]PortWrite{{0x22, 0x10}, {0x23, 0x07}, {0x22, 0x13}, {0x23, 0x02}, {0x22, 0x26}, {0x23, 0x0F}})
	snap := src.Snapshot()

	dst := newTestSystem(t, Config{Variant: stpc.Elite})
	if err := dst.Restore(snap); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(src.Chipset.Snapshot(), dst.Chipset.Snapshot()); diff != "" {
		t.Errorf("restored state differs (-src +dst):\n%s", diff)
	}
	if dst.Chipset.HostBase() != 0x200 {
		t.Errorf("host window at 0x%X", dst.Chipset.HostBase())
	}

	other := newTestSystem(t, Config{Variant: stpc.Atlas})
	if err := other.Restore(snap); !errors.Is(err, ErrVariantMismatch) {
		t.Errorf("expected ErrVariantMismatch, got %v", err)
	}
}

func TestParsePortWrites(t *testing.T) {
	writes, err := ParsePortWrites("0x22=0x25, 0x23=5,146=0b10,")
	if err != nil {
		t.Fatal(err)
	}
	expected := []PortWrite{{0x22, 0x25}, {0x23, 5}, {0x92, 2}}
	if diff := cmp.Diff(expected, writes); diff != "" {
		t.Error(diff)
	}

	for _, s := range []string{"0x22", "0x10000=1", "0x22=0x100", "port=1"} {
		if _, err := ParsePortWrites(s); !errors.Is(err, ErrBadPortWrite) {
			t.Errorf("%q: expected ErrBadPortWrite, got %v", s, err)
		}
	}
}
