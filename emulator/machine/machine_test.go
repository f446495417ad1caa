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

package machine

import (
	"errors"
	"testing"

	"github.com/andreas-jonsson/virtualstpc/emulator/peripheral"
	"github.com/andreas-jonsson/virtualstpc/emulator/processor"
)

type latchDevice struct {
	name   string
	value  byte
	closed bool
	err    error
	ports  [2]uint16
}

func (m *latchDevice) Name() string {
	return m.name
}

func (m *latchDevice) Reset() {
	m.value = 0
}

func (m *latchDevice) Install(p processor.Processor) error {
	if m.err != nil {
		return m.err
	}
	return p.InstallIODevice(m, m.ports[0], m.ports[1])
}

func (m *latchDevice) Close() error {
	m.closed = true
	return nil
}

func (m *latchDevice) In(uint16) byte {
	return m.value
}

func (m *latchDevice) Out(_ uint16, data byte) {
	m.value = data
}

func TestPortDispatch(t *testing.T) {
	a := &latchDevice{name: "a", ports: [2]uint16{0x10, 0x13}}
	b := &latchDevice{name: "b", ports: [2]uint16{0x20, 0x20}}

	p, err := NewMachine(nil, []peripheral.Peripheral{a, b})
	if err != nil {
		t.Fatal(err)
	}

	p.OutByte(0x12, 0x42)
	if a.value != 0x42 {
		t.Errorf("device a got 0x%X", a.value)
	}
	if v := p.InByte(0x20); v != 0 {
		t.Errorf("device b read 0x%X", v)
	}
	if v := p.InByte(0x30); v != 0xFF {
		t.Errorf("unmapped port read 0x%X, expected 0xFF", v)
	}

	p.OutWord(0x10, 0x1234)
	if a.value != 0x12 {
		t.Errorf("word write left 0x%X", a.value)
	}

	if s := p.GetStats(); s.TX != 3 || s.RX != 2 {
		t.Errorf("unexpected stats %+v", s)
	}

	p.Reset()
	if a.value != 0 {
		t.Error("reset did not reach the device")
	}

	p.Close()
	if !a.closed || !b.closed {
		t.Error("close did not reach all devices")
	}
}

func TestPortOwnership(t *testing.T) {
	a := &latchDevice{name: "a", ports: [2]uint16{0x10, 0x14}}
	b := &latchDevice{name: "b", ports: [2]uint16{0x20, 0x20}}

	p, err := NewMachine(nil, []peripheral.Peripheral{a, b})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("Conflict", func(t *testing.T) {
		err := p.InstallIODevice(b, 0x14, 0x15)
		if !errors.Is(err, ErrPortInUse) {
			t.Errorf("expected ErrPortInUse, got %v", err)
		}
		if p.GetMappedIODevice(0x15) == b {
			t.Error("partial registration after conflict")
		}
	})

	t.Run("Remove", func(t *testing.T) {
		p.RemoveIODevice(a, 0x10, 0x14)
		if v := p.InByte(0x10); v != 0xFF {
			t.Errorf("removed port read 0x%X", v)
		}
		if err := p.InstallIODevice(b, 0x10, 0x14); err != nil {
			t.Errorf("ports not released: %v", err)
		}
	})

	t.Run("RemoveForeign", func(t *testing.T) {
		p.RemoveIODevice(a, 0x10, 0x14)
		if p.GetMappedIODevice(0x10) != b {
			t.Error("removing a device unmapped ports it does not own")
		}
	})

	t.Run("FullRange", func(t *testing.T) {
		c := &latchDevice{}
		if err := p.InstallIODevice(c, 0xFFFE, 0xFFFF); err != nil {
			t.Fatal(err)
		}
		p.RemoveIODevice(c, 0xFFFE, 0xFFFF)
		if v := p.InByte(0xFFFF); v != 0xFF {
			t.Errorf("read 0x%X", v)
		}
	})
}

func TestInstallFailure(t *testing.T) {
	a := &latchDevice{name: "a", ports: [2]uint16{0x10, 0x10}}
	b := &latchDevice{name: "b", err: errors.New("broken")}

	if _, err := NewMachine(nil, []peripheral.Peripheral{a, b}); err == nil {
		t.Fatal("expected install error")
	}
	if !a.closed {
		t.Error("installed device was not closed after failure")
	}
	if b.closed {
		t.Error("failed device should not be closed")
	}
}
