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

package regfile

// Window exposes a File on the I/O bus. The index register lives at Base and
// the data register at Base+DataOffset. Every other port in the span reads
// as 0xFF.
type Window struct {
	File

	Base       uint16
	Span       uint16
	DataOffset uint16

	// OnWrite is called after an accepted data write has been stored.
	OnWrite func(reg, data byte)
}

func NewWindow(base, span, dataOffset uint16, policy *Map) *Window {
	return &Window{
		File:       File{Policy: policy},
		Base:       base,
		Span:       span,
		DataOffset: dataOffset,
	}
}

func (w *Window) Enabled() bool {
	return w.Base != 0
}

// Last returns the last port in the window.
func (w *Window) Last() uint16 {
	return w.Base + w.Span - 1
}

func (w *Window) In(port uint16) byte {
	switch port {
	case w.Base:
		return w.Index
	case w.Base + w.DataOffset:
		return w.Read()
	}
	return 0xFF
}

func (w *Window) Out(port uint16, data byte) {
	switch port {
	case w.Base:
		w.Index = data
	case w.Base + w.DataOffset:
		if reg, stored, ok := w.Write(data); ok && w.OnWrite != nil {
			w.OnWrite(reg, stored)
		}
	}
}
