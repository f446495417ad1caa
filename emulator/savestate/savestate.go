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

package savestate

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/andreas-jonsson/virtualstpc/emulator/peripheral/stpc"
	"github.com/andreas-jonsson/virtualstpc/version"
)

const (
	Magic     = "STPC"
	Extension = ".stpc"

	headerSize = len(Magic) + 4
)

var (
	ErrBadMagic     = errors.New("not an STPC snapshot")
	ErrIncompatible = errors.New("incompatible snapshot version")
)

// Snapshot is a chipset state together with the variant it was taken from.
type Snapshot struct {
	Version version.Version
	Variant stpc.Variant
	State   stpc.State
}

func (s *Snapshot) MarshalBinary() ([]byte, error) {
	state, err := s.State.MarshalBinary()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(Magic)
	buf.Write(version.Current.Slice())
	buf.WriteByte(byte(s.Variant))
	buf.Write(state)
	return buf.Bytes(), nil
}

func (s *Snapshot) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize || string(data[:len(Magic)]) != Magic {
		return ErrBadMagic
	}

	ver := version.NewFromSlice(data[len(Magic):])
	if !version.Current.Compatible(ver) {
		return fmt.Errorf("%w: %v", ErrIncompatible, ver)
	}

	var st stpc.State
	if err := st.UnmarshalBinary(data[headerSize:]); err != nil {
		return err
	}

	s.Version = ver
	s.Variant = stpc.Variant(data[headerSize-1])
	s.State = st
	return nil
}

// Store keeps snapshots as files in a directory.
type Store struct {
	fs  afero.Fs
	dir string
}

func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

func (s *Store) path(name string) string {
	if !strings.HasSuffix(name, Extension) {
		name += Extension
	}
	return filepath.Join(s.dir, filepath.Base(name))
}

func (s *Store) Save(name string, snap *Snapshot) error {
	data, err := snap.MarshalBinary()
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, s.path(name), data, 0644)
}

func (s *Store) Load(name string) (*Snapshot, error) {
	data, err := afero.ReadFile(s.fs, s.path(name))
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	if err := snap.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return snap, nil
}

// List returns the names of all snapshots in the store, sorted.
func (s *Store) List() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, fi := range infos {
		if !fi.IsDir() && strings.HasSuffix(fi.Name(), Extension) {
			names = append(names, strings.TrimSuffix(fi.Name(), Extension))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Remove(name string) error {
	return s.fs.Remove(s.path(name))
}
