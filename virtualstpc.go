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

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/gdamore/tcell"
	"github.com/spf13/afero"
	"golang.org/x/term"

	"github.com/andreas-jonsson/virtualstpc/emulator"
	"github.com/andreas-jonsson/virtualstpc/emulator/monitor"
	"github.com/andreas-jonsson/virtualstpc/emulator/peripheral/stpc"
	"github.com/andreas-jonsson/virtualstpc/emulator/savestate"
	"github.com/andreas-jonsson/virtualstpc/version"
)

var (
	biosImage = "bios/stpc.bin"
	stateDir  = "states"
	variant   = "consumer2"
	ramSize   = 16
)

var (
	portWrites, saveName, loadName string

	ver, highAlias, textMode, listStates bool
)

func init() {
	if p, ok := os.LookupEnv("VST_DEFAULT_BIOS_PATH"); ok {
		biosImage = p
	}

	flag.BoolVar(&ver, "v", false, "Print version information")
	flag.BoolVar(&highAlias, "high-alias", false, "Alias the top of the first megabyte at 0xFA0000")
	flag.BoolVar(&textMode, "text", false, "Print the chipset state instead of opening the monitor")
	flag.BoolVar(&listStates, "list", false, "List saved chipset states")

	flag.IntVar(&ramSize, "m", ramSize, "RAM size in megabytes")
	flag.StringVar(&variant, "variant", variant, "STPC variant (consumer2, elite or atlas)")
	flag.StringVar(&biosImage, "bios", biosImage, "Path to BIOS image (empty for none)")
	flag.StringVar(&stateDir, "state-dir", stateDir, "Directory of saved chipset states")
	flag.StringVar(&portWrites, "out", "", "Port writes to perform, like 0x22=0x28,0x23=0x03")
	flag.StringVar(&saveName, "save", "", "Save the chipset state under this name")
	flag.StringVar(&loadName, "load", "", "Load a saved chipset state")
}

func main() {
	flag.Parse()

	if ver {
		fmt.Printf("%s (%s)\n", version.Current.FullString(), version.Hash)
		return
	}

	fs := afero.NewOsFs()
	store := savestate.NewStore(fs, stateDir)

	if listStates {
		names, err := store.List()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(strings.Join(names, "\n"))
		return
	}

	if err := run(fs, store); err != nil {
		log.Fatal(err)
	}
}

func run(fs afero.Fs, store *savestate.Store) error {
	v, err := stpc.ParseVariant(variant)
	if err != nil {
		return err
	}
	if ramSize < 1 || ramSize > 16 {
		return fmt.Errorf("RAM size must be between 1 and 16 MB, got %d", ramSize)
	}

	writes, err := emulator.ParsePortWrites(portWrites)
	if err != nil {
		return err
	}

	cfg := emulator.Config{
		Variant:      v,
		RAMSize:      ramSize << 20,
		HighRAMAlias: highAlias,
	}

	if biosImage != "" {
		fp, err := fs.Open(biosImage)
		if err != nil {
			return err
		}
		defer fp.Close()
		cfg.BIOS = fp
	}

	sys, err := emulator.Build(cfg)
	if err != nil {
		return err
	}
	defer sys.Close()

	if loadName != "" {
		snap, err := store.Load(loadName)
		if err != nil {
			return err
		}
		if err := sys.Restore(snap); err != nil {
			return err
		}
	}

	sys.Apply(writes)

	if saveName != "" {
		if err := store.Save(saveName, sys.Snapshot()); err != nil {
			return err
		}
		log.Printf("Saved chipset state %q", saveName)
	}

	if textMode || !term.IsTerminal(int(os.Stdout.Fd())) {
		return dump(os.Stdout, sys.Chipset)
	}
	return show(sys.Chipset)
}

func dump(w io.Writer, src monitor.Source) error {
	fmt.Fprintf(w, "virtualstpc v%s\n%s\n\n", version.Current, version.Copyright)
	return monitor.Dump(w, src)
}

func show(src monitor.Source) error {
	tcell.SetEncodingFallback(tcell.EncodingFallbackASCII)

	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err = s.Init(); err != nil {
		return err
	}
	defer s.Fini()

	s.HideCursor()
	s.DisableMouse()
	return monitor.New(src).Run(s)
}
