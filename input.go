package main

import (
	"github.com/retroenv/retrogolib/log"
	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"
)

var (
	// KeyMap maps a modern keyboard to the 4x4 CHIP-8 keypad.
	KeyMap = map[sdl.Scancode]int{
		sdl.SCANCODE_X: 0x0,
		sdl.SCANCODE_1: 0x1,
		sdl.SCANCODE_2: 0x2,
		sdl.SCANCODE_3: 0x3,
		sdl.SCANCODE_Q: 0x4,
		sdl.SCANCODE_W: 0x5,
		sdl.SCANCODE_E: 0x6,
		sdl.SCANCODE_A: 0x7,
		sdl.SCANCODE_S: 0x8,
		sdl.SCANCODE_D: 0x9,
		sdl.SCANCODE_Z: 0xA,
		sdl.SCANCODE_C: 0xB,
		sdl.SCANCODE_4: 0xC,
		sdl.SCANCODE_R: 0xD,
		sdl.SCANCODE_F: 0xE,
		sdl.SCANCODE_V: 0xF,
	}
)

// ProcessEvents pumps SDL events and feeds keypad state to the VM. It
// reports false when the host should quit.
func ProcessEvents() bool {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch ev := e.(type) {
		case *sdl.QuitEvent:
			return false
		case *sdl.KeyDownEvent:
			if key, ok := KeyMap[ev.Keysym.Scancode]; ok {
				VM.SetKey(key, true)
				continue
			}

			switch ev.Keysym.Scancode {
			case sdl.SCANCODE_ESCAPE:
				return false
			case sdl.SCANCODE_F5, sdl.SCANCODE_SPACE:
				Paused = !Paused
			case sdl.SCANCODE_F6, sdl.SCANCODE_F10:
				if Paused {
					StepVM()
				}
			case sdl.SCANCODE_BACKSPACE:
				Reload()
			case sdl.SCANCODE_F3:
				LoadDialog()
			}
		case *sdl.KeyUpEvent:
			if key, ok := KeyMap[ev.Keysym.Scancode]; ok {
				VM.SetKey(key, false)
			}
		}
	}

	return true
}

// LoadDialog picks a new ROM with a native file dialog.
func LoadDialog() {
	file, err := dialog.File().
		Title("Load ROM").
		Filter("CHIP-8 ROMs", "ch8", "rom", "asm").
		Load()
	if err != nil {
		// dialog cancelled
		return
	}

	File = file

	Reload()
}

// Reload discards the VM and boots the current file fresh.
func Reload() {
	if err := Load(); err != nil {
		Logger.Error("loading ROM failed", log.String("file", File), log.Err(err))
		return
	}

	Logger.Info("loaded ROM", log.String("file", File))

	Paused = false
}
