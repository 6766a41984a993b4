package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/chipvm/chip8/chip8"
	"github.com/retroenv/retrogolib/log"
	"github.com/veandco/go-sdl2/sdl"
)

var (
	// VM is the hosted CHIP-8 virtual machine.
	VM *chip8.VM

	// File is the path of the currently loaded ROM or source file.
	File string

	// Quirks is the compatibility configuration every VM instance is
	// built with.
	Quirks chip8.Quirks

	// Window and Renderer are the SDL front end.
	Window   *sdl.Window
	Renderer *sdl.Renderer

	// Logger is the host's structured logger.
	Logger *log.Logger
)

func init() {
	runtime.LockOSThread()
}

func main() {
	speed := flag.Int("speed", 700, "instructions per second")
	profile := flag.String("profile", "schip", "quirk profile: vip or schip")
	wrap := flag.Bool("wrap", false, "wrap sprites around the display edges")
	scale := flag.Int("scale", 10, "display scale factor")
	disassemble := flag.Bool("disassemble", false, "disassemble the ROM to stdout and exit")
	trace := flag.Bool("trace", false, "log every instruction executed")
	debug := flag.Bool("debug", false, "enable debug logging")

	flag.Parse()

	Logger = createLogger(*debug || *trace)
	Trace = *trace

	// seed the random number generator used by RND
	rand.Seed(time.Now().UTC().UnixNano())

	switch *profile {
	case "vip":
		Quirks = chip8.VIPQuirks()
	case "schip":
		Quirks = chip8.SCHIPQuirks()
	default:
		Logger.Fatal("unknown quirk profile", log.String("profile", *profile))
	}

	Quirks.WrapSprites = *wrap

	File = flag.Arg(0)
	if File == "" {
		fmt.Fprintf(os.Stderr, "usage: %s [options] <ROM file>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := Load(); err != nil {
		Logger.Fatal("loading ROM failed", log.String("file", File), log.Err(err))
	}

	if *disassemble {
		Disassemble(os.Stdout)
		return
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		Logger.Fatal("SDL init failed", log.Err(err))
	}
	defer sdl.Quit()

	var err error

	// create the main window and renderer
	flags := sdl.WINDOW_OPENGL | sdl.WINDOWPOS_CENTERED
	w := chip8.DisplayWidth * *scale
	h := chip8.DisplayHeight * *scale

	if Window, Renderer, err = sdl.CreateWindowAndRenderer(w, h, uint32(flags)); err != nil {
		Logger.Fatal("creating window failed", log.Err(err))
	}

	Window.SetTitle("CHIP-8")

	InitScreen()
	InitAudio()

	// instruction stepping and the 60 Hz timer/refresh cadence are
	// deliberately independent tickers
	cpu := time.NewTicker(time.Second / time.Duration(*speed))
	sixty := time.NewTicker(time.Second / 60)

	// loop until window closed or user quit
	for ProcessEvents() {
		select {
		case <-sixty.C:
			VM.TickTimers()
			UpdateAudio()
			Refresh()
		case <-cpu.C:
			if !Paused {
				StepVM()
			}
		}
	}
}

// Load reads the current file, assembling it first when it is a
// source file, and builds a fresh VM around it. Resetting always means
// rebuilding; a VM has no partial reset.
func Load() error {
	program, err := os.ReadFile(File)
	if err != nil {
		return err
	}

	if strings.HasSuffix(strings.ToLower(File), ".asm") {
		asm, err := chip8.Assemble(program)
		if err != nil {
			return err
		}

		program = asm.ROM
	}

	vm := chip8.New(Quirks)
	if err := vm.Load(program); err != nil {
		return err
	}

	VM = vm
	RomSize = len(program)

	return nil
}

func createLogger(debug bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	}

	return log.NewWithConfig(cfg)
}
