package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chipvm/chip8/chip8"
	"github.com/retroenv/retrogolib/log"
)

var (
	// Paused stops the CPU ticker from stepping.
	Paused bool

	// Trace logs every instruction before it executes.
	Trace bool

	// RomSize is the size of the loaded program image in bytes.
	RomSize int
)

// StepVM executes one instruction, tracing it when asked and pausing
// emulation if the VM halts with an error.
func StepVM() {
	if Trace {
		Logger.Debug(VM.Disassemble(VM.PC()))
	}

	if _, err := VM.Step(); err != nil {
		Logger.Error("emulation halted", log.Err(err))
		LogRegisters()

		Paused = true
	}
}

// LogRegisters dumps the machine registers through the logger.
func LogRegisters() {
	var regs strings.Builder

	for i := 0; i < 16; i++ {
		fmt.Fprintf(&regs, "V%X=%02X ", i, VM.Register(i))
	}

	Logger.Info("registers",
		log.String("v", strings.TrimSpace(regs.String())),
		log.Hex("i", VM.I()),
		log.Hex("pc", VM.PC()))
}

// Disassemble writes the loaded program's disassembly to w.
func Disassemble(w io.Writer) {
	for addr := chip8.LoadOffset; addr < chip8.LoadOffset+RomSize; addr += 2 {
		fmt.Fprintln(w, VM.Disassemble(uint16(addr)))
	}
}
