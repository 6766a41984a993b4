package chip8

import (
	"errors"
	"fmt"
)

var (
	// ErrStackOverflow is returned when a CALL would push a 17th
	// return address.
	ErrStackOverflow = errors.New("stack overflow")

	// ErrStackUnderflow is returned when RET executes with an empty
	// stack.
	ErrStackUnderflow = errors.New("stack underflow")
)

// RomTooLargeError is returned when a program image does not fit
// between the load offset and the end of memory.
type RomTooLargeError struct {
	Size int
}

func (e RomTooLargeError) Error() string {
	return fmt.Sprintf("program too large: %d bytes, %d available",
		e.Size, MemorySize-LoadOffset)
}

// OpcodeError is returned when an instruction word matches no known
// form.
type OpcodeError struct {
	Word uint16
}

func (e OpcodeError) Error() string {
	return fmt.Sprintf("invalid opcode: %04X", e.Word)
}

// MemoryError is returned when an address computation escapes memory
// while wrapping is disabled.
type MemoryError struct {
	Addr uint16
}

func (e MemoryError) Error() string {
	return fmt.Sprintf("memory access out of bounds: %04X", e.Addr)
}
