package chip8

import "fmt"

// Disassemble renders the instruction at addr as its address followed
// by assembly mnemonics. Zero words read as empty program memory.
func (vm *VM) Disassemble(addr uint16) string {
	if int(addr) >= MemorySize-1 {
		return fmt.Sprintf("%04X -", addr)
	}

	word := uint16(vm.memory[addr])<<8 | uint16(vm.memory[addr+1])

	// end of program memory?
	if word == 0 {
		return fmt.Sprintf("%04X -", addr)
	}

	op, err := Decode(word)
	if err != nil {
		return fmt.Sprintf("%04X - ??", addr)
	}

	return fmt.Sprintf("%04X - %s", addr, op)
}
