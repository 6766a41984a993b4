package chip8

// Quirks is the set of compatibility toggles resolved when a VM is
// created. Historical CHIP-8 interpreters disagreed on each of these
// points and real programs depend on specific answers, so the behavior
// is explicit configuration instead of a hardcoded choice.
type Quirks struct {
	// ShiftVY selects the original shift behavior where 8xy6 and 8xyE
	// shift Vy into Vx. When false only Vx is shifted, as on the
	// Super CHIP-8.
	ShiftVY bool

	// IncrementI leaves I pointing past the copied registers (I+x+1)
	// after Fx55 and Fx65, as the original interpreter did. Most
	// modern games assume I is untouched.
	IncrementI bool

	// JumpVX makes Bnnn jump to nnn+Vx, where x is the high nibble of
	// nnn, instead of nnn+V0.
	JumpVX bool

	// WrapSprites wraps sprite rows and columns around the display
	// edges during Dxyn. When false the sprite is clipped at the edge.
	WrapSprites bool

	// ResetVF clears VF after 8xy1, 8xy2 and 8xy3, as the COSMAC VIP
	// interpreter did.
	ResetVF bool

	// FlagLast writes VF after the destination register in ADD, SUB,
	// SUBN and the shifts, so the carry/borrow bit survives when the
	// destination register is VF itself. When false the result write
	// wins.
	FlagLast bool

	// WrapMemory wraps memory addressing modulo the memory size. When
	// false an out-of-range access halts the VM with a MemoryError.
	WrapMemory bool
}

// VIPQuirks returns the behavior of the original COSMAC VIP interpreter.
func VIPQuirks() Quirks {
	return Quirks{
		ShiftVY:    true,
		IncrementI: true,
		ResetVF:    true,
		FlagLast:   true,
		WrapMemory: true,
	}
}

// SCHIPQuirks returns the behavior most modern programs assume, which
// matches the Super CHIP-8 1.1 interpreter.
func SCHIPQuirks() Quirks {
	return Quirks{
		JumpVX:     true,
		FlagLast:   true,
		WrapMemory: true,
	}
}
