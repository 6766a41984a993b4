package chip8

import "fmt"

// Form identifies one instruction form of the base CHIP-8 instruction
// set. Decode produces exactly one Form per instruction word, and the
// VM dispatches on it with an exhaustive switch.
type Form int

const (
	FormSys             Form = iota // 0nnn - native call, ignored
	FormCls                         // 00E0 - clear the display
	FormRet                         // 00EE - return from subroutine
	FormJump                        // 1nnn - jump to address
	FormCall                        // 2nnn - call subroutine
	FormSkipIf                      // 3xkk - skip if Vx == kk
	FormSkipIfNot                   // 4xkk - skip if Vx != kk
	FormSkipIfXY                    // 5xy0 - skip if Vx == Vy
	FormLoadX                       // 6xkk - Vx = kk
	FormAddX                        // 7xkk - Vx += kk, no carry
	FormLoadXY                      // 8xy0 - Vx = Vy
	FormOr                          // 8xy1 - Vx |= Vy
	FormAnd                         // 8xy2 - Vx &= Vy
	FormXor                         // 8xy3 - Vx ^= Vy
	FormAddXY                       // 8xy4 - Vx += Vy, VF = carry
	FormSubXY                       // 8xy5 - Vx -= Vy, VF = no borrow
	FormShr                         // 8xy6 - shift right, VF = bit out
	FormSubYX                       // 8xy7 - Vx = Vy - Vx, VF = no borrow
	FormShl                         // 8xyE - shift left, VF = bit out
	FormSkipIfNotXY                 // 9xy0 - skip if Vx != Vy
	FormLoadI                       // Annn - I = nnn
	FormJumpV0                      // Bnnn - jump to nnn + V0 (or Vx)
	FormRnd                         // Cxkk - Vx = random & kk
	FormDraw                        // Dxyn - draw sprite, VF = collision
	FormSkipIfPressed               // Ex9E - skip if key Vx down
	FormSkipIfNotPressed            // ExA1 - skip if key Vx up
	FormLoadXDT                     // Fx07 - Vx = delay timer
	FormWaitKey                     // Fx0A - wait for key press into Vx
	FormLoadDTX                     // Fx15 - delay timer = Vx
	FormLoadSTX                     // Fx18 - sound timer = Vx
	FormAddIX                       // Fx1E - I += Vx
	FormLoadF                       // Fx29 - I = font glyph for Vx
	FormLoadB                       // Fx33 - BCD of Vx to I..I+2
	FormSaveRegs                    // Fx55 - V0..Vx to memory at I
	FormLoadRegs                    // Fx65 - V0..Vx from memory at I
)

// Opcode is one decoded instruction word with its operand fields
// already extracted.
type Opcode struct {
	Form Form

	// X and Y are the register operands from the second and third
	// nibbles of the word.
	X, Y byte

	// N, NN and NNN are the nibble, byte and address literals.
	N   byte
	NN  byte
	NNN uint16

	// Word is the raw instruction word.
	Word uint16
}

// Decode matches a 16-bit instruction word against the known forms.
// Words that match no form return an OpcodeError.
func Decode(word uint16) (Opcode, error) {
	op := Opcode{
		X:    byte(word >> 8 & 0xF),
		Y:    byte(word >> 4 & 0xF),
		N:    byte(word & 0xF),
		NN:   byte(word & 0xFF),
		NNN:  word & 0xFFF,
		Word: word,
	}

	switch {
	case word == 0x00E0:
		op.Form = FormCls
	case word == 0x00EE:
		op.Form = FormRet
	case word&0xF000 == 0x0000:
		op.Form = FormSys
	case word&0xF000 == 0x1000:
		op.Form = FormJump
	case word&0xF000 == 0x2000:
		op.Form = FormCall
	case word&0xF000 == 0x3000:
		op.Form = FormSkipIf
	case word&0xF000 == 0x4000:
		op.Form = FormSkipIfNot
	case word&0xF00F == 0x5000:
		op.Form = FormSkipIfXY
	case word&0xF000 == 0x6000:
		op.Form = FormLoadX
	case word&0xF000 == 0x7000:
		op.Form = FormAddX
	case word&0xF00F == 0x8000:
		op.Form = FormLoadXY
	case word&0xF00F == 0x8001:
		op.Form = FormOr
	case word&0xF00F == 0x8002:
		op.Form = FormAnd
	case word&0xF00F == 0x8003:
		op.Form = FormXor
	case word&0xF00F == 0x8004:
		op.Form = FormAddXY
	case word&0xF00F == 0x8005:
		op.Form = FormSubXY
	case word&0xF00F == 0x8006:
		op.Form = FormShr
	case word&0xF00F == 0x8007:
		op.Form = FormSubYX
	case word&0xF00F == 0x800E:
		op.Form = FormShl
	case word&0xF00F == 0x9000:
		op.Form = FormSkipIfNotXY
	case word&0xF000 == 0xA000:
		op.Form = FormLoadI
	case word&0xF000 == 0xB000:
		op.Form = FormJumpV0
	case word&0xF000 == 0xC000:
		op.Form = FormRnd
	case word&0xF000 == 0xD000:
		op.Form = FormDraw
	case word&0xF0FF == 0xE09E:
		op.Form = FormSkipIfPressed
	case word&0xF0FF == 0xE0A1:
		op.Form = FormSkipIfNotPressed
	case word&0xF0FF == 0xF007:
		op.Form = FormLoadXDT
	case word&0xF0FF == 0xF00A:
		op.Form = FormWaitKey
	case word&0xF0FF == 0xF015:
		op.Form = FormLoadDTX
	case word&0xF0FF == 0xF018:
		op.Form = FormLoadSTX
	case word&0xF0FF == 0xF01E:
		op.Form = FormAddIX
	case word&0xF0FF == 0xF029:
		op.Form = FormLoadF
	case word&0xF0FF == 0xF033:
		op.Form = FormLoadB
	case word&0xF0FF == 0xF055:
		op.Form = FormSaveRegs
	case word&0xF0FF == 0xF065:
		op.Form = FormLoadRegs
	default:
		return Opcode{}, OpcodeError{Word: word}
	}

	return op, nil
}

// String renders the opcode in assembly mnemonics.
func (op Opcode) String() string {
	switch op.Form {
	case FormCls:
		return "CLS"
	case FormRet:
		return "RET"
	case FormSys:
		return fmt.Sprintf("SYS    #%04X", op.NNN)
	case FormJump:
		return fmt.Sprintf("JP     #%04X", op.NNN)
	case FormCall:
		return fmt.Sprintf("CALL   #%04X", op.NNN)
	case FormSkipIf:
		return fmt.Sprintf("SE     V%X, #%02X", op.X, op.NN)
	case FormSkipIfNot:
		return fmt.Sprintf("SNE    V%X, #%02X", op.X, op.NN)
	case FormSkipIfXY:
		return fmt.Sprintf("SE     V%X, V%X", op.X, op.Y)
	case FormLoadX:
		return fmt.Sprintf("LD     V%X, #%02X", op.X, op.NN)
	case FormAddX:
		return fmt.Sprintf("ADD    V%X, #%02X", op.X, op.NN)
	case FormLoadXY:
		return fmt.Sprintf("LD     V%X, V%X", op.X, op.Y)
	case FormOr:
		return fmt.Sprintf("OR     V%X, V%X", op.X, op.Y)
	case FormAnd:
		return fmt.Sprintf("AND    V%X, V%X", op.X, op.Y)
	case FormXor:
		return fmt.Sprintf("XOR    V%X, V%X", op.X, op.Y)
	case FormAddXY:
		return fmt.Sprintf("ADD    V%X, V%X", op.X, op.Y)
	case FormSubXY:
		return fmt.Sprintf("SUB    V%X, V%X", op.X, op.Y)
	case FormShr:
		return fmt.Sprintf("SHR    V%X", op.X)
	case FormSubYX:
		return fmt.Sprintf("SUBN   V%X, V%X", op.X, op.Y)
	case FormShl:
		return fmt.Sprintf("SHL    V%X", op.X)
	case FormSkipIfNotXY:
		return fmt.Sprintf("SNE    V%X, V%X", op.X, op.Y)
	case FormLoadI:
		return fmt.Sprintf("LD     I, #%04X", op.NNN)
	case FormJumpV0:
		return fmt.Sprintf("JP     V0, #%04X", op.NNN)
	case FormRnd:
		return fmt.Sprintf("RND    V%X, #%02X", op.X, op.NN)
	case FormDraw:
		return fmt.Sprintf("DRW    V%X, V%X, %d", op.X, op.Y, op.N)
	case FormSkipIfPressed:
		return fmt.Sprintf("SKP    V%X", op.X)
	case FormSkipIfNotPressed:
		return fmt.Sprintf("SKNP   V%X", op.X)
	case FormLoadXDT:
		return fmt.Sprintf("LD     V%X, DT", op.X)
	case FormWaitKey:
		return fmt.Sprintf("LD     V%X, K", op.X)
	case FormLoadDTX:
		return fmt.Sprintf("LD     DT, V%X", op.X)
	case FormLoadSTX:
		return fmt.Sprintf("LD     ST, V%X", op.X)
	case FormAddIX:
		return fmt.Sprintf("ADD    I, V%X", op.X)
	case FormLoadF:
		return fmt.Sprintf("LD     F, V%X", op.X)
	case FormLoadB:
		return fmt.Sprintf("LD     B, V%X", op.X)
	case FormSaveRegs:
		return fmt.Sprintf("LD     [I], V%X", op.X)
	case FormLoadRegs:
		return fmt.Sprintf("LD     V%X, [I]", op.X)
	}

	return "??"
}
