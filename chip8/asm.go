package chip8

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Assembly is a completely assembled source program.
type Assembly struct {
	// ROM is the final, assembled bytes to load at LoadOffset.
	ROM []byte

	// Labels maps label names to their absolute addresses.
	Labels map[string]uint16
}

// operand kinds recognized by the assembler.
type operandKind int

const (
	operandReg operandKind = iota // V0..VF
	operandLit                    // literal or resolved label
	operandI                      // I
	operandEffective              // [I]
	operandDT                     // DT
	operandST                     // ST
	operandK                      // K
	operandF                      // F
	operandB                      // B
)

type operand struct {
	kind operandKind
	val  uint16
}

// line is one source line split into its parts.
type line struct {
	num      int
	mnemonic string
	operands []string
}

// Assemble translates CHIP-8 assembly source into a ROM image. The
// syntax is the same the disassembler emits: optional "label:"
// prefixes, one instruction per line, ';' comments, '#' hex and '$'
// binary literals, and BYTE/WORD directives for raw data.
func Assemble(source []byte) (*Assembly, error) {
	out := &Assembly{
		ROM:    make([]byte, 0, MemorySize-LoadOffset),
		Labels: make(map[string]uint16),
	}

	lines, err := out.scan(source)
	if err != nil {
		return nil, err
	}

	// second pass, all label addresses known
	for _, ln := range lines {
		code, err := out.encode(ln)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", ln.num, err)
		}

		out.ROM = append(out.ROM, code...)

		if len(out.ROM) > MemorySize-LoadOffset {
			return nil, RomTooLargeError{Size: len(out.ROM)}
		}
	}

	return out, nil
}

// scan splits the source into lines, records label addresses, and
// sizes each instruction so the second pass can resolve references.
func (a *Assembly) scan(source []byte) ([]line, error) {
	var lines []line

	addr := uint16(LoadOffset)

	scanner := bufio.NewScanner(bytes.NewReader(source))

	for num := 1; scanner.Scan(); num++ {
		text := scanner.Text()

		// strip comments
		if i := strings.IndexByte(text, ';'); i >= 0 {
			text = text[:i]
		}

		text = strings.TrimSpace(strings.ToUpper(text))

		// pull off any label definitions
		for {
			i := strings.IndexByte(text, ':')
			if i < 0 {
				break
			}

			label := strings.TrimSpace(text[:i])
			if !validLabel(label) {
				return nil, fmt.Errorf("line %d: invalid label %q", num, label)
			}

			if _, ok := a.Labels[label]; ok {
				return nil, fmt.Errorf("line %d: duplicate label %q", num, label)
			}

			a.Labels[label] = addr
			text = strings.TrimSpace(text[i+1:])
		}

		if text == "" {
			continue
		}

		ln := line{num: num}

		if i := strings.IndexAny(text, " \t"); i >= 0 {
			ln.mnemonic = text[:i]

			for _, op := range strings.Split(text[i+1:], ",") {
				ln.operands = append(ln.operands, strings.TrimSpace(op))
			}
		} else {
			ln.mnemonic = text
		}

		lines = append(lines, ln)

		addr += a.size(ln)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// size returns the number of bytes a line assembles to.
func (a *Assembly) size(ln line) uint16 {
	switch ln.mnemonic {
	case "BYTE":
		return uint16(len(ln.operands))
	case "WORD":
		return uint16(len(ln.operands)) * 2
	}

	return 2
}

func validLabel(s string) bool {
	if s == "" {
		return false
	}

	for i, c := range s {
		switch {
		case c >= 'A' && c <= 'Z':
		case c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}

	return true
}

// parseOperand classifies a single operand string.
func (a *Assembly) parseOperand(s string) (operand, error) {
	switch s {
	case "I":
		return operand{kind: operandI}, nil
	case "[I]":
		return operand{kind: operandEffective}, nil
	case "DT":
		return operand{kind: operandDT}, nil
	case "ST":
		return operand{kind: operandST}, nil
	case "K":
		return operand{kind: operandK}, nil
	case "F":
		return operand{kind: operandF}, nil
	case "B":
		return operand{kind: operandB}, nil
	}

	// register reference
	if len(s) == 2 && s[0] == 'V' {
		if n, err := strconv.ParseUint(s[1:], 16, 4); err == nil {
			return operand{kind: operandReg, val: uint16(n)}, nil
		}
	}

	// numeric literals: # hex, $ binary, plain decimal
	var n uint64
	var err error

	switch {
	case strings.HasPrefix(s, "#"):
		n, err = strconv.ParseUint(s[1:], 16, 16)
	case strings.HasPrefix(s, "$"):
		n, err = strconv.ParseUint(s[1:], 2, 16)
	case s != "" && s[0] >= '0' && s[0] <= '9':
		n, err = strconv.ParseUint(s, 10, 16)
	default:
		if addr, ok := a.Labels[s]; ok {
			return operand{kind: operandLit, val: addr}, nil
		}

		return operand{}, fmt.Errorf("unknown operand %q", s)
	}

	if err != nil {
		return operand{}, fmt.Errorf("bad literal %q", s)
	}

	return operand{kind: operandLit, val: uint16(n)}, nil
}

// parseOperands classifies every operand of a line.
func (a *Assembly) parseOperands(ln line) ([]operand, error) {
	ops := make([]operand, len(ln.operands))

	for i, s := range ln.operands {
		op, err := a.parseOperand(s)
		if err != nil {
			return nil, err
		}

		ops[i] = op
	}

	return ops, nil
}

// match reports whether the operand kinds are exactly the given ones.
func match(ops []operand, kinds ...operandKind) bool {
	if len(ops) != len(kinds) {
		return false
	}

	for i, k := range kinds {
		if ops[i].kind != k {
			return false
		}
	}

	return true
}

func word(w uint16) []byte {
	return []byte{byte(w >> 8), byte(w)}
}

// encode assembles a single line into its bytes.
func (a *Assembly) encode(ln line) ([]byte, error) {
	ops, err := a.parseOperands(ln)
	if err != nil {
		return nil, err
	}

	x := func(i int) uint16 { return ops[i].val << 8 }
	y := func(i int) uint16 { return ops[i].val << 4 }

	switch ln.mnemonic {
	case "CLS":
		if match(ops) {
			return word(0x00E0), nil
		}
	case "RET":
		if match(ops) {
			return word(0x00EE), nil
		}
	case "SYS":
		if match(ops, operandLit) {
			return word(0x0000 | ops[0].val&0xFFF), nil
		}
	case "JP":
		if match(ops, operandLit) {
			return word(0x1000 | ops[0].val&0xFFF), nil
		}
		if match(ops, operandReg, operandLit) && ops[0].val == 0 {
			return word(0xB000 | ops[1].val&0xFFF), nil
		}
	case "CALL":
		if match(ops, operandLit) {
			return word(0x2000 | ops[0].val&0xFFF), nil
		}
	case "SE":
		if match(ops, operandReg, operandLit) {
			return word(0x3000 | x(0) | ops[1].val&0xFF), nil
		}
		if match(ops, operandReg, operandReg) {
			return word(0x5000 | x(0) | y(1)), nil
		}
	case "SNE":
		if match(ops, operandReg, operandLit) {
			return word(0x4000 | x(0) | ops[1].val&0xFF), nil
		}
		if match(ops, operandReg, operandReg) {
			return word(0x9000 | x(0) | y(1)), nil
		}
	case "LD":
		switch {
		case match(ops, operandReg, operandLit):
			return word(0x6000 | x(0) | ops[1].val&0xFF), nil
		case match(ops, operandReg, operandReg):
			return word(0x8000 | x(0) | y(1)), nil
		case match(ops, operandI, operandLit):
			return word(0xA000 | ops[1].val&0xFFF), nil
		case match(ops, operandReg, operandDT):
			return word(0xF007 | x(0)), nil
		case match(ops, operandReg, operandK):
			return word(0xF00A | x(0)), nil
		case match(ops, operandDT, operandReg):
			return word(0xF015 | x(1)), nil
		case match(ops, operandST, operandReg):
			return word(0xF018 | x(1)), nil
		case match(ops, operandF, operandReg):
			return word(0xF029 | x(1)), nil
		case match(ops, operandB, operandReg):
			return word(0xF033 | x(1)), nil
		case match(ops, operandEffective, operandReg):
			return word(0xF055 | x(1)), nil
		case match(ops, operandReg, operandEffective):
			return word(0xF065 | x(0)), nil
		}
	case "ADD":
		switch {
		case match(ops, operandReg, operandLit):
			return word(0x7000 | x(0) | ops[1].val&0xFF), nil
		case match(ops, operandReg, operandReg):
			return word(0x8004 | x(0) | y(1)), nil
		case match(ops, operandI, operandReg):
			return word(0xF01E | x(1)), nil
		}
	case "OR":
		if match(ops, operandReg, operandReg) {
			return word(0x8001 | x(0) | y(1)), nil
		}
	case "AND":
		if match(ops, operandReg, operandReg) {
			return word(0x8002 | x(0) | y(1)), nil
		}
	case "XOR":
		if match(ops, operandReg, operandReg) {
			return word(0x8003 | x(0) | y(1)), nil
		}
	case "SUB":
		if match(ops, operandReg, operandReg) {
			return word(0x8005 | x(0) | y(1)), nil
		}
	case "SUBN":
		if match(ops, operandReg, operandReg) {
			return word(0x8007 | x(0) | y(1)), nil
		}
	case "SHR":
		if match(ops, operandReg) {
			return word(0x8006 | x(0)), nil
		}
		if match(ops, operandReg, operandReg) {
			return word(0x8006 | x(0) | y(1)), nil
		}
	case "SHL":
		if match(ops, operandReg) {
			return word(0x800E | x(0)), nil
		}
		if match(ops, operandReg, operandReg) {
			return word(0x800E | x(0) | y(1)), nil
		}
	case "RND":
		if match(ops, operandReg, operandLit) {
			return word(0xC000 | x(0) | ops[1].val&0xFF), nil
		}
	case "DRW":
		if match(ops, operandReg, operandReg, operandLit) {
			return word(0xD000 | x(0) | y(1) | ops[2].val&0xF), nil
		}
	case "SKP":
		if match(ops, operandReg) {
			return word(0xE09E | x(0)), nil
		}
	case "SKNP":
		if match(ops, operandReg) {
			return word(0xE0A1 | x(0)), nil
		}
	case "BYTE":
		out := make([]byte, len(ops))
		for i, op := range ops {
			if op.kind != operandLit || op.val > 0xFF {
				return nil, fmt.Errorf("bad BYTE operand %q", ln.operands[i])
			}
			out[i] = byte(op.val)
		}
		return out, nil
	case "WORD":
		out := make([]byte, 0, len(ops)*2)
		for i, op := range ops {
			if op.kind != operandLit {
				return nil, fmt.Errorf("bad WORD operand %q", ln.operands[i])
			}
			out = append(out, word(op.val)...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown instruction %q", ln.mnemonic)
	}

	return nil, fmt.Errorf("bad operands for %s", ln.mnemonic)
}
