// Package chip8 implements a CHIP-8 virtual machine: memory, registers,
// timers, frame buffer, and the full base instruction set, with the
// historical compatibility quirks exposed as configuration.
package chip8

import "math/rand"

// Memory and machine layout constants.
const (
	// MemorySize is the addressable memory in bytes.
	MemorySize = 0x1000

	// LoadOffset is the address programs are loaded to and the
	// program counter starts at.
	LoadOffset = 0x200

	// StackDepth is the maximum number of nested subroutine calls.
	StackDepth = 16

	// NumKeys is the number of keypad keys.
	NumKeys = 16
)

// StepOutcome reports what a single Step call accomplished.
type StepOutcome int

const (
	// StepExecuted means one instruction ran to completion.
	StepExecuted StepOutcome = iota

	// StepBlocked means the current instruction is waiting for a key
	// press and the program counter did not advance.
	StepBlocked
)

// VM is a CHIP-8 virtual machine. All mutable machine state lives in
// this one aggregate; instances are fully independent of each other.
// A VM is not safe for concurrent use: the host must not interleave
// Step, TickTimers, SetKey or the observers from multiple goroutines.
type VM struct {
	// memory is the flat addressable space. The font glyphs occupy
	// FontBase..FontBase+80; programs start at LoadOffset.
	memory [MemorySize]byte

	// v are the sixteen general-purpose registers. V[0xF] doubles as
	// the carry/borrow/collision flag.
	v [16]byte

	// i is the address register.
	i uint16

	// pc is the program counter.
	pc uint16

	// stack holds return addresses pushed by CALL.
	stack [StackDepth]uint16
	sp    int

	// dt and st are the delay and sound timers, decremented toward
	// zero by TickTimers only.
	dt, st byte

	// keys is the current pressed state of the 16 keypad keys.
	keys [NumKeys]bool

	// display is the 64x32 frame buffer.
	display Display

	// quirks is fixed at construction and never mutated.
	quirks Quirks

	// halted latches the first unrecoverable error; every later Step
	// returns it until the host builds a fresh instance.
	halted error
}

// New creates a zeroed VM with the font glyphs written to memory and
// the given compatibility quirks fixed for the instance's lifetime.
func New(quirks Quirks) *VM {
	vm := &VM{
		pc:     LoadOffset,
		quirks: quirks,
	}

	// write the hex digit glyphs into reserved memory
	copy(vm.memory[FontBase:], fontset[:])

	return vm
}

// Load writes a program image into memory at the load offset. A
// program that does not fit leaves the VM unusable for stepping.
func (vm *VM) Load(program []byte) error {
	if len(program) > MemorySize-LoadOffset {
		vm.halted = RomTooLargeError{Size: len(program)}
		return vm.halted
	}

	copy(vm.memory[LoadOffset:], program)

	return nil
}

// Quirks returns the compatibility configuration the VM was built with.
func (vm *VM) Quirks() Quirks {
	return vm.quirks
}

// SetKey records the pressed state of one of the 16 keypad keys. Key
// indices outside 0-15 are ignored.
func (vm *VM) SetKey(key int, pressed bool) {
	if key >= 0 && key < NumKeys {
		vm.keys[key] = pressed
	}
}

// Pixel reports whether the display pixel at x, y is on.
func (vm *VM) Pixel(x, y int) bool {
	return vm.display.Pixel(x, y)
}

// DelayTimer returns the current delay timer value.
func (vm *VM) DelayTimer() byte {
	return vm.dt
}

// SoundActive reports whether the tone should be playing. The sound
// timer being non-zero is the only signal the buzzer has.
func (vm *VM) SoundActive() bool {
	return vm.st > 0
}

// PC returns the current program counter.
func (vm *VM) PC() uint16 {
	return vm.pc
}

// I returns the current address register.
func (vm *VM) I() uint16 {
	return vm.i
}

// Register returns the value of general register x.
func (vm *VM) Register(x int) byte {
	return vm.v[x&0xF]
}

// TickTimers decrements both timers toward zero. The host calls this
// at a fixed real-time cadence, conventionally 60 times per second;
// instructions never decrement a timer themselves.
func (vm *VM) TickTimers() {
	if vm.dt > 0 {
		vm.dt--
	}

	if vm.st > 0 {
		vm.st--
	}
}

// Step fetches, decodes and executes one instruction. A wait-key
// instruction with no key down reports StepBlocked and leaves the
// program counter in place, so the call never blocks the host. Any
// error halts the VM permanently.
func (vm *VM) Step() (StepOutcome, error) {
	if vm.halted != nil {
		return StepExecuted, vm.halted
	}

	word, err := vm.fetch()
	if err != nil {
		return StepExecuted, vm.halt(err)
	}

	op, err := Decode(word)
	if err != nil {
		return StepExecuted, vm.halt(err)
	}

	outcome, err := vm.exec(op)
	if err != nil {
		return StepExecuted, vm.halt(err)
	}

	return outcome, nil
}

// halt latches the first error so further stepping keeps reporting it.
func (vm *VM) halt(err error) error {
	vm.halted = err
	return err
}

// fetch reads the next big-endian instruction word and advances the
// program counter past it.
func (vm *VM) fetch() (uint16, error) {
	hi, err := vm.readByte(vm.pc)
	if err != nil {
		return 0, err
	}

	lo, err := vm.readByte(vm.pc + 1)
	if err != nil {
		return 0, err
	}

	vm.pc += 2

	return uint16(hi)<<8 | uint16(lo), nil
}

// exec applies the semantic rule for one decoded instruction.
func (vm *VM) exec(op Opcode) (StepOutcome, error) {
	switch op.Form {
	case FormSys:
		// 0nnn ran native RCA 1802 code on the original machine;
		// there is nothing to run here
	case FormCls:
		vm.display.Clear()
	case FormRet:
		return StepExecuted, vm.ret()
	case FormJump:
		vm.pc = op.NNN
	case FormCall:
		return StepExecuted, vm.call(op.NNN)
	case FormSkipIf:
		if vm.v[op.X] == op.NN {
			vm.skip()
		}
	case FormSkipIfNot:
		if vm.v[op.X] != op.NN {
			vm.skip()
		}
	case FormSkipIfXY:
		if vm.v[op.X] == vm.v[op.Y] {
			vm.skip()
		}
	case FormLoadX:
		vm.v[op.X] = op.NN
	case FormAddX:
		vm.v[op.X] += op.NN
	case FormLoadXY:
		vm.v[op.X] = vm.v[op.Y]
	case FormOr:
		vm.logic(op.X, vm.v[op.X]|vm.v[op.Y])
	case FormAnd:
		vm.logic(op.X, vm.v[op.X]&vm.v[op.Y])
	case FormXor:
		vm.logic(op.X, vm.v[op.X]^vm.v[op.Y])
	case FormAddXY:
		vm.addXY(op.X, op.Y)
	case FormSubXY:
		vm.subXY(op.X, op.Y)
	case FormShr:
		vm.shr(op.X, op.Y)
	case FormSubYX:
		vm.subYX(op.X, op.Y)
	case FormShl:
		vm.shl(op.X, op.Y)
	case FormSkipIfNotXY:
		if vm.v[op.X] != vm.v[op.Y] {
			vm.skip()
		}
	case FormLoadI:
		vm.i = op.NNN
	case FormJumpV0:
		vm.jumpV0(op.NNN)
	case FormRnd:
		vm.v[op.X] = byte(rand.Intn(0x100)) & op.NN
	case FormDraw:
		return StepExecuted, vm.draw(op.X, op.Y, op.N)
	case FormSkipIfPressed:
		if vm.keys[vm.v[op.X]&0xF] {
			vm.skip()
		}
	case FormSkipIfNotPressed:
		if !vm.keys[vm.v[op.X]&0xF] {
			vm.skip()
		}
	case FormLoadXDT:
		vm.v[op.X] = vm.dt
	case FormWaitKey:
		return vm.waitKey(op.X), nil
	case FormLoadDTX:
		vm.dt = vm.v[op.X]
	case FormLoadSTX:
		vm.st = vm.v[op.X]
	case FormAddIX:
		vm.i += uint16(vm.v[op.X])
	case FormLoadF:
		vm.i = FontBase + uint16(vm.v[op.X]&0xF)*5
	case FormLoadB:
		return StepExecuted, vm.bcd(op.X)
	case FormSaveRegs:
		return StepExecuted, vm.saveRegs(op.X)
	case FormLoadRegs:
		return StepExecuted, vm.loadRegs(op.X)
	}

	return StepExecuted, nil
}

// skip advances the program counter past the next instruction.
func (vm *VM) skip() {
	vm.pc += 2
}

// call pushes the current program counter and jumps.
func (vm *VM) call(address uint16) error {
	if vm.sp == StackDepth {
		return ErrStackOverflow
	}

	vm.stack[vm.sp] = vm.pc
	vm.sp++

	vm.pc = address

	return nil
}

// ret pops the saved program counter.
func (vm *VM) ret() error {
	if vm.sp == 0 {
		return ErrStackUnderflow
	}

	vm.sp--
	vm.pc = vm.stack[vm.sp]

	return nil
}

// jumpV0 jumps to address plus an offset register. The offset is V0
// unless the quirk selects the register named by the address's high
// nibble.
func (vm *VM) jumpV0(address uint16) {
	x := byte(0)

	if vm.quirks.JumpVX {
		x = byte(address >> 8)
	}

	vm.pc = address + uint16(vm.v[x])
}

// logic stores a bitwise result, clearing VF afterwards when the VIP
// quirk is set.
func (vm *VM) logic(x byte, result byte) {
	vm.v[x] = result

	if vm.quirks.ResetVF {
		vm.v[0xF] = 0
	}
}

// arith stores an arithmetic result and its flag. The write order
// decides which value survives when the destination register is VF.
func (vm *VM) arith(x byte, result, flag byte) {
	if vm.quirks.FlagLast {
		vm.v[x] = result
		vm.v[0xF] = flag
	} else {
		vm.v[0xF] = flag
		vm.v[x] = result
	}
}

// addXY adds Vy into Vx, VF = carry.
func (vm *VM) addXY(x, y byte) {
	sum := uint16(vm.v[x]) + uint16(vm.v[y])

	flag := byte(0)
	if sum > 0xFF {
		flag = 1
	}

	vm.arith(x, byte(sum), flag)
}

// subXY subtracts Vy from Vx, VF = 1 when there was no borrow.
func (vm *VM) subXY(x, y byte) {
	flag := byte(0)
	if vm.v[x] >= vm.v[y] {
		flag = 1
	}

	vm.arith(x, vm.v[x]-vm.v[y], flag)
}

// subYX stores Vy minus Vx into Vx, VF = 1 when there was no borrow.
func (vm *VM) subYX(x, y byte) {
	flag := byte(0)
	if vm.v[y] >= vm.v[x] {
		flag = 1
	}

	vm.arith(x, vm.v[y]-vm.v[x], flag)
}

// shr shifts right one bit, VF = the bit shifted out. The source is
// Vx, or Vy under the original shift quirk.
func (vm *VM) shr(x, y byte) {
	src := vm.v[x]
	if vm.quirks.ShiftVY {
		src = vm.v[y]
	}

	vm.arith(x, src>>1, src&1)
}

// shl shifts left one bit, VF = the bit shifted out.
func (vm *VM) shl(x, y byte) {
	src := vm.v[x]
	if vm.quirks.ShiftVY {
		src = vm.v[y]
	}

	vm.arith(x, src<<1, src>>7)
}

// waitKey polls the keypad for Fx0A. With no key down the program
// counter is rewound so the same instruction re-executes on the next
// step; the lowest pressed key wins otherwise.
func (vm *VM) waitKey(x byte) StepOutcome {
	for k := 0; k < NumKeys; k++ {
		if vm.keys[k] {
			vm.v[x] = byte(k)
			return StepExecuted
		}
	}

	vm.pc -= 2

	return StepBlocked
}

// draw reads an n-byte sprite from memory at I and XORs it onto the
// display at Vx, Vy. VF is always rewritten with the collision state.
func (vm *VM) draw(x, y, n byte) error {
	sprite := make([]byte, n)

	for i := range sprite {
		b, err := vm.readByte(vm.i + uint16(i))
		if err != nil {
			return err
		}

		sprite[i] = b
	}

	if vm.display.Draw(vm.v[x], vm.v[y], sprite, vm.quirks.WrapSprites) {
		vm.v[0xF] = 1
	} else {
		vm.v[0xF] = 0
	}

	return nil
}

// bcd writes the three decimal digits of Vx to memory at I.
func (vm *VM) bcd(x byte) error {
	v := vm.v[x]

	digits := [3]byte{v / 100, v / 10 % 10, v % 10}

	for i, d := range digits {
		if err := vm.writeByte(vm.i+uint16(i), d); err != nil {
			return err
		}
	}

	return nil
}

// saveRegs copies V0..Vx to memory at I. The index register is bumped
// past the copied range under the increment quirk.
func (vm *VM) saveRegs(x byte) error {
	for i := byte(0); i <= x; i++ {
		if err := vm.writeByte(vm.i+uint16(i), vm.v[i]); err != nil {
			return err
		}
	}

	if vm.quirks.IncrementI {
		vm.i += uint16(x) + 1
	}

	return nil
}

// loadRegs copies memory at I into V0..Vx.
func (vm *VM) loadRegs(x byte) error {
	for i := byte(0); i <= x; i++ {
		b, err := vm.readByte(vm.i + uint16(i))
		if err != nil {
			return err
		}

		vm.v[i] = b
	}

	if vm.quirks.IncrementI {
		vm.i += uint16(x) + 1
	}

	return nil
}

// readByte reads memory, wrapping the address modulo the memory size
// unless the quirk turns out-of-range access into an error.
func (vm *VM) readByte(addr uint16) (byte, error) {
	if vm.quirks.WrapMemory {
		return vm.memory[addr&(MemorySize-1)], nil
	}

	if addr >= MemorySize {
		return 0, MemoryError{Addr: addr}
	}

	return vm.memory[addr], nil
}

// writeByte writes memory with the same wrap rules as readByte.
func (vm *VM) writeByte(addr uint16, value byte) error {
	if vm.quirks.WrapMemory {
		vm.memory[addr&(MemorySize-1)] = value
		return nil
	}

	if addr >= MemorySize {
		return MemoryError{Addr: addr}
	}

	vm.memory[addr] = value

	return nil
}
