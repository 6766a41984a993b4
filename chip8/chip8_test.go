package chip8

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

// baseQuirks has every compatibility toggle off so the table tests see
// the plain instruction semantics.
var baseQuirks = Quirks{FlagLast: true, WrapMemory: true}

func newTestVM(t *testing.T, quirks Quirks, words ...uint16) *VM {
	t.Helper()

	program := make([]byte, 0, len(words)*2)
	for _, w := range words {
		program = append(program, byte(w>>8), byte(w))
	}

	vm := New(quirks)
	assert.NoError(t, vm.Load(program))

	return vm
}

func stepN(t *testing.T, vm *VM, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		_, err := vm.Step()
		assert.NoError(t, err)
	}
}

func TestExec(t *testing.T) {
	tests := []struct {
		name  string
		words []uint16
		steps int
		setup func(vm *VM)
		check func(t *testing.T, vm *VM)
	}{
		{
			name:  "sys is a no-op",
			words: []uint16{0x0123},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, uint16(0x202), vm.pc)
			},
		},
		{
			name:  "cls clears the display",
			words: []uint16{0x00E0},
			setup: func(vm *VM) {
				vm.display.Draw(0, 0, []byte{0xFF}, false)
			},
			check: func(t *testing.T, vm *VM) {
				assert.False(t, vm.display.Pixel(0, 0))
			},
		},
		{
			name:  "jump",
			words: []uint16{0x1400},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, uint16(0x400), vm.pc)
			},
		},
		{
			name:  "call pushes the return address",
			words: []uint16{0x2400},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, uint16(0x400), vm.pc)
				assert.Equal(t, 1, vm.sp)
				assert.Equal(t, uint16(0x202), vm.stack[0])
			},
		},
		{
			name:  "ret pops the return address",
			words: []uint16{0x2204, 0x0000, 0x00EE},
			steps: 2,
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, uint16(0x202), vm.pc)
				assert.Equal(t, 0, vm.sp)
			},
		},
		{
			name:  "skip if equal taken",
			words: []uint16{0x33AB},
			setup: func(vm *VM) { vm.v[3] = 0xAB },
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, uint16(0x204), vm.pc)
			},
		},
		{
			name:  "skip if equal not taken",
			words: []uint16{0x33AC},
			setup: func(vm *VM) { vm.v[3] = 0xAB },
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, uint16(0x202), vm.pc)
			},
		},
		{
			name:  "skip if not equal taken",
			words: []uint16{0x43AC},
			setup: func(vm *VM) { vm.v[3] = 0xAB },
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, uint16(0x204), vm.pc)
			},
		},
		{
			name:  "skip if registers equal",
			words: []uint16{0x5120},
			setup: func(vm *VM) {
				vm.v[1] = 7
				vm.v[2] = 7
			},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, uint16(0x204), vm.pc)
			},
		},
		{
			name:  "skip if registers not equal",
			words: []uint16{0x9120},
			setup: func(vm *VM) {
				vm.v[1] = 7
				vm.v[2] = 8
			},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, uint16(0x204), vm.pc)
			},
		},
		{
			name:  "load literal",
			words: []uint16{0x61FF},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(0xFF), vm.v[1])
			},
		},
		{
			name:  "add literal wraps without flag effect",
			words: []uint16{0x7102},
			setup: func(vm *VM) {
				vm.v[1] = 0xFF
				vm.v[0xF] = 5
			},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(0x01), vm.v[1])
				assert.Equal(t, byte(5), vm.v[0xF])
			},
		},
		{
			name:  "move register",
			words: []uint16{0x8120},
			setup: func(vm *VM) { vm.v[2] = 0x42 },
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(0x42), vm.v[1])
			},
		},
		{
			name:  "or",
			words: []uint16{0x8121},
			setup: func(vm *VM) {
				vm.v[1] = 0xF0
				vm.v[2] = 0x0F
			},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(0xFF), vm.v[1])
			},
		},
		{
			name:  "and",
			words: []uint16{0x8122},
			setup: func(vm *VM) {
				vm.v[1] = 0xF6
				vm.v[2] = 0x0F
			},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(0x06), vm.v[1])
			},
		},
		{
			name:  "xor",
			words: []uint16{0x8123},
			setup: func(vm *VM) {
				vm.v[1] = 0xFF
				vm.v[2] = 0x0F
			},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(0xF0), vm.v[1])
			},
		},
		{
			name:  "add registers with carry",
			words: []uint16{0x8124},
			setup: func(vm *VM) {
				vm.v[1] = 0xFF
				vm.v[2] = 0x02
			},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(0x01), vm.v[1])
				assert.Equal(t, byte(1), vm.v[0xF])
			},
		},
		{
			name:  "add registers without carry",
			words: []uint16{0x8124},
			setup: func(vm *VM) {
				vm.v[1] = 0x10
				vm.v[2] = 0x02
				vm.v[0xF] = 1
			},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(0x12), vm.v[1])
				assert.Equal(t, byte(0), vm.v[0xF])
			},
		},
		{
			name:  "sub no borrow",
			words: []uint16{0x8125},
			setup: func(vm *VM) {
				vm.v[1] = 0x10
				vm.v[2] = 0x01
			},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(0x0F), vm.v[1])
				assert.Equal(t, byte(1), vm.v[0xF])
			},
		},
		{
			name:  "sub with borrow",
			words: []uint16{0x8125},
			setup: func(vm *VM) {
				vm.v[1] = 0x01
				vm.v[2] = 0x02
				vm.v[0xF] = 1
			},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(0xFF), vm.v[1])
				assert.Equal(t, byte(0), vm.v[0xF])
			},
		},
		{
			name:  "subn no borrow",
			words: []uint16{0x8127},
			setup: func(vm *VM) {
				vm.v[1] = 0x01
				vm.v[2] = 0x10
			},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(0x0F), vm.v[1])
				assert.Equal(t, byte(1), vm.v[0xF])
			},
		},
		{
			name:  "shr shifts vx and keeps the low bit",
			words: []uint16{0x8126},
			setup: func(vm *VM) { vm.v[1] = 0x05 },
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(0x02), vm.v[1])
				assert.Equal(t, byte(1), vm.v[0xF])
			},
		},
		{
			name:  "shl shifts vx and keeps the high bit",
			words: []uint16{0x812E},
			setup: func(vm *VM) { vm.v[1] = 0x81 },
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(0x02), vm.v[1])
				assert.Equal(t, byte(1), vm.v[0xF])
			},
		},
		{
			name:  "load index",
			words: []uint16{0xA123},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, uint16(0x123), vm.i)
			},
		},
		{
			name:  "jump with v0 offset",
			words: []uint16{0xB208},
			setup: func(vm *VM) { vm.v[0] = 4 },
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, uint16(0x20C), vm.pc)
			},
		},
		{
			name:  "random is masked",
			words: []uint16{0xC700},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(0), vm.v[7])
			},
		},
		{
			name:  "draw glyph without collision",
			words: []uint16{0xD015},
			setup: func(vm *VM) { vm.i = FontBase },
			check: func(t *testing.T, vm *VM) {
				// glyph "0" is a 4x5 box
				assert.True(t, vm.Pixel(0, 0))
				assert.True(t, vm.Pixel(3, 0))
				assert.False(t, vm.Pixel(1, 1))
				assert.True(t, vm.Pixel(0, 4))
				assert.Equal(t, byte(0), vm.v[0xF])
			},
		},
		{
			name:  "draw twice erases and reports collision",
			words: []uint16{0xD015, 0xD015},
			steps: 2,
			setup: func(vm *VM) { vm.i = FontBase },
			check: func(t *testing.T, vm *VM) {
				assert.False(t, vm.Pixel(0, 0))
				assert.Equal(t, byte(1), vm.v[0xF])
			},
		},
		{
			name:  "skip if key pressed",
			words: []uint16{0xE19E},
			setup: func(vm *VM) {
				vm.v[1] = 0xA
				vm.keys[0xA] = true
			},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, uint16(0x204), vm.pc)
			},
		},
		{
			name:  "skip if key not pressed",
			words: []uint16{0xE1A1},
			setup: func(vm *VM) { vm.v[1] = 0xA },
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, uint16(0x204), vm.pc)
			},
		},
		{
			name:  "get delay timer",
			words: []uint16{0xF107},
			setup: func(vm *VM) { vm.dt = 7 },
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(7), vm.v[1])
			},
		},
		{
			name:  "set delay timer",
			words: []uint16{0xF115},
			setup: func(vm *VM) { vm.v[1] = 9 },
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(9), vm.dt)
			},
		},
		{
			name:  "set sound timer",
			words: []uint16{0xF118},
			setup: func(vm *VM) { vm.v[1] = 9 },
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(9), vm.st)
				assert.True(t, vm.SoundActive())
			},
		},
		{
			name:  "add register to index",
			words: []uint16{0xF11E},
			setup: func(vm *VM) {
				vm.i = 0x10
				vm.v[1] = 5
			},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, uint16(0x15), vm.i)
			},
		},
		{
			name:  "font glyph address",
			words: []uint16{0xF129},
			setup: func(vm *VM) { vm.v[1] = 0xA },
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, uint16(FontBase+0xA*5), vm.i)
			},
		},
		{
			name:  "bcd",
			words: []uint16{0xF133},
			setup: func(vm *VM) {
				vm.v[1] = 234
				vm.i = 0x300
			},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(2), vm.memory[0x300])
				assert.Equal(t, byte(3), vm.memory[0x301])
				assert.Equal(t, byte(4), vm.memory[0x302])
			},
		},
		{
			name:  "save registers leaves index alone",
			words: []uint16{0xF255},
			setup: func(vm *VM) {
				vm.v[0] = 0xAA
				vm.v[1] = 0xBB
				vm.v[2] = 0xCC
				vm.i = 0x300
			},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(0xAA), vm.memory[0x300])
				assert.Equal(t, byte(0xBB), vm.memory[0x301])
				assert.Equal(t, byte(0xCC), vm.memory[0x302])
				assert.Equal(t, uint16(0x300), vm.i)
			},
		},
		{
			name:  "load registers leaves index alone",
			words: []uint16{0xF165},
			setup: func(vm *VM) {
				vm.memory[0x300] = 0xAA
				vm.memory[0x301] = 0xBB
				vm.i = 0x300
			},
			check: func(t *testing.T, vm *VM) {
				assert.Equal(t, byte(0xAA), vm.v[0])
				assert.Equal(t, byte(0xBB), vm.v[1])
				assert.Equal(t, uint16(0x300), vm.i)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, baseQuirks, tt.words...)

			if tt.setup != nil {
				tt.setup(vm)
			}

			steps := tt.steps
			if steps == 0 {
				steps = 1
			}

			stepN(t, vm, steps)

			tt.check(t, vm)
		})
	}
}

func TestAddProgram(t *testing.T) {
	// set V0 to 5, set V1 to 10, add V1 into V0
	vm := New(SCHIPQuirks())
	assert.NoError(t, vm.Load([]byte{0x60, 0x05, 0x61, 0x0A, 0x80, 0x14}))

	stepN(t, vm, 3)

	assert.Equal(t, byte(15), vm.v[0])
	assert.Equal(t, byte(0), vm.v[0xF])
}

func TestTimers(t *testing.T) {
	vm := New(SCHIPQuirks())

	vm.dt = 3
	vm.st = 1

	for i := 0; i < 10; i++ {
		vm.TickTimers()
	}

	// timers floor at zero no matter how many ticks arrive
	assert.Equal(t, byte(0), vm.dt)
	assert.Equal(t, byte(0), vm.DelayTimer())
	assert.False(t, vm.SoundActive())

	vm.dt = 200
	for i := 0; i < 60; i++ {
		vm.TickTimers()
	}

	assert.Equal(t, byte(140), vm.dt)
}

func TestStackLimits(t *testing.T) {
	// sixteen nested calls back to the same address succeed
	vm := newTestVM(t, SCHIPQuirks(), 0x2200)

	for i := 0; i < StackDepth; i++ {
		_, err := vm.Step()
		assert.NoError(t, err)
	}

	// the seventeenth overflows and halts the VM
	_, err := vm.Step()
	assert.True(t, errors.Is(err, ErrStackOverflow))

	_, err = vm.Step()
	assert.True(t, errors.Is(err, ErrStackOverflow))
}

func TestStackUnderflow(t *testing.T) {
	vm := newTestVM(t, SCHIPQuirks(), 0x00EE)

	_, err := vm.Step()
	assert.True(t, errors.Is(err, ErrStackUnderflow))
}

func TestInvalidOpcodeHalts(t *testing.T) {
	vm := newTestVM(t, SCHIPQuirks(), 0xF1FF)

	_, err := vm.Step()
	assert.Error(t, err)

	var opErr OpcodeError
	assert.True(t, errors.As(err, &opErr))
	assert.Equal(t, uint16(0xF1FF), opErr.Word)

	// halted for good
	_, err = vm.Step()
	assert.Error(t, err)
}

func TestWaitKey(t *testing.T) {
	vm := newTestVM(t, SCHIPQuirks(), 0xF30A)

	// no key pressed: blocked, program counter unchanged
	for i := 0; i < 3; i++ {
		outcome, err := vm.Step()
		assert.NoError(t, err)
		assert.Equal(t, StepBlocked, outcome)
		assert.Equal(t, uint16(0x200), vm.pc)
	}

	vm.SetKey(0xB, true)

	outcome, err := vm.Step()
	assert.NoError(t, err)
	assert.Equal(t, StepExecuted, outcome)
	assert.Equal(t, byte(0xB), vm.v[3])
	assert.Equal(t, uint16(0x202), vm.pc)
}

func TestRomTooLarge(t *testing.T) {
	vm := New(SCHIPQuirks())

	err := vm.Load(make([]byte, MemorySize-LoadOffset+1))
	assert.Error(t, err)

	var romErr RomTooLargeError
	assert.True(t, errors.As(err, &romErr))
	assert.Equal(t, MemorySize-LoadOffset+1, romErr.Size)

	// the instance is unusable for stepping
	_, err = vm.Step()
	assert.Error(t, err)

	// an image that exactly fits is fine
	assert.NoError(t, New(SCHIPQuirks()).Load(make([]byte, MemorySize-LoadOffset)))
}

func TestMemoryBounds(t *testing.T) {
	quirks := SCHIPQuirks()
	quirks.WrapMemory = false

	// load registers from past the end of memory
	vm := newTestVM(t, quirks, 0xF165)
	vm.i = MemorySize - 1

	_, err := vm.Step()
	assert.Error(t, err)

	var memErr MemoryError
	assert.True(t, errors.As(err, &memErr))
	assert.Equal(t, uint16(MemorySize), memErr.Addr)

	// with wrapping on the same access reads address zero
	vm = newTestVM(t, SCHIPQuirks(), 0xF165)
	vm.i = MemorySize - 1
	vm.memory[0] = 0x42

	_, err = vm.Step()
	assert.NoError(t, err)
	assert.Equal(t, byte(0x42), vm.v[1])
}

func TestSetKeyIgnoresBadIndex(t *testing.T) {
	vm := New(SCHIPQuirks())

	vm.SetKey(-1, true)
	vm.SetKey(16, true)

	for _, down := range vm.keys {
		assert.False(t, down)
	}
}

func TestDisassembleAddress(t *testing.T) {
	vm := newTestVM(t, SCHIPQuirks(), 0x6105, 0xD125)

	assert.Equal(t, "0200 - LD     V1, #05", vm.Disassemble(0x200))
	assert.Equal(t, "0202 - DRW    V1, V2, 5", vm.Disassemble(0x202))
	assert.Equal(t, "0204 -", vm.Disassemble(0x204))
}
