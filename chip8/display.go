package chip8

// Display dimensions in pixels.
const (
	DisplayWidth  = 64
	DisplayHeight = 32
)

// Display is the monochrome frame buffer. Pixels are stored one byte
// per cell, row-major, 0 for off and 1 for on. It is mutated only by
// the clear-screen and draw instructions.
type Display struct {
	pixels [DisplayWidth * DisplayHeight]byte
}

// Clear turns every pixel off.
func (d *Display) Clear() {
	d.pixels = [DisplayWidth * DisplayHeight]byte{}
}

// Pixel reports whether the pixel at x, y is on.
func (d *Display) Pixel(x, y int) bool {
	return d.pixels[y*DisplayWidth+x] != 0
}

// Draw XORs an 8-pixel-wide sprite onto the display with its top-left
// corner at x, y and reports whether any previously-on pixel was
// turned off. The start position always wraps around the display;
// pixels past the right or bottom edge wrap when wrap is set and are
// clipped otherwise.
func (d *Display) Draw(x, y byte, sprite []byte, wrap bool) bool {
	collision := false

	// start coordinates are taken modulo the display size
	x0 := int(x) % DisplayWidth
	y0 := int(y) % DisplayHeight

	for row, bits := range sprite {
		py := y0 + row

		if py >= DisplayHeight {
			if !wrap {
				break
			}
			py %= DisplayHeight
		}

		for col := 0; col < 8; col++ {
			if bits&(0x80>>col) == 0 {
				continue
			}

			px := x0 + col

			if px >= DisplayWidth {
				if !wrap {
					continue
				}
				px %= DisplayWidth
			}

			p := &d.pixels[py*DisplayWidth+px]

			// turning an on pixel off is a collision
			if *p != 0 {
				collision = true
			}

			*p ^= 1
		}
	}

	return collision
}
