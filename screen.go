package main

import (
	"github.com/chipvm/chip8/chip8"
	"github.com/retroenv/retrogolib/log"
	"github.com/veandco/go-sdl2/sdl"
)

var (
	// Screen is the render target for the VM's frame buffer.
	Screen *sdl.Texture
)

// InitScreen creates the render target the frame buffer is drawn into
// before being stretched to the window.
func InitScreen() {
	var err error

	Screen, err = Renderer.CreateTexture(
		sdl.PIXELFORMAT_RGB888,
		sdl.TEXTUREACCESS_TARGET,
		chip8.DisplayWidth,
		chip8.DisplayHeight,
	)
	if err != nil {
		Logger.Fatal("creating screen texture failed", log.Err(err))
	}
}

// Refresh redraws the frame buffer and presents the new frame.
func Refresh() {
	if err := Renderer.SetRenderTarget(Screen); err != nil {
		Logger.Fatal("setting render target failed", log.Err(err))
	}

	// the background color for the screen
	Renderer.SetDrawColor(143, 145, 133, 255)
	Renderer.Clear()

	// set the pixel color
	Renderer.SetDrawColor(17, 29, 43, 255)

	for y := 0; y < chip8.DisplayHeight; y++ {
		for x := 0; x < chip8.DisplayWidth; x++ {
			if VM.Pixel(x, y) {
				Renderer.DrawPoint(x, y)
			}
		}
	}

	// restore the render target and stretch the screen to the window
	Renderer.SetRenderTarget(nil)
	Renderer.Copy(Screen, nil, nil)

	Renderer.Present()
}
