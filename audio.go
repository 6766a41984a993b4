package main

import (
	"github.com/retroenv/retrogolib/log"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	// toneHz is the buzzer frequency.
	toneHz = 440

	// sampleHz is the audio device sample rate.
	sampleHz = 44100
)

var (
	// Audio is the queueing audio device for the buzzer.
	Audio sdl.AudioDeviceID

	// tonePhase keeps the square wave continuous across frames.
	tonePhase int
)

// InitAudio opens the audio device the buzzer tone is queued to.
func InitAudio() {
	spec := &sdl.AudioSpec{
		Freq:     sampleHz,
		Format:   sdl.AUDIO_U8,
		Channels: 1,
		Samples:  512,
	}

	var err error

	if Audio, err = sdl.OpenAudioDevice("", false, spec, nil, 0); err != nil {
		Logger.Fatal("opening audio device failed", log.Err(err))
	}

	// start playing; silence is simply an empty queue
	sdl.PauseAudioDevice(Audio, false)
}

// UpdateAudio queues one frame of square wave while the sound timer is
// running.
func UpdateAudio() {
	if !VM.SoundActive() {
		tonePhase = 0
		sdl.ClearQueuedAudio(Audio)
		return
	}

	// one sixtieth of a second of samples
	buf := make([]byte, sampleHz/60)
	half := sampleHz / toneHz / 2

	for i := range buf {
		if tonePhase/half%2 == 0 {
			buf[i] = 0xC0
		} else {
			buf[i] = 0x40
		}

		tonePhase++
	}

	if err := sdl.QueueAudio(Audio, buf); err != nil {
		Logger.Error("queueing audio failed", log.Err(err))
	}
}
