// Package audio plays a short cue when a detection pass is published.
// Audio is optional: every operation is a no-op when the device could not be opened.
package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(48000)

// Cue selects the completion sound
type Cue int

const (
	// CueOverlap signals at least one overlapping rectangle
	CueOverlap Cue = iota
	// CueClear signals a layout without overlaps
	CueClear
)

func (c Cue) String() string {
	switch c {
	case CueOverlap:
		return "overlap"
	case CueClear:
		return "clear"
	default:
		return "unknown"
	}
}

// CueFor picks the cue for a published result
func CueFor(overlapping int) Cue {
	if overlapping > 0 {
		return CueOverlap
	}
	return CueClear
}

// Player mixes cues onto the speaker
type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	volume      float64 // 0.0-1.0
	muted       bool
	initialized bool
	logger      logr.Logger
}

// NewPlayer creates a player; volume is 0-100 and clamped
func NewPlayer(volume int, muted bool, logger logr.Logger) *Player {
	return &Player{
		mixer:  &beep.Mixer{},
		volume: float64(min(max(volume, 0), 100)) / 100.0,
		muted:  muted,
		logger: logger.WithName("audio"),
	}
}

// Name implements Service
func (p *Player) Name() string {
	return "audio"
}

// Dependencies implements Service
func (p *Player) Dependencies() []string {
	return nil
}

// Init opens the speaker
// A missing device is logged and leaves the player silent; it never fails startup
func (p *Player) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		p.logger.Info("Audio unavailable, cues disabled", "error", err.Error())
		return nil
	}
	p.initialized = true
	return nil
}

// Start attaches the mixer to the speaker
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		speaker.Play(p.mixer)
	}
	return nil
}

// Stop silences pending cues and closes the speaker; idempotent
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return nil
	}
	speaker.Clear()
	speaker.Close()
	p.initialized = false
	return nil
}

// Play queues a cue; returns false when muted or audio is unavailable
func (p *Player) Play(c Cue) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized || p.muted {
		return false
	}

	s, err := p.streamer(c)
	if err != nil {
		p.logger.Error(err, "Cue skipped")
		return false
	}

	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
	return true
}

// PlayResult plays the cue matching an overlap count
func (p *Player) PlayResult(overlapping int) bool {
	return p.Play(CueFor(overlapping))
}

func (p *Player) streamer(c Cue) (beep.Streamer, error) {
	switch c {
	case CueOverlap:
		return overlapTone(sampleRate, p.volume), nil
	case CueClear:
		return clearTone(sampleRate, p.volume), nil
	default:
		return nil, fmt.Errorf("unknown cue %d", int(c))
	}
}

// ToggleMute flips the mute state and returns the new value
func (p *Player) ToggleMute() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = !p.muted
	return p.muted
}

// Muted reports the mute state
func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// Available reports whether the speaker is open
func (p *Player) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}
