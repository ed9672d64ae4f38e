package sound

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lull-app/lull/internal/prefs"
)

// BandLabels names the equalizer bands, lowest frequency first.
var BandLabels = [prefs.BandCount]string{
	"31", "62", "125", "250", "500", "1k", "2k", "4k", "8k", "16k",
}

const (
	maxBandGain = 12.0
	minBandGain = -12.0
)

// Output is the audio backend. The app runs fine without one; a nop output
// keeps the player usable as pure state for the UI.
type Output interface {
	Play(track string, loop bool)
	Pause()
	SetVolume(volume int)
	SetBand(band int, gain float64)
}

type nopOutput struct{}

func (nopOutput) Play(string, bool)    {}
func (nopOutput) Pause()               {}
func (nopOutput) SetVolume(int)        {}
func (nopOutput) SetBand(int, float64) {}

// Player holds looping-ambient-track playback state. Changes mirror to the
// preferences file so the next session resumes where this one left off.
type Player struct {
	mu       sync.Mutex
	prefs    prefs.Prefs
	prefPath string
	out      Output
	logger   *zap.Logger

	playing bool
}

// NewPlayer builds a player over loaded preferences, persisting changes to
// prefPath. A nil output gets the nop backend.
func NewPlayer(p prefs.Prefs, prefPath string, out Output, logger *zap.Logger) *Player {
	if out == nil {
		out = nopOutput{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{prefs: p, prefPath: prefPath, out: out, logger: logger}
}

// Play starts (or resumes) the configured track.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
	p.out.Play(p.prefs.Sound, p.prefs.Loop)
	p.logger.Debug("playback started", zap.String("track", p.prefs.Sound))
}

// Pause stops playback.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.out.Pause()
}

// Toggle flips between playing and paused and reports the new state.
func (p *Player) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = !p.playing
	if p.playing {
		p.out.Play(p.prefs.Sound, p.prefs.Loop)
	} else {
		p.out.Pause()
	}
	return p.playing
}

// Playing reports current playback state.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Track returns the configured track name.
func (p *Player) Track() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prefs.Sound
}

// SetTrack switches tracks, restarting playback if active.
func (p *Player) SetTrack(track string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefs.Sound = track
	if p.playing {
		p.out.Play(track, p.prefs.Loop)
	}
	return p.saveLocked()
}

// Volume returns the current volume, 0..100.
func (p *Player) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prefs.Volume
}

// SetVolume clamps to 0..100, applies and persists.
func (p *Player) SetVolume(volume int) error {
	if volume < 0 {
		volume = 0
	} else if volume > 100 {
		volume = 100
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefs.Volume = volume
	p.out.SetVolume(volume)
	return p.saveLocked()
}

// AdjustVolume nudges the volume by delta and returns the new value.
func (p *Player) AdjustVolume(delta int) (int, error) {
	p.mu.Lock()
	current := p.prefs.Volume
	p.mu.Unlock()
	if err := p.SetVolume(current + delta); err != nil {
		return 0, err
	}
	return p.Volume(), nil
}

// Band returns the gain of band i in dB.
func (p *Player) Band(i int) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= prefs.BandCount {
		return 0
	}
	return p.prefs.EQ[i]
}

// SetBand clamps gain to ±12dB, applies and persists. Out-of-range band
// indexes are ignored.
func (p *Player) SetBand(i int, gain float64) error {
	if i < 0 || i >= prefs.BandCount {
		return nil
	}
	if gain > maxBandGain {
		gain = maxBandGain
	} else if gain < minBandGain {
		gain = minBandGain
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefs.EQ[i] = gain
	p.out.SetBand(i, gain)
	return p.saveLocked()
}

// AdjustBand nudges band i by delta dB and returns the new gain.
func (p *Player) AdjustBand(i int, delta float64) (float64, error) {
	if i < 0 || i >= prefs.BandCount {
		return 0, nil
	}
	p.mu.Lock()
	current := p.prefs.EQ[i]
	p.mu.Unlock()
	if err := p.SetBand(i, current+delta); err != nil {
		return 0, err
	}
	return p.Band(i), nil
}

// Prefs returns a snapshot of the current preferences.
func (p *Player) Prefs() prefs.Prefs {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prefs
}

func (p *Player) saveLocked() error {
	return prefs.Save(p.prefPath, p.prefs)
}
