// Package audio plays alarm sounds through the system speaker.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

const (
	// SampleRate is the speaker's output rate. Files at other rates are
	// resampled.
	SampleRate beep.SampleRate = 44100

	// ToneFrequency is the pitch of the built-in alarm tone in Hz.
	ToneFrequency = 880.0
)

// ErrUnsupported is returned for sound files that are neither WAV nor MP3.
var ErrUnsupported = errors.New("unsupported audio format")

// Option configures a Player.
type Option func(*Player)

// WithDefaultSound sets the file played when an alarm's own sound can't be
// used. Empty means the built-in tone.
func WithDefaultSound(path string) Option {
	return func(p *Player) { p.defaultSound = path }
}

// WithLogger sets the player's logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Player) { p.logger = l }
}

// WithFader replaces the gradual fade schedule.
func WithFader(f Fader) Option {
	return func(p *Player) { p.fader = f }
}

// output is the mixer a Player drives; the beep speaker in production.
type output interface {
	Play(s ...beep.Streamer)
	Clear()
	Close()
	Lock()
	Unlock()
}

type speakerOutput struct{}

func (speakerOutput) Play(s ...beep.Streamer) { speaker.Play(s...) }
func (speakerOutput) Clear() { speaker.Clear() }
func (speakerOutput) Close() { speaker.Close() }
func (speakerOutput) Lock() { speaker.Lock() }
func (speakerOutput) Unlock() { speaker.Unlock() }

// Player loops one sound at a time on the speaker.
type Player struct {
	logger       *slog.Logger
	defaultSound string
	fader        Fader
	out          output

	// mu is held while a stream is handed to out, so a Stop either runs
	// before the stream starts or clears it.
	mu         sync.Mutex
	source     beep.StreamSeekCloser
	cancelFade context.CancelFunc
	closed     bool
}

// NewPlayer opens the speaker. It fails when no output device is available.
func NewPlayer(opts ...Option) (*Player, error) {
	p := &Player{
		logger: slog.Default(),
		fader:  DefaultFader(),
		out:    speakerOutput{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return p, nil
}

// Play replaces whatever is playing and loops the sound at path until Stop.
// If path can't be played, the default sound is used, then the built-in
// tone. With gradual set the volume fades in; Play does not wait for the
// fade.
func (p *Player) Play(path string, gradual bool) error {
	stream, source, err := p.load(path)
	if err != nil {
		return err
	}

	level := 1.0
	if gradual {
		level = p.fader.Levels()[0]
	}
	vol := &effects.Volume{Streamer: stream, Base: 2}
	vol.Volume, vol.Silent = gain(level)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		closeSource(source)
		return errors.New("player is shut down")
	}
	prev := p.detach()
	p.source = source
	var ctx context.Context
	if gradual {
		ctx, p.cancelFade = context.WithCancel(context.Background())
	}
	p.out.Play(vol)
	p.mu.Unlock()

	p.release(prev)
	if gradual {
		go p.fader.Run(ctx, func(level float64) {
			p.setVolume(vol, level)
		})
	}
	return nil
}

// Stop silences the speaker and cancels any fade in progress.
func (p *Player) Stop() {
	p.mu.Lock()
	prev := p.detach()
	p.mu.Unlock()
	p.release(prev)
}

type detached struct {
	cancel context.CancelFunc
	source beep.StreamSeekCloser
}

// detach clears the output and forgets the current sound. p.mu must be held.
func (p *Player) detach() detached {
	d := detached{cancel: p.cancelFade, source: p.source}
	p.cancelFade, p.source = nil, nil
	if !p.closed {
		p.out.Clear()
	}
	return d
}

func (p *Player) release(d detached) {
	if d.cancel != nil {
		d.cancel()
	}
	if err := closeSource(d.source); err != nil {
		p.logger.Warn("close sound", "err", err)
	}
}

// Shutdown stops playback and releases the speaker.
func (p *Player) Shutdown() error {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.out.Close()
	return nil
}

// load returns the stream to play and the decoder behind it, which is nil
// for the built-in tone.
func (p *Player) load(path string) (beep.Streamer, beep.StreamSeekCloser, error) {
	for _, candidate := range []string{path, p.defaultSound} {
		if candidate == "" {
			continue
		}
		source, format, err := decodeFile(candidate)
		if err != nil {
			p.logger.Warn("cannot play sound, falling back", "path", candidate, "err", err)
			continue
		}
		looped := beep.Loop(-1, source)
		if format.SampleRate != SampleRate {
			return beep.Resample(4, format.SampleRate, SampleRate, looped), source, nil
		}
		return looped, source, nil
	}

	tone, err := generators.SineTone(SampleRate, ToneFrequency)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tone: %w", err)
	}
	return tone, nil, nil
}

func decodeFile(path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".wav" && ext != ".mp3" {
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		source beep.StreamSeekCloser
		format beep.Format
	)
	if ext == ".wav" {
		source, format, err = wav.Decode(f)
	} else {
		source, format, err = mp3.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return source, format, nil
}

func (p *Player) setVolume(vol *effects.Volume, level float64) {
	p.out.Lock()
	defer p.out.Unlock()
	vol.Volume, vol.Silent = gain(level)
}

func closeSource(source beep.StreamSeekCloser) error {
	if source == nil {
		return nil
	}
	return source.Close()
}
