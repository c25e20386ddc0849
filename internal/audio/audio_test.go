package audio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/wav"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultFaderLevels(t *testing.T) {
	got := DefaultFader().Levels()
	want := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}
	if len(got) != len(want) {
		t.Fatalf("Levels() = %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("level %d = %v, want %v", i, got[i], want[i])
		}
	}

	// 9 waits of 2s after the first level.
	f := DefaultFader()
	if total := time.Duration(len(got)-1) * f.Interval; total != 18*time.Second {
		t.Errorf("fade takes %v, want 18s", total)
	}
}

func TestFaderLevelsEdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		fader Fader
		want  []float64
	}{
		{"no step", Fader{Start: 0.5}, []float64{1}},
		{"already full", Fader{Start: 1, Step: 0.1}, []float64{1}},
		{"uneven step", Fader{Start: 0.2, Step: 0.3}, []float64{0.2, 0.5, 0.8, 1}},
		{"negative start", Fader{Start: -1, Step: 0.5}, []float64{0, 0.5, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fader.Levels()
			if len(got) != len(tt.want) {
				t.Fatalf("Levels() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("Levels() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestFaderRun(t *testing.T) {
	f := Fader{Start: 0.25, Step: 0.25, Interval: time.Millisecond}
	var got []float64
	f.Run(context.Background(), func(level float64) { got = append(got, level) })

	want := []float64{0.25, 0.5, 0.75, 1}
	if len(got) != len(want) {
		t.Fatalf("set calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("set calls = %v, want %v", got, want)
			break
		}
	}
}

func TestFaderRunCanceled(t *testing.T) {
	f := Fader{Start: 0.1, Step: 0.1, Interval: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())

	var got []float64
	done := make(chan struct{})
	go func() {
		f.Run(ctx, func(level float64) { got = append(got, level) })
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if len(got) != 1 || got[0] != 0.1 {
		t.Errorf("set calls = %v, want only the starting level", got)
	}
}

func TestGain(t *testing.T) {
	if v, silent := gain(1); v != 0 || silent {
		t.Errorf("gain(1) = %v, %v, want 0, false", v, silent)
	}
	if v, _ := gain(0.5); v != -1 {
		t.Errorf("gain(0.5) = %v, want -1", v)
	}
	if _, silent := gain(0); !silent {
		t.Error("gain(0) should be silent")
	}
}

func writeWAV(t *testing.T, dir string, rate beep.SampleRate) string {
	t.Helper()
	path := filepath.Join(dir, "bell.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, generators.Silence(rate.N(50*time.Millisecond)), format); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	return path
}

func TestLoadDecodesWAV(t *testing.T) {
	path := writeWAV(t, t.TempDir(), 22050)
	p := &Player{logger: quietLogger(), fader: DefaultFader()}

	stream, source, err := p.load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stream == nil || source == nil {
		t.Fatal("expected a decoded file stream")
	}
	if _, ok := stream.(*beep.Resampler); !ok {
		t.Errorf("22.05 kHz file should be resampled, got %T", stream)
	}
	if err := source.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestLoadFallsBackToDefaultSound(t *testing.T) {
	def := writeWAV(t, t.TempDir(), SampleRate)
	p := &Player{logger: quietLogger(), defaultSound: def}

	_, source, err := p.load("/does/not/exist.wav")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if source == nil {
		t.Fatal("expected the default sound file, got the tone")
	}
	source.Close()
}

func TestLoadFallsBackToTone(t *testing.T) {
	p := &Player{logger: quietLogger()}
	for _, path := range []string{"", "/does/not/exist.mp3", "alarm.ogg"} {
		stream, source, err := p.load(path)
		if err != nil {
			t.Errorf("load(%q): %v", path, err)
			continue
		}
		if stream == nil || source != nil {
			t.Errorf("load(%q) should fall back to the built-in tone", path)
		}
	}
}

type fakeOutput struct {
	mu      sync.Mutex
	streams []beep.Streamer
	clears  int
	closed  bool
}

func (o *fakeOutput) Play(s ...beep.Streamer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.streams = append(o.streams, s...)
}

func (o *fakeOutput) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.streams = nil
	o.clears++
}

func (o *fakeOutput) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}

func (o *fakeOutput) Lock()   { o.mu.Lock() }
func (o *fakeOutput) Unlock() { o.mu.Unlock() }

func (o *fakeOutput) active() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.streams)
}

func newTestPlayer(out *fakeOutput) *Player {
	return &Player{
		logger: quietLogger(),
		fader:  Fader{Start: 0.1, Step: 0.1, Interval: time.Hour},
		out:    out,
	}
}

func TestPlayReplacesCurrentSound(t *testing.T) {
	path := writeWAV(t, t.TempDir(), SampleRate)
	out := &fakeOutput{}
	p := newTestPlayer(out)

	if err := p.Play(path, true); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := p.Play("", false); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if got := out.active(); got != 1 {
		t.Errorf("active streams = %d, want 1", got)
	}
	if p.source != nil {
		t.Error("built-in tone should have replaced the file source")
	}

	p.Stop()
	if got := out.active(); got != 0 {
		t.Errorf("active streams after Stop = %d, want 0", got)
	}
}

func TestStopRacingPlayNeverLeavesSoundOn(t *testing.T) {
	path := writeWAV(t, t.TempDir(), SampleRate)

	for i := 0; i < 200; i++ {
		out := &fakeOutput{}
		p := newTestPlayer(out)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = p.Play(path, false)
		}()
		go func() {
			defer wg.Done()
			p.Stop()
		}()
		wg.Wait()

		p.mu.Lock()
		playing := p.source != nil
		p.mu.Unlock()
		if n := out.active(); n > 1 || (n == 1) != playing {
			t.Fatalf("iteration %d: %d streams on the speaker, player holds a sound = %v", i, n, playing)
		}
		p.Stop()
	}
}

func TestShutdown(t *testing.T) {
	out := &fakeOutput{}
	p := newTestPlayer(out)

	if err := p.Play("", false); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := p.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := p.Shutdown(); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
	if !out.closed || out.active() != 0 {
		t.Errorf("closed = %v, active = %d; want closed and silent", out.closed, out.active())
	}
	if err := p.Play("", false); err == nil {
		t.Error("Play after Shutdown should fail")
	}
}

func TestDecodeFileRejectsUnknownFormat(t *testing.T) {
	_, _, err := decodeFile("alarm.flac")
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("decodeFile error = %v, want ErrUnsupported", err)
	}
}

func TestDecodeFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	if err := os.WriteFile(path, []byte("not a wav file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := decodeFile(path); err == nil {
		t.Error("decodeFile should fail on a corrupt file")
	}
}

func TestSilent(t *testing.T) {
	s := NewSilent(quietLogger())
	if err := s.Play("", true); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if got := s.Playing(); got != "default tone" {
		t.Errorf("Playing() = %q, want %q", got, "default tone")
	}
	s.Stop()
	if got := s.Playing(); got != "" {
		t.Errorf("Playing() after Stop = %q, want empty", got)
	}
	if err := s.Shutdown(); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}
