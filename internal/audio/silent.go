package audio

import (
	"log/slog"
	"sync"
)

// Silent is a Player that makes no sound. It is used when audio is muted or
// no output device could be opened.
type Silent struct {
	logger *slog.Logger

	mu      sync.Mutex
	playing string
}

// NewSilent returns a silent player that logs what it would have played.
func NewSilent(logger *slog.Logger) *Silent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Silent{logger: logger}
}

func (s *Silent) Play(path string, gradual bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if path == "" {
		path = "default tone"
	}
	s.playing = path
	s.logger.Info("muted: not playing alarm sound", "sound", path, "gradual", gradual)
	return nil
}

func (s *Silent) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = ""
}

func (s *Silent) Shutdown() error {
	s.Stop()
	return nil
}

// Playing returns what the player would be sounding, or "".
func (s *Silent) Playing() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}
