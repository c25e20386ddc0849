package app

import (
	"errors"
	"fmt"
	"strconv"
)

// countdownState is the timer tab's lifecycle.
type countdownState int

const (
	countdownIdle countdownState = iota
	countdownRunning
	countdownPaused
	countdownDone
)

var errTimerInput = errors.New("enter valid numbers for hours, minutes and seconds")

// countdown is the timer tab: a duration entered as hours, minutes and
// seconds that counts down one second per clock tick.
type countdown struct {
	state     countdownState
	remaining int
	form      inputForm
}

func newCountdown() countdown {
	return countdown{
		form: newInputForm(
			formField{label: "Hours", placeholder: "0", charLimit: 2},
			formField{label: "Minutes", placeholder: "0", charLimit: 2},
			formField{label: "Seconds", placeholder: "0", charLimit: 2},
		),
	}
}

// duration parses the form into seconds. Empty fields count as zero.
func (c countdown) duration() (int, error) {
	total := 0
	for i, unit := range []int{3600, 60, 1} {
		s := c.form.value(i)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, errTimerInput
		}
		total += n * unit
	}
	return total, nil
}

func (c *countdown) start() error {
	total, err := c.duration()
	if err != nil {
		return err
	}
	if total == 0 {
		return errors.New("set a duration before starting the timer")
	}
	c.remaining = total
	c.state = countdownRunning
	c.form.blur()
	return nil
}

// toggle stops a running timer or continues a stopped one.
func (c *countdown) toggle() {
	switch c.state {
	case countdownRunning:
		c.state = countdownPaused
	case countdownPaused:
		c.state = countdownRunning
	}
}

func (c *countdown) reset() {
	c.state = countdownIdle
	c.remaining = 0
	c.form.reset()
}

// tick advances a running timer by one second and reports whether it just
// reached zero.
func (c *countdown) tick() bool {
	if c.state != countdownRunning {
		return false
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.state = countdownDone
		return true
	}
	return false
}

// acknowledge dismisses a finished timer.
func (c *countdown) acknowledge() {
	if c.state == countdownDone {
		c.state = countdownIdle
	}
}

// stopwatch counts up one second per clock tick while running.
type stopwatch struct {
	running bool
	elapsed int
}

// toggle starts, stops or continues the stopwatch.
func (s *stopwatch) toggle() {
	s.running = !s.running
}

func (s *stopwatch) reset() {
	s.running = false
	s.elapsed = 0
}

func (s *stopwatch) tick() {
	if s.running {
		s.elapsed++
	}
}

// formatClock renders seconds as HH:MM:SS.
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}
