// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Yet another (braille) spinner.

package main

import (
	"sync"
	"time"
)

// spinner is yet another blindingly simple spinner; just enough to get the job
// done, no bells, no frills. After each step it calls its tick function, if
// any, so that the display can be refreshed.
type spinner struct {
	ticker *time.Ticker
	phases []string
	tick   func()
	done   chan struct{}
	gone   chan struct{}
	mu     sync.Mutex
	phase  int
}

// newSpinner returns a new spinner; later call the Start method to make it
// spinning, and the Stop method to stop it and release background resources.
func newSpinner(tick func()) *spinner {
	phases := []string{}
	for _, r := range "⠉⠘⠰⠤⠆⠃" {
		phases = append(phases, string(r)+" ")
	}
	return &spinner{
		phases: phases,
		tick:   tick,
		done:   make(chan struct{}),
		gone:   make(chan struct{}),
	}
}

// Spinner returns the spinner string for the current phase.
func (s *spinner) Spinner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phases[s.phase]
}

// Start the spinner to spin in steps every specified interval.
func (s *spinner) Start(interval time.Duration) {
	s.ticker = time.NewTicker(interval)
	go func() {
		defer close(s.gone)
		for {
			select {
			case <-s.ticker.C:
				s.mu.Lock()
				s.phase = (s.phase + 1) % len(s.phases)
				s.mu.Unlock()
				if s.tick != nil {
					s.tick()
				}
			case <-s.done:
				s.ticker.Stop()
				return
			}
		}
	}()
}

// Stop the spinner and wait for its background goroutine to terminate.
func (s *spinner) Stop() {
	close(s.done)
	<-s.gone
}
