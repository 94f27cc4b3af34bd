// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/siemens/recdig/scan"
	"github.com/siemens/recdig/types"

	"github.com/gosuri/uilive"
)

// renderer renders the scan progress and results to the terminal: results go
// out as permanent lines, while the progress countdown stays in a single
// line that gets updated in place.
type renderer struct {
	mu      sync.Mutex
	term    *uilive.Writer
	spinner *spinner
	stage   scan.Stage
	left    int
}

var _ scan.ProgressReporter = (*renderer)(nil)

// newRenderer returns a renderer writing to the specified io.Writer and starts
// its spinner with the specified interval.
func newRenderer(w io.Writer, spinnerInterval time.Duration) *renderer {
	term := uilive.New()
	term.Out = w
	r := &renderer{term: term}
	r.spinner = newSpinner(r.redraw)
	r.spinner.Start(spinnerInterval)
	return r
}

// Stop the renderer's background spinner and remove the countdown line.
func (r *renderer) Stop() {
	r.spinner.Stop()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.left = 0
	_, _ = r.term.Bypass().Write(nil)
}

// Remaining updates the countdown of the specified scan stage.
func (r *renderer) Remaining(stage scan.Stage, left int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stage = stage
	r.left = left
	r.render()
}

// Recursing prints a recursing nameserver together with what it resolved.
func (r *renderer) Recursing(outcome types.ProbeOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.term.Bypass(), recursingStyle.Styled(outcome.String()))
	r.render()
}

// Fingerprinted prints the DNS server software found on a recursing
// nameserver.
func (r *renderer) Fingerprinted(result types.FingerprintResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	style := unknownStyle
	if result.Identified {
		style = identifiedStyle
	}
	fmt.Fprintln(r.term.Bypass(), style.Styled(result.String()))
	r.render()
}

func (r *renderer) redraw() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.render()
}

// render the countdown line, if there's anything left, and flush it to the
// terminal. The caller must hold the lock.
func (r *renderer) render() {
	if r.left <= 0 {
		_, _ = r.term.Bypass().Write(nil)
		return
	}
	fmt.Fprint(r.term, progressStyle.Styled(r.spinner.Spinner()+countdown(r.stage, r.left)))
	fmt.Fprintln(r.term)
	_ = r.term.Flush()
}

// countdown returns the progress message for the specified stage and number
// of addresses left.
func countdown(stage scan.Stage, left int) string {
	if stage == scan.StageFingerprint {
		return fmt.Sprintf("Scanning for running DNS software. %d IPs left.", left)
	}
	return fmt.Sprintf("%d IPs left to test", left)
}

// printInvalid lists invalid IP specifications.
func printInvalid(w io.Writer, specs []string) {
	fmt.Fprintln(w, errorStyle.Styled("Error! The following IPs are invalid:"))
	for _, spec := range specs {
		fmt.Fprintln(w, spec)
	}
}
