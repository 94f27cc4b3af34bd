// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package scan

import (
	"context"
	"net/netip"

	"github.com/siemens/recdig/dnsworker"
	"github.com/siemens/recdig/fingerprint"
	"github.com/siemens/recdig/input"
	"github.com/siemens/recdig/recursion"
	"github.com/siemens/recdig/types"

	"github.com/sirupsen/logrus"
)

// Stage identifies the scan stage a progress report refers to.
type Stage int

// The scan stages.
const (
	StageRecursion   Stage = iota // probing candidates for recursion.
	StageFingerprint              // fingerprinting recursing addresses.
)

// ProgressReporter gets informed about scan progress and results. Its methods
// are never called concurrently. Recursing and Fingerprinted are called in
// ascending address order.
type ProgressReporter interface {
	Remaining(stage Stage, left int)
	Recursing(outcome types.ProbeOutcome)
	Fingerprinted(result types.FingerprintResult)
}

// Input to a scan: address specification tokens from the command line and a
// file.
type Input struct {
	Tokens     []string
	FileTokens []string
}

// ScanReport is the final result of a scan.
type ScanReport struct {
	Host         string                    `json:"host"`
	Candidates   []netip.Addr              `json:"candidates"`
	Recursing    []types.ProbeOutcome      `json:"recursing"`
	Fingerprints []types.FingerprintResult `json:"fingerprints"`
	Interrupted  bool                      `json:"interrupted,omitempty"`
}

// Scanner validates scan input, probes all candidates for recursion, and
// finally fingerprints the recursing ones.
type Scanner struct {
	prober   *recursion.Prober
	printer  *fingerprint.Fingerprinter
	pool     *dnsworker.DnsPool
	reporter ProgressReporter
	resolver HostResolver // checks the host name before scanning, if set.
}

// ScannerOption can be passed to New when creating new Scanner objects.
type ScannerOption func(*Scanner)

// WithHostCheck makes the Scanner check the prober's host name using the
// specified resolver before touching any scan input, see [CheckHostname].
func WithHostCheck(resolver HostResolver) ScannerOption {
	return func(s *Scanner) {
		s.resolver = resolver
	}
}

// New returns a new Scanner running its probes on the specified pool. The
// reporter is optional.
func New(prober *recursion.Prober, printer *fingerprint.Fingerprinter, pool *dnsworker.DnsPool, reporter ProgressReporter, options ...ScannerOption) *Scanner {
	if reporter == nil {
		reporter = nopReporter{}
	}
	s := &Scanner{
		prober:   prober,
		printer:  printer,
		pool:     pool,
		reporter: reporter,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Validate normalizes the inline and file tokens together. If there is any
// invalid specification, an *input.InvalidSpecsError listing all of them is
// returned.
func Validate(in Input) ([]netip.Addr, error) {
	tokens := make([]string, 0, len(in.Tokens)+len(in.FileTokens))
	tokens = append(tokens, in.Tokens...)
	tokens = append(tokens, in.FileTokens...)
	res := input.Normalize(tokens)
	if err := res.Err(); err != nil {
		return nil, err
	}
	return res.Valid, nil
}

// Run the scan on the specified input. An unresolvable host name (when
// checking it) as well as invalid input stop the scan before any network
// activity towards the candidates. When the context gets cancelled, the scan stops
// submitting new probes, waits for the probes in flight, and returns what it
// has found so far, with Interrupted set.
func (s *Scanner) Run(ctx context.Context, in Input) (ScanReport, error) {
	prober := s.prober
	if s.resolver != nil {
		host, err := CheckHostname(ctx, s.resolver, prober.Host())
		if err != nil {
			return ScanReport{Host: prober.Host()}, err
		}
		prober = prober.ForHost(host)
	}
	report := ScanReport{Host: prober.Host()}
	candidates, err := Validate(in)
	if err != nil {
		return report, err
	}
	report.Candidates = candidates
	if len(candidates) == 0 {
		return report, nil
	}

	report.Recursing = s.probe(ctx, prober, candidates)
	if ctx.Err() != nil {
		report.Interrupted = true
		return report, nil
	}
	if len(report.Recursing) == 0 {
		return report, nil
	}

	report.Fingerprints = s.fingerprint(ctx, report.Recursing)
	report.Interrupted = ctx.Err() != nil
	return report, nil
}

// probe all candidates for recursion and return the outcomes for the recursing
// ones, in candidate order.
func (s *Scanner) probe(ctx context.Context, prober *recursion.Prober, candidates []netip.Addr) []types.ProbeOutcome {
	left := len(candidates)
	s.reporter.Remaining(StageRecursion, left)
	var recursing []types.ProbeOutcome
	seq := newSequencer(func(o types.ProbeOutcome) {
		if o.IsRecursing() {
			recursing = append(recursing, o)
			s.reporter.Recursing(o)
		}
	})
	n := prober.ProbeStream(ctx, s.pool, candidates, func(idx int, o types.ProbeOutcome) {
		left--
		s.reporter.Remaining(StageRecursion, left)
		seq.Put(idx, o)
	})
	seq.Flush()
	if n < len(candidates) {
		logrus.Debugf("scan interrupted after probing %d of %d candidates", n, len(candidates))
	}
	return recursing
}

// fingerprint the recursing addresses and return the results in the order of
// the recursing addresses.
func (s *Scanner) fingerprint(ctx context.Context, recursing []types.ProbeOutcome) []types.FingerprintResult {
	addrs := make([]netip.Addr, 0, len(recursing))
	for _, o := range recursing {
		addrs = append(addrs, o.Address)
	}
	left := len(addrs)
	s.reporter.Remaining(StageFingerprint, left)
	var results []types.FingerprintResult
	seq := newSequencer(func(r types.FingerprintResult) {
		results = append(results, r)
		s.reporter.Fingerprinted(r)
	})
	s.printer.IdentifyStream(ctx, s.pool, addrs, func(idx int, r types.FingerprintResult) {
		left--
		s.reporter.Remaining(StageFingerprint, left)
		seq.Put(idx, r)
	})
	seq.Flush()
	return results
}

type nopReporter struct{}

func (nopReporter) Remaining(Stage, int)                  {}
func (nopReporter) Recursing(types.ProbeOutcome)          {}
func (nopReporter) Fingerprinted(types.FingerprintResult) {}
