// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package recursion

import (
	"context"
	"errors"
	"net/netip"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/siemens/recdig/dnsworker"
	"github.com/siemens/recdig/types"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
)

// DefaultHost is the name queried when no other host name has been set.
const DefaultHost = "google.com"

// DefaultTimeout is the time to wait for a nameserver to answer a probe.
const DefaultTimeout = time.Second

// Querier sends a single DNS query to a specific nameserver. Implementations
// must return an error satisfying dnsworker.IsTimeout if the nameserver
// doesn't answer within the timeout.
type Querier interface {
	Query(ctx context.Context, nameserver netip.Addr, name string, qtype uint16, timeout time.Duration) (*dns.Msg, error)
}

// Prober tests addresses as to whether they act as recursive resolvers,
// resolving a particular host name on behalf of anyone asking.
type Prober struct {
	host    string        // name to query, without trailing dot.
	timeout time.Duration // how long to wait for an answer.
	querier Querier
}

// ProberOption can be passed to New when creating new Prober objects.
type ProberOption func(*Prober)

// New returns a new [Prober] querying for [DefaultHost] with [DefaultTimeout],
// using a [dnsworker.UDPQuerier] unless specified otherwise using options:
//   - [WithHost]
//   - [WithTimeout]
//   - [WithQuerier]
func New(options ...ProberOption) *Prober {
	p := &Prober{
		host:    DefaultHost,
		timeout: DefaultTimeout,
		querier: dnsworker.UDPQuerier{},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// WithHost sets the host name to resolve.
func WithHost(host string) ProberOption {
	return func(p *Prober) {
		if host = strings.TrimSuffix(host, "."); host != "" {
			p.host = host
		}
	}
}

// WithTimeout sets how long to wait for the answer to a single probe.
func WithTimeout(timeout time.Duration) ProberOption {
	return func(p *Prober) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithQuerier sets the DNS query transport.
func WithQuerier(q Querier) ProberOption {
	return func(p *Prober) {
		p.querier = q
	}
}

// Host returns the host name the Prober resolves.
func (p *Prober) Host() string { return p.host }

// ForHost returns a copy of this Prober that resolves the specified host name
// instead.
func (p *Prober) ForHost(host string) *Prober {
	cp := *p
	WithHost(host)(&cp)
	return &cp
}

// Probe sends a single A query for the Prober's host name to addr as the
// nameserver and returns the outcome. A nameserver answering with at least one
// A record is recursing; negative answers, timeouts and errors are all
// folded into not recursing, without retrying.
func (p *Prober) Probe(ctx context.Context, addr netip.Addr) types.ProbeOutcome {
	outcome := types.ProbeOutcome{
		Address: addr,
		Host:    p.host,
		Verdict: types.NotRecursing,
		Rcode:   -1,
	}
	r, err := p.querier.Query(ctx, addr, p.host, dns.TypeA, p.timeout)
	switch {
	case err != nil && dnsworker.IsTimeout(err):
		outcome.Reason = types.ReasonTimeout
		logrus.Debugf("%s: no answer within %s", addr, p.timeout)
		return outcome
	case err != nil:
		outcome.Reason = types.ReasonError
		outcome.Err = err
		logrus.Debugf("%s: query failed: %s", addr, err.Error())
		return outcome
	case r == nil:
		outcome.Reason = types.ReasonError
		outcome.Err = errors.New("empty response")
		return outcome
	}
	outcome.Rcode = r.Rcode
	if r.Rcode == dns.RcodeSuccess {
		for _, rr := range r.Answer {
			if a, ok := rr.(*dns.A); ok {
				outcome.Records = append(outcome.Records, a.A.String())
			}
		}
	}
	if len(outcome.Records) == 0 {
		outcome.Reason = types.ReasonNegative
		logrus.Debugf("%s: negative answer (%s)", addr, dns.RcodeToString[r.Rcode])
		return outcome
	}
	outcome.Verdict = types.Recursing
	outcome.Reason = types.ReasonAnswered
	return outcome
}

// ProbeStream probes all specified addresses on the given pool of DNS workers
// and passes each outcome to fn as soon as it becomes available; fn is never
// called concurrently. ProbeStream returns after all submitted probes have
// completed, with the number of outcomes passed to fn.
//
// When the context gets cancelled, no further probes are started, but probes
// already in flight run to completion (or their timeout). Addresses that could
// not be probed because the pool failed to switch network namespaces get an
// error outcome.
func (p *Prober) ProbeStream(ctx context.Context, pool *dnsworker.DnsPool, addrs []netip.Addr, fn func(idx int, outcome types.ProbeOutcome)) int {
	type news struct {
		idx     int
		outcome types.ProbeOutcome
	}
	newsch := make(chan news)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for n := range newsch {
			fn(n.idx, n.outcome)
		}
	}()
	// In-flight probes must not get cut short by a cancelled context, so they
	// use a context that carries the values, but not the cancellation.
	probectx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	var probed atomic.Int64
	for idx, addr := range addrs {
		idx, addr := idx, addr
		wg.Add(1)
		if !pool.Submit(ctx, func(err error) {
			defer wg.Done()
			var outcome types.ProbeOutcome
			switch {
			case err == nil:
				outcome = p.Probe(probectx, addr)
			case errors.Is(err, dnsworker.ErrSkipped):
				return
			default:
				outcome = types.ProbeOutcome{
					Address: addr,
					Host:    p.host,
					Verdict: types.NotRecursing,
					Reason:  types.ReasonError,
					Rcode:   -1,
					Err:     err,
				}
			}
			probed.Add(1)
			newsch <- news{idx: idx, outcome: outcome}
		}) {
			wg.Done()
			break
		}
	}
	wg.Wait()
	close(newsch)
	<-done
	return int(probed.Load())
}
