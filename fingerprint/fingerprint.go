// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package fingerprint

import (
	"context"
	"errors"
	"net/netip"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/siemens/recdig/dnsworker"
	"github.com/siemens/recdig/types"

	"github.com/sirupsen/logrus"
)

// Prober is a service probe for DNS servers on UDP port 53.
type Prober interface {
	Probe(ctx context.Context, target netip.Addr) (ProbeReport, error)
}

// Fingerprinter identifies the DNS server software on recursing addresses.
type Fingerprinter struct {
	prober Prober
}

// New returns a new Fingerprinter using the specified service probe.
func New(prober Prober) *Fingerprinter {
	return &Fingerprinter{prober: prober}
}

// Identify the DNS server software running on addr. Failing to identify the
// software is never an error; the result then simply reports the software as
// unknown, together with the reason.
func (f *Fingerprinter) Identify(ctx context.Context, addr netip.Addr) types.FingerprintResult {
	res := types.FingerprintResult{Address: addr}
	report, err := f.prober.Probe(ctx, addr)
	if err != nil {
		logrus.Debugf("%s: fingerprinting failed: %s", addr, err.Error())
		res.Reason = "probe failed: " + err.Error()
		return res
	}
	banner := Banner(report.Script)
	if banner == "" {
		res.State = report.State
		res.Reason = "no server identification"
		return res
	}
	res.Identified = true
	res.State = report.State
	res.Banner = banner
	return res
}

// Banner renders the identification output in Keys order, such as
// "NSID: ns1; bind.version: 9.18.1". It returns "" if there is no output.
func Banner(script map[string]string) string {
	parts := make([]string, 0, len(Keys))
	for _, key := range Keys {
		if val := strings.TrimSpace(script[key]); val != "" {
			parts = append(parts, key+": "+val)
		}
	}
	return strings.Join(parts, "; ")
}

// IdentifyStream fingerprints all specified addresses on the given pool of DNS
// workers and passes each result to fn as soon as it becomes available; fn is
// never called concurrently. IdentifyStream returns after all submitted
// fingerprinting tasks have completed, with the number of results passed to
// fn.
//
// When the context gets cancelled, no further fingerprinting is started, but
// fingerprinting already in flight runs to completion.
func (f *Fingerprinter) IdentifyStream(ctx context.Context, pool *dnsworker.DnsPool, addrs []netip.Addr, fn func(idx int, result types.FingerprintResult)) int {
	type news struct {
		idx    int
		result types.FingerprintResult
	}
	newsch := make(chan news)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for n := range newsch {
			fn(n.idx, n.result)
		}
	}()
	probectx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	var identified atomic.Int64
	for idx, addr := range addrs {
		idx, addr := idx, addr
		wg.Add(1)
		if !pool.Submit(ctx, func(err error) {
			defer wg.Done()
			var result types.FingerprintResult
			switch {
			case err == nil:
				result = f.Identify(probectx, addr)
			case errors.Is(err, dnsworker.ErrSkipped):
				return
			default:
				result = types.FingerprintResult{
					Address: addr,
					Reason:  "probe failed: " + err.Error(),
				}
			}
			identified.Add(1)
			newsch <- news{idx: idx, result: result}
		}) {
			wg.Done()
			break
		}
	}
	wg.Wait()
	close(newsch)
	<-done
	return int(identified.Load())
}
