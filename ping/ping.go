// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package ping

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/go-ping/ping"
	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
	"github.com/thediveo/lxkns/species"
)

// The host states reported by a Pinger.
const (
	StateUp       = "up"       // enough ICMP echo replies received.
	StateFiltered = "filtered" // no or too few replies; ICMP probably being filtered.
)

// Pinger checks whether hosts reply to ICMP echo requests.
type Pinger struct {
	count               int           // number of pings to send.
	interval            time.Duration // distance between pings.
	thresholdPercentage uint          // percentage of successful pings for an up host.
	unprivileged        bool          // if true, uses UDP-based pings instead of privileged ICMPs.

	netns relations.Relation // network namespace to ping from, or nil.
}

// PingerOption can be passed to New when creating new Pinger objects.
type PingerOption func(*Pinger)

// New returns a new [Pinger], which defaults to pinging 3 times at intervals of
// 250ms between each ping. The threshold defaults to 50(%).
//
// The pinger can be configured during creation using several option:
//   - [WithCount]
//   - [WithInterval]
//   - [WithThresholdPercentage]
//   - [AsUnprivileged]
//   - [InNetworkNamespace]
func New(options ...PingerOption) *Pinger {
	pinger := &Pinger{
		count:               3,
		interval:            250 * time.Millisecond,
		thresholdPercentage: 50,
	}
	for _, opt := range options {
		opt(pinger)
	}
	return pinger
}

// InNetworkNamespace optionally runs a [Pinger] inside the network namespace
// referenced by the specified filesystem path. An empty path keeps the current
// network namespace.
func InNetworkNamespace(netnsref string) PingerOption {
	return func(p *Pinger) {
		if netnsref == "" {
			return
		}
		p.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// WithCount sets the number of pings for testing reachability of an IP address.
func WithCount(count uint) PingerOption {
	return func(p *Pinger) {
		if count > 0 {
			p.count = int(count)
		}
	}
}

// WithInterval sets the interval between consecutive pings.
func WithInterval(interval time.Duration) PingerOption {
	return func(p *Pinger) {
		p.interval = interval
	}
}

// AsUnprivileged tells the Pinger to carry out unprivileged pings using UDP
// instead of ICMP packet.
func AsUnprivileged() PingerOption {
	return func(p *Pinger) {
		p.unprivileged = true
	}
}

// WithThresholdPercentage takes a percentage between 0 and 100 that specifies
// the percentage of successful ping responses required in order to consider a
// host to be up.
func WithThresholdPercentage(threshold uint) PingerOption {
	if threshold > 100 {
		panic(fmt.Errorf("Pinger: threshold must be a percentage between 0 <= threshold <= 100, got: %d",
			threshold))
	}
	return func(p *Pinger) {
		p.thresholdPercentage = threshold
	}
}

// State pings the specified address and returns either [StateUp] or
// [StateFiltered]. The error tells why a host was considered filtered, if
// there was more than just missing replies, such as lacking privileges.
//
// Pinging is automatically aborted when the specified context either meets its
// deadline or gets cancelled. The host is then considered filtered.
func (p *Pinger) State(ctx context.Context, addr netip.Addr) (string, error) {
	ping := func() interface{} {
		// A quick and non-blocking check to see if the context has been
		// cancelled before we start our work...
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		pinger, err := ping.NewPinger(addr.String())
		if err != nil {
			return err
		}
		pinger.SetPrivileged(!p.unprivileged)
		pinger.Count = p.count
		pinger.Interval = p.interval
		// Always limit waiting for the last ping to get reflected (or not)!
		pinger.Timeout = time.Duration(int64(p.interval) * int64(p.count+2))
		// While the ping will be running, we need to monitor the context in
		// case it becomes "done" by either getting cancelled or reaching
		// its deadline.
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				pinger.Stop()
			case <-done:
			}
		}()
		if err = pinger.Run(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		stats := pinger.Statistics()
		if stats.PacketsRecv == 0 || stats.PacketsRecv < pinger.Count*int(p.thresholdPercentage)/100 {
			return errors.New("no replies or too many losses")
		}
		return nil
	}
	var err error
	if p.netns != nil {
		// lxkns' ops.Execute differentiates between a namespace switching
		// error and the under switched namespaces called function result.
		var pingerr interface{}
		pingerr, err = ops.Execute(ping, p.netns)
		if err == nil && pingerr != nil {
			if fnerr, ok := pingerr.(error); ok {
				err = fnerr
			}
		}
	} else if res := ping(); res != nil {
		err = res.(error)
	}
	if err != nil {
		return StateFiltered, err
	}
	return StateUp, nil
}
