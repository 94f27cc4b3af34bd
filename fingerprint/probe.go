// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package fingerprint

import (
	"context"
	"encoding/hex"
	"net/netip"
	"strings"
	"time"

	"github.com/siemens/recdig/dnsworker"
	"github.com/siemens/recdig/ping"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
)

// The script output keys reported by the NSID probe, in banner order.
const (
	KeyNSID        = "NSID"
	KeyIDServer    = "id.server"
	KeyBindVersion = "bind.version"
)

// Keys lists the script output keys in the order they appear in banners.
var Keys = []string{KeyNSID, KeyIDServer, KeyBindVersion}

// ProbeReport is what a service probe finds out about a host.
type ProbeReport struct {
	State  string            // host state, such as "up".
	Script map[string]string // identification output, keyed by Keys.
}

// Exchanger sends a DNS message to a nameserver and waits for its response.
type Exchanger interface {
	Exchange(ctx context.Context, nameserver netip.Addr, msg *dns.Msg, timeout time.Duration) (*dns.Msg, error)
}

// NSIDProbe identifies DNS server software by asking for the name server
// identifier (NSID, RFC 5001) as well as the CHAOS class TXT records
// “id.server” and “version.bind”.
type NSIDProbe struct {
	Host      string        // host name to query alongside the NSID option.
	Timeout   time.Duration // time to wait for each answer.
	Exchanger Exchanger     // transport; defaults to a dnsworker.UDPQuerier.
	Pinger    *ping.Pinger  // optional; checks unresponsive hosts for being up.
}

// Probe the target and report its state and identification output. A host
// that answers any of the queries is up; otherwise, the optional Pinger
// decides, and without a Pinger an unresponsive host is reported as an error.
func (n *NSIDProbe) Probe(ctx context.Context, target netip.Addr) (ProbeReport, error) {
	xchg := n.Exchanger
	if xchg == nil {
		xchg = dnsworker.UDPQuerier{}
	}
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}
	host := n.Host
	if host == "" {
		host = "google.com"
	}
	report := ProbeReport{Script: map[string]string{}}
	answered := false
	var lasterr error

	// NSID rides as an EDNS0 option on an ordinary query.
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true
	msg.SetEdns0(4096, false)
	msg.IsEdns0().Option = append(msg.IsEdns0().Option, &dns.EDNS0_NSID{Code: dns.EDNS0NSID})
	if r, err := xchg.Exchange(ctx, target, msg, timeout); err == nil {
		answered = true
		if nsid := nsidOf(r); nsid != "" {
			report.Script[KeyNSID] = nsid
		}
	} else {
		lasterr = err
		logrus.Debugf("%s: NSID query failed: %s", target, err.Error())
	}

	for _, q := range []struct{ name, key string }{
		{"id.server.", KeyIDServer},
		{"version.bind.", KeyBindVersion},
	} {
		msg := new(dns.Msg)
		msg.SetQuestion(q.name, dns.TypeTXT)
		msg.Question[0].Qclass = dns.ClassCHAOS
		r, err := xchg.Exchange(ctx, target, msg, timeout)
		if err != nil {
			lasterr = err
			logrus.Debugf("%s: CHAOS %s query failed: %s", target, q.name, err.Error())
			continue
		}
		answered = true
		if txt := txtOf(r); txt != "" {
			report.Script[q.key] = txt
		}
	}

	switch {
	case answered:
		report.State = ping.StateUp
	case n.Pinger != nil:
		report.State, _ = n.Pinger.State(ctx, target)
	default:
		return report, lasterr
	}
	return report, nil
}

// nsidOf returns the NSID option payload of a response, if any. NSIDs are
// opaque bytes; printable ones are returned as text, others in hex.
func nsidOf(r *dns.Msg) string {
	opt := r.IsEdns0()
	if opt == nil {
		return ""
	}
	for _, o := range opt.Option {
		nsid, ok := o.(*dns.EDNS0_NSID)
		if !ok || nsid.Nsid == "" {
			continue
		}
		raw, err := hex.DecodeString(nsid.Nsid)
		if err != nil || !printable(raw) {
			return nsid.Nsid
		}
		return strings.TrimSpace(string(raw))
	}
	return ""
}

// txtOf returns the joined strings of the first TXT answer, if any.
func txtOf(r *dns.Msg) string {
	if r.Rcode != dns.RcodeSuccess {
		return ""
	}
	for _, rr := range r.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			return strings.TrimSpace(strings.Join(txt.Txt, " "))
		}
	}
	return ""
}

func printable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
