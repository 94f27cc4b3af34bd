// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"os"
	"strconv"
	"time"

	"github.com/miekg/dns"
)

// ErrTimeout signals that a nameserver didn't respond within the timeout.
var ErrTimeout = errors.New("DNS query timed out")

// UDPQuerier sends single DNS queries over UDP to arbitrary nameservers.
type UDPQuerier struct {
	Port uint16 // nameserver port; zero means 53.
}

// Query asks the nameserver for the records of type qtype of the specified
// name, with recursion desired, waiting at most timeout. There are no retries.
// If the nameserver doesn't answer in time, the returned error is ErrTimeout.
func (q UDPQuerier) Query(ctx context.Context, nameserver netip.Addr, name string, qtype uint16, timeout time.Duration) (*dns.Msg, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true
	return q.Exchange(ctx, nameserver, msg, timeout)
}

// Exchange sends the given DNS message to the nameserver and waits at most
// timeout for its response.
func (q UDPQuerier) Exchange(ctx context.Context, nameserver netip.Addr, msg *dns.Msg, timeout time.Duration) (*dns.Msg, error) {
	port := q.Port
	if port == 0 {
		port = 53
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	dnsclnt := dns.Client{
		Net:     "udp",
		Timeout: timeout,
	}
	r, _, err := dnsclnt.ExchangeContext(ctx, msg,
		net.JoinHostPort(nameserver.String(), strconv.Itoa(int(port))))
	if err != nil {
		if IsTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	return r, nil
}

// IsTimeout returns true if err signals a network or context timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var neterr net.Error
	return errors.As(err, &neterr) && neterr.Timeout()
}
