/*
Package dnsworker implements a simple limiting DNS task execution pool, as well
as the UDP transport for sending single queries to arbitrary nameservers.
recdig uses [DnsPool] with a pool of “DNS workers” for probing candidate
addresses as recursive resolvers and for fingerprinting them.

Usage

	workers := dnsworker.New(
	    10,                              // number of parallel workers
	    dnsworker.WithRateLimit(100),    // at most 100 task starts per second
	)
	workers.Submit(ctx, func(err error) {
	    if err != nil {
	        return // skipped, or not in the network namespace
	    }
	    r, err := dnsworker.UDPQuerier{}.Query(
	        ctx, netip.MustParseAddr("192.0.2.1"), "google.com", dns.TypeA, time.Second)
	    // ...
	})
	workers.StopWait()

# Acknowledgements

Under its hood, [DnsPool] leverages [gammazero/workerpool] as the limiting
goroutine pool, and [golang.org/x/time/rate] for rate limiting.

[gammazero/workerpool]: https://github.com/gammazero/workerpool
*/
package dnsworker
