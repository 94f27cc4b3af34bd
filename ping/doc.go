/*
Package ping implements an ICMP-based host state check.

A [Pinger] sends a few ICMP echo requests to a host and reports it as being
“up” if enough replies come back; otherwise the host is reported as
“filtered”, as it might well be up, yet not responding to pings.

	pinger := ping.New(ping.WithCount(2), ping.AsUnprivileged())
	state, err := pinger.State(ctx, netip.MustParseAddr("192.0.2.1"))

Unless running unprivileged pings, pinging needs CAP_NET_RAW.

# Acknowledgements

Under its hood, [Pinger] leverages [go-ping/ping].

[go-ping/ping]: https://github.com/go-ping/ping
*/
package ping
