/*
Package recursion tests addresses for being (open) recursive resolvers: a
[Prober] asks each address, acting as a nameserver, for the A records of a
well-known host name. Addresses answering with records are recursing; those
refusing, answering without records, not answering in time, or failing
otherwise are not. There is only a single attempt per address.

Probing lots of addresses is done concurrently on a [dnsworker.DnsPool], with
the outcomes streamed back to the caller as probes complete.
*/
package recursion
