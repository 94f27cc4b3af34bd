/*
Package types defines recdig's information model, which mainly revolves around
the [ProbeOutcome] of testing an address as an (open) recursive resolver and
the [FingerprintResult] of identifying the DNS server software on recursing
addresses.

A [ProbeOutcome] always carries a [Verdict] as well as the [Reason] for it:
timeouts, negative answers and protocol errors all end up as [NotRecursing],
but they remain distinguishable.

Outcomes and results are plain values that are passed around by value through
channels and callbacks; they are never updated in place.
*/
package types
