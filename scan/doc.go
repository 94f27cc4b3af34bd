/*
Package scan orchestrates a complete recursive resolver scan:

 1. the address specifications get validated and normalized into the
    ascending set of candidate addresses; any invalid specification stops the
    scan before it touches the network;
 2. all candidates are probed for recursion, concurrently on a pool of DNS
    workers;
 3. the recursing addresses then get fingerprinted.

Progress and results are reported to a [ProgressReporter] as they come in.
While probes complete in any order, results are always reported in ascending
address order. Cancelling a scan stops starting new probes; probes in flight
still complete.
*/
package scan
