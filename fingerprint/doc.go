/*
Package fingerprint identifies the DNS server software running on recursing
addresses. The default [NSIDProbe] asks a server for its name server
identifier (NSID), as well as its “id.server” and “version.bind” CHAOS TXT
records, quite similar to what nmap's dns-nsid script does. A [Fingerprinter]
then turns a probe's [ProbeReport] into a [types.FingerprintResult]: either the
identified banner together with the host state, or unknown software.

Fingerprinting never fails: probe errors and servers not giving away anything
about themselves both end up as unknown software.
*/
package fingerprint
