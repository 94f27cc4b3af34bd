/*
Package addrspec parses textual IPv4 address specifications into concrete
unicast addresses. A specification is one of:

  - a glob, where each octet is either a literal, a hyphenated “lo-hi” range,
    or “*” for the whole 0-255 range, such as “10.0.0-5.1-3”;
  - a CIDR block, such as “192.168.1.0/24”, which expands into every address
    of the block, including the network and broadcast addresses;
  - a single dotted-quad address.

Any specification must consist of four octets, that is, contain exactly three
dots; anything else is rejected before further parsing. Non-unicast addresses
(unspecified, multicast, reserved, limited broadcast) never make it into the
results: single addresses of these classes are invalid, while globs and
blocks simply lose such members.
*/
package addrspec
