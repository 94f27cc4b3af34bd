// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package addrspec

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go4.org/netipx"
)

// MaxAddrs limits the number of addresses a single specification may expand
// into; this corresponds with a /12 block.
const MaxAddrs = 1 << 20

// Reasons for rejecting a specification; use errors.Is to check for them.
var (
	ErrOctetCount = errors.New("not four dot-separated octets")
	ErrOctet      = errors.New("invalid octet or octet range")
	ErrPrefix     = errors.New("invalid CIDR block")
	ErrAddress    = errors.New("invalid IPv4 address")
	ErrNotUnicast = errors.New("no unicast address")
	ErrTooLarge   = errors.New("expands into too many addresses")
)

var (
	reservedPrefix  = netip.MustParsePrefix("240.0.0.0/4")
	limitedBcast    = netip.AddrFrom4([4]byte{255, 255, 255, 255})
	stripSeparators = ", \t\r\n"
)

// Parse a single address specification into its addresses in ascending order.
// An error is returned instead if the specification is malformed or doesn't
// contain any unicast address. The returned errors wrap one of the Err...
// sentinels.
func Parse(spec string) ([]netip.Addr, error) {
	s := Strip(spec)
	if strings.Count(s, ".") != 3 {
		return nil, errors.WithMessagef(ErrOctetCount, "%q", spec)
	}
	var addrs []netip.Addr
	var err error
	switch {
	case strings.ContainsAny(s, "-*"):
		addrs, err = parseGlob(s)
	case strings.Contains(s, "/"):
		addrs, err = parseBlock(s)
	default:
		var addr netip.Addr
		addr, err = parseSingle(s)
		addrs = []netip.Addr{addr}
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "%q", spec)
	}
	return addrs, nil
}

// Strip removes list separator artifacts, such as a trailing comma, from a
// specification token.
func Strip(spec string) string {
	return strings.Trim(spec, stripSeparators)
}

// IsUnicast returns true if addr is an IPv4 address suitable as a scan target.
func IsUnicast(addr netip.Addr) bool {
	return addr.Is4() &&
		!addr.IsUnspecified() &&
		!addr.IsMulticast() &&
		addr != limitedBcast &&
		!reservedPrefix.Contains(addr)
}

func parseSingle(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return netip.Addr{}, ErrAddress
	}
	if !IsUnicast(addr) {
		return netip.Addr{}, ErrNotUnicast
	}
	return addr, nil
}

// octetRange is an inclusive range of octet values.
type octetRange struct{ lo, hi int }

func (r octetRange) len() int { return r.hi - r.lo + 1 }

func parseOctetRange(field string) (octetRange, error) {
	if field == "*" {
		return octetRange{0, 255}, nil
	}
	lo, hi, isRange := strings.Cut(field, "-")
	l, err := parseOctet(lo)
	if err != nil {
		return octetRange{}, err
	}
	if !isRange {
		return octetRange{l, l}, nil
	}
	h, err := parseOctet(hi)
	if err != nil {
		return octetRange{}, err
	}
	if h < l {
		return octetRange{}, ErrOctet
	}
	return octetRange{l, h}, nil
}

func parseOctet(s string) (int, error) {
	// strconv would happily accept signs; octets are plain decimal digits.
	if s == "" || len(s) > 3 || strings.TrimLeft(s, "0123456789") != "" {
		return 0, ErrOctet
	}
	v, err := strconv.Atoi(s)
	if err != nil || v > 255 {
		return 0, ErrOctet
	}
	return v, nil
}

// parseGlob expands a glob into the Cartesian product of its octet ranges.
// Iterating the last octet fastest yields ascending address order.
func parseGlob(s string) ([]netip.Addr, error) {
	var ranges [4]octetRange
	total := 1
	for idx, field := range strings.Split(s, ".") {
		r, err := parseOctetRange(field)
		if err != nil {
			return nil, err
		}
		ranges[idx] = r
		total *= r.len()
	}
	if total > MaxAddrs {
		return nil, ErrTooLarge
	}
	addrs := make([]netip.Addr, 0, total)
	for a := ranges[0].lo; a <= ranges[0].hi; a++ {
		for b := ranges[1].lo; b <= ranges[1].hi; b++ {
			for c := ranges[2].lo; c <= ranges[2].hi; c++ {
				for d := ranges[3].lo; d <= ranges[3].hi; d++ {
					addr := netip.AddrFrom4([4]byte{byte(a), byte(b), byte(c), byte(d)})
					if IsUnicast(addr) {
						addrs = append(addrs, addr)
					}
				}
			}
		}
	}
	if len(addrs) == 0 {
		return nil, ErrNotUnicast
	}
	return addrs, nil
}

// parseBlock expands a CIDR block into all its addresses, including network
// and broadcast addresses. Host bits in the block address are ignored.
func parseBlock(s string) ([]netip.Addr, error) {
	prefix, err := netip.ParsePrefix(s)
	if err != nil || !prefix.Addr().Is4() {
		return nil, ErrPrefix
	}
	if 32-prefix.Bits() > 20 {
		return nil, ErrTooLarge
	}
	r := netipx.RangeOfPrefix(prefix.Masked())
	addrs := make([]netip.Addr, 0, 1<<(32-prefix.Bits()))
	for addr := r.From(); addr.IsValid() && addr.Compare(r.To()) <= 0; addr = addr.Next() {
		if IsUnicast(addr) {
			addrs = append(addrs, addr)
		}
	}
	if len(addrs) == 0 {
		return nil, ErrNotUnicast
	}
	return addrs, nil
}
