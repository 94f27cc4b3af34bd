// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package addrspec

import (
	"net/netip"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

func addrs(s ...string) []netip.Addr {
	a := make([]netip.Addr, 0, len(s))
	for _, str := range s {
		a = append(a, netip.MustParseAddr(str))
	}
	return a
}

var _ = Describe("address specifications", func() {

	DescribeTable("parsing single addresses",
		func(spec string, expected string) {
			Expect(Successful(Parse(spec))).To(Equal(addrs(expected)))
		},
		Entry("plain address", "10.0.0.1", "10.0.0.1"),
		Entry("loopback", "127.0.0.1", "127.0.0.1"),
		Entry("trailing comma", "10.0.0.1,", "10.0.0.1"),
		Entry("leading comma and blanks", " ,192.168.1.1 ", "192.168.1.1"),
	)

	DescribeTable("rejecting specifications",
		func(spec string, reason error) {
			_, err := Parse(spec)
			Expect(err).To(MatchError(reason))
			Expect(err.Error()).To(ContainSubstring(spec))
		},
		Entry("no dots at all", "notanip", ErrOctetCount),
		Entry("too few octets", "10.0.0", ErrOctetCount),
		Entry("too many octets", "10.0.0.1.2", ErrOctetCount),
		Entry("one dot", "bad.token", ErrOctetCount),
		Entry("host name with three dots", "www.example.co.uk", ErrAddress),
		Entry("octet out of range", "10.0.0.256", ErrAddress),
		Entry("multicast", "224.0.0.1", ErrNotUnicast),
		Entry("limited broadcast", "255.255.255.255", ErrNotUnicast),
		Entry("reserved", "240.1.2.3", ErrNotUnicast),
		Entry("unspecified", "0.0.0.0", ErrNotUnicast),
		Entry("descending range", "10.0.0.3-1", ErrOctet),
		Entry("range out of bounds", "10.0.0.1-300", ErrOctet),
		Entry("non-numeric range", "10.0.0.a-b", ErrOctet),
		Entry("signed octet", "10.0.0.+1-2", ErrOctet),
		Entry("open range", "10.0.0.1-", ErrOctet),
		Entry("all-multicast glob", "224.0.0.1-3", ErrNotUnicast),
		Entry("bad CIDR length", "10.0.0.0/33", ErrPrefix),
		Entry("CIDR garbage", "10.0.0.0/x", ErrPrefix),
		Entry("oversized CIDR", "10.0.0.0/8", ErrTooLarge),
		Entry("oversized glob", "10.*.*.*", ErrTooLarge),
	)

	It("expands a glob in ascending order", func() {
		Expect(Successful(Parse("10.0.0.1-3"))).To(Equal(
			addrs("10.0.0.1", "10.0.0.2", "10.0.0.3")))
	})

	It("expands globs over multiple octets into their Cartesian product", func() {
		Expect(Successful(Parse("10.0.0-1.1-2"))).To(Equal(
			addrs("10.0.0.1", "10.0.0.2", "10.0.1.1", "10.0.1.2")))
	})

	It("expands wildcard octets", func() {
		a := Successful(Parse("10.0.0.*"))
		Expect(a).To(HaveLen(256))
		Expect(a[0]).To(Equal(netip.MustParseAddr("10.0.0.0")))
		Expect(a[255]).To(Equal(netip.MustParseAddr("10.0.0.255")))
	})

	It("drops non-unicast members of a glob", func() {
		Expect(Successful(Parse("223-224.0.0.1"))).To(Equal(addrs("223.0.0.1")))
	})

	It("expands a CIDR block including network and broadcast addresses", func() {
		Expect(Successful(Parse("192.168.1.0/30"))).To(Equal(
			addrs("192.168.1.0", "192.168.1.1", "192.168.1.2", "192.168.1.3")))
	})

	It("masks host bits of a CIDR block", func() {
		Expect(Successful(Parse("192.168.1.5/31"))).To(Equal(
			addrs("192.168.1.4", "192.168.1.5")))
	})

	It("expands a host route", func() {
		Expect(Successful(Parse("10.1.2.3/32"))).To(Equal(addrs("10.1.2.3")))
	})

	It("handles the top of the address space", func() {
		Expect(Successful(Parse("223.255.255.254/31"))).To(Equal(
			addrs("223.255.255.254", "223.255.255.255")))
	})

	It("classifies unicast addresses", func() {
		Expect(IsUnicast(netip.MustParseAddr("8.8.8.8"))).To(BeTrue())
		Expect(IsUnicast(netip.MustParseAddr("::1"))).To(BeFalse())
		Expect(IsUnicast(netip.MustParseAddr("239.255.255.255"))).To(BeFalse())
	})

})
