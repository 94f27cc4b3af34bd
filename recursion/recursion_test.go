// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package recursion

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/siemens/recdig/dnsworker"
	"github.com/siemens/recdig/test"
	"github.com/siemens/recdig/types"

	"github.com/miekg/dns"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
)

// fakeQuerier answers queries from a table of canned per-nameserver
// responses.
type fakeQuerier struct {
	mu      sync.Mutex
	answers map[netip.Addr][]string
	errs    map[netip.Addr]error
	queried []netip.Addr
}

func (f *fakeQuerier) Query(ctx context.Context, nameserver netip.Addr, name string, qtype uint16, timeout time.Duration) (*dns.Msg, error) {
	f.mu.Lock()
	f.queried = append(f.queried, nameserver)
	f.mu.Unlock()
	if err, ok := f.errs[nameserver]; ok {
		return nil, err
	}
	req := new(dns.Msg)
	req.SetQuestion(dns.Fqdn(name), qtype)
	resp := new(dns.Msg)
	resp.SetReply(req)
	addrs, ok := f.answers[nameserver]
	if !ok {
		resp.Rcode = dns.RcodeRefused
		return resp, nil
	}
	for _, addr := range addrs {
		resp.Answer = append(resp.Answer, &dns.A{
			Hdr: dns.RR_Header{Name: dns.Fqdn(name), Rrtype: dns.TypeA, Class: dns.ClassINET},
			A:   net.ParseIP(addr),
		})
	}
	return resp, nil
}

var (
	ns1 = netip.MustParseAddr("10.0.0.1")
	ns2 = netip.MustParseAddr("10.0.0.2")
	ns3 = netip.MustParseAddr("10.0.0.3")
	ns4 = netip.MustParseAddr("10.0.0.4")
)

var _ = Describe("recursion probing", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	It("defaults", func() {
		p := New(WithHost(""), WithTimeout(0))
		Expect(p.Host()).To(Equal(DefaultHost))
		Expect(p.timeout).To(Equal(DefaultTimeout))
		Expect(New(WithHost("example.org.")).Host()).To(Equal("example.org"))
	})

	Context("with test double", func() {

		var fq *fakeQuerier

		BeforeEach(func() {
			fq = &fakeQuerier{
				answers: map[netip.Addr][]string{
					ns1: {"192.0.2.1", "192.0.2.2"},
					ns3: {},
				},
				errs: map[netip.Addr]error{
					ns2: dnsworker.ErrTimeout,
					ns4: errors.New("ICMP port unreachable"),
				},
			}
		})

		It("classifies a nameserver answering with records as recursing", func() {
			o := New(WithQuerier(fq)).Probe(context.Background(), ns1)
			Expect(o.Verdict).To(Equal(types.Recursing))
			Expect(o.Reason).To(Equal(types.ReasonAnswered))
			Expect(o.Records).To(Equal([]string{"192.0.2.1", "192.0.2.2"}))
			Expect(o.Host).To(Equal("google.com"))
			Expect(o.String()).To(Equal(
				"10.0.0.1 resolved to 192.0.2.1, 192.0.2.2 for the lookup of google.com"))
		})

		It("classifies a timeout as not recursing", func() {
			o := New(WithQuerier(fq)).Probe(context.Background(), ns2)
			Expect(o.IsRecursing()).To(BeFalse())
			Expect(o.Reason).To(Equal(types.ReasonTimeout))
			Expect(o.Err).NotTo(HaveOccurred())
		})

		It("classifies empty answers as not recursing", func() {
			o := New(WithQuerier(fq)).Probe(context.Background(), ns3)
			Expect(o.Verdict).To(Equal(types.NotRecursing))
			Expect(o.Reason).To(Equal(types.ReasonNegative))
			Expect(o.Rcode).To(Equal(dns.RcodeSuccess))
		})

		It("classifies refusals as not recursing", func() {
			o := New(WithQuerier(fq)).Probe(context.Background(), netip.MustParseAddr("10.0.0.99"))
			Expect(o.Verdict).To(Equal(types.NotRecursing))
			Expect(o.Reason).To(Equal(types.ReasonNegative))
			Expect(o.Rcode).To(Equal(dns.RcodeRefused))
		})

		It("classifies errors as not recursing, keeping the error", func() {
			o := New(WithQuerier(fq)).Probe(context.Background(), ns4)
			Expect(o.Verdict).To(Equal(types.NotRecursing))
			Expect(o.Reason).To(Equal(types.ReasonError))
			Expect(o.Err).To(MatchError(ContainSubstring("unreachable")))
		})

		It("streams outcomes for all addresses", NodeTimeout(10*time.Second), func(ctx context.Context) {
			pool := dnsworker.New(2)
			defer pool.StopWait()
			addrs := []netip.Addr{ns1, ns2, ns3, ns4}
			outcomes := make([]types.ProbeOutcome, len(addrs))
			n := New(WithQuerier(fq)).ProbeStream(ctx, pool, addrs, func(idx int, o types.ProbeOutcome) {
				outcomes[idx] = o
			})
			Expect(n).To(Equal(4))
			Expect(outcomes[0].IsRecursing()).To(BeTrue())
			for _, o := range outcomes[1:] {
				Expect(o.IsRecursing()).To(BeFalse())
			}
			Expect(fq.queried).To(ConsistOf(addrs))
		})

		It("stops submitting probes when cancelled", func() {
			pool := dnsworker.New(1)
			defer pool.StopWait()
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			n := New(WithQuerier(fq)).ProbeStream(ctx, pool, []netip.Addr{ns1, ns2},
				func(int, types.ProbeOutcome) { Fail("unexpected outcome") })
			Expect(n).To(BeZero())
			Expect(fq.queried).To(BeEmpty())
		})

		It("reports addresses that cannot be probed from the network namespace", NodeTimeout(10*time.Second), func(ctx context.Context) {
			pool := dnsworker.New(1, dnsworker.InNetworkNamespace("/nonexisting/ns/net"))
			defer pool.StopWait()
			var outcomes []types.ProbeOutcome
			n := New(WithQuerier(fq)).ProbeStream(ctx, pool, []netip.Addr{ns1},
				func(_ int, o types.ProbeOutcome) { outcomes = append(outcomes, o) })
			Expect(n).To(Equal(1))
			Expect(outcomes).To(HaveLen(1))
			Expect(outcomes[0].IsRecursing()).To(BeFalse())
			Expect(outcomes[0].Reason).To(Equal(types.ReasonError))
			Expect(outcomes[0].Err).To(MatchError(ContainSubstring("network namespace")))
			Expect(fq.queried).To(BeEmpty())
		})

	})

	Context("with a real nameserver", func() {

		It("detects a recursing nameserver", NodeTimeout(10*time.Second), func(ctx context.Context) {
			srv := test.NewDNSServer(test.Answering("192.0.2.7"))
			o := New(WithQuerier(dnsworker.UDPQuerier{Port: srv.Port})).Probe(ctx, srv.Addr)
			Expect(o.IsRecursing()).To(BeTrue())
			Expect(o.Records).To(ConsistOf("192.0.2.7"))
		})

		It("detects a refusing nameserver", NodeTimeout(10*time.Second), func(ctx context.Context) {
			srv := test.NewDNSServer(test.Refusing())
			o := New(WithQuerier(dnsworker.UDPQuerier{Port: srv.Port})).Probe(ctx, srv.Addr)
			Expect(o.IsRecursing()).To(BeFalse())
			Expect(o.Reason).To(Equal(types.ReasonNegative))
		})

		It("detects a silent nameserver", NodeTimeout(10*time.Second), func(ctx context.Context) {
			srv := test.NewDNSServer(test.Silent())
			o := New(
				WithQuerier(dnsworker.UDPQuerier{Port: srv.Port}),
				WithTimeout(200*time.Millisecond),
			).Probe(ctx, srv.Addr)
			Expect(o.IsRecursing()).To(BeFalse())
			Expect(o.Reason).To(Equal(types.ReasonTimeout))
		})

	})

})
