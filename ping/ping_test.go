// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package ping

import (
	"context"
	"net/netip"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/namspill"
)

var _ = Describe("pinger", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
			Expect(Tasks()).To(BeUniformlyNamespaced())
		})
	})

	It("rejects invalid thresholds", func() {
		Expect(func() { WithThresholdPercentage(101) }).To(Panic())
	})

	It("applies options", func() {
		p := New(WithCount(5), WithCount(0), WithInterval(time.Second),
			WithThresholdPercentage(75), AsUnprivileged(), InNetworkNamespace(""))
		Expect(p.count).To(Equal(5))
		Expect(p.interval).To(Equal(time.Second))
		Expect(p.thresholdPercentage).To(Equal(uint(75)))
		Expect(p.unprivileged).To(BeTrue())
		Expect(p.netns).To(BeNil())
	})

	It("reports a cancelled ping as filtered", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		state, err := New().State(ctx, netip.MustParseAddr("127.0.0.1"))
		Expect(state).To(Equal(StateFiltered))
		Expect(err).To(MatchError(context.Canceled))
	})

	It("finds localhost to be up", NodeTimeout(10*time.Second), func(ctx context.Context) {
		if os.Getuid() != 0 {
			Skip("needs root")
		}
		state, err := New(WithCount(1), WithInterval(100*time.Millisecond)).
			State(ctx, netip.MustParseAddr("127.0.0.1"))
		Expect(err).NotTo(HaveOccurred())
		Expect(state).To(Equal(StateUp))
	})

	It("pings from inside a network namespace", NodeTimeout(10*time.Second), func(ctx context.Context) {
		if os.Getuid() != 0 {
			Skip("needs root")
		}
		state, _ := New(WithCount(1), WithInterval(100*time.Millisecond),
			InNetworkNamespace("/proc/self/ns/net")).
			State(ctx, netip.MustParseAddr("127.0.0.1"))
		Expect(state).To(Equal(StateUp))
	})

})
