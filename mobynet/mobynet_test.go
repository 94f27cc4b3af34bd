// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package mobynet

import (
	"context"
	"net/netip"
	"time"

	"github.com/siemens/recdig/test"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("Docker containers", Ordered, func() {

	It("reports the network namespace of a running container", NodeTimeout(120*time.Second), func(ctx context.Context) {
		cln := test.NewMobyClient(ctx)
		test.RemoveLeftovers(ctx, cln)
		id := test.NewSleeper(ctx, cln, "recdig-test-netns")
		details := Successful(cln.ContainerInspect(ctx, id))
		Expect(ContainerNetns(ctx, cln, "recdig-test-netns")).To(
			MatchRegexp(`^/proc/[1-9][0-9]*/ns/net$`))
		Expect(ContainerNetns(ctx, cln, id)).To(
			HaveSuffix("/%d/ns/net", details.State.Pid))
	})

	It("rejects non-existing containers", NodeTimeout(30*time.Second), func(ctx context.Context) {
		cln := test.NewMobyClient(ctx)
		Expect(ContainerNetns(ctx, cln, "recdig-test-nonexisting")).Error().To(HaveOccurred())
		Expect(AttachedAddresses(ctx, cln, "recdig-test-nonexisting")).Error().To(HaveOccurred())
	})

	It("discovers the addresses of containers on attached networks", NodeTimeout(120*time.Second), func(ctx context.Context) {
		cln := test.NewMobyClient(ctx)
		test.NewNetwork(ctx, cln, "recdig-test-net-a")
		test.NewNetwork(ctx, cln, "recdig-test-net-b")
		test.NewNetwork(ctx, cln, "recdig-test-net-c")
		test.NewSleeper(ctx, cln, "recdig-test-center", "recdig-test-net-a", "recdig-test-net-b")
		foo := test.NewSleeper(ctx, cln, "recdig-test-foo", "recdig-test-net-a")
		bar := test.NewSleeper(ctx, cln, "recdig-test-bar", "recdig-test-net-a", "recdig-test-net-b")
		test.NewSleeper(ctx, cln, "recdig-test-baz", "recdig-test-net-c")

		var expected []string
		for _, id := range []string{foo, bar} {
			details := Successful(cln.ContainerInspect(ctx, id))
			for _, endpoint := range details.NetworkSettings.Networks {
				expected = append(expected, endpoint.IPAddress)
			}
		}
		Expect(expected).To(HaveLen(3))

		addrs := Successful(AttachedAddresses(ctx, cln, "recdig-test-center"))
		Expect(addrs).To(ConsistOf(expected))
		for _, addr := range addrs {
			Expect(netip.MustParseAddr(addr).Is4()).To(BeTrue())
		}
	})

})
