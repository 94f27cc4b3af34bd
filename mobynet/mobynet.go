// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package mobynet

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/sirupsen/logrus"
)

// ContainerNetns returns the filesystem path referencing the network namespace
// of the specified container, such as "/proc/42/ns/net". The container must be
// running.
func ContainerNetns(ctx context.Context, moby *client.Client, nameOrID string) (string, error) {
	details, err := moby.ContainerInspect(ctx, nameOrID)
	if err != nil {
		return "", err
	}
	if details.State == nil || details.State.Pid == 0 {
		return "", fmt.Errorf("container '%s' is not running", nameOrID)
	}
	return fmt.Sprintf("/proc/%d/ns/net", details.State.Pid), nil
}

// AttachedAddresses takes on the position of the “center” container
// identified by centerID and then inspects the networks attached to this
// container. It returns the IPv4 addresses of all other containers attached to
// these networks, in textual form so that they can be directly used as scan
// input. The center container's own addresses are skipped.
//
// This works correctly even with multiple Docker networks having the same
// name, yet different IDs, as networks are inspected by their IDs.
func AttachedAddresses(ctx context.Context, moby *client.Client, centerID string) ([]string, error) {
	centerDetails, err := moby.ContainerInspect(ctx, centerID)
	if err != nil {
		return nil, err
	}
	if centerDetails.State == nil || centerDetails.State.Pid == 0 {
		return nil, fmt.Errorf("container '%s' is not running", centerID)
	}
	centerDetails.Name = strings.TrimPrefix(centerDetails.Name, "/") // argh, Docker's "/name" legacy!

	// Containers attached to multiple networks the center container is also
	// attached to will show up multiple times, but with different addresses.
	seen := map[netip.Addr]struct{}{}
	addrs := []string{}
	for attachedNetName, attachedNet := range centerDetails.NetworkSettings.Networks {
		attNetDetails, err := moby.NetworkInspect(ctx, attachedNet.NetworkID, types.NetworkInspectOptions{})
		if err != nil {
			return nil, err
		}
		for cntrID, endpoint := range attNetDetails.Containers {
			if cntrID == centerDetails.ID || endpoint.Name == centerDetails.Name {
				continue
			}
			// Endpoint addresses come in CIDR notation, such as
			// "172.18.0.2/16", or are empty for networks without IPAM.
			prefix, err := netip.ParsePrefix(endpoint.IPv4Address)
			if err != nil {
				logrus.Debugf("skipping container %s on network %s: no IPv4 address",
					endpoint.Name, attachedNetName)
				continue
			}
			addr := prefix.Addr()
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			addrs = append(addrs, addr.String())
		}
	}
	return addrs, nil
}
