// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package test

import (
	"context"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"

	gi "github.com/onsi/ginkgo/v2"
	g "github.com/onsi/gomega"
	s "github.com/thediveo/success"
)

// MobyLabel is the name of a “magic” label for tagging test containers and
// networks, so that they can be cleaned up reliably.
const MobyLabel = "recdig-test"

// SleeperImage is the image used for test containers that just sit idle.
const SleeperImage = "busybox:stable"

// NewMobyClient returns a new Docker client connected to the default socket
// API location on the local host, skipping the current spec if there is no
// Docker engine to talk to. The client gets automatically closed at the end of
// the current spec.
func NewMobyClient(ctx context.Context) *client.Client {
	gi.GinkgoHelper()

	cln := s.Successful(client.NewClientWithOpts(
		client.WithHost("unix:///var/run/docker.sock"),
		client.WithAPIVersionNegotiation(),
	))
	gi.DeferCleanup(func() { _ = cln.Close() })
	if _, err := cln.Ping(ctx); err != nil {
		gi.Skip("needs a Docker engine: " + err.Error())
	}
	return cln
}

// NewNetwork creates a new labelled bridge network with the specified name
// and returns its ID. The network is removed at the end of the current spec.
func NewNetwork(ctx context.Context, cln *client.Client, name string) string {
	gi.GinkgoHelper()

	resp := s.Successful(cln.NetworkCreate(ctx, name, types.NetworkCreate{
		Driver: "bridge",
		Labels: map[string]string{MobyLabel: ""},
	}))
	gi.DeferCleanup(func(ctx context.Context) {
		_ = cln.NetworkRemove(ctx, resp.ID)
	})
	return resp.ID
}

// NewSleeper creates and starts a new labelled idle container with the
// specified name, attached to the specified networks. The container is forcibly
// removed at the end of the current spec.
func NewSleeper(ctx context.Context, cln *client.Client, name string, networks ...string) string {
	gi.GinkgoHelper()

	rc := s.Successful(cln.ImagePull(ctx, SleeperImage, types.ImagePullOptions{}))
	_, _ = io.Copy(io.Discard, rc)
	rc.Close()

	endpoints := map[string]*network.EndpointSettings{}
	for _, netname := range networks {
		endpoints[netname] = &network.EndpointSettings{}
	}
	resp := s.Successful(cln.ContainerCreate(ctx,
		&container.Config{
			Image:  SleeperImage,
			Cmd:    []string{"sleep", "3600"},
			Labels: map[string]string{MobyLabel: ""},
		},
		&container.HostConfig{},
		&network.NetworkingConfig{EndpointsConfig: endpoints},
		nil,
		name))
	gi.DeferCleanup(func(ctx context.Context) {
		_ = cln.ContainerRemove(ctx, resp.ID, types.ContainerRemoveOptions{Force: true})
	})
	g.Expect(cln.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{})).To(g.Succeed())
	return resp.ID
}

// RemoveLeftovers removes any labelled test containers and networks left
// over from previous, aborted test runs.
func RemoveLeftovers(ctx context.Context, cln *client.Client) {
	labelled := filters.NewArgs(filters.Arg("label", MobyLabel))
	cntrs, err := cln.ContainerList(ctx, types.ContainerListOptions{All: true, Filters: labelled})
	if err == nil {
		for _, cntr := range cntrs {
			_ = cln.ContainerRemove(ctx, cntr.ID, types.ContainerRemoveOptions{Force: true})
		}
	}
	nets, err := cln.NetworkList(ctx, types.NetworkListOptions{Filters: labelled})
	if err == nil {
		for _, net := range nets {
			_ = cln.NetworkRemove(ctx, net.ID)
		}
	}
}
