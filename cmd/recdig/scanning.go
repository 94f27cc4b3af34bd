// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"

	"github.com/siemens/recdig/dnsworker"
	"github.com/siemens/recdig/fingerprint"
	"github.com/siemens/recdig/input"
	"github.com/siemens/recdig/mobynet"
	"github.com/siemens/recdig/ping"
	"github.com/siemens/recdig/recursion"
	"github.com/siemens/recdig/scan"

	"github.com/docker/docker/client"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// ScanAndReport scans the specified IP specifications, as well as those from
// an optional input file, for open recursive resolvers, and then identifies the
// DNS server software running on the recursing ones. Depending on the flags,
// the scan runs inside another network namespace, such as a container's.
// Results are either shown live or finally reported as JSON.
func ScanAndReport(ctx context.Context, cmd *cobra.Command, specs []string) error {
	in := scan.Input{Tokens: input.Tokens(specs...)}
	if *inputFile != "" {
		tokens, err := readInputFile(*inputFile)
		if err != nil {
			return err
		}
		in.FileTokens = tokens
	}

	netnsref := *netnsPath
	if *containerName != "" {
		cln, err := client.NewClientWithOpts(
			client.WithHost("unix:///var/run/docker.sock"),
			client.WithAPIVersionNegotiation(),
		)
		if err != nil {
			return fmt.Errorf("cannot connect to the Docker daemon: %w", err)
		}
		defer cln.Close()
		netnsref, err = mobynet.ContainerNetns(ctx, cln, *containerName)
		if err != nil {
			return fmt.Errorf("cannot scan from container: %w", err)
		}
		if *peers {
			addrs, err := mobynet.AttachedAddresses(ctx, cln, *containerName)
			if err != nil {
				return fmt.Errorf("cannot discover peer containers: %w", err)
			}
			in.Tokens = append(in.Tokens, addrs...)
		}
	}

	// Both the recursion probes and the fingerprinting share the same pool of
	// workers, which also takes care of switching into the network namespace
	// to scan from.
	pool := dnsworker.New(int(*workerNumber),
		dnsworker.InNetworkNamespace(netnsref),
		dnsworker.WithRateLimit(*queryRate))
	defer pool.StopWait()
	if err := pool.CheckNetworkNamespace(); err != nil {
		return fmt.Errorf("cannot scan from network namespace %s: %w", netnsref, err)
	}

	prober := recursion.New(
		recursion.WithHost(*host),
		recursion.WithTimeout(*timeout))
	nsid := &fingerprint.NSIDProbe{
		Host:    prober.Host(),
		Timeout: *timeout,
	}
	if *pingHosts {
		var opts []ping.PingerOption
		if *unprivileged {
			opts = append(opts, ping.AsUnprivileged())
		}
		nsid.Pinger = ping.New(opts...)
	}

	var scanopts []scan.ScannerOption
	if cmd.Flags().Changed("host") {
		scanopts = append(scanopts, scan.WithHostCheck(net.DefaultResolver))
	}
	var reporter scan.ProgressReporter
	var r *renderer
	if !*jsonOutput {
		r = newRenderer(cmd.OutOrStdout(), *spinnerInterval)
		reporter = r
	}
	scanner := scan.New(prober, fingerprint.New(nsid), pool, reporter, scanopts...)
	report, err := scanner.Run(ctx, in)
	if r != nil {
		r.Stop()
	}
	if err != nil {
		var invalidErr *input.InvalidSpecsError
		if errors.As(err, &invalidErr) {
			printInvalid(cmd.OutOrStdout(), invalidErr.Specs())
			cmd.SilenceErrors = true
		}
		return err
	}

	if *jsonOutput {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("cannot render report: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}
	switch {
	case report.Interrupted:
		fmt.Fprintln(cmd.OutOrStdout(), errorStyle.Styled("scan interrupted"))
	case len(report.Candidates) == 0:
		fmt.Fprintln(cmd.OutOrStdout(), "no IP addresses to scan")
	case len(report.Recursing) == 0:
		fmt.Fprintf(cmd.OutOrStdout(), "none of %d IPs is recursing\n", len(report.Candidates))
	}
	return nil
}

// readInputFile returns the IP specification tokens from the file at the
// specified path.
func readInputFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file %q doesn't exist", path)
		}
		return nil, fmt.Errorf("cannot open file: %w", err)
	}
	defer f.Close()
	return input.ReadTokens(f)
}
