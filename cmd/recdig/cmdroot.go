// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/siemens/recdig/recursion"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// errNoInput signals that neither address specifications nor a file with
// specifications have been passed.
var errNoInput = errors.New("no IP addresses to scan: use --input or --file")

var (
	host            *string
	inputs          *[]string
	inputFile       *string
	timeout         *time.Duration
	workerNumber    *uint
	queryRate       *float64
	pingHosts       *bool
	unprivileged    *bool
	netnsPath       *string
	containerName   *string
	peers           *bool
	configFile      *string
	jsonOutput      *bool
	spinnerInterval *time.Duration
	debug           *bool
)

func newRootCmd() (rootCmd *cobra.Command) {
	rootCmd = &cobra.Command{
		Use:     "recdig [flags] [IP specification...]",
		Short:   "recdig scans IP addresses for open recursive DNS resolvers and fingerprints them",
		Version: "0.3",
		Long: `recdig scans IP addresses for open recursive DNS resolvers and then
tries to identify the DNS server software running on the recursing ones.

IP specifications are single IPv4 addresses (10.0.0.1), globs with octet
ranges or wildcards (10.0.0-1.1-254, 10.0.0.*), or CIDR blocks (10.0.0.0/24).
Multiple specifications can be separated by commas or whitespace.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if *configFile != "" {
				if err := applyConfig(cmd.Flags(), *configFile); err != nil {
					return err
				}
			}
			if *workerNumber < 1 || *workerNumber > 256 {
				return fmt.Errorf("--workers out of range [1..256]")
			}
			if *timeout <= 0 {
				return fmt.Errorf("--timeout must be positive")
			}
			if *queryRate < 0 {
				return fmt.Errorf("--rate must not be negative")
			}
			if *spinnerInterval < 10*time.Millisecond {
				return fmt.Errorf("--spinner must be at least 10ms")
			}
			if *peers && *containerName == "" {
				return fmt.Errorf("--peers requires --container")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if *debug {
				logrus.SetLevel(logrus.DebugLevel)
				logrus.Debugf("debug logging enabled")
			}
			if len(*inputs) == 0 && len(args) == 0 && *inputFile == "" && !*peers {
				return errNoInput // ...and let cobra show the usage.
			}
			cmd.SilenceUsage = true
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()
			return ScanAndReport(ctx, cmd, append(append([]string{}, *inputs...), args...))
		},
	}
	// Sets up the flags.
	host = rootCmd.PersistentFlags().String(
		"host", recursion.DefaultHost, "host name to resolve when probing for recursion")
	inputs = rootCmd.PersistentFlags().StringArrayP(
		"input", "i", nil, "IP specifications, separated by commas (can be repeated)")
	inputFile = rootCmd.PersistentFlags().StringP(
		"file", "f", "", "file with IP specifications, separated by commas or whitespace")
	timeout = rootCmd.PersistentFlags().Duration(
		"timeout", recursion.DefaultTimeout, "time to wait for each DNS answer")
	workerNumber = rootCmd.PersistentFlags().Uint(
		"workers", 10, "number of DNS and ping workers")
	queryRate = rootCmd.PersistentFlags().Float64(
		"rate", 0, "maximum probes started per second; 0 is unlimited")
	pingHosts = rootCmd.PersistentFlags().Bool(
		"ping", false, "ping recursing hosts not answering identification queries")
	unprivileged = rootCmd.PersistentFlags().Bool(
		"unprivileged", false, "use unprivileged UDP pings instead of ICMP")
	netnsPath = rootCmd.PersistentFlags().String(
		"netns", "", "scan from the network namespace referenced by this path")
	containerName = rootCmd.PersistentFlags().String(
		"container", "", "scan from the network namespace of this Docker container")
	peers = rootCmd.PersistentFlags().Bool(
		"peers", false, "additionally scan the containers on the networks attached to --container")
	configFile = rootCmd.PersistentFlags().String(
		"config", "", "YAML file with flag defaults")
	jsonOutput = rootCmd.PersistentFlags().Bool(
		"json", false, "print the final report as JSON instead of the live display")
	spinnerInterval = rootCmd.PersistentFlags().Duration(
		"spinner", 100*time.Millisecond, "spinner interval")
	debug = rootCmd.PersistentFlags().Bool(
		"debug", false, "enable debugging output")
	rootCmd.MarkFlagsMutuallyExclusive("netns", "container")
	return
}

// legacyArgs rewrites the single-dash "-host" flag into "--host", as cobra
// would otherwise take it for the shorthand flags "-h -o -s -t".
func legacyArgs(args []string) []string {
	rewritten := make([]string, 0, len(args))
	for idx, arg := range args {
		if arg == "--" {
			return append(rewritten, args[idx:]...)
		}
		if arg == "-host" || strings.HasPrefix(arg, "-host=") {
			arg = "-" + arg
		}
		rewritten = append(rewritten, arg)
	}
	return rewritten
}
