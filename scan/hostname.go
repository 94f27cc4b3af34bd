// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

// ErrHostname signals a host name override that cannot be resolved.
var ErrHostname = errors.New("invalid host name")

// HostResolver resolves host names using the system's usual means; a
// *net.Resolver fits the bill.
type HostResolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// CheckHostname normalizes the specified host name and checks that it
// resolves using the system's resolver (and not any of the scan targets). It
// returns the normalized host name in its ASCII form.
func CheckHostname(ctx context.Context, resolver HostResolver, host string) (string, error) {
	name, err := idna.Lookup.ToASCII(strings.TrimSuffix(strings.TrimSpace(host), "."))
	if err != nil || name == "" {
		return "", fmt.Errorf("%w: the FQDN %q is invalid or cannot be resolved", ErrHostname, host)
	}
	if _, err := resolver.LookupHost(ctx, name); err != nil {
		return "", fmt.Errorf("%w: the FQDN %q is invalid or cannot be resolved", ErrHostname, host)
	}
	return name, nil
}
