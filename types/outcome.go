// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import (
	"net/netip"
	"strings"

	"github.com/miekg/dns"
)

// ProbeOutcome is the result of testing a single address as a recursive
// resolver for a particular host name.
type ProbeOutcome struct {
	Address netip.Addr `json:"address"`
	Host    string     `json:"host"`              // host name queried, without trailing dot.
	Verdict Verdict    `json:"verdict"`           // recursing or not
	Reason  Reason     `json:"reason"`            // why the verdict was reached
	Records []string   `json:"records,omitempty"` // resolved A values, in answer order.
	Rcode   int        `json:"rcode"`             // response code, if there was a response.
	Err     error      `json:"-"`                 // optional transport/protocol error.
}

// IsRecursing returns true if the probed address answered with records.
func (o ProbeOutcome) IsRecursing() bool { return o.Verdict == Recursing }

// String renders the outcome the way it gets reported to users.
func (o ProbeOutcome) String() string {
	if o.Verdict == Recursing {
		return o.Address.String() + " resolved to " + strings.Join(o.Records, ", ") +
			" for the lookup of " + o.Host
	}
	switch o.Reason {
	case ReasonNegative:
		return o.Address.String() + " did not recurse (" + dns.RcodeToString[o.Rcode] + ")"
	case ReasonTimeout:
		return o.Address.String() + " did not answer in time"
	}
	msg := o.Address.String() + " did not recurse"
	if o.Err != nil {
		msg += ": " + o.Err.Error()
	}
	return msg
}

// FingerprintResult is the outcome of identifying the DNS server software
// running on a recursing address.
type FingerprintResult struct {
	Address    netip.Addr `json:"address"`
	Identified bool       `json:"identified"`
	State      string     `json:"state,omitempty"`  // host state, such as "up".
	Banner     string     `json:"banner,omitempty"` // server identity, if identified.
	Reason     string     `json:"reason,omitempty"` // why the software stays unknown.
}

// String renders the fingerprint result the way it gets reported to users.
func (f FingerprintResult) String() string {
	if f.Identified {
		return f.Address.String() + " is " + f.State + " and runs " + f.Banner
	}
	return f.Address.String() + " is recursing, but couldn't determine running DNS software"
}
