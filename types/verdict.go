// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "fmt"

// Verdict tells whether a probed address behaves as an open recursive
// resolver.
type Verdict int

// The recursion verdicts of a probed address.
const (
	NotRecursing Verdict = iota // no answer records, negative answer, or timeout.
	Recursing                   // answered the query with address records.
)

// String returns the clear-text representation of a Verdict value.
func (v Verdict) String() string {
	switch v {
	case NotRecursing:
		return "not recursing"
	case Recursing:
		return "recursing"
	}
	return fmt.Sprintf("Verdict(%d)", v)
}

// MarshalText renders a Verdict in its clear-text form, so that JSON reports
// stay readable.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Reason details how a [Verdict] came about. Different reasons may fold into
// the same verdict, yet callers (and tests) can still tell them apart.
type Reason int

// The reasons behind a recursion verdict.
const (
	ReasonAnswered Reason = iota // one or more A records returned.
	ReasonNegative               // response, but without A records or with a non-success rcode.
	ReasonTimeout                // no response within the probe timeout.
	ReasonError                  // transport or protocol error.
)

// String returns the clear-text representation of a Reason value.
func (r Reason) String() string {
	switch r {
	case ReasonAnswered:
		return "answered"
	case ReasonNegative:
		return "negative"
	case ReasonTimeout:
		return "timeout"
	case ReasonError:
		return "error"
	}
	return fmt.Sprintf("Reason(%d)", r)
}

// MarshalText renders a Reason in its clear-text form.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
