// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package input

import (
	"io"
	"net/netip"
	"strings"

	"github.com/siemens/recdig/addrspec"

	"github.com/pkg/errors"
	"go4.org/netipx"
)

// InvalidSpec is an address specification that failed to parse, together
// with the reason.
type InvalidSpec struct {
	Spec string // original specification token
	Err  error  // reason, wrapping one of the addrspec.Err... sentinels.
}

// ValidationResult partitions address specifications into the valid candidate
// addresses and the invalid specifications.
type ValidationResult struct {
	Valid   []netip.Addr  // deduplicated, in ascending order.
	Invalid []InvalidSpec // in order of first appearance.
}

// Err returns an *InvalidSpecsError if there is at least one invalid
// specification, otherwise nil.
func (r ValidationResult) Err() error {
	if len(r.Invalid) == 0 {
		return nil
	}
	return &InvalidSpecsError{Invalid: r.Invalid}
}

// InvalidSpecsError reports all invalid specifications at once.
type InvalidSpecsError struct {
	Invalid []InvalidSpec
}

// Specs returns the original tokens of all invalid specifications.
func (e *InvalidSpecsError) Specs() []string {
	specs := make([]string, 0, len(e.Invalid))
	for _, inv := range e.Invalid {
		specs = append(specs, inv.Spec)
	}
	return specs
}

func (e *InvalidSpecsError) Error() string {
	return "the following IPs are invalid: " + strings.Join(e.Specs(), ", ")
}

// isSeparator reports list separators between specification tokens.
func isSeparator(r rune) bool {
	switch r {
	case ',', ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

// Tokens splits inline arguments into individual specification tokens.
func Tokens(args ...string) []string {
	var tokens []string
	for _, arg := range args {
		tokens = append(tokens, strings.FieldsFunc(arg, isSeparator)...)
	}
	return tokens
}

// ReadTokens reads all specification tokens from r. Callers are expected to
// have checked that the underlying file exists.
func ReadTokens(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read address specifications")
	}
	return Tokens(string(data)), nil
}

// Normalize parses all specification tokens and returns the combined
// validation result. Normalizing the same tokens always gives the same result.
func Normalize(tokens []string) ValidationResult {
	var res ValidationResult
	var set netipx.IPSetBuilder
	for _, token := range tokens {
		if addrspec.Strip(token) == "" {
			continue
		}
		addrs, err := addrspec.Parse(token)
		if err != nil {
			res.Invalid = append(res.Invalid, InvalidSpec{Spec: addrspec.Strip(token), Err: err})
			continue
		}
		for _, addr := range addrs {
			set.Add(addr)
		}
	}
	ipset, _ := set.IPSet() // only valid addresses ever get added.
	for _, r := range ipset.Ranges() {
		for addr := r.From(); addr.IsValid() && addr.Compare(r.To()) <= 0; addr = addr.Next() {
			res.Valid = append(res.Valid, addr)
		}
	}
	return res
}
