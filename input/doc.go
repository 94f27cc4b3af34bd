/*
Package input turns raw address specification tokens, as given inline on the
command line or read from a file, into a [ValidationResult]: the deduplicated
and ascending set of valid candidate addresses, as well as the list of all
invalid specifications.

Commas, blanks and newlines are all interchangeable token separators; empty
tokens are ignored.

	tokens := input.Tokens("10.0.0.1,10.0.0.2", "192.168.0.0/30")
	res := input.Normalize(tokens)
	if err := res.Err(); err != nil {
	    // err lists every invalid specification
	}
*/
package input
