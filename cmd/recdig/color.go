// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import "github.com/muesli/termenv"

var (
	progressStyle   = termenv.Style{}.Foreground(termenv.ANSIYellow)
	recursingStyle  = termenv.Style{}.Foreground(termenv.ANSIGreen)
	identifiedStyle = termenv.Style{}.Foreground(termenv.ANSIGreen).Bold()
	unknownStyle    = termenv.Style{}.Foreground(termenv.ANSIYellow)
	errorStyle      = termenv.Style{}.Foreground(termenv.ANSIRed)
)
