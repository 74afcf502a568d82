// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inventra Contributors

package errutil

import "github.com/samber/oops"

// Code returns the oops error code carried by err, or "" if there is none.
// When errors are nested, the innermost code wins.
func Code(err error) string {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// HasCode reports whether err carries the given oops error code.
func HasCode(err error, code string) bool {
	return code != "" && Code(err) == code
}
