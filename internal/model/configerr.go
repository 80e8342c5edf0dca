package model

import (
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

// CueErrDetails flattens a CUE validation error into one human line per
// problem, with the config path and file position when known.
func CueErrDetails(err error) []string {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return []string{err.Error()}
	}

	details := make([]string, 0, len(errs))
	for _, e := range errs {
		var b strings.Builder
		if path := strings.Join(e.Path(), "."); path != "" {
			fmt.Fprintf(&b, "%s: ", path)
		}
		format, args := e.Msg()
		fmt.Fprintf(&b, format, args...)
		if pos := e.Position(); pos.IsValid() {
			fmt.Fprintf(&b, " (%s:%d:%d)", pos.Filename(), pos.Line(), pos.Column())
		}
		details = append(details, b.String())
	}
	return details
}
