package output

import (
	"fmt"
	"io"

	"github.com/shivank21/rlconf/internal/lint"
)

// TextFormatter outputs diagnostics in human-readable text format.
// When Color is true, the file location is printed in cyan, warning
// rule IDs in yellow, and error rule IDs in red.
type TextFormatter struct {
	Color bool
}

// Format writes each diagnostic as a single line in the pattern:
// file:line:col rule message
func (f *TextFormatter) Format(w io.Writer, diagnostics []lint.Diagnostic) error {
	for _, d := range diagnostics {
		var err error
		if f.Color {
			ruleColor := "\033[33m"
			if d.Severity == lint.Error {
				ruleColor = "\033[31m"
			}
			_, err = fmt.Fprintf(w, "\033[36m%s:%d:%d\033[0m %s%s\033[0m %s\n",
				d.File, d.Line, d.Column, ruleColor, d.RuleID, d.Message)
		} else {
			_, err = fmt.Fprintf(w, "%s:%d:%d %s %s\n",
				d.File, d.Line, d.Column, d.RuleID, d.Message)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
