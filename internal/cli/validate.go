package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/OmniNode-ai/omnibase-core-sub006/internal/compiler"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/validator"
)

// ErrContractRejected is returned by Validate when the contract has errors.
var ErrContractRejected = errors.New("contract rejected")

// Output formats for Validate.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Validate parses the contract at path, validates it and writes the report to w.
// Warnings alone never reject a contract.
func Validate(w io.Writer, path, format string) error {
	c, err := compiler.NewParser().ParseFile(path)
	if err != nil {
		return err
	}
	res := validator.Validate(c)
	report := res.Report(c.Name)

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	case FormatText, "":
		writeTextReport(w, path, report)
	default:
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}

	if !report.Valid {
		return ErrContractRejected
	}
	return nil
}

func writeTextReport(w io.Writer, path string, r validator.Report) {
	for _, f := range r.Errors {
		fmt.Fprintf(w, "error   %s %s: %s\n", f.Code, f.Location, f.Message)
	}
	for _, f := range r.Warnings {
		fmt.Fprintf(w, "warning %s %s: %s\n", f.Code, f.Location, f.Message)
	}
	if r.Valid {
		fmt.Fprintf(w, "%s: contract %q is valid (%d warnings)\n", path, r.Contract, len(r.Warnings))
		return
	}
	fmt.Fprintf(w, "%s: contract %q rejected with %d errors\n", path, r.Contract, len(r.Errors))
}
