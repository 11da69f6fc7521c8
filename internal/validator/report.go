package validator

// Finding is the serializable form of an error or warning.
type Finding struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Location string `json:"location"`
}

// Report is the serializable form of a Result, used by the CLI and the server surfaces.
type Report struct {
	Contract string    `json:"contract"`
	Valid    bool      `json:"valid"`
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
}

// Report converts the result for the named contract.
// Errors and Warnings are never nil so that JSON consumers always see arrays.
func (r Result) Report(contract string) Report {
	rep := Report{
		Contract: contract,
		Valid:    r.Valid,
		Errors:   make([]Finding, 0, len(r.Errors)),
		Warnings: make([]Finding, 0, len(r.Warnings)),
	}
	for _, e := range r.Errors {
		rep.Errors = append(rep.Errors, Finding{Code: e.Code, Message: e.Message, Location: e.Location.String()})
	}
	for _, w := range r.Warnings {
		rep.Warnings = append(rep.Warnings, Finding{Code: w.Code, Message: w.Message, Location: w.Location.String()})
	}
	return rep
}
