package flow

// ResultType tells the host what to do with a step result.
type ResultType string

const (
	// ResultForm asks the host to render Form and submit the answer to the same flow.
	ResultForm ResultType = "form"
	// ResultCreateEntry ends the flow. For setup it carries the new record,
	// for options the merged options.
	ResultCreateEntry ResultType = "create_entry"
)

// Result is the outcome of one step.
type Result struct {
	Type    ResultType             `json:"type"`
	FlowID  string                 `json:"flow_id,omitempty"`
	Handler string                 `json:"handler,omitempty"`
	Form    *Form                  `json:"form,omitempty"`
	Title   string                 `json:"title"`
	Data    map[string]interface{} `json:"data,omitempty"`
	EntryID string                 `json:"entry_id,omitempty"`
}

// Terminal reports whether the flow is finished after this result.
func (r *Result) Terminal() bool {
	return r.Type != ResultForm
}

func showForm(form *Form) *Result {
	return &Result{Type: ResultForm, Form: form}
}
