package validation

// OrderRequest is the workflow input. Only flavour is inspected; size and
// quantity pass through untouched.
type OrderRequest struct {
	Flavour  *string     `json:"flavour" validate:"required"` // must be present and a string; may be empty
	Size     interface{} `json:"size,omitempty"`
	Quantity interface{} `json:"quantity,omitempty"`
}

// FlavourValue returns the flavour, or "" when absent.
func (r OrderRequest) FlavourValue() string {
	if r.Flavour == nil {
		return ""
	}
	return *r.Flavour
}
