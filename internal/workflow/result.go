package workflow

import "time"

// Result is the document returned to synchronous callers.
type Result struct {
	ExecutionArn string  `json:"executionArn"`
	Name         string  `json:"name"`
	StartDate    float64 `json:"startDate"`
	StopDate     float64 `json:"stopDate"`
	Status       Status  `json:"status"`
	Output       string  `json:"output,omitempty"`
	Error        string  `json:"error,omitempty"`
	Cause        string  `json:"cause,omitempty"`
}

// Result renders exec for callers. Dates are epoch seconds.
func (e *Execution) Result() Result {
	return Result{
		ExecutionArn: e.ARN,
		Name:         e.Name,
		StartDate:    epochSeconds(e.StartDate),
		StopDate:     epochSeconds(e.StopDate),
		Status:       e.Status,
		Output:       string(e.Output),
		Error:        e.Error,
		Cause:        e.Cause,
	}
}

func epochSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixMilli()) / 1000
}
