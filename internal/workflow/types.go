package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jhkiehna/pizza-tracker/internal/orders"
	"github.com/jhkiehna/pizza-tracker/internal/validation"
)

// StateName identifies a state within a Definition.
type StateName string

// Status is the lifecycle status of an Execution.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
	StatusTimedOut  Status = "TIMED_OUT"
)

// Error names reported by the machine itself. Fail states carry their own.
const (
	ErrorTimeout    = "States.Timeout"
	ErrorTaskFailed = "States.TaskFailed"
	ErrorRuntime    = "States.Runtime"
)

// Data is the state document threaded through an execution.
type Data struct {
	Input             json.RawMessage
	Order             validation.OrderRequest
	PineappleAnalysis *orders.PineappleAnalysis
	Status            orders.Status
	MessageID         string
}

type dataOutput struct {
	Order             json.RawMessage           `json:"order"`
	PineappleAnalysis *orders.PineappleAnalysis `json:"pineappleAnalysis,omitempty"`
	Status            orders.Status             `json:"status,omitempty"`
	MessageID         string                    `json:"messageId,omitempty"`
}

// Output renders the document returned by a successful execution.
func (d *Data) Output() (json.RawMessage, error) {
	return json.Marshal(dataOutput{
		Order:             d.Input,
		PineappleAnalysis: d.PineappleAnalysis,
		Status:            d.Status,
		MessageID:         d.MessageID,
	})
}

// Transition is one entry in the execution history.
type Transition struct {
	State    StateName     `json:"state"`
	Next     StateName     `json:"next,omitempty"`
	Entered  time.Time     `json:"entered"`
	Duration time.Duration `json:"duration"`
	Err      string        `json:"error,omitempty"`
}

// Execution is one run of a Definition.
type Execution struct {
	ID        string
	ARN       string
	Name      string // execution name, equal to ID
	Workflow  string // definition name
	StartDate time.Time
	StopDate  time.Time
	Status    Status
	State     StateName
	Error     string
	Cause     string
	Output    json.RawMessage
	History   []Transition
}

// Runner runs a workflow to completion for one raw input.
type Runner interface {
	Run(ctx context.Context, input []byte) *Execution
}
