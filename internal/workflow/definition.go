package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDefinition = errors.New("invalid workflow definition")
	ErrUnknownState      = errors.New("unknown state")
	ErrNoChoiceMatched   = errors.New("no choice rule matched")
	ErrTransitionLimit   = errors.New("transition limit exceeded")
)

// Definition is a named state graph.
type Definition struct {
	Name    string
	StartAt StateName
	States  map[StateName]State
	// Decode turns the raw execution input into the initial Data.
	Decode func(input []byte) (*Data, error)
}

// Validate checks the graph is closed and can terminate.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if d.Decode == nil {
		return fmt.Errorf("%w: decode is required", ErrInvalidDefinition)
	}
	if _, ok := d.States[d.StartAt]; !ok {
		return fmt.Errorf("%w: start state %q: %w", ErrInvalidDefinition, d.StartAt, ErrUnknownState)
	}

	terminals := 0
	for name, st := range d.States {
		if st == nil {
			return fmt.Errorf("%w: state %q is nil", ErrInvalidDefinition, name)
		}
		if isTerminal(st) {
			terminals++
			continue
		}
		targets := st.Targets()
		if len(targets) == 0 {
			return fmt.Errorf("%w: state %q has no transitions", ErrInvalidDefinition, name)
		}
		for _, next := range targets {
			if _, ok := d.States[next]; !ok {
				return fmt.Errorf("%w: state %q targets %q: %w", ErrInvalidDefinition, name, next, ErrUnknownState)
			}
		}
	}
	if terminals == 0 {
		return fmt.Errorf("%w: no terminal state", ErrInvalidDefinition)
	}
	return nil
}
