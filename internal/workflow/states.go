package workflow

import "context"

// State is one node of a Definition. Non-terminal states return the name
// of the next state.
type State interface {
	// Targets lists every state this one may transition to.
	Targets() []StateName
	Execute(ctx context.Context, data *Data) (StateName, error)
}

// Task runs Fn and moves to Next.
type Task struct {
	Next StateName
	Fn   func(ctx context.Context, data *Data) error
}

func (t Task) Targets() []StateName { return []StateName{t.Next} }

func (t Task) Execute(ctx context.Context, data *Data) (StateName, error) {
	if err := t.Fn(ctx, data); err != nil {
		return "", err
	}
	return t.Next, nil
}

// ChoiceRule selects Next when Condition holds.
type ChoiceRule struct {
	Condition func(data *Data) bool
	Next      StateName
}

// Choice picks the first matching rule, else Default.
type Choice struct {
	Rules   []ChoiceRule
	Default StateName
}

func (c Choice) Targets() []StateName {
	out := make([]StateName, 0, len(c.Rules)+1)
	for _, r := range c.Rules {
		out = append(out, r.Next)
	}
	if c.Default != "" {
		out = append(out, c.Default)
	}
	return out
}

func (c Choice) Execute(_ context.Context, data *Data) (StateName, error) {
	for _, r := range c.Rules {
		if r.Condition(data) {
			return r.Next, nil
		}
	}
	if c.Default == "" {
		return "", ErrNoChoiceMatched
	}
	return c.Default, nil
}

// Succeed ends the execution as SUCCEEDED.
type Succeed struct{}

func (Succeed) Targets() []StateName { return nil }

func (Succeed) Execute(context.Context, *Data) (StateName, error) { return "", nil }

// Fail ends the execution as FAILED with a business error and cause.
type Fail struct {
	Error string
	Cause string
}

func (Fail) Targets() []StateName { return nil }

func (Fail) Execute(context.Context, *Data) (StateName, error) { return "", nil }

func isTerminal(s State) bool {
	switch s.(type) {
	case Succeed, Fail, *Succeed, *Fail:
		return true
	default:
		return false
	}
}
