package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
)

func TestChecker_Handle(t *testing.T) {
	c := &checker{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	cases := map[string]bool{
		"Hawaiian":            true,
		"pineapple":           true,
		"PINEAPPLE":           true,
		"Pepperoni":           false,
		"Pineapple Pepperoni": false,
		"":                    false,
	}
	for flavour, want := range cases {
		res, err := c.Handle(context.Background(), flavour)
		if err != nil {
			t.Fatalf("Handle(%q): unexpected error: %v", flavour, err)
		}
		if res.ContainsPineapple != want {
			t.Errorf("Handle(%q) = %v, want %v", flavour, res.ContainsPineapple, want)
		}
	}
}

func TestChecker_OutputShape(t *testing.T) {
	c := &checker{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	res, _ := c.Handle(context.Background(), "Hawaiian")

	out, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"containsPineapple":true}` {
		t.Fatalf("unexpected output: %s", out)
	}
}
