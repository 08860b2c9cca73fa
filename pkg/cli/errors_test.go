package cli

import (
	"errors"
	"testing"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("estimator.mode", "unknown mode \"bpe\"")

	expected := "config error in estimator.mode: unknown mode \"bpe\""
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if err.Field != "estimator.mode" {
		t.Errorf("Field = %q", err.Field)
	}
}

func TestCommandError(t *testing.T) {
	underlying := errors.New("provider unreachable")
	err := NewCommandError("doctor", underlying)

	expected := "command doctor failed: provider unreachable"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is() should see through CommandError")
	}
	if err.Unwrap() != underlying {
		t.Errorf("Unwrap() = %v", err.Unwrap())
	}
}
