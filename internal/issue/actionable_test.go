// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableErrorMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewErrorContext().
		WithOperation("clone hook repository").
		WithResource("https://example.com/hooks").
		Wrap(cause).
		Build()

	want := "failed to clone hook repository: https://example.com/hooks: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
}

func TestFormatWithSuggestions(t *testing.T) {
	err := NewErrorContext().
		WithOperation("install environment").
		WithSuggestion("Check network access").
		WithSuggestion("Run 'prekit clean' and retry").
		Wrap(errors.New("pip exited with code 1")).
		Build()

	out := err.Format(false)
	if !strings.Contains(out, "• Check network access") {
		t.Errorf("suggestions missing:\n%s", out)
	}
	if strings.Contains(out, "Error chain") {
		t.Error("non-verbose format includes error chain")
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "Error chain:") || !strings.Contains(verbose, "pip exited with code 1") {
		t.Errorf("verbose format missing chain:\n%s", verbose)
	}
}

func TestBuildRequiresOperation(t *testing.T) {
	if err := NewErrorContext().WithResource("x").BuildError(); err != nil {
		t.Errorf("BuildError without operation = %v, want nil", err)
	}
}

func TestWrapWithOperationNil(t *testing.T) {
	if got := WrapWithOperation(nil, "anything"); got != nil {
		t.Errorf("WrapWithOperation(nil) = %v", got)
	}
}
