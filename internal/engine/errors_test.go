package engine

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorKind_ExitCode(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want int
		name string
	}{
		{KindNone, 0, "none"},
		{KindFatal, 1, "fatal"},
		{KindResource, 2, "resource"},
		{KindParse, 3, "parse"},
		{KindSchema, 4, "schema"},
		{KindModule, 5, "module"},
		{ErrorKind(42), 1, "kind(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
			if got := tt.kind.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("starting: %w", newError(KindParse, "load configuration", "HAP", io.ErrUnexpectedEOF))

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"plain error", errors.New("boom"), KindFatal},
		{"direct", newError(KindSchema, "instantiate", "x", ErrModuleNotFound), KindSchema},
		{"wrapped", wrapped, KindParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_MessageAndUnwrap(t *testing.T) {
	err := newError(KindModule, "instantiate", "video", ErrCreateFailed)

	if got, want := err.Error(), "instantiate video: engine: module create failed"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrCreateFailed) {
		t.Error("errors.Is(err, ErrCreateFailed) = false, want true")
	}

	bare := &Error{Kind: KindFatal, Op: "run"}
	if got := bare.Error(); got != "run" {
		t.Errorf("Error() = %q, want %q", got, "run")
	}
}
