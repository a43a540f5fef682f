package services

import (
	"errors"
	"testing"
)

func TestWrapClassification(t *testing.T) {
	err := Wrap(ErrTransient, "animating", "poll_task", "provider returned 429", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatal("expected transient marker to survive wrapping")
	}
	if errors.Is(err, ErrValidation) {
		t.Fatal("unexpected validation marker")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrExternalTool, "captioning", "run_ffmpeg", "", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to survive wrapping")
	}
	if got := err.Error(); got != "captioning: run_ffmpeg: connection reset" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestErrorKind(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind string
	}{
		{"validation", Wrap(ErrValidation, "storyboarding", "parse", "bad json", nil), "validation"},
		{"configuration", Wrap(ErrConfiguration, "narrating", "synthesize", "missing key", nil), "configuration"},
		{"not found", Wrap(ErrNotFound, "voicing", "inputs", "no audio", nil), "not_found"},
		{"external", Wrap(ErrExternalTool, "merging", "concat", "", errors.New("exit 1")), "external_tool"},
		{"transient", Wrap(ErrTransient, "animating", "poll", "", nil), "transient"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var svcErr *ServiceError
			if !errors.As(tc.err, &svcErr) {
				t.Fatal("expected *ServiceError")
			}
			if got := svcErr.ErrorKind(); got != tc.kind {
				t.Fatalf("ErrorKind = %q, want %q", got, tc.kind)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(Wrap(ErrTimeout, "extracting", "poll", "", nil)) {
		t.Fatal("timeout should be transient")
	}
	if IsTransient(Wrap(ErrValidation, "extracting", "parse", "", nil)) {
		t.Fatal("validation should not be transient")
	}
}
