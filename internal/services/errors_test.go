package services_test

import (
	"errors"
	"strings"
	"testing"

	"bsrbot/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "device", "push", "adb push failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"device", "push", "adb push failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"validation", services.Wrap(services.ErrValidation, "catalog", "decode", "bad", nil), true},
		{"permission", services.Wrap(services.ErrPermission, "router", "quit", "", nil), true},
		{"not found", services.Wrap(services.ErrNotFound, "catalog", "lookup", "", nil), true},
		{"external", services.Wrap(services.ErrExternalTool, "device", "pull", "", errors.New("exit 1")), false},
		{"plain", errors.New("io"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.IsUserError(tt.err); got != tt.want {
				t.Fatalf("IsUserError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
