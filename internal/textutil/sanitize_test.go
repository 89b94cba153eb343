package textutil

import "testing"

func TestIsASCIIAlphanumeric(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"AbCd12", true},
		{"25f", true},
		{"", false},
		{"ab-cd", false},
		{"ab cd", false},
		{"ab/..", false},
		{"ünï", false},
		{"１２", false},
	}
	for _, tt := range tests {
		if got := IsASCIIAlphanumeric(tt.in); got != tt.want {
			t.Errorf("IsASCIIAlphanumeric(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsSafeKey(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"3f2a9c0d", true},
		{"h1", true},
		{"with_under-score", true},
		{"", false},
		{"..", false},
		{"a/b", false},
		{"a b", false},
		{string(make([]byte, 129)), false},
	}
	for _, tt := range tests {
		if got := IsSafeKey(tt.in); got != tt.want {
			t.Errorf("IsSafeKey(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
