package natsadapter

import "testing"

func TestLocationSubject(t *testing.T) {
	tests := []struct {
		session string
		want    string
	}{
		{"", "centers.location.anonymous"},
		{"abc-123", "centers.location.abc-123"},
		{"a.b", "centers.location.a_b"},
		{"*>", "centers.location.__"},
		{"with space", "centers.location.with_space"},
	}
	for _, tt := range tests {
		if got := LocationSubject(tt.session); got != tt.want {
			t.Errorf("LocationSubject(%q) = %q, want %q", tt.session, got, tt.want)
		}
	}
}
