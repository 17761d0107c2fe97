package config

import (
	"testing"
	"time"
)

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want time.Duration
		ok   bool
	}{
		{name: "empty", raw: "", want: 0, ok: true},
		{name: "spaces", raw: "  ", want: 0, ok: true},
		{name: "seconds", raw: "10s", want: 10 * time.Second, ok: true},
		{name: "compound", raw: "1h30m", want: 90 * time.Minute, ok: true},
		{name: "negative", raw: "-5s", ok: false},
		{name: "garbage", raw: "soon", ok: false},
		{name: "bare number", raw: "10", ok: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDurationField("adhan.tick", tt.raw)
			if tt.ok && err != nil {
				t.Fatalf("error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Fatal("expected error")
			}
			if tt.ok && got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()
	got, err := ParseDurationOrDefault("adhan.tick", "", time.Second)
	if err != nil || got != time.Second {
		t.Fatalf("got %v, %v", got, err)
	}
	got, err = ParseDurationOrDefault("adhan.tick", "250ms", time.Second)
	if err != nil || got != 250*time.Millisecond {
		t.Fatalf("got %v, %v", got, err)
	}
	if _, err := ParseDurationOrDefault("adhan.tick", "x", time.Second); err == nil {
		t.Fatal("expected error")
	}
}
