// ABOUTME: Tests for shared utility functions used by CLI commands
// ABOUTME: Verifies truncate and flag validation helpers

package commands

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{
			name:   "short string unchanged",
			input:  "hello",
			maxLen: 10,
			want:   "hello",
		},
		{
			name:   "exact length unchanged",
			input:  "hello",
			maxLen: 5,
			want:   "hello",
		},
		{
			name:   "long string truncated",
			input:  "hello world",
			maxLen: 8,
			want:   "hello...",
		},
		{
			name:   "very short maxLen",
			input:  "hello",
			maxLen: 2,
			want:   "he",
		},
		{
			name:   "multibyte runes kept whole",
			input:  "héllo wörld",
			maxLen: 7,
			want:   "héll...",
		},
		{
			name:   "empty string",
			input:  "",
			maxLen: 5,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestValidatePositiveFloat(t *testing.T) {
	tests := []struct {
		value   float64
		wantErr bool
	}{
		{1, false},
		{0.5, false},
		{0, true},
		{-2, true},
	}

	for _, tt := range tests {
		err := validatePositiveFloat(tt.value, "rate")
		if (err != nil) != tt.wantErr {
			t.Errorf("validatePositiveFloat(%g) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}
