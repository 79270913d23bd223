package parse

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "already canonical",
			input: `{"a":1}`,
			want:  `{"a":1}`,
		},
		{
			name:  "fenced value",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a":1}`,
		},
		{
			name:  "prose around a valid value",
			input: `Sure, here it is: {"a": 1} enjoy!`,
			want:  `{"a":1}`,
		},
		{
			name:  "bare scalar passes through",
			input: " 42 ",
			want:  "42",
		},
		{
			name:  "single quotes repaired",
			input: `{'a': 1}`,
			want:  `{"a":1}`,
		},
		{
			name:  "truncated value repaired",
			input: `{"a": [1, 2`,
			want:  `{"a":[1,2]}`,
		},
		{
			name:  "broken value behind prose repaired",
			input: "Result:\n{a: 1}",
			want:  `{"a":1}`,
		},
		{
			name:    "nothing recoverable",
			input:   "no data here",
			wantErr: true,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Normalize() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_NoValueSentinel(t *testing.T) {
	_, err := Normalize("plain prose with no brackets")
	if !errors.Is(err, ErrNoValue) {
		t.Errorf("Normalize() error = %v, want ErrNoValue", err)
	}
}
