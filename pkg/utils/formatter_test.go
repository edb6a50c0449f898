package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteCountSI(t *testing.T) {
	tests := []struct {
		name     string
		bytes    int
		expected string
	}{
		{
			name:     "zero bytes",
			bytes:    0,
			expected: "0 B",
		},
		{
			name:     "bytes below unit",
			bytes:    999,
			expected: "999 B",
		},
		{
			name:     "exact kilobyte",
			bytes:    1000,
			expected: "1.0 kB",
		},
		{
			name:     "fractional kilobytes",
			bytes:    1500,
			expected: "1.5 kB",
		},
		{
			name:     "megabytes",
			bytes:    2500000,
			expected: "2.5 MB",
		},
		{
			name:     "gigabytes",
			bytes:    1000000000,
			expected: "1.0 GB",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ByteCountSI(tc.bytes))
		})
	}
}
