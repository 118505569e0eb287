package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightSum(t *testing.T) {
	t.Parallel()
	require.InDelta(t, 1.0, WeightSum(), 1e-9)
}

func TestOverallScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jdMatch     float64
		grammar     int
		repetition  int
		format      int
		readability float64
		expected    float64
	}{
		{
			name:        "zero_match_clean_resume",
			jdMatch:     0,
			readability: 65,
			// 0*0.70 + 100*0.05 + 100*0.05 + 100*0.15 + 65*0.05
			expected: 28.25,
		},
		{
			name:        "strong_match_clean_resume",
			jdMatch:     90,
			readability: 60,
			expected:    91.0,
		},
		{
			name:        "issues_reduce_component_scores",
			jdMatch:     80,
			grammar:     2,
			repetition:  1,
			format:      1,
			readability: 70,
			// 56 + 94*0.05 + 95*0.05 + 92*0.15 + 3.5
			expected: 82.75,
		},
		{
			name:        "negative_counts_treated_as_zero",
			jdMatch:     50,
			grammar:     -3,
			repetition:  -1,
			format:      -2,
			readability: 65,
			expected:    63.25,
		},
		{
			name:        "perfect_inputs_capped_at_100",
			jdMatch:     100,
			readability: 90,
			expected:    99.5,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := OverallScore(tc.jdMatch, tc.grammar, tc.repetition, tc.format, tc.readability)
			assert.InDelta(t, tc.expected, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}

func TestOverallScore_ManyIssuesFloorAtZero(t *testing.T) {
	t.Parallel()
	// 50 format issues would push the component below zero without the floor.
	got := OverallScore(0, 50, 50, 50, 35)
	assert.GreaterOrEqual(t, got, 0.0)
}
