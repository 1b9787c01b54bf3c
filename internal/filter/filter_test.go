package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type run struct {
	ID         int     `json:"id"`
	Mode       string  `json:"mode"`
	Throughput float64 `json:"throughput"`
}

func TestApply(t *testing.T) {
	runs := []run{
		{ID: 1, Mode: "keepalive", Throughput: 1200},
		{ID: 2, Mode: "close", Throughput: 300},
		{ID: 3, Mode: "keepalive", Throughput: 900},
	}

	tests := []struct {
		name       string
		expression string
		want       string
	}{
		{"filter by mode", "[?mode=='close'].id", "[\n  2\n]"},
		{"project field", "[].throughput", "[\n  1200,\n  300,\n  900\n]"},
		{"missing field", "[0].nope", "null"},
		{"throughput by mode", "[?mode=='keepalive'].throughput", "[\n  1200,\n  900\n]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(runs, tt.expression)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply_EmptyExpressionIndents(t *testing.T) {
	got, err := Apply(map[string]int{"a": 1}, "")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", got)
}

func TestApply_InvalidExpression(t *testing.T) {
	_, err := Apply([]int{1}, "[?")
	assert.Error(t, err)
}
