package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/smiles-algebra/pkg/errors"
)

func TestQueryCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"ring size", []string{"$.size", "c1ccccc1"}, "6\n"},
		{"ring atom", []string{"$.atom", "c1ccccc1"}, "c\n"},
		{"fused sizes", []string{"$.rings[*].size", "c1ccc2ccccc2c1"}, "6\n6\n"},
		{"component types", []string{"$.components[*].type", "Cc1ccccc1"}, "linear\nring\n"},
		{"no match", []string{"$.layout", "CCO"}, ""},
		{"report status", []string{"--report", "$.roundtrip.status", "C%05CC%05"}, "stabilized\n"},
		{"report stats", []string{"--report", "$.stats.atoms", "CC(=O)O"}, "4\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, "", append([]string{"query"}, tt.args...)...)
			require.Equal(t, errors.ExitOK, res.status, res.stderr)
			assert.Equal(t, tt.want, res.stdout)
		})
	}
}

func TestQueryCmd_JSON(t *testing.T) {
	res := execute(t, "", "-o", "json", "query", "$.rings[*].size", "c1ccc2ccccc2c1")
	require.Equal(t, errors.ExitOK, res.status, res.stderr)

	var got []float64
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
	assert.Equal(t, []float64{6, 6}, got)
}

func TestQueryCmd_Errors(t *testing.T) {
	res := execute(t, "", "query", "$[", "C")
	assert.Equal(t, errors.ExitInput, res.status)
	assert.Contains(t, res.stderr, "invalid JSONPath")

	res = execute(t, "", "query", "$.size", "C1CC")
	assert.Equal(t, errors.ExitInput, res.status)
}
