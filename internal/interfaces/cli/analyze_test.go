package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/smiles-algebra/internal/application/structure"
	"github.com/turtacn/smiles-algebra/pkg/errors"
	"github.com/turtacn/smiles-algebra/pkg/smiles"
)

const batchInput = "CCO\n# comment\n\nC1CC\nc1ccccc1\nC%05CC%05\n"

func TestAnalyzeCmd_Text(t *testing.T) {
	res := execute(t, "", "analyze", "CC(=O)O")
	require.Equal(t, errors.ExitOK, res.status, res.stderr)
	for _, want := range []string{
		"valid:     true\n",
		"kind:      linear\n",
		"roundtrip: perfect\n",
		"decompile: ok\n",
		"atoms=4 aromatic=0 bracket=0 bonds=1 branches=1 closures=0 components=1",
		"code:\nv1 = ",
	} {
		assert.Contains(t, res.stdout, want)
	}
}

func TestAnalyzeCmd_InvalidIsReported(t *testing.T) {
	res := execute(t, "", "analyze", "C1CC")
	require.Equal(t, errors.ExitOK, res.status, res.stderr)
	assert.Contains(t, res.stdout, "valid:     false\n")
	assert.Contains(t, res.stdout, "error:     "+string(errors.ErrCodeUnclosedRing))
}

func TestAnalyzeCmd_JSON(t *testing.T) {
	res := execute(t, "", "-o", "json", "analyze", "c1ccccc1")
	require.Equal(t, errors.ExitOK, res.status, res.stderr)

	var rep structure.Report
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &rep))
	assert.True(t, rep.Valid)
	assert.Equal(t, "ring", rep.Kind)
	require.NotNil(t, rep.RoundTrip)
	assert.Equal(t, smiles.StatusPerfect, rep.RoundTrip.Status)
	require.NotNil(t, rep.Decompile)
	assert.Equal(t, structure.DecompileOK, rep.Decompile.Result)
	assert.Equal(t, 6, rep.Stats.AromaticAtoms)
}

func TestBatchCmd_Table(t *testing.T) {
	res := execute(t, batchInput, "batch")
	require.Equal(t, errors.ExitOK, res.status, res.stderr)
	assert.Contains(t, res.stdout, "STATUS")
	assert.Contains(t, res.stdout, "invalid")
	assert.Contains(t, res.stdout, "stabilized")
	assert.Contains(t, res.stdout, "4 total, 3 valid, 1 invalid, 2 perfect, 1 stabilized, 0 unstable, 3 decompiled")
}

func TestBatchCmd_JSONFromFile(t *testing.T) {
	path := writeFile(t, "in.smi", batchInput)
	res := execute(t, "", "-o", "json", "batch", "--concurrency", "2", path)
	require.Equal(t, errors.ExitOK, res.status, res.stderr)

	var out structure.BatchResult
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.NotEmpty(t, out.RunID)
	require.Len(t, out.Reports, 4)
	assert.Equal(t, "CCO", out.Reports[0].Input)
	assert.Equal(t, "C1CC", out.Reports[1].Input)
	assert.False(t, out.Reports[1].Valid)
	assert.Equal(t, "C5CC5", out.Reports[3].SMILES)
	assert.Equal(t, structure.Summary{Total: 4, Valid: 3, Invalid: 1, Perfect: 2, Stabilized: 1, DecompileOK: 3}, out.Summary)
}

func TestBatchCmd_FailFast(t *testing.T) {
	res := execute(t, batchInput, "batch", "--fail-fast", "--concurrency", "1")
	assert.Equal(t, errors.ExitInput, res.status)
	assert.Contains(t, res.stderr, `input 2 ("C1CC") is invalid`)
	assert.Contains(t, res.stdout, "skipped")
}

func TestBatchCmd_RejectsBadConcurrency(t *testing.T) {
	res := execute(t, "CCO\n", "batch", "--concurrency", "0")
	assert.Equal(t, errors.ExitInput, res.status)
	assert.Contains(t, res.stderr, "concurrency must be at least 1")
}

func TestBatchCmd_MetricsOut(t *testing.T) {
	metrics := filepath.Join(t.TempDir(), "metrics.prom")
	res := execute(t, batchInput, "batch", "--metrics-out", metrics)
	require.Equal(t, errors.ExitOK, res.status, res.stderr)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `smiles_parse_total{result="ok"} 3`)
	assert.Contains(t, text, `smiles_parse_total{result="`+string(errors.ErrCodeUnclosedRing)+`"} 1`)
	assert.Contains(t, text, `smiles_roundtrip_total{status="stabilized"} 1`)
}

func TestCacheCmd_PurgeWithoutCache(t *testing.T) {
	res := execute(t, "", "cache", "purge")
	assert.Equal(t, errors.ExitInput, res.status)
	assert.Contains(t, res.stderr, "not enabled")
}
