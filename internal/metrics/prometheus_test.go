package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySingleton(t *testing.T) {
	r1 := Get()
	r2 := Get()
	if r1 != r2 {
		t.Error("Get should return the same registry")
	}
}

func TestRecordHelpers(t *testing.T) {
	r := Get()

	r.RecordEffect("create")
	r.RecordEffect("create")
	r.RecordEffect("noop")
	assert.Equal(t, 2.0, testutil.ToFloat64(r.RuleEffects.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RuleEffects.WithLabelValues("noop")))

	r.RecordFailure("probe")
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RuleFailures.WithLabelValues("probe")))

	r.RecordGuardCheck("existence", true)
	r.RecordGuardCheck("existence", false)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.GuardChecks.WithLabelValues("existence", "fire")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.GuardChecks.WithLabelValues("existence", "skip")))

	r.RecordCommand("add", 0.02, nil)
	r.RecordCommand("add", 0.5, errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CommandsTotal.WithLabelValues("add", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CommandsTotal.WithLabelValues("add", "error")))

	r.RecordServiceTransition("running", nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ServiceTransitions.WithLabelValues("running", "ok")))

	r.RecordProfileToggle("domain", nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ProfileToggles.WithLabelValues("domain", "ok")))

	r.RecordConfigLoad(nil)
	r.RecordConfigLoad(errors.New("parse error"))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ConfigLoads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ConfigLoads.WithLabelValues("error")))

	r.RecordRun("apply", 12, 1.5)
	assert.Equal(t, 12.0, testutil.ToFloat64(r.RulesManaged))
	assert.Greater(t, testutil.ToFloat64(r.LastRunTimestamp), 0.0)
}

func TestWriteTextfile(t *testing.T) {
	r := Get()
	r.RecordEffect("update")

	path := filepath.Join(t.TempDir(), "palisade.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "palisade_rule_effects_total")
	assert.Contains(t, content, "# HELP")

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}

func TestWriteTextfile_BadDir(t *testing.T) {
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "palisade.prom"))
	assert.Error(t, err)
}
