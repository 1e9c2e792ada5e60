package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("parallel", 150*time.Millisecond)
	pr.ObserveRunDuration(500 * time.Millisecond)
	pr.ObserveTargetDuration("pdf", 300*time.Millisecond)
	pr.IncTargetResult("pdf", ResultSuccess)
	pr.IncRunOutcome("success")
	pr.IncTaskResult("pdf", true)
	pr.IncTaskResult("pdf", true)
	pr.IncTaskResult("pdf", false)
	pr.SetWorkers("pdf", 4)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)

	assert.InDelta(t, 2, testutil.ToFloat64(pr.taskResults.WithLabelValues("pdf", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.taskResults.WithLabelValues("pdf", "failed")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(pr.workers.WithLabelValues("pdf")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.runOutcome.WithLabelValues("success")), 0)
}

func TestPrometheusRecorderNilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveRunDuration(time.Second)
		pr.IncRunOutcome("failed")
		pr.IncTaskResult("x", false)
		pr.SetWorkers("x", 1)
	})
}

func TestWriteTextfile(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncTargetResult("djvu", ResultFailed)

	path := filepath.Join(t.TempDir(), "scanbinder.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `scanbinder_target_results_total{result="failed",target="djvu"} 1`), string(data))
}

func TestWriteTextfileBadDir(t *testing.T) {
	reg := prom.NewRegistry()
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"), reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write metrics textfile")
}
