package metrics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-spatialaudio/pkg/acoustic"
	"github.com/teslashibe/go-spatialaudio/pkg/backend"
	"github.com/teslashibe/go-spatialaudio/pkg/metrics"
)

func newMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.New(reg)
	require.NoError(t, err)

	_, err = metrics.New(reg)
	assert.Error(t, err)
}

func TestRecordProcess(t *testing.T) {
	m := newMetrics(t)

	m.RecordProcess(backend.KindNull, true, time.Millisecond)
	m.RecordProcess(backend.KindNull, true, time.Millisecond)
	m.RecordProcess(backend.KindEngine3D, false, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProcessTotal.WithLabelValues("none", metrics.StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProcessTotal.WithLabelValues("openal", metrics.StatusFailure)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.ProcessDuration))
}

func TestSetActive(t *testing.T) {
	m := newMetrics(t)

	m.SetActive(backend.KindRenderer)
	m.SetActive(backend.KindEngine3D)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveBackend.WithLabelValues("openal")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveBackend.WithLabelValues("windows_spatial")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveBackend.WithLabelValues("none")))
}

func TestRegistryIntegration(t *testing.T) {
	m := newMetrics(t)
	reg := backend.NewRegistry(backend.WithRecorder(m))
	defer reg.Close()

	require.NoError(t, reg.Register(backend.FailingInit(backend.KindEngine3D)))
	require.NoError(t, reg.Register(backend.Unavailable(backend.KindRenderer)))

	assert.Error(t, reg.SetActive(backend.KindEngine3D))
	assert.Error(t, reg.SetActive(backend.KindRenderer))
	require.NoError(t, reg.SetActive(backend.KindNull))

	reg.Process(acoustic.Profile{
		Name:            "probe",
		FrequencyRange:  acoustic.FrequencyRange{Low: 100, High: 200},
		OcclusionFactor: 1,
	}, acoustic.NewPose(0, 0, 0, 0, 0, 0))

	expected := `
# HELP spatialaudio_backend_switch_total Backend switch attempts by requested backend and result
# TYPE spatialaudio_backend_switch_total counter
spatialaudio_backend_switch_total{backend="none",result="ok"} 1
spatialaudio_backend_switch_total{backend="openal",result="init_failed"} 1
spatialaudio_backend_switch_total{backend="windows_spatial",result="unavailable"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(m.SwitchTotal, strings.NewReader(expected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProcessTotal.WithLabelValues("none", metrics.StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveBackend.WithLabelValues("none")))
}
