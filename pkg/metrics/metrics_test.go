package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegister(t *testing.T) {
	r := prometheus.NewRegistry()
	Register(r)
	assert.Equal(t, r, GetRegisterer())

	// 重复注册不应 panic
	assert.NotPanics(t, func() { Register(r) })

	ExternalizerBuildTotal.WithLabelValues(SuccessLabel).Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(ExternalizerBuildTotal.WithLabelValues(SuccessLabel)))

	ExternalizerBytes.WithLabelValues(EncodeLabel).Add(10)
	assert.Equal(t, float64(10), testutil.ToFloat64(ExternalizerBytes.WithLabelValues(EncodeLabel)))
}
