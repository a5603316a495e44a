package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Requests.WithLabelValues("deposit_native", OutcomeOK).Inc()
	m.Intents.WithLabelValues("native_transfer").Add(2)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			values[mf.GetName()] += metric.GetCounter().GetValue()
		}
	}
	require.Equal(t, float64(1), values["vault_execute_requests_total"])
	require.Equal(t, float64(2), values["vault_intents_total"])
}

func TestNewWithNilRegisterer(t *testing.T) {
	require.NotPanics(t, func() {
		New(nil)
		New(nil)
	})
}
