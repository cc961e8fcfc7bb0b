package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	return nil
}

func counterValue(family *dto.MetricFamily, labels map[string]string) float64 {
	if family == nil {
		return 0
	}
outer:
	for _, metric := range family.GetMetric() {
		got := map[string]string{}
		for _, pair := range metric.GetLabel() {
			got[pair.GetName()] = pair.GetValue()
		}
		for k, v := range labels {
			if got[k] != v {
				continue outer
			}
		}
		return metric.GetCounter().GetValue()
	}
	return 0
}

func TestSweepMetrics_CountsByJobAndOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newSweepMetrics(reg, Config{ServiceName: "lagring", Environment: "test"})

	m.IncJobRun("charge_due")
	m.IncJobRun("charge_due")
	m.IncRecordSwept("charge_due", "paid")
	m.IncRecordSwept("charge_due", "declined")
	m.IncRecordSwept("charge_due", "paid")
	m.IncPaymentEvent("simulated", "paid")
	m.ObserveJobDuration("charge_due", 120*time.Millisecond)

	runs := gatherFamily(t, reg, "lagring_sweep_job_runs_total")
	assert.Equal(t, 2.0, counterValue(runs, map[string]string{"job": "charge_due"}))

	swept := gatherFamily(t, reg, "lagring_sweep_records_total")
	assert.Equal(t, 2.0, counterValue(swept, map[string]string{"job": "charge_due", "outcome": "paid"}))
	assert.Equal(t, 1.0, counterValue(swept, map[string]string{"job": "charge_due", "outcome": "declined"}))

	payments := gatherFamily(t, reg, "lagring_payment_events_total")
	assert.Equal(t, 1.0, counterValue(payments, map[string]string{"provider": "simulated", "outcome": "paid"}))
}

func TestSweepMetrics_ErrorReasons(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newSweepMetrics(reg, Config{})

	m.IncJobError("escalate_overdue", context.DeadlineExceeded)
	m.IncJobError("escalate_overdue", errors.New("boom"))

	errs := gatherFamily(t, reg, "lagring_sweep_job_errors_total")
	assert.Equal(t, 1.0, counterValue(errs, map[string]string{
		"job":    "escalate_overdue",
		"reason": SweepJobReasonDeadlineExceeded,
	}))
	assert.Equal(t, 1.0, counterValue(errs, map[string]string{
		"job":    "escalate_overdue",
		"reason": SweepJobReasonUnknown,
	}))
}

func TestSweepMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *SweepMetrics
	m.IncJobRun("renew_cycles")
	m.IncJobTimeout("renew_cycles")
	m.ObserveJobDuration("renew_cycles", time.Second)
}
