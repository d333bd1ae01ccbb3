package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherFamilies(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	byName := make(map[string]*dto.MetricFamily, len(mfs))
	for _, mf := range mfs {
		byName[mf.GetName()] = mf
	}
	return byName
}

func metricForJob(t *testing.T, mf *dto.MetricFamily, job string) *dto.Metric {
	t.Helper()
	if mf == nil {
		t.Fatal("metric family not registered")
	}
	for _, metric := range mf.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "job" && label.GetValue() == job {
				return metric
			}
		}
	}
	t.Fatalf("no series with job=%q in %s", job, mf.GetName())
	return nil
}

func TestCronJobMetricsExportsAllSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveDuration("order-expiry", 250*time.Millisecond)
	m.IncSuccess("order-expiry")
	m.IncSuccess("order-expiry")
	m.IncFailure("order-expiry")

	families := gatherFamilies(t, reg)

	success := metricForJob(t, families["job_success"], "order-expiry")
	if got := success.GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected 2 successes, got %f", got)
	}
	failure := metricForJob(t, families["job_failure"], "order-expiry")
	if got := failure.GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected 1 failure, got %f", got)
	}
	duration := metricForJob(t, families["job_duration_seconds"], "order-expiry")
	if got := duration.GetHistogram().GetSampleSum(); got < 0.24 || got > 0.26 {
		t.Fatalf("unexpected duration sum %f", got)
	}
}

func TestCronJobMetricsNormalizesEmptyJobLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.IncSuccess("")

	families := gatherFamilies(t, reg)
	series := metricForJob(t, families["job_success"], "unknown")
	if got := series.GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected 1 success under the unknown label, got %f", got)
	}
}

func TestCronJobMetricsNoopWithoutRegistry(t *testing.T) {
	var m *CronJobMetrics

	// Nil receiver and nil collectors must both be safe.
	m.IncSuccess("order-expiry")
	m = NewCronJobMetrics(nil)
	m.ObserveDuration("order-expiry", time.Second)
	m.IncFailure("order-expiry")
}
