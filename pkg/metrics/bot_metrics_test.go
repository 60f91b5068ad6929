package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := c.Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func TestRecordDispatch(t *testing.T) {
	dispatchTotal.Reset()
	dispatchDuration.Reset()

	RecordDispatch("create", "success", 0.2)
	RecordDispatch("create", "success", 0.3)
	RecordDispatch("cancel", "permission", 0.01)

	if got := counterValue(t, dispatchTotal.WithLabelValues("create", "success")); got != 2 {
		t.Errorf("Expected counter value 2, got %f", got)
	}
	if got := counterValue(t, dispatchTotal.WithLabelValues("cancel", "permission")); got != 1 {
		t.Errorf("Expected counter value 1, got %f", got)
	}
}

func TestRecordCommand(t *testing.T) {
	commandsTotal.Reset()

	RecordCommand("/add", "ok")
	RecordCommand("/add", "usage")
	RecordCommand("/add", "usage")

	if got := counterValue(t, commandsTotal.WithLabelValues("/add", "usage")); got != 2 {
		t.Errorf("Expected counter value 2, got %f", got)
	}
}

func TestRecordEvictionAndDigest(t *testing.T) {
	before := counterValue(t, conversationEvictions)
	RecordEviction()
	if got := counterValue(t, conversationEvictions); got != before+1 {
		t.Errorf("Expected eviction counter %f, got %f", before+1, got)
	}

	digestRunsTotal.Reset()
	RecordDigestRun("empty")
	if got := counterValue(t, digestRunsTotal.WithLabelValues("empty")); got != 1 {
		t.Errorf("Expected digest counter 1, got %f", got)
	}

	storeErrorsTotal.Reset()
	RecordStoreError("load")
	if got := counterValue(t, storeErrorsTotal.WithLabelValues("load")); got != 1 {
		t.Errorf("Expected store error counter 1, got %f", got)
	}
}
