package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTP(t *testing.T) {
	before := testutil.ToFloat64(httpAttempts.WithLabelValues("POST", "OK"))
	RecordHTTPAttempt("POST", "OK", 10*time.Millisecond)
	if got := testutil.ToFloat64(httpAttempts.WithLabelValues("POST", "OK")); got != before+1 {
		t.Errorf("attempts = %v, want %v", got, before+1)
	}

	retries := testutil.ToFloat64(httpRetries.WithLabelValues("POST"))
	RecordHTTPRetry("POST")
	if got := testutil.ToFloat64(httpRetries.WithLabelValues("POST")); got != retries+1 {
		t.Errorf("retries = %v, want %v", got, retries+1)
	}
}

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(operations.WithLabelValues("GetThings", "success"))
	RecordOperation("GetThings", "success", time.Second)
	if got := testutil.ToFloat64(operations.WithLabelValues("GetThings", "success")); got != before+1 {
		t.Errorf("operations = %v, want %v", got, before+1)
	}
}

func TestRecordThings_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(thingsTransferred.WithLabelValues("removed"))
	RecordThings("removed", 0)
	RecordThings("removed", 3)
	if got := testutil.ToFloat64(thingsTransferred.WithLabelValues("removed")); got != before+3 {
		t.Errorf("things = %v, want %v", got, before+3)
	}
}
