package observability

import (
	"testing"
	"time"

	"github.com/danmuck/prt7/internal/decoder"
	"github.com/danmuck/prt7/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog/log"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)

	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("GET", "/health", 200, 12*time.Millisecond)

	log.Debug().Msg("observability/metrics: registration idempotent and recording paths executed")
}

func TestMetricsSinkCountsEvents(t *testing.T) {
	testlog.Start(t)

	sink := NewMetricsSink()
	before := testutil.ToFloat64(decoderEvents.WithLabelValues("load"))

	events := []decoder.Event{
		{Kind: decoder.EventRotate, Steps: 3, Offset: 3},
		{Kind: decoder.EventLoad, In: 'A', Out: 'D', Offset: 3},
		{Kind: decoder.EventLoad, In: 'B', Out: 'E', Offset: 3},
		{Kind: decoder.EventMessage, Message: "DE", Offset: 3},
	}
	for _, ev := range events {
		if err := sink.Emit(ev); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}

	if got := testutil.ToFloat64(decoderEvents.WithLabelValues("load")) - before; got != 2 {
		t.Fatalf("unexpected load count delta: %v", got)
	}
	if got := testutil.ToFloat64(rotorOffset); got != 3 {
		t.Fatalf("unexpected rotor offset gauge: %v", got)
	}
	if got := testutil.ToFloat64(decodedBytes); got != 2 {
		t.Fatalf("unexpected message bytes gauge: %v", got)
	}
}
