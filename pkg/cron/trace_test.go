package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestScheduler_ExecutionSpans(t *testing.T) {
	t.Parallel()

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	obs := newCountingObserver()

	s := newTestScheduler(WithTracerProvider(tp), WithObserver(obs))
	s.CallFunc(func() {}).Name("ok").EverySecond()
	s.Call(func(context.Context) error { return errors.New("nope") }).Name("bad").EverySecond()

	ctx := context.Background()
	s.evaluate(ctx, ctx, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	waitFor(t, "executions", func() bool {
		return obs.get(func(o *countingObserver) int { return o.finished["ok"] + o.finished["bad"] }) == 2
	})
	waitFor(t, "spans", func() bool { return len(rec.Ended()) == 2 })

	byJob := make(map[string]sdktrace.ReadOnlySpan)
	for _, span := range rec.Ended() {
		if span.Name() != "cron.execute" {
			t.Errorf("span name = %q", span.Name())
		}
		for _, kv := range span.Attributes() {
			if kv.Key == "cron.job" {
				byJob[kv.Value.AsString()] = span
			}
		}
	}

	ok, bad := byJob["ok"], byJob["bad"]
	if ok == nil || bad == nil {
		t.Fatalf("missing spans: %v", byJob)
	}
	if !hasAttr(ok.Attributes(), attribute.String("cron.expression", "* * * * * *")) {
		t.Errorf("ok span attributes = %v", ok.Attributes())
	}
	if !hasAttr(ok.Attributes(), attribute.String("cron.trigger", "schedule")) {
		t.Errorf("ok span missing trigger: %v", ok.Attributes())
	}
	if ok.Status().Code == codes.Error {
		t.Error("successful run recorded as error")
	}
	if bad.Status().Code != codes.Error || bad.Status().Description != "nope" {
		t.Errorf("bad span status = %+v", bad.Status())
	}
}

func hasAttr(attrs []attribute.KeyValue, want attribute.KeyValue) bool {
	for _, kv := range attrs {
		if kv == want {
			return true
		}
	}
	return false
}
