// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tracing

import (
	"context"
	"testing"

	"github.com/canonical/workspace-service/internal/logging"
)

func TestNewTracerDisabled(t *testing.T) {
	tracer := NewTracer(NewConfig(false, "", "", 1, logging.NewNoopLogger()))

	ctx, span := tracer.Start(context.Background(), "test.Span")
	defer span.End()

	if ctx == nil {
		t.Fatal("expected context")
	}
	if span.SpanContext().IsValid() {
		t.Errorf("expected noop span when tracing is disabled")
	}
}

func TestNewTracerStdout(t *testing.T) {
	tracer := NewTracer(NewConfig(true, "", "", 1, logging.NewNoopLogger()))
	defer tracer.Shutdown(context.Background())

	_, span := tracer.Start(context.Background(), "test.Span")
	defer span.End()

	if !span.SpanContext().IsValid() {
		t.Errorf("expected a valid span with the stdout exporter")
	}
	if !span.IsRecording() {
		t.Errorf("expected the span to be sampled")
	}
}

func TestNewTracerSampledOut(t *testing.T) {
	tracer := NewTracer(NewConfig(true, "", "", 0, logging.NewNoopLogger()))
	defer tracer.Shutdown(context.Background())

	_, span := tracer.Start(context.Background(), "test.Span")
	defer span.End()

	if span.IsRecording() {
		t.Errorf("expected the span to be dropped with a zero ratio")
	}
}

func TestNoopTracerShutdown(t *testing.T) {
	if err := NewNoopTracer().Shutdown(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
