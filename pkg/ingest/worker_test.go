package ingest

import (
	"context"
	"testing"
)

// A poison message (spec.md §8 scenario 2) must return an error without
// panicking even when no downstream dependency is wired and the AMQP
// channel is nil — PublishStatus degrades to a no-op log line for a nil
// channel, so the FAILED publish attempt itself must never block or crash
// the delivery from being negative-acked.
func TestProcessPrimary_PoisonMessage(t *testing.T) {
	w := &Worker{}
	err := w.processPrimary(context.Background(), nil, []byte(`{}`))
	if err == nil {
		t.Fatalf("expected an error for a poison message")
	}
}

func TestProcessReingest_PoisonMessage(t *testing.T) {
	w := &Worker{}
	err := w.processReingest(context.Background(), nil, []byte(`{}`))
	if err == nil {
		t.Fatalf("expected an error for a poison reingest message")
	}
}

func TestProcessPrimary_MalformedJSON(t *testing.T) {
	w := &Worker{}
	err := w.processPrimary(context.Background(), nil, []byte(`not json`))
	if err == nil {
		t.Fatalf("expected an error for malformed JSON")
	}
}
