package ingest

import "testing"

func TestParseMessage_Valid(t *testing.T) {
	body := []byte(`{"sourceId":"s1","s3Key":"k1","mimeType":"text/markdown","jobKey":"j1","embeddingModel":"ts@v@jina/jina-clip-v2"}`)
	m, err := parseMessage(body)
	if err != nil {
		t.Fatalf("parseMessage: %v", err)
	}
	if !m.valid() {
		t.Fatalf("expected message to be valid: %+v", m)
	}
	if m.SourceID != "s1" || m.EmbeddingModel != "ts@v@jina/jina-clip-v2" {
		t.Fatalf("unexpected fields: %+v", m)
	}
}

func TestParseMessage_PoisonEmptyBody(t *testing.T) {
	m, err := parseMessage([]byte(`{}`))
	if err != nil {
		t.Fatalf("parseMessage on {} should decode, got error: %v", err)
	}
	if m.valid() {
		t.Fatalf("empty message must not be valid")
	}
}

func TestParseMessage_MalformedJSON(t *testing.T) {
	_, err := parseMessage([]byte(`not json`))
	if err == nil {
		t.Fatalf("expected JSON decode error")
	}
}

func TestParseMessage_MissingField(t *testing.T) {
	body := []byte(`{"sourceId":"s1","s3Key":"k1","jobKey":"j1"}`)
	m, err := parseMessage(body)
	if err != nil {
		t.Fatalf("parseMessage: %v", err)
	}
	if m.valid() {
		t.Fatalf("message missing embeddingModel must not be valid")
	}
}

func TestParseReingestMessage_Valid(t *testing.T) {
	body := []byte(`{"sourceId":"s1","jobKey":"j1","targetEmbeddingModel":"ts@v@jina/jina-clip-v2"}`)
	m, err := parseReingestMessage(body)
	if err != nil {
		t.Fatalf("parseReingestMessage: %v", err)
	}
	if !m.valid() {
		t.Fatalf("expected reingest message to be valid: %+v", m)
	}
}

func TestParseReingestMessage_MissingTarget(t *testing.T) {
	body := []byte(`{"sourceId":"s1","jobKey":"j1"}`)
	m, err := parseReingestMessage(body)
	if err != nil {
		t.Fatalf("parseReingestMessage: %v", err)
	}
	if m.valid() {
		t.Fatalf("message missing targetEmbeddingModel must not be valid")
	}
}
