// Package ingest implements the ingestion worker's two message handlers:
// the primary ingestion lifecycle (new Source -> extracted, chunked,
// embedded, persisted) and the re-ingestion variant (existing chunks
// re-embedded under a new model, in place). Grounded on
// original_source's ingestor/ingestors/text-python-1 and
// reingest-python-1 main.py scripts, reimplemented as an amqp.Handler in
// the style of the teacher's worker loops.
package ingest

import "encoding/json"

// message is the primary ingestion job body (spec.md §4.F, matching
// text-python-1/src/main.py's expected payload keys).
type message struct {
	SourceID       string `json:"sourceId"`
	S3Key          string `json:"s3Key"`
	MimeType       string `json:"mimeType"`
	JobKey         string `json:"jobKey"`
	EmbeddingModel string `json:"embeddingModel"`
}

func parseMessage(body []byte) (*message, error) {
	var m message
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// valid reports whether every field a primary ingestion job needs is
// present; a missing field makes the delivery a poison message.
func (m *message) valid() bool {
	return m.SourceID != "" && m.S3Key != "" && m.JobKey != "" && m.EmbeddingModel != ""
}

// reingestMessage is the re-ingestion job body: sourceId, jobKey and
// targetEmbeddingModel. Unlike message it has no s3Key, mimeType or
// embeddingModel (reingest-python-1/src/main.py).
type reingestMessage struct {
	SourceID             string `json:"sourceId"`
	JobKey               string `json:"jobKey"`
	TargetEmbeddingModel string `json:"targetEmbeddingModel"`
}

func parseReingestMessage(body []byte) (*reingestMessage, error) {
	var m reingestMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *reingestMessage) valid() bool {
	return m.SourceID != "" && m.JobKey != "" && m.TargetEmbeddingModel != ""
}
