package podcast

import (
	"encoding/json"
	"fmt"
)

// Segment is one thematic cluster's LLM-generated summary, the shape
// podcast_segment is expected to return as JSON (spec.md §4.J step 3).
type Segment struct {
	Title    string   `json:"title"`
	Keynotes []string `json:"keynotes"`
	Facts    []string `json:"facts"`
}

// parseSegment decodes the LLM's raw response as a Segment and validates
// it against spec.md §4.J step 3's schema. Both decode and validation
// failures are reported the same way: the caller skips the group and
// publishes an error event rather than aborting the whole job.
func parseSegment(raw string) (*Segment, error) {
	var seg Segment
	if err := json.Unmarshal([]byte(raw), &seg); err != nil {
		return nil, fmt.Errorf("podcast: invalid segment JSON: %w", err)
	}
	if err := seg.validate(); err != nil {
		return nil, err
	}
	return &seg, nil
}

func (s *Segment) validate() error {
	if len(s.Title) < 15 || len(s.Title) > 80 {
		return fmt.Errorf("podcast: segment title length %d outside [15,80]", len(s.Title))
	}
	if len(s.Keynotes) < 2 || len(s.Keynotes) > 7 {
		return fmt.Errorf("podcast: segment has %d keynotes, want 2-7", len(s.Keynotes))
	}
	for i, k := range s.Keynotes {
		if len(k) < 10 || len(k) > 100 {
			return fmt.Errorf("podcast: keynote %d length %d outside [10,100]", i, len(k))
		}
	}
	if len(s.Facts) < 2 || len(s.Facts) > 5 {
		return fmt.Errorf("podcast: segment has %d facts, want 2-5", len(s.Facts))
	}
	for i, f := range s.Facts {
		if len(f) < 10 || len(f) > 150 {
			return fmt.Errorf("podcast: fact %d length %d outside [10,150]", i, len(f))
		}
	}
	return nil
}

// Summary renders a segment as plain text for use as script-combiner
// context (spec.md §4.J step 4: "concatenate all valid segment summaries").
func (s *Segment) Summary() string {
	out := s.Title + "\n"
	for _, k := range s.Keynotes {
		out += "- " + k + "\n"
	}
	for _, f := range s.Facts {
		out += "* " + f + "\n"
	}
	return out
}
