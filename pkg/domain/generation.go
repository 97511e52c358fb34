package domain

// GenerationStatus is the job-level lifecycle state shared by Summary and
// Podcast generation jobs.
type GenerationStatus string

const (
	GenerationPending   GenerationStatus = "PENDING"
	GenerationCompleted GenerationStatus = "COMPLETED"
	GenerationFailed    GenerationStatus = "FAILED"
)

// Episode is a child unit of a Summary or Podcast: its own title, focus
// string, generated content, and (for podcasts) an object-store audio key.
type Episode struct {
	ID       string
	Title    string
	Focus    string
	Content  string
	AudioKey string
}

// Summary is a generation job that produces markdown text per episode.
type Summary struct {
	ID         string
	LibraryID  string
	Title      string
	DurationMin int
	Generated  GenerationStatus
	Episodes   []*Episode
}

// Podcast is a generation job that fills exactly one Episode slot with a
// stitched, multi-speaker audio file uploaded to object storage.
type Podcast struct {
	ID          string
	LibraryID   string
	Title       string
	DurationMin int
	Generated   GenerationStatus
	Episodes    []*Episode
}

// FirstEmptyEpisode returns the first episode with no content yet, which is
// the single slot a Podcast generation run is expected to fill (spec.md
// §4.J: "a Podcast entity with exactly one Episode slot to fill").
func (p *Podcast) FirstEmptyEpisode() *Episode {
	for _, ep := range p.Episodes {
		if ep.Content == "" && ep.AudioKey == "" {
			return ep
		}
	}
	return nil
}
