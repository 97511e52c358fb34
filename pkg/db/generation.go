package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fylr-platform/core/pkg/domain"
)

// SummaryRepo persists domain.Summary jobs and their Episode children.
type SummaryRepo struct {
	conn *sql.DB
}

func NewSummaryRepo(conn *sql.DB) *SummaryRepo {
	return &SummaryRepo{conn: conn}
}

// Get loads a Summary with its episodes eagerly joined, mirroring the
// joinedload(Summary.episodes) the teacher's base generator expects
// (original_source base_generator.py's _process_message).
func (r *SummaryRepo) Get(ctx context.Context, id string) (*domain.Summary, error) {
	row := r.conn.QueryRowContext(ctx, `
		SELECT id, library_id, title, duration_min, generated
		FROM summaries WHERE id = $1`, id)

	var s domain.Summary
	if err := row.Scan(&s.ID, &s.LibraryID, &s.Title, &s.DurationMin, &s.Generated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db: get summary %s: %w", id, err)
	}

	episodes, err := r.episodesFor(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Episodes = episodes
	return &s, nil
}

func (r *SummaryRepo) episodesFor(ctx context.Context, summaryID string) ([]*domain.Episode, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT id, title, focus, content
		FROM summary_episodes WHERE summary_id = $1 ORDER BY id`, summaryID)
	if err != nil {
		return nil, fmt.Errorf("db: load episodes for summary %s: %w", summaryID, err)
	}
	defer rows.Close()

	var out []*domain.Episode
	for rows.Next() {
		var e domain.Episode
		if err := rows.Scan(&e.ID, &e.Title, &e.Focus, &e.Content); err != nil {
			return nil, fmt.Errorf("db: scan episode: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// SaveEpisodeContent persists the generated content of one episode.
func (r *SummaryRepo) SaveEpisodeContent(ctx context.Context, episodeID, content string) error {
	_, err := r.conn.ExecContext(ctx, `UPDATE summary_episodes SET content = $2 WHERE id = $1`, episodeID, content)
	if err != nil {
		return fmt.Errorf("db: save episode %s content: %w", episodeID, err)
	}
	return nil
}

// SetGenerated sets the summary job's terminal status.
func (r *SummaryRepo) SetGenerated(ctx context.Context, id string, status domain.GenerationStatus) error {
	_, err := r.conn.ExecContext(ctx, `UPDATE summaries SET generated = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("db: set summary %s generated=%s: %w", id, status, err)
	}
	return nil
}

// PodcastRepo persists domain.Podcast jobs and their Episode children.
type PodcastRepo struct {
	conn *sql.DB
}

func NewPodcastRepo(conn *sql.DB) *PodcastRepo {
	return &PodcastRepo{conn: conn}
}

func (r *PodcastRepo) Get(ctx context.Context, id string) (*domain.Podcast, error) {
	row := r.conn.QueryRowContext(ctx, `
		SELECT id, library_id, title, duration_min, generated
		FROM podcasts WHERE id = $1`, id)

	var p domain.Podcast
	if err := row.Scan(&p.ID, &p.LibraryID, &p.Title, &p.DurationMin, &p.Generated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db: get podcast %s: %w", id, err)
	}

	rows, err := r.conn.QueryContext(ctx, `
		SELECT id, title, focus, content, audio_key
		FROM podcast_episodes WHERE podcast_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("db: load episodes for podcast %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.Episode
		var audioKey sql.NullString
		if err := rows.Scan(&e.ID, &e.Title, &e.Focus, &e.Content, &audioKey); err != nil {
			return nil, fmt.Errorf("db: scan podcast episode: %w", err)
		}
		e.AudioKey = audioKey.String
		p.Episodes = append(p.Episodes, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &p, nil
}

// SaveEpisodeAudio records the object-store key of a stitched episode's
// audio (spec.md §4.J step 8).
func (r *PodcastRepo) SaveEpisodeAudio(ctx context.Context, episodeID, audioKey string) error {
	_, err := r.conn.ExecContext(ctx, `UPDATE podcast_episodes SET audio_key = $2 WHERE id = $1`, episodeID, audioKey)
	if err != nil {
		return fmt.Errorf("db: save podcast episode %s audio key: %w", episodeID, err)
	}
	return nil
}

func (r *PodcastRepo) SetGenerated(ctx context.Context, id string, status domain.GenerationStatus) error {
	_, err := r.conn.ExecContext(ctx, `UPDATE podcasts SET generated = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("db: set podcast %s generated=%s: %w", id, status, err)
	}
	return nil
}
