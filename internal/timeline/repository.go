package timeline

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)

	CreateTrack(ctx context.Context, t *Track) error
	GetTracksByProject(ctx context.Context, projectID string) ([]*Track, error)
	UpdateTrackFlags(ctx context.Context, id string, locked, visible, muted bool) error
	DeleteTrack(ctx context.Context, id string) error

	CreateSegment(ctx context.Context, s *Segment) error
	GetSegment(ctx context.Context, id string) (*Segment, error)
	GetSegmentsByTrack(ctx context.Context, trackID string) ([]*Segment, error)
	UpdateSegmentSpan(ctx context.Context, id string, inSec, outSec float64) error
	UpdateSegmentSource(ctx context.Context, id string, sourceInSec, sourceOutSec float64) error
	UpdateSegmentActiveRevision(ctx context.Context, id, revisionID string) error
	DeleteSegment(ctx context.Context, id string) error

	CreateRevision(ctx context.Context, r *Revision) error
	GetRevisionsBySegment(ctx context.Context, segmentID string) ([]*Revision, error)
	ListRevisionsByStatus(ctx context.Context, status string) ([]*Revision, error)
	UpdateRevision(ctx context.Context, id, status, url, errMsg string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, p *Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, fps, created_at)
		VALUES (?, ?, ?, ?)
	`, p.ID, p.Name, p.FPS, p.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, fps, created_at FROM projects WHERE id = ?
	`, id)

	var p Project
	var createdAt string
	err := row.Scan(&p.ID, &p.Name, &p.FPS, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, fps, created_at FROM projects ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var p Project
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.FPS, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (r *SQLiteRepository) CreateTrack(ctx context.Context, t *Track) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tracks (id, project_id, kind, name, display_order, height, locked, visible, muted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.ProjectID, t.Kind, t.Name, t.Order, t.Height,
		boolToInt(t.Locked), boolToInt(t.Visible), boolToInt(t.Muted),
		t.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetTracksByProject(ctx context.Context, projectID string) ([]*Track, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, kind, name, display_order, height, locked, visible, muted, created_at
		FROM tracks WHERE project_id = ? ORDER BY display_order
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []*Track
	for rows.Next() {
		var t Track
		var locked, visible, muted int
		var createdAt string
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Kind, &t.Name, &t.Order, &t.Height,
			&locked, &visible, &muted, &createdAt); err != nil {
			return nil, err
		}
		t.Locked = locked == 1
		t.Visible = visible == 1
		t.Muted = muted == 1
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		tracks = append(tracks, &t)
	}
	return tracks, rows.Err()
}

func (r *SQLiteRepository) UpdateTrackFlags(ctx context.Context, id string, locked, visible, muted bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tracks SET locked = ?, visible = ?, muted = ? WHERE id = ?
	`, boolToInt(locked), boolToInt(visible), boolToInt(muted), id)
	return err
}

func (r *SQLiteRepository) DeleteTrack(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM tracks WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) CreateSegment(ctx context.Context, s *Segment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO segments (id, track_id, label, media_id, in_sec, out_sec, source_in_sec, source_out_sec,
			link_group_id, locked, active_revision_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.TrackID, s.Label, nullString(s.MediaID), s.InSec, s.OutSec, s.SourceInSec, s.SourceOutSec,
		nullString(s.LinkGroupID), boolToInt(s.Locked), nullString(s.ActiveRevisionID),
		s.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetSegment(ctx context.Context, id string) (*Segment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, track_id, label, media_id, in_sec, out_sec, source_in_sec, source_out_sec,
			link_group_id, locked, active_revision_id, created_at
		FROM segments WHERE id = ?
	`, id)
	return r.scanSegment(row)
}

func (r *SQLiteRepository) scanSegment(row *sql.Row) (*Segment, error) {
	var s Segment
	var locked int
	var createdAt string
	var mediaID, linkGroupID, activeRevisionID sql.NullString

	err := row.Scan(&s.ID, &s.TrackID, &s.Label, &mediaID, &s.InSec, &s.OutSec,
		&s.SourceInSec, &s.SourceOutSec, &linkGroupID, &locked, &activeRevisionID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.MediaID = mediaID.String
	s.LinkGroupID = linkGroupID.String
	s.ActiveRevisionID = activeRevisionID.String
	s.Locked = locked == 1
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &s, nil
}

func (r *SQLiteRepository) GetSegmentsByTrack(ctx context.Context, trackID string) ([]*Segment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, track_id, label, media_id, in_sec, out_sec, source_in_sec, source_out_sec,
			link_group_id, locked, active_revision_id, created_at
		FROM segments WHERE track_id = ? ORDER BY in_sec
	`, trackID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []*Segment
	for rows.Next() {
		var s Segment
		var locked int
		var createdAt string
		var mediaID, linkGroupID, activeRevisionID sql.NullString

		if err := rows.Scan(&s.ID, &s.TrackID, &s.Label, &mediaID, &s.InSec, &s.OutSec,
			&s.SourceInSec, &s.SourceOutSec, &linkGroupID, &locked, &activeRevisionID, &createdAt); err != nil {
			return nil, err
		}
		s.MediaID = mediaID.String
		s.LinkGroupID = linkGroupID.String
		s.ActiveRevisionID = activeRevisionID.String
		s.Locked = locked == 1
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		segments = append(segments, &s)
	}
	return segments, rows.Err()
}

func (r *SQLiteRepository) UpdateSegmentSpan(ctx context.Context, id string, inSec, outSec float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE segments SET in_sec = ?, out_sec = ? WHERE id = ?
	`, inSec, outSec, id)
	return err
}

func (r *SQLiteRepository) UpdateSegmentSource(ctx context.Context, id string, sourceInSec, sourceOutSec float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE segments SET source_in_sec = ?, source_out_sec = ? WHERE id = ?
	`, sourceInSec, sourceOutSec, id)
	return err
}

func (r *SQLiteRepository) UpdateSegmentActiveRevision(ctx context.Context, id, revisionID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE segments SET active_revision_id = ? WHERE id = ?
	`, nullString(revisionID), id)
	return err
}

func (r *SQLiteRepository) DeleteSegment(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM segments WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) CreateRevision(ctx context.Context, rev *Revision) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO revisions (id, segment_id, media_id, provider, model, url, thumbnail_url, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rev.ID, rev.SegmentID, rev.MediaID, nullString(rev.Provider), nullString(rev.Model),
		nullString(rev.URL), nullString(rev.ThumbnailURL), rev.Status, nullString(rev.Error),
		rev.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetRevisionsBySegment(ctx context.Context, segmentID string) ([]*Revision, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, segment_id, media_id, provider, model, url, thumbnail_url, status, error, created_at
		FROM revisions WHERE segment_id = ? ORDER BY created_at
	`, segmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanRevisions(rows)
}

func (r *SQLiteRepository) ListRevisionsByStatus(ctx context.Context, status string) ([]*Revision, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, segment_id, media_id, provider, model, url, thumbnail_url, status, error, created_at
		FROM revisions WHERE status = ? ORDER BY created_at ASC
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanRevisions(rows)
}

func (r *SQLiteRepository) scanRevisions(rows *sql.Rows) ([]*Revision, error) {
	var revisions []*Revision
	for rows.Next() {
		var rev Revision
		var createdAt string
		var provider, model, url, thumbnailURL, errMsg sql.NullString

		if err := rows.Scan(&rev.ID, &rev.SegmentID, &rev.MediaID, &provider, &model,
			&url, &thumbnailURL, &rev.Status, &errMsg, &createdAt); err != nil {
			return nil, err
		}
		rev.Provider = provider.String
		rev.Model = model.String
		rev.URL = url.String
		rev.ThumbnailURL = thumbnailURL.String
		rev.Error = errMsg.String
		rev.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		revisions = append(revisions, &rev)
	}
	return revisions, rows.Err()
}

func (r *SQLiteRepository) UpdateRevision(ctx context.Context, id, status, url, errMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE revisions SET status = ?, url = COALESCE(NULLIF(?, ''), url), error = ? WHERE id = ?
	`, status, url, nullString(errMsg), id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
