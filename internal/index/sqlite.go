package index

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"marquee/internal/domain"
)

// schema holds the local index tables: one row per show, episode and
// linked item. Art is stored as a JSON slot map.
const schema = `
CREATE TABLE IF NOT EXISTS shows (
	id          INTEGER PRIMARY KEY,
	source_id   TEXT NOT NULL,
	title       TEXT NOT NULL,
	tag         TEXT NOT NULL DEFAULT '',
	last_played INTEGER NOT NULL DEFAULT 0,
	date_added  INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS episodes (
	id              INTEGER PRIMARY KEY,
	show_id         INTEGER NOT NULL REFERENCES shows(id),
	source_id       TEXT NOT NULL,
	title           TEXT NOT NULL,
	season          INTEGER NOT NULL,
	episode         INTEGER NOT NULL,
	plot            TEXT NOT NULL DEFAULT '',
	file            TEXT NOT NULL DEFAULT '',
	rating          REAL NOT NULL DEFAULT 0,
	play_count      INTEGER NOT NULL DEFAULT 0,
	resume_position INTEGER NOT NULL DEFAULT 0,
	runtime         INTEGER NOT NULL DEFAULT 0,
	art             TEXT NOT NULL DEFAULT '{}',
	date_added      INTEGER NOT NULL DEFAULT 0,
	last_played     INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS items (
	source_id       TEXT NOT NULL,
	kind            TEXT NOT NULL,
	local_id        INTEGER NOT NULL,
	play_count      INTEGER NOT NULL DEFAULT 0,
	last_played     INTEGER,
	resume_position INTEGER NOT NULL DEFAULT 0,
	unwatched       INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (source_id, kind)
);
CREATE INDEX IF NOT EXISTS idx_episodes_show ON episodes(show_id, season, episode);
`

const episodeColumns = `e.id, e.show_id, e.source_id, s.title, e.title, e.season, e.episode,
	e.plot, e.file, e.rating, e.play_count, e.resume_position, e.runtime, e.art,
	e.date_added, e.last_played`

// SQLiteIndex implements domain.Index over a SQLite database
type SQLiteIndex struct {
	db *sql.DB
}

// Open opens (or creates) the index database at path
func Open(path string) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init index schema: %w", err)
	}
	return &SQLiteIndex{db: db}, nil
}

func (x *SQLiteIndex) Close() error {
	return x.db.Close()
}

// UpsertShow writes or replaces one show row
func (x *SQLiteIndex) UpsertShow(s domain.ShowEntry, tag string, dateAdded int64) error {
	_, err := x.db.Exec(
		`INSERT OR REPLACE INTO shows (id, source_id, title, tag, last_played, date_added)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.SourceID, s.Title, tag, s.LastPlayed, dateAdded)
	return err
}

// UpsertEpisode writes or replaces one episode row
func (x *SQLiteIndex) UpsertEpisode(e domain.EpisodeEntry) error {
	art := "{}"
	if len(e.Art) > 0 {
		b, err := json.Marshal(e.Art)
		if err != nil {
			return fmt.Errorf("failed to encode art: %w", err)
		}
		art = string(b)
	}
	_, err := x.db.Exec(
		`INSERT OR REPLACE INTO episodes
		 (id, show_id, source_id, title, season, episode, plot, file, rating,
		  play_count, resume_position, runtime, art, date_added, last_played)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ShowID, e.SourceID, e.Title, e.Season, e.Episode, e.Plot, e.File,
		e.Rating, e.PlayCount, e.ResumePosition, e.Runtime, art, e.DateAdded, e.LastPlayed)
	return err
}

// UpsertItem writes or replaces the playback state row for one remote
// identity
func (x *SQLiteIndex) UpsertItem(sourceID string, row domain.IndexRow) error {
	var lastPlayed any
	if row.LastPlayed != nil {
		lastPlayed = *row.LastPlayed
	}
	_, err := x.db.Exec(
		`INSERT OR REPLACE INTO items
		 (source_id, kind, local_id, play_count, last_played, resume_position, unwatched)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sourceID, string(row.Kind), row.LocalID, row.PlayCount, lastPlayed,
		row.ResumePosition, row.Unwatched)
	return err
}

// ByKey returns local playback state for one remote identity, or
// (nil, nil) when the index has no matching row.
func (x *SQLiteIndex) ByKey(sourceID string, kind domain.ItemKind) (*domain.IndexRow, error) {
	row := x.db.QueryRow(
		`SELECT local_id, play_count, last_played, resume_position, unwatched
		 FROM items WHERE source_id = ? AND kind = ?`, sourceID, string(kind))

	var r domain.IndexRow
	var lastPlayed sql.NullInt64
	err := row.Scan(&r.LocalID, &r.PlayCount, &lastPlayed, &r.ResumePosition, &r.Unwatched)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.Kind = kind
	if lastPlayed.Valid {
		v := lastPlayed.Int64
		r.LastPlayed = &v
	}
	return &r, nil
}

func (x *SQLiteIndex) ShowsByTag(tag string) ([]domain.ShowEntry, error) {
	rows, err := x.db.Query(
		`SELECT id, source_id, title, last_played FROM shows
		 WHERE tag = ? ORDER BY date_added DESC`, tag)
	if err != nil {
		return nil, err
	}
	return scanShows(rows)
}

func (x *SQLiteIndex) ShowsInProgress(tag string) ([]domain.ShowEntry, error) {
	rows, err := x.db.Query(
		`SELECT s.id, s.source_id, s.title, s.last_played FROM shows s
		 WHERE s.tag = ?
		   AND EXISTS (SELECT 1 FROM episodes e
		               WHERE e.show_id = s.id AND (e.resume_position > 0 OR e.play_count > 0))
		   AND EXISTS (SELECT 1 FROM episodes e
		               WHERE e.show_id = s.id AND e.play_count < 1)
		 ORDER BY s.last_played DESC`, tag)
	if err != nil {
		return nil, err
	}
	return scanShows(rows)
}

func (x *SQLiteIndex) EpisodesInProgress(showID int64) ([]domain.EpisodeEntry, error) {
	rows, err := x.db.Query(
		`SELECT `+episodeColumns+`
		 FROM episodes e JOIN shows s ON s.id = e.show_id
		 WHERE e.show_id = ? AND e.resume_position > 0 AND e.play_count < 1
		 ORDER BY e.season, e.episode`, showID)
	if err != nil {
		return nil, err
	}
	return scanEpisodes(rows)
}

func (x *SQLiteIndex) NextUnwatched(showID int64, excludeSpecials bool) (*domain.EpisodeEntry, error) {
	query := `SELECT ` + episodeColumns + `
		FROM episodes e JOIN shows s ON s.id = e.show_id
		WHERE e.show_id = ? AND e.play_count < 1`
	if excludeSpecials {
		query += ` AND e.season > 0`
	}
	query += ` ORDER BY e.season, e.episode LIMIT 1`

	rows, err := x.db.Query(query, showID)
	if err != nil {
		return nil, err
	}
	eps, err := scanEpisodes(rows)
	if err != nil {
		return nil, err
	}
	if len(eps) == 0 {
		return nil, nil
	}
	return &eps[0], nil
}

func (x *SQLiteIndex) RecentEpisodes(limit int, unwatchedOnly bool) ([]domain.EpisodeEntry, error) {
	query := `SELECT ` + episodeColumns + `
		FROM episodes e JOIN shows s ON s.id = e.show_id`
	if unwatchedOnly {
		query += ` WHERE e.play_count < 1`
	}
	query += ` ORDER BY e.date_added DESC LIMIT ?`

	rows, err := x.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	return scanEpisodes(rows)
}

func scanShows(rows *sql.Rows) ([]domain.ShowEntry, error) {
	defer rows.Close()
	var out []domain.ShowEntry
	for rows.Next() {
		var s domain.ShowEntry
		if err := rows.Scan(&s.ID, &s.SourceID, &s.Title, &s.LastPlayed); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanEpisodes(rows *sql.Rows) ([]domain.EpisodeEntry, error) {
	defer rows.Close()
	var out []domain.EpisodeEntry
	for rows.Next() {
		var e domain.EpisodeEntry
		var art string
		err := rows.Scan(&e.ID, &e.ShowID, &e.SourceID, &e.ShowTitle, &e.Title,
			&e.Season, &e.Episode, &e.Plot, &e.File, &e.Rating, &e.PlayCount,
			&e.ResumePosition, &e.Runtime, &art, &e.DateAdded, &e.LastPlayed)
		if err != nil {
			return nil, err
		}
		if art != "" && art != "{}" {
			if err := json.Unmarshal([]byte(art), &e.Art); err != nil {
				e.Art = nil
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
