package sink

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/akhmedovh4mid/GoogleAdsParser/internal/logging"
)

const createMatchesTable = `
CREATE TABLE IF NOT EXISTS ad_matches (
	id            UUID PRIMARY KEY,
	device_serial TEXT NOT NULL,
	region        TEXT NOT NULL,
	url_hash      TEXT NOT NULL,
	url           TEXT NOT NULL,
	ad_text       TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL,
	UNIQUE (device_serial, url_hash)
)`

const upsertMatch = `
INSERT INTO ad_matches (id, device_serial, region, url_hash, url, ad_text, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (device_serial, url_hash)
DO UPDATE SET region = EXCLUDED.region, ad_text = EXCLUDED.ad_text, created_at = EXCLUDED.created_at`

// MatchIndex mirrors stored artifacts into Postgres for querying across
// devices. The filesystem sink stays the source of truth; index
// failures are logged and swallowed.
type MatchIndex struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewMatchIndex connects to Postgres at databaseURL and ensures the
// matches table exists.
func NewMatchIndex(databaseURL string, logger *logging.Logger) (*MatchIndex, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(createMatchesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure matches table: %w", err)
	}
	return &MatchIndex{db: db, logger: logger.Child("index")}, nil
}

// Close releases the database connection pool.
func (m *MatchIndex) Close() error {
	return m.db.Close()
}

// Record upserts one artifact keyed by device serial and URL hash.
func (m *MatchIndex) Record(artifact Artifact) {
	_, err := m.db.Exec(upsertMatch,
		uuid.New().String(),
		artifact.Serial,
		artifact.Region,
		HashURL(artifact.URL),
		artifact.URL,
		artifact.Text,
		time.Now().UTC(),
	)
	if err != nil {
		m.logger.Warn("match index upsert failed", "error", err, "url", artifact.URL)
		return
	}
	m.logger.Debug("match indexed", "serial", artifact.Serial, "url", artifact.URL)
}
