// Package image persists snapshots of runtime variables in SQLite.
//
// A snapshot is a named, timestamped set of variables. Each variable's value
// is stored as a CBOR tree (see MarshalVariant) so hashes come back with the
// same keys, values and enumeration order.
package image

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/uds/pkg/variant"
)

var log = commonlog.GetLogger("uds.image")

// ErrSnapshotNotFound indicates the requested snapshot doesn't exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	collation  TEXT NOT NULL,
	digest     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS snapshots_name ON snapshots (name, created_at);
CREATE TABLE IF NOT EXISTS variables (
	snapshot_id TEXT NOT NULL REFERENCES snapshots (id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	name        TEXT NOT NULL,
	data        BLOB NOT NULL,
	PRIMARY KEY (snapshot_id, position)
);
`

// Binding is a named variable.
type Binding struct {
	Name  string
	Value *variant.Variant
}

// Snapshot describes a saved set of variables.
type Snapshot struct {
	ID        string
	Name      string
	CreatedAt time.Time
	// Collation is the setting in effect at save time. Each hash keeps the
	// collation it was built with.
	Collation variant.Collation
	Vars      int
	// Digest is the SHA-256 of the encoded variables; equal content gives
	// equal digests.
	Digest string
}

// Store is a snapshot database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the snapshot database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating image directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA foreign_keys = ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	log.Debugf("opened image %s", path)
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores vars as a new snapshot called name and returns its metadata.
func (s *Store) Save(ctx context.Context, name string, vars []Binding) (Snapshot, error) {
	snap := Snapshot{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Collation: variant.CurrentCollation(),
		Vars:      len(vars),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	encoded := make([][]byte, len(vars))
	for i, b := range vars {
		data, err := MarshalVariant(b.Value)
		if err != nil {
			return Snapshot{}, fmt.Errorf("encoding %s: %w", b.Name, err)
		}
		encoded[i] = data
	}
	snap.Digest = digest(vars, encoded)

	_, err = tx.ExecContext(ctx,
		"INSERT INTO snapshots (id, name, created_at, collation, digest) VALUES (?, ?, ?, ?, ?)",
		snap.ID, snap.Name, snap.CreatedAt.UnixNano(), snap.Collation.String(), snap.Digest,
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("saving snapshot: %w", err)
	}

	for i, b := range vars {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO variables (snapshot_id, position, name, data) VALUES (?, ?, ?, ?)",
			snap.ID, i, b.Name, encoded[i],
		)
		if err != nil {
			return Snapshot{}, fmt.Errorf("saving %s: %w", b.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("committing snapshot: %w", err)
	}

	log.Infof("saved snapshot %s (%s) with %d variables", snap.ID, snap.Name, snap.Vars)
	return snap, nil
}

// Resolve finds a snapshot by ID, or the most recent one with the given name.
func (s *Store) Resolve(ctx context.Context, ref string) (Snapshot, error) {
	query := `SELECT s.id, s.name, s.created_at, s.collation, s.digest,
		(SELECT COUNT(*) FROM variables v WHERE v.snapshot_id = s.id)
		FROM snapshots s WHERE s.name = ? ORDER BY s.created_at DESC LIMIT 1`
	if _, err := uuid.Parse(ref); err == nil {
		query = `SELECT s.id, s.name, s.created_at, s.collation, s.digest,
		(SELECT COUNT(*) FROM variables v WHERE v.snapshot_id = s.id)
		FROM snapshots s WHERE s.id = ?`
	}

	snap, err := scanSnapshot(s.db.QueryRowContext(ctx, query, ref))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, fmt.Errorf("%q: %w", ref, ErrSnapshotNotFound)
		}
		return Snapshot{}, fmt.Errorf("querying snapshot: %w", err)
	}
	return snap, nil
}

// Load returns the variables of the snapshot ref (an ID or a name) in the
// order they were saved.
func (s *Store) Load(ctx context.Context, ref string) (Snapshot, []Binding, error) {
	snap, err := s.Resolve(ctx, ref)
	if err != nil {
		return Snapshot{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, data FROM variables WHERE snapshot_id = ? ORDER BY position", snap.ID)
	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("querying variables: %w", err)
	}
	defer rows.Close()

	var vars []Binding
	for rows.Next() {
		var name string
		var data []byte
		if err := rows.Scan(&name, &data); err != nil {
			return Snapshot{}, nil, fmt.Errorf("scanning variable: %w", err)
		}
		v, err := UnmarshalVariant(data)
		if err != nil {
			return Snapshot{}, nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		vars = append(vars, Binding{Name: name, Value: v})
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, nil, fmt.Errorf("reading variables: %w", err)
	}

	log.Debugf("loaded snapshot %s with %d variables", snap.ID, len(vars))
	return snap, vars, nil
}

// List returns all snapshots, newest first.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT s.id, s.name, s.created_at, s.collation, s.digest,
		(SELECT COUNT(*) FROM variables v WHERE v.snapshot_id = s.id)
		FROM snapshots s ORDER BY s.created_at DESC, s.id`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Delete removes the snapshot ref and its variables.
func (s *Store) Delete(ctx context.Context, ref string) error {
	snap, err := s.Resolve(ctx, ref)
	if err != nil {
		return err
	}
	for _, stmt := range []string{
		"DELETE FROM variables WHERE snapshot_id = ?",
		"DELETE FROM snapshots WHERE id = ?",
	} {
		if _, err := s.db.ExecContext(ctx, stmt, snap.ID); err != nil {
			return fmt.Errorf("deleting snapshot: %w", err)
		}
	}
	log.Infof("deleted snapshot %s", snap.ID)
	return nil
}

// digest hashes length-prefixed names and encoded values in order.
func digest(vars []Binding, encoded [][]byte) string {
	h := sha256.New()
	var n [8]byte
	for i, b := range vars {
		binary.BigEndian.PutUint64(n[:], uint64(len(b.Name)))
		h.Write(n[:])
		h.Write([]byte(b.Name))
		binary.BigEndian.PutUint64(n[:], uint64(len(encoded[i])))
		h.Write(n[:])
		h.Write(encoded[i])
	}
	return hex.EncodeToString(h.Sum(nil))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var snap Snapshot
	var created int64
	var coll string
	if err := row.Scan(&snap.ID, &snap.Name, &created, &coll, &snap.Digest, &snap.Vars); err != nil {
		return Snapshot{}, err
	}
	snap.CreatedAt = time.Unix(0, created).UTC()
	c, err := variant.ParseCollation(coll)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Collation = c
	return snap, nil
}
