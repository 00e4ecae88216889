// Package sqlite implements a durable core.MemoryStore on SQLite
// (modernc.org/sqlite, no cgo). Similarity is computed in process over the
// namespace's rows, using stored embeddings when an embedder is configured
// and lexical term cosine otherwise.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hupe1980/voiceagent/core"
	"github.com/hupe1980/voiceagent/memory"
)

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	id            TEXT NOT NULL,
	namespace     TEXT NOT NULL,
	session_id    TEXT,
	content       TEXT NOT NULL,
	type          TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	weight        REAL NOT NULL DEFAULT 0,
	metadata_json TEXT,
	embedding     BLOB,
	PRIMARY KEY (namespace, id)
);

CREATE INDEX IF NOT EXISTS idx_memories_namespace_type ON memories(namespace, type);
`

var _ core.MemoryStore = (*Store)(nil)

// Options configures a Store.
type Options struct {
	// Embedder enables vector similarity. Nil falls back to lexical matching.
	Embedder core.Embedder
}

// Store is a SQLite-backed MemoryStore.
type Store struct {
	db       *sql.DB
	embedder core.Embedder
}

// NewStore opens a SQLite database at dbPath and runs migrations.
func NewStore(dbPath string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one writer keeps weight updates serialized without SQLITE_BUSY retries
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, embedder: opts.Embedder}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append inserts rec. A missing id is generated.
func (s *Store) Append(ctx context.Context, rec core.MemoryRecord) (string, error) {
	if !rec.Namespace.Valid() {
		return "", fmt.Errorf("append: invalid namespace %q", rec.Namespace)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var metaJSON []byte
	if len(rec.Metadata) > 0 {
		b, err := json.Marshal(rec.Metadata)
		if err != nil {
			return "", fmt.Errorf("marshal metadata: %w", err)
		}
		metaJSON = b
	}

	var emb []byte
	if s.embedder != nil {
		v, err := s.embedder.Embed(ctx, rec.Content)
		if err != nil {
			return "", fmt.Errorf("embed: %w", err)
		}
		emb = encodeVector(v)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memories (id, namespace, session_id, content, type, created_at, weight, metadata_json, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Namespace.String(), rec.SessionID, rec.Content, string(rec.Type),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano), core.Clamp(rec.ReinforcementWeight, -1, 1),
		nullString(metaJSON), emb,
	)
	if err != nil {
		return "", fmt.Errorf("insert memory: %w", err)
	}
	return rec.ID, nil
}

// Search scores every record in the namespace and returns the top q.K.
func (s *Store) Search(ctx context.Context, q core.SearchQuery) ([]core.Candidate, error) {
	var (
		queryVec   []float32
		queryTerms map[string]float64
	)
	if s.embedder != nil {
		v, err := s.embedder.Embed(ctx, q.Text)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		queryVec = v
	} else {
		queryTerms = memory.Terms(q.Text)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, content, type, created_at, weight, metadata_json, embedding
		 FROM memories WHERE namespace = ?`, q.Namespace.String())
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	var out []core.Candidate
	for rows.Next() {
		rec, emb, err := scanRecord(rows, q.Namespace)
		if err != nil {
			return nil, err
		}
		if !q.Accepts(rec.Type) {
			continue
		}
		var score float64
		if queryVec != nil && emb != nil {
			score = memory.VectorCosine(queryVec, decodeVector(emb))
		} else {
			score = memory.TermCosine(queryTerms, memory.Terms(rec.Content))
		}
		out = append(out, core.Candidate{Record: rec, SemanticScore: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memories: %w", err)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SemanticScore != b.SemanticScore {
			return a.SemanticScore > b.SemanticScore
		}
		if !a.Record.CreatedAt.Equal(b.Record.CreatedAt) {
			return a.Record.CreatedAt.After(b.Record.CreatedAt)
		}
		return a.Record.ID < b.Record.ID
	})
	if q.K > 0 && len(out) > q.K {
		out = out[:q.K]
	}
	return out, nil
}

// UpdateWeight adds delta to a record's weight inside a transaction,
// clamped to [-1,1].
func (s *Store) UpdateWeight(ctx context.Context, ns core.Namespace, id string, delta float64) (float64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var w float64
	err = tx.QueryRowContext(ctx,
		`SELECT weight FROM memories WHERE namespace = ? AND id = ?`, ns.String(), id).Scan(&w)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s in %s", memory.ErrNotFound, id, ns)
	}
	if err != nil {
		return 0, fmt.Errorf("select weight: %w", err)
	}

	w = core.Clamp(w+delta, -1, 1)
	if _, err := tx.ExecContext(ctx,
		`UPDATE memories SET weight = ? WHERE namespace = ? AND id = ?`, w, ns.String(), id); err != nil {
		return 0, fmt.Errorf("update weight: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return w, nil
}

// Get returns a record by id.
func (s *Store) Get(ctx context.Context, ns core.Namespace, id string) (*core.MemoryRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, content, type, created_at, weight, metadata_json, embedding
		 FROM memories WHERE namespace = ? AND id = ?`, ns.String(), id)
	rec, _, err := scanRecord(row, ns)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s in %s", memory.ErrNotFound, id, ns)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner, ns core.Namespace) (core.MemoryRecord, []byte, error) {
	var (
		rec       core.MemoryRecord
		sessionID sql.NullString
		typ       string
		createdAt string
		metaJSON  sql.NullString
		emb       []byte
	)
	if err := sc.Scan(&rec.ID, &sessionID, &rec.Content, &typ, &createdAt, &rec.ReinforcementWeight, &metaJSON, &emb); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, nil, err
		}
		return rec, nil, fmt.Errorf("scan memory: %w", err)
	}
	rec.Namespace = ns
	rec.SessionID = sessionID.String
	rec.Type = core.MemoryType(typ)
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return rec, nil, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = ts
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &rec.Metadata); err != nil {
			return rec, nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return rec, emb, nil
}

func nullString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
