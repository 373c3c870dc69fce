package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"coursemind/internal/embedding"
	"coursemind/internal/logging"
)

// VectorStore holds the course catalog and the chunk index in a single
// sqlite database. Semantic search uses the sqlite-vec vec0 virtual table
// when the extension is available and falls back to keyword matching
// when it is not.
type VectorStore struct {
	db         *sql.DB
	mu         sync.RWMutex
	engine     embedding.Engine
	maxResults int
	vectorExt  bool
}

// NewVectorStore opens (or creates) the database at path and runs migrations.
func NewVectorStore(path string, engine embedding.Engine, maxResults int) (*VectorStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	if maxResults <= 0 {
		maxResults = 5
	}

	s := &VectorStore{
		db:         db,
		engine:     engine,
		maxResults: maxResults,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	s.detectVecExtension()
	if s.vectorExt {
		if err := s.createVecIndex(); err != nil {
			logging.StoreDebug("Failed to create vec index, using keyword fallback: %v", err)
			s.vectorExt = false
		}
	}

	logging.Store("Vector store opened at %s (vec extension: %v)", path, s.vectorExt)
	return s, nil
}

func (s *VectorStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS courses (
		title        TEXT PRIMARY KEY,
		link         TEXT NOT NULL DEFAULT '',
		instructor   TEXT NOT NULL DEFAULT '',
		lessons_json TEXT NOT NULL DEFAULT '[]'
	);
	CREATE TABLE IF NOT EXISTS chunks (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		course_title  TEXT NOT NULL,
		lesson_number INTEGER,
		chunk_index   INTEGER NOT NULL,
		content       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_course ON chunks(course_title);
	CREATE INDEX IF NOT EXISTS idx_chunks_lesson ON chunks(course_title, lesson_number);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run store migrations: %w", err)
	}
	return nil
}

// detectVecExtension attempts to create a vec0 virtual table to see if
// sqlite-vec is available.
func (s *VectorStore) detectVecExtension() {
	if _, err := s.db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS vec_probe USING vec0(embedding float[4])"); err == nil {
		s.vectorExt = true
		_, _ = s.db.Exec("DROP TABLE IF EXISTS vec_probe")
		return
	}
	s.vectorExt = false
}

func (s *VectorStore) createVecIndex() error {
	dim := 768
	if s.engine != nil {
		dim = s.engine.Dimensions()
	}
	query := fmt.Sprintf("CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(embedding float[%d], chunk_id INTEGER)", dim)
	_, err := s.db.Exec(query)
	return err
}

// Close releases the database connection.
func (s *VectorStore) Close() error {
	logging.Store("Closing vector store")
	return s.db.Close()
}

// AddCourse upserts a catalog entry. The title is the stable identity of
// a course, so re-ingesting a document replaces its metadata in place.
func (s *VectorStore) AddCourse(ctx context.Context, course Course) error {
	if course.Title == "" {
		return fmt.Errorf("course title is required")
	}
	lessons, err := marshalLessons(course.Lessons)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO courses (title, link, instructor, lessons_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(title) DO UPDATE SET
			link = excluded.link,
			instructor = excluded.instructor,
			lessons_json = excluded.lessons_json
	`, course.Title, course.Link, course.Instructor, lessons)
	if err != nil {
		return fmt.Errorf("failed to add course %q: %w", course.Title, err)
	}

	logging.Store("Added course: %s (%d lessons)", course.Title, len(course.Lessons))
	return nil
}

// AddChunks embeds and indexes a batch of content chunks in one transaction.
func (s *VectorStore) AddChunks(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	var vectors [][]float32
	if s.vectorExt && s.engine != nil {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}
		var err error
		vectors, err = s.engine.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed %d chunks: %w", len(chunks), err)
		}
		if len(vectors) != len(chunks) {
			return fmt.Errorf("embedding engine returned %d vectors for %d chunks", len(vectors), len(chunks))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin chunk transaction: %w", err)
	}
	defer tx.Rollback()

	for i, c := range chunks {
		var lesson sql.NullInt64
		if c.LessonNumber != nil {
			lesson = sql.NullInt64{Int64: int64(*c.LessonNumber), Valid: true}
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (course_title, lesson_number, chunk_index, content)
			VALUES (?, ?, ?, ?)
		`, c.CourseTitle, lesson, c.ChunkIndex, c.Content)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
		if vectors != nil {
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to read chunk rowid: %w", err)
			}
			blob := encodeFloat32SliceToBlob(vectors[i])
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO vec_chunks (embedding, chunk_id) VALUES (?, ?)", blob, id); err != nil {
				return fmt.Errorf("failed to index chunk %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunk transaction: %w", err)
	}

	logging.StoreDebug("Indexed %d chunks", len(chunks))
	return nil
}

// DeleteChunks removes a course's indexed content, used before
// re-ingesting a changed document.
func (s *VectorStore) DeleteChunks(ctx context.Context, courseTitle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vectorExt {
		_, err := s.db.ExecContext(ctx, `
			DELETE FROM vec_chunks WHERE chunk_id IN
				(SELECT id FROM chunks WHERE course_title = ?)
		`, courseTitle)
		if err != nil {
			return fmt.Errorf("failed to delete vec entries for %q: %w", courseTitle, err)
		}
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chunks WHERE course_title = ?", courseTitle); err != nil {
		return fmt.Errorf("failed to delete chunks for %q: %w", courseTitle, err)
	}
	return nil
}

// Clear removes all catalog entries and indexed content.
func (s *VectorStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range []string{
		"DELETE FROM chunks",
		"DELETE FROM courses",
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear store: %w", err)
		}
	}
	if s.vectorExt {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM vec_chunks"); err != nil {
			return fmt.Errorf("failed to clear vec index: %w", err)
		}
	}
	logging.Store("Vector store cleared")
	return nil
}

// encodeFloat32SliceToBlob encodes a float32 slice as a binary blob for
// sqlite-vec. Uses little-endian encoding as expected by sqlite-vec.
func encodeFloat32SliceToBlob(vec []float32) []byte {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		// Should never happen with bytes.Buffer
		return nil
	}
	return buf.Bytes()
}
