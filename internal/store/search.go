package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"coursemind/internal/logging"
)

// Search retrieves the chunks most relevant to query. courseName, when
// non-empty, is fuzzy-resolved against the catalog and an unresolvable
// name yields a NotFoundError. lessonNumber, when non-nil, restricts
// results to one lesson. limit <= 0 applies the store default.
func (s *VectorStore) Search(ctx context.Context, query, courseName string, lessonNumber *int, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	var title string
	if courseName != "" {
		resolved, err := s.ResolveCourseName(ctx, courseName)
		if err != nil {
			return nil, err
		}
		title = resolved
	}

	if s.vectorExt && s.engine != nil {
		results, err := s.vectorSearch(ctx, query, title, lessonNumber, limit)
		if err == nil {
			return results, nil
		}
		logging.StoreDebug("Vector search failed, falling back to keyword: %v", err)
	}
	return s.keywordSearch(ctx, query, title, lessonNumber, limit)
}

func (s *VectorStore) vectorSearch(ctx context.Context, query, title string, lessonNumber *int, limit int) ([]SearchResult, error) {
	vec, err := s.engine.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	blob := encodeFloat32SliceToBlob(vec)

	s.mu.RLock()
	defer s.mu.RUnlock()

	stmt := `
		SELECT c.content, c.course_title, c.lesson_number,
		       vec_distance_cosine(v.embedding, ?) AS distance
		FROM vec_chunks v
		JOIN chunks c ON c.id = v.chunk_id
	`
	args := []interface{}{blob}
	var where []string
	if title != "" {
		where = append(where, "c.course_title = ?")
		args = append(args, title)
	}
	if lessonNumber != nil {
		where = append(where, "c.lesson_number = ?")
		args = append(args, *lessonNumber)
	}
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY distance LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("vector search query failed: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// keywordSearch ranks chunks by how many query terms they contain. It is
// the degraded path for databases opened without the vec extension.
func (s *VectorStore) keywordSearch(ctx context.Context, query, title string, lessonNumber *int, limit int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stmt := "SELECT content, course_title, lesson_number FROM chunks"
	var args []interface{}
	var where []string
	if title != "" {
		where = append(where, "course_title = ?")
		args = append(args, title)
	}
	if lessonNumber != nil {
		where = append(where, "lesson_number = ?")
		args = append(args, *lessonNumber)
	}
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("keyword search query failed: %w", err)
	}
	defer rows.Close()

	terms := strings.Fields(strings.ToLower(query))
	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var lesson sqlNullInt
		if err := rows.Scan(&r.Content, &r.CourseTitle, &lesson); err != nil {
			return nil, err
		}
		r.LessonNumber = lesson.ptr()

		hits := 0
		lower := strings.ToLower(r.Content)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		// Lower distance is better, mirroring the cosine path.
		r.Distance = 1.0 / float64(hits)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var lesson sqlNullInt
		if err := rows.Scan(&r.Content, &r.CourseTitle, &lesson, &r.Distance); err != nil {
			return nil, err
		}
		r.LessonNumber = lesson.ptr()
		results = append(results, r)
	}
	return results, rows.Err()
}

type sqlNullInt struct {
	sql.NullInt64
}

func (n sqlNullInt) ptr() *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
