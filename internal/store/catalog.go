package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"coursemind/internal/logging"
)

func marshalLessons(lessons []Lesson) (string, error) {
	if lessons == nil {
		lessons = []Lesson{}
	}
	data, err := json.Marshal(lessons)
	if err != nil {
		return "", fmt.Errorf("failed to marshal lessons: %w", err)
	}
	return string(data), nil
}

// ResolveCourseName maps a partial or differently-cased course name to the
// canonical catalog title. Matching tries, in order: exact (case-insensitive),
// substring, then word-prefix. Returns a NotFoundError when nothing matches.
func (s *VectorStore) ResolveCourseName(ctx context.Context, name string) (string, error) {
	titles, err := s.CourseTitles(ctx)
	if err != nil {
		return "", err
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", courseNotFound(name)
	}

	for _, t := range titles {
		if strings.ToLower(t) == needle {
			return t, nil
		}
	}
	for _, t := range titles {
		if strings.Contains(strings.ToLower(t), needle) {
			return t, nil
		}
	}
	for _, t := range titles {
		for _, word := range strings.Fields(strings.ToLower(t)) {
			if strings.HasPrefix(word, needle) {
				return t, nil
			}
		}
	}

	logging.StoreDebug("Course resolution miss for %q against %d titles", name, len(titles))
	return "", courseNotFound(name)
}

// GetCourseOutline loads a course and its lesson list by (fuzzy) name.
func (s *VectorStore) GetCourseOutline(ctx context.Context, name string) (*Course, error) {
	title, err := s.ResolveCourseName(ctx, name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var course Course
	var lessonsJSON string
	row := s.db.QueryRowContext(ctx,
		"SELECT title, link, instructor, lessons_json FROM courses WHERE title = ?", title)
	if err := row.Scan(&course.Title, &course.Link, &course.Instructor, &lessonsJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, courseNotFound(name)
		}
		return nil, fmt.Errorf("failed to load course %q: %w", title, err)
	}
	if err := json.Unmarshal([]byte(lessonsJSON), &course.Lessons); err != nil {
		return nil, fmt.Errorf("failed to decode lessons for %q: %w", title, err)
	}
	return &course, nil
}

// LessonLink returns the stored link for one lesson of a course, or ""
// when the lesson has no link.
func (s *VectorStore) LessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error) {
	course, err := s.GetCourseOutline(ctx, courseTitle)
	if err != nil {
		return "", err
	}
	for _, l := range course.Lessons {
		if l.Number == lessonNumber {
			return l.Link, nil
		}
	}
	return "", nil
}

// CourseCount returns the number of courses in the catalog.
func (s *VectorStore) CourseCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM courses").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return count, nil
}

// CourseTitles lists all catalog titles in insertion-stable order.
func (s *VectorStore) CourseTitles(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT title FROM courses ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// ExistingCourseTitles returns the catalog titles as a set, used by
// ingestion to skip documents that are already indexed.
func (s *VectorStore) ExistingCourseTitles(ctx context.Context) (map[string]bool, error) {
	titles, err := s.CourseTitles(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(titles))
	for _, t := range titles {
		set[t] = true
	}
	return set, nil
}
