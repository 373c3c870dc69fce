package store

import "fmt"

// Lesson is a single lesson in a course outline.
type Lesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// Course is the catalog entry for one ingested course.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"course_link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Chunk is one indexed slice of course content.
type Chunk struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	ChunkIndex   int
}

// SearchResult is one retrieval hit, ordered by ascending distance.
type SearchResult struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	Distance     float64
}

// NotFoundError reports a filter that matched nothing. Its text is shown
// to the model verbatim, so it stays human-readable.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// IsNotFound reports whether err is a filter-miss from this store.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

func courseNotFound(name string) error {
	return &NotFoundError{Msg: fmt.Sprintf("No course found matching '%s'", name)}
}
