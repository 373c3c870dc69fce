package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `Course Title: Building Toward Computer Use with Anthropic
Course Link: https://example.com/computer-use
Course Instructor: Colt Steele

Lesson 0: Introduction
Lesson Link: https://example.com/computer-use/lesson0
Welcome to the course. This lesson covers the basics.

Lesson 1: API Basics
The messages API accepts content blocks. Each block has a type.
`

func TestParseDocument(t *testing.T) {
	doc, err := parseDocument(strings.NewReader(sampleDoc), "sample.txt")
	require.NoError(t, err)

	assert.Equal(t, "Building Toward Computer Use with Anthropic", doc.course.Title)
	assert.Equal(t, "https://example.com/computer-use", doc.course.Link)
	assert.Equal(t, "Colt Steele", doc.course.Instructor)

	require.Len(t, doc.course.Lessons, 2)
	assert.Equal(t, 0, doc.course.Lessons[0].Number)
	assert.Equal(t, "Introduction", doc.course.Lessons[0].Title)
	assert.Equal(t, "https://example.com/computer-use/lesson0", doc.course.Lessons[0].Link)
	assert.Equal(t, "API Basics", doc.course.Lessons[1].Title)
	assert.Empty(t, doc.course.Lessons[1].Link)

	require.Len(t, doc.lessons, 2)
	assert.Contains(t, doc.lessons[0].text, "Welcome to the course")
	assert.Contains(t, doc.lessons[1].text, "messages API")
}

func TestParseDocumentMissingTitle(t *testing.T) {
	_, err := parseDocument(strings.NewReader("Lesson 0: Intro\ncontent\n"), "bad.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Course Title")
}

func TestParseDocumentEmptyLessonSkipped(t *testing.T) {
	input := "Course Title: T\n\nLesson 0: Empty\n\nLesson 1: Full\nsome content\n"
	doc, err := parseDocument(strings.NewReader(input), "t.txt")
	require.NoError(t, err)

	// Both lessons appear in the outline, but only one has content.
	assert.Len(t, doc.course.Lessons, 2)
	require.Len(t, doc.lessons, 1)
	assert.Equal(t, 1, doc.lessons[0].number)
}

func TestParseCourseFileHTML(t *testing.T) {
	page := `<html><head><style>body {}</style></head><body>
	<p>Course Title: Web Course</p>
	<p>Course Instructor: Jane</p>
	<p>Lesson 0: Start</p>
	<div>Hello from HTML.</div>
	</body></html>`

	path := filepath.Join(t.TempDir(), "course.html")
	require.NoError(t, os.WriteFile(path, []byte(page), 0644))

	doc, err := ParseCourseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Web Course", doc.course.Title)
	assert.Equal(t, "Jane", doc.course.Instructor)
	require.Len(t, doc.lessons, 1)
	assert.Contains(t, doc.lessons[0].text, "Hello from HTML.")
}

func TestSupportedFile(t *testing.T) {
	assert.True(t, SupportedFile("a.txt"))
	assert.True(t, SupportedFile("a.md"))
	assert.True(t, SupportedFile("a.HTML"))
	assert.False(t, SupportedFile("a.pdf"))
	assert.False(t, SupportedFile("a"))
}
