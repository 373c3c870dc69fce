package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func newTestStore(t *testing.T) *VectorStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewVectorStore(path, nil, 5)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedCourses(t *testing.T, s *VectorStore) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.AddCourse(ctx, Course{
		Title:      "Building Toward Computer Use with Anthropic",
		Link:       "https://example.com/computer-use",
		Instructor: "Colt Steele",
		Lessons: []Lesson{
			{Number: 0, Title: "Introduction", Link: "https://example.com/computer-use/lesson0"},
			{Number: 1, Title: "API Basics", Link: "https://example.com/computer-use/lesson1"},
		},
	}))
	require.NoError(t, s.AddCourse(ctx, Course{
		Title:      "MCP: Build Rich-Context AI Apps",
		Link:       "https://example.com/mcp",
		Instructor: "Elie Schoppik",
		Lessons: []Lesson{
			{Number: 0, Title: "Why MCP"},
			{Number: 1, Title: "Chatbot Example", Link: "https://example.com/mcp/lesson1"},
		},
	}))

	require.NoError(t, s.AddChunks(ctx, []Chunk{
		{Content: "Anthropic computer use lets Claude control a desktop", CourseTitle: "Building Toward Computer Use with Anthropic", LessonNumber: intPtr(0), ChunkIndex: 0},
		{Content: "The messages API accepts a list of content blocks", CourseTitle: "Building Toward Computer Use with Anthropic", LessonNumber: intPtr(1), ChunkIndex: 1},
		{Content: "MCP servers expose tools over a standard protocol", CourseTitle: "MCP: Build Rich-Context AI Apps", LessonNumber: intPtr(0), ChunkIndex: 0},
		{Content: "A chatbot can call MCP tools to fetch context", CourseTitle: "MCP: Build Rich-Context AI Apps", LessonNumber: intPtr(1), ChunkIndex: 1},
	}))
}

func TestAddCourseUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddCourse(ctx, Course{Title: "Intro", Instructor: "A"}))
	require.NoError(t, s.AddCourse(ctx, Course{Title: "Intro", Instructor: "B"}))

	count, err := s.CourseCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	course, err := s.GetCourseOutline(ctx, "Intro")
	require.NoError(t, err)
	assert.Equal(t, "B", course.Instructor)
}

func TestAddCourseRequiresTitle(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.AddCourse(context.Background(), Course{}))
}

func TestResolveCourseName(t *testing.T) {
	s := newTestStore(t)
	seedCourses(t, s)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"exact", "MCP: Build Rich-Context AI Apps", "MCP: Build Rich-Context AI Apps"},
		{"case insensitive", "mcp: build rich-context ai apps", "MCP: Build Rich-Context AI Apps"},
		{"substring", "computer use", "Building Toward Computer Use with Anthropic"},
		{"word prefix", "anthro", "Building Toward Computer Use with Anthropic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ResolveCourseName(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCourseNameNotFound(t *testing.T) {
	s := newTestStore(t)
	seedCourses(t, s)

	_, err := s.ResolveCourseName(context.Background(), "Quantum Basket Weaving")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "No course found matching 'Quantum Basket Weaving'", err.Error())
}

func TestSearchKeywordFallback(t *testing.T) {
	s := newTestStore(t)
	seedCourses(t, s)
	ctx := context.Background()

	results, err := s.Search(ctx, "MCP protocol tools", "", nil, 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "MCP: Build Rich-Context AI Apps", results[0].CourseTitle)
}

func TestSearchCourseFilter(t *testing.T) {
	s := newTestStore(t)
	seedCourses(t, s)
	ctx := context.Background()

	results, err := s.Search(ctx, "tools", "MCP", nil, 5)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, "MCP: Build Rich-Context AI Apps", r.CourseTitle)
	}
}

func TestSearchLessonFilter(t *testing.T) {
	s := newTestStore(t)
	seedCourses(t, s)
	ctx := context.Background()

	results, err := s.Search(ctx, "chatbot MCP", "MCP", intPtr(1), 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].LessonNumber)
	assert.Equal(t, 1, *results[0].LessonNumber)
}

func TestSearchUnknownCourse(t *testing.T) {
	s := newTestStore(t)
	seedCourses(t, s)

	_, err := s.Search(context.Background(), "anything", "Nonexistent", nil, 5)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestSearchLimit(t *testing.T) {
	s := newTestStore(t)
	seedCourses(t, s)

	results, err := s.Search(context.Background(), "the", "", nil, 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 1)
}

func TestLessonLink(t *testing.T) {
	s := newTestStore(t)
	seedCourses(t, s)
	ctx := context.Background()

	link, err := s.LessonLink(ctx, "MCP", 1)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/mcp/lesson1", link)

	// Lesson without a stored link.
	link, err = s.LessonLink(ctx, "MCP", 0)
	require.NoError(t, err)
	assert.Empty(t, link)

	// Unknown lesson number.
	link, err = s.LessonLink(ctx, "MCP", 99)
	require.NoError(t, err)
	assert.Empty(t, link)
}

func TestGetCourseOutline(t *testing.T) {
	s := newTestStore(t)
	seedCourses(t, s)

	course, err := s.GetCourseOutline(context.Background(), "computer use")
	require.NoError(t, err)
	assert.Equal(t, "Building Toward Computer Use with Anthropic", course.Title)
	assert.Equal(t, "https://example.com/computer-use", course.Link)

	wantLessons := []Lesson{
		{Number: 0, Title: "Introduction", Link: "https://example.com/computer-use/lesson0"},
		{Number: 1, Title: "API Basics", Link: "https://example.com/computer-use/lesson1"},
	}
	if diff := cmp.Diff(wantLessons, course.Lessons); diff != "" {
		t.Errorf("lessons mismatch (-want +got):\n%s", diff)
	}
}

func TestExistingCourseTitles(t *testing.T) {
	s := newTestStore(t)
	seedCourses(t, s)

	set, err := s.ExistingCourseTitles(context.Background())
	require.NoError(t, err)
	assert.True(t, set["MCP: Build Rich-Context AI Apps"])
	assert.False(t, set["Missing"])
}

func TestClear(t *testing.T) {
	s := newTestStore(t)
	seedCourses(t, s)
	ctx := context.Background()

	require.NoError(t, s.Clear(ctx))

	count, err := s.CourseCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	results, err := s.Search(ctx, "MCP", "", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
