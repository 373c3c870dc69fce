package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemind/internal/config"
	"coursemind/internal/generator"
	"coursemind/internal/ingest"
	"coursemind/internal/llm"
	"coursemind/internal/session"
	"coursemind/internal/store"
	"coursemind/internal/tools"
)

// stubAnswerer records Generate calls and optionally drives tools.
type stubAnswerer struct {
	answer    string
	err       error
	toolCalls []toolCall

	gotQuery   string
	gotHistory string
	gotDefs    []llm.ToolDefinition
}

type toolCall struct {
	name string
	args map[string]any
}

func (s *stubAnswerer) Generate(ctx context.Context, query, history string, toolDefs []llm.ToolDefinition, executor generator.ToolExecutor) (string, error) {
	s.gotQuery = query
	s.gotHistory = history
	s.gotDefs = toolDefs
	for _, call := range s.toolCalls {
		_, _ = executor.Execute(ctx, call.name, call.args)
	}
	return s.answer, s.err
}

func newTestSystem(t *testing.T, gen Answerer) *System {
	t.Helper()
	vs, err := store.NewVectorStore(filepath.Join(t.TempDir(), "t.db"), nil, 5)
	require.NoError(t, err)
	t.Cleanup(func() { vs.Close() })

	registry := tools.NewRegistry()
	registry.MustRegister(tools.NewSearchTool(vs))
	registry.MustRegister(tools.NewOutlineTool(vs))

	return &System{
		cfg:       config.DefaultConfig(),
		gen:       gen,
		registry:  registry,
		sessions:  session.NewManager(2),
		store:     vs,
		processor: ingest.NewProcessor(vs, 800, 100),
	}
}

func seedCourse(t *testing.T, s *System) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.store.AddCourse(ctx, store.Course{
		Title: "MCP Basics",
		Lessons: []store.Lesson{
			{Number: 1, Title: "Intro", Link: "https://example.com/l1"},
		},
	}))
	one := 1
	require.NoError(t, s.store.AddChunks(ctx, []store.Chunk{
		{Content: "MCP servers expose tools", CourseTitle: "MCP Basics", LessonNumber: &one},
	}))
}

func TestAnswerWrapsQuery(t *testing.T) {
	gen := &stubAnswerer{answer: "hi"}
	sys := newTestSystem(t, gen)

	answer, _, err := sys.Answer(context.Background(), "What is MCP?", "")
	require.NoError(t, err)

	assert.Equal(t, "hi", answer)
	assert.Equal(t, "Answer this question about course materials: What is MCP?", gen.gotQuery)
	require.Len(t, gen.gotDefs, 2)
	assert.Equal(t, "search_course_content", gen.gotDefs[0].Name)
	assert.Equal(t, "get_course_outline", gen.gotDefs[1].Name)
}

func TestAnswerCollectsAndResetsSources(t *testing.T) {
	gen := &stubAnswerer{
		answer: "MCP lets models call tools.",
		toolCalls: []toolCall{
			{name: "search_course_content", args: map[string]any{"query": "MCP servers"}},
		},
	}
	sys := newTestSystem(t, gen)
	seedCourse(t, sys)

	_, sources, err := sys.Answer(context.Background(), "What is MCP?", "")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "MCP Basics - Lesson 1", sources[0].Text)
	assert.Equal(t, "https://example.com/l1", sources[0].Link)

	// A query that uses no tools must not inherit stale sources.
	gen.toolCalls = nil
	_, sources, err = sys.Answer(context.Background(), "Thanks!", "")
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestAnswerFailedQueryLeavesNoStaleSources(t *testing.T) {
	gen := &stubAnswerer{
		err: errors.New("model down"),
		toolCalls: []toolCall{
			{name: "search_course_content", args: map[string]any{"query": "MCP servers"}},
		},
	}
	sys := newTestSystem(t, gen)
	seedCourse(t, sys)

	_, _, err := sys.Answer(context.Background(), "What is MCP?", "")
	require.Error(t, err)

	gen.err = nil
	gen.answer = "no tools this time"
	gen.toolCalls = nil
	_, sources, err := sys.Answer(context.Background(), "Thanks!", "")
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestAnswerSessionHistory(t *testing.T) {
	gen := &stubAnswerer{answer: "first answer"}
	sys := newTestSystem(t, gen)
	id := sys.CreateSession()

	_, _, err := sys.Answer(context.Background(), "first question", id)
	require.NoError(t, err)
	assert.Empty(t, gen.gotHistory)

	gen.answer = "second answer"
	_, _, err = sys.Answer(context.Background(), "second question", id)
	require.NoError(t, err)
	assert.Equal(t, "User: first question\nAssistant: first answer", gen.gotHistory)
}

func TestAnswerErrorSkipsHistory(t *testing.T) {
	gen := &stubAnswerer{err: errors.New("model down")}
	sys := newTestSystem(t, gen)
	id := sys.CreateSession()

	_, _, err := sys.Answer(context.Background(), "q", id)
	require.Error(t, err)

	gen.err = nil
	gen.answer = "ok"
	_, _, err = sys.Answer(context.Background(), "again", id)
	require.NoError(t, err)
	assert.Empty(t, gen.gotHistory)
}

func TestAnswerWithoutSessionKeepsNoHistory(t *testing.T) {
	gen := &stubAnswerer{answer: "a"}
	sys := newTestSystem(t, gen)

	_, _, err := sys.Answer(context.Background(), "q", "")
	require.NoError(t, err)
	assert.Zero(t, sys.sessions.Count())
}

func TestClearSession(t *testing.T) {
	gen := &stubAnswerer{answer: "a"}
	sys := newTestSystem(t, gen)
	id := sys.CreateSession()

	_, _, err := sys.Answer(context.Background(), "q", id)
	require.NoError(t, err)

	sys.ClearSession(id)
	_, _, err = sys.Answer(context.Background(), "q2", id)
	require.NoError(t, err)
	assert.Empty(t, gen.gotHistory)
}

func TestGetAnalytics(t *testing.T) {
	sys := newTestSystem(t, &stubAnswerer{})
	seedCourse(t, sys)

	analytics, err := sys.GetAnalytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, analytics.TotalCourses)
	assert.Equal(t, []string{"MCP Basics"}, analytics.CourseTitles)
}

func TestGetAnalyticsEmpty(t *testing.T) {
	sys := newTestSystem(t, &stubAnswerer{})

	analytics, err := sys.GetAnalytics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, analytics.TotalCourses)
	assert.NotNil(t, analytics.CourseTitles)
}

func TestAddCourseFolder(t *testing.T) {
	sys := newTestSystem(t, &stubAnswerer{})
	dir := t.TempDir()
	doc := "Course Title: Folder Course\n\nLesson 0: Intro\nHello content here.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.txt"), []byte(doc), 0644))

	courses, chunks, err := sys.AddCourseFolder(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, courses)
	assert.Positive(t, chunks)
}
