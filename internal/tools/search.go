package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"coursemind/internal/llm"
	"coursemind/internal/logging"
	"coursemind/internal/store"
)

// SearchStore is the slice of the vector store the search tool needs.
type SearchStore interface {
	Search(ctx context.Context, query, courseName string, lessonNumber *int, limit int) ([]store.SearchResult, error)
	LessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error)
}

// SearchTool performs semantic retrieval over indexed course content.
// It records a source per result so answers can cite where content
// came from.
type SearchTool struct {
	store SearchStore

	mu      sync.Mutex
	sources []Source
}

// NewSearchTool creates the course content search tool.
func NewSearchTool(s SearchStore) *SearchTool {
	return &SearchTool{store: s}
}

// Definition describes the tool to the model.
func (t *SearchTool) Definition() llm.ToolDefinition {
	schema := ToolSchema{
		Required: []string{"query"},
		Properties: map[string]Property{
			"query": {
				Type:        "string",
				Description: "What to search for in the course content",
			},
			"course_name": {
				Type:        "string",
				Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
			},
			"lesson_number": {
				Type:        "integer",
				Description: "Specific lesson number to search within (e.g. 1, 2, 3)",
			},
		},
	}
	return llm.ToolDefinition{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: schema.InputSchema(),
	}
}

// Execute runs a search. Filter misses (unknown course, no matching
// content) are reported as result data so the model can adjust its
// query; only store failures surface as errors.
func (t *SearchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return "", fmt.Errorf("%w: query", ErrMissingRequiredArg)
	}

	courseName, _ := args["course_name"].(string)
	lessonNumber, err := optionalInt(args, "lesson_number")
	if err != nil {
		return "", err
	}

	results, err := t.store.Search(ctx, query, courseName, lessonNumber, 0)
	if err != nil {
		if store.IsNotFound(err) {
			return err.Error(), nil
		}
		return "", fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		return emptyMessage(courseName, lessonNumber), nil
	}

	logging.ToolsDebug("Search %q returned %d results", query, len(results))
	return t.formatResults(ctx, results), nil
}

// formatResults renders one block per hit with a course/lesson header,
// and records an index-aligned source for each.
func (t *SearchTool) formatResults(ctx context.Context, results []store.SearchResult) string {
	blocks := make([]string, 0, len(results))
	sources := make([]Source, 0, len(results))

	for _, r := range results {
		header := r.CourseTitle
		if r.LessonNumber != nil {
			header = fmt.Sprintf("%s - Lesson %d", r.CourseTitle, *r.LessonNumber)
		}
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", header, r.Content))

		src := Source{Text: header}
		if r.LessonNumber != nil {
			if link, err := t.store.LessonLink(ctx, r.CourseTitle, *r.LessonNumber); err == nil {
				src.Link = link
			}
		}
		sources = append(sources, src)
	}

	t.mu.Lock()
	t.sources = sources
	t.mu.Unlock()

	return strings.Join(blocks, "\n\n")
}

// LastSources returns the sources from the most recent search.
func (t *SearchTool) LastSources() []Source {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Source, len(t.sources))
	copy(out, t.sources)
	return out
}

// ResetSources clears the recorded sources.
func (t *SearchTool) ResetSources() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources = nil
}

func emptyMessage(courseName string, lessonNumber *int) string {
	msg := "No relevant content found"
	if courseName != "" {
		msg += fmt.Sprintf(" in course '%s'", courseName)
	}
	if lessonNumber != nil {
		msg += fmt.Sprintf(" in lesson %d", *lessonNumber)
	}
	return msg
}

// optionalInt reads an optional numeric argument. JSON decoding hands
// numbers over as float64, but accept int too for direct callers.
func optionalInt(args map[string]any, key string) (*int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case float64:
		n := int(v)
		return &n, nil
	case int:
		n := v
		return &n, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidArgType, key)
	}
}
