package tools

import (
	"context"
	"fmt"
	"strings"

	"coursemind/internal/llm"
	"coursemind/internal/store"
)

// OutlineStore is the slice of the vector store the outline tool needs.
type OutlineStore interface {
	GetCourseOutline(ctx context.Context, name string) (*store.Course, error)
}

// OutlineTool returns the full structure of a course: title, link,
// instructor and the complete lesson list. Outline answers are structural
// rather than semantic, so the tool records no sources.
type OutlineTool struct {
	store OutlineStore
}

// NewOutlineTool creates the course outline tool.
func NewOutlineTool(s OutlineStore) *OutlineTool {
	return &OutlineTool{store: s}
}

// Definition describes the tool to the model.
func (t *OutlineTool) Definition() llm.ToolDefinition {
	schema := ToolSchema{
		Required: []string{"course_name"},
		Properties: map[string]Property{
			"course_name": {
				Type:        "string",
				Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
			},
		},
	}
	return llm.ToolDefinition{
		Name:        "get_course_outline",
		Description: "Get the complete outline of a course including title, course link, and all lessons",
		InputSchema: schema.InputSchema(),
	}
}

// Execute looks up a course and renders its outline. An unknown course
// is reported as result data, matching the search tool's behavior.
func (t *OutlineTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	courseName, ok := args["course_name"].(string)
	if !ok || courseName == "" {
		return "", fmt.Errorf("%w: course_name", ErrMissingRequiredArg)
	}

	course, err := t.store.GetCourseOutline(ctx, courseName)
	if err != nil {
		if store.IsNotFound(err) {
			return err.Error(), nil
		}
		return "", fmt.Errorf("outline lookup failed: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course Title: %s\n", course.Title)
	if course.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", course.Link)
	}
	if course.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", course.Instructor)
	}
	fmt.Fprintf(&b, "Number of Lessons: %d\n", len(course.Lessons))
	if len(course.Lessons) > 0 {
		b.WriteString("\nLessons:\n")
		for _, l := range course.Lessons {
			fmt.Fprintf(&b, "Lesson %d: %s\n", l.Number, l.Title)
		}
	}

	return strings.TrimRight(b.String(), "\n"), nil
}
