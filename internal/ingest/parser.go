// Package ingest turns course documents into catalog entries and
// indexed content chunks.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"coursemind/internal/store"
)

// Course documents start with a metadata header:
//
//	Course Title: <title>
//	Course Link: <url>
//	Course Instructor: <name>
//
// followed by lesson sections introduced by "Lesson N: <title>" lines,
// each optionally followed by a "Lesson Link: <url>" line.
var lessonHeading = regexp.MustCompile(`^Lesson (\d+):\s*(.+)$`)

// document is a parsed course file before chunking.
type document struct {
	course  store.Course
	lessons []lessonContent
}

type lessonContent struct {
	number int
	text   string
}

// parseDocument reads a course document. name is used in error messages.
func parseDocument(r io.Reader, name string) (*document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &document{}
	var current *lessonContent
	var currentLesson *store.Lesson
	var body strings.Builder

	flush := func() {
		if current != nil {
			current.text = strings.TrimSpace(body.String())
			if current.text != "" {
				doc.lessons = append(doc.lessons, *current)
			}
			body.Reset()
		}
		if currentLesson != nil {
			doc.course.Lessons = append(doc.course.Lessons, *currentLesson)
		}
		current = nil
		currentLesson = nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case doc.course.Title == "" && strings.HasPrefix(trimmed, "Course Title:"):
			doc.course.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Title:"))
		case current == nil && strings.HasPrefix(trimmed, "Course Link:"):
			doc.course.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Link:"))
		case current == nil && strings.HasPrefix(trimmed, "Course Instructor:"):
			doc.course.Instructor = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Instructor:"))
		case lessonHeading.MatchString(trimmed):
			flush()
			m := lessonHeading.FindStringSubmatch(trimmed)
			number, _ := strconv.Atoi(m[1])
			current = &lessonContent{number: number}
			currentLesson = &store.Lesson{Number: number, Title: strings.TrimSpace(m[2])}
		case currentLesson != nil && strings.HasPrefix(trimmed, "Lesson Link:"):
			currentLesson.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, "Lesson Link:"))
		case current != nil:
			body.WriteString(line)
			body.WriteString("\n")
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if doc.course.Title == "" {
		return nil, fmt.Errorf("%s: missing 'Course Title:' header", name)
	}
	return doc, nil
}

// ParseCourseFile parses a course document from disk. HTML files are
// reduced to plain text before parsing.
func ParseCourseFile(path string) (*document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".html" || ext == ".htm" {
		text, err := extractHTMLText(f)
		if err != nil {
			return nil, fmt.Errorf("failed to parse html %s: %w", path, err)
		}
		return parseDocument(strings.NewReader(text), path)
	}
	return parseDocument(f, path)
}

// SupportedFile reports whether path looks like an ingestible document.
func SupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".html", ".htm":
		return true
	}
	return false
}

// extractHTMLText walks the DOM and concatenates text nodes, skipping
// script and style bodies. Block elements become line breaks so the
// header parser still sees one field per line.
func extractHTMLText(r io.Reader) (string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "p", "div", "br", "li", "h1", "h2", "h3", "h4", "tr":
				b.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return b.String(), nil
}
