package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"coursemind/internal/logging"
	"coursemind/internal/observability"
	"coursemind/internal/store"
)

// Catalog is the slice of the vector store ingestion writes to.
type Catalog interface {
	AddCourse(ctx context.Context, course store.Course) error
	AddChunks(ctx context.Context, chunks []store.Chunk) error
	DeleteChunks(ctx context.Context, courseTitle string) error
	ExistingCourseTitles(ctx context.Context) (map[string]bool, error)
	Clear(ctx context.Context) error
}

// Processor parses course documents and writes them to the store.
type Processor struct {
	catalog   Catalog
	chunkSize int
	overlap   int

	// parallelism bounds concurrent document processing during folder
	// ingestion.
	parallelism int
}

// NewProcessor creates a document processor. chunkSize and overlap
// follow the store's indexing granularity.
func NewProcessor(catalog Catalog, chunkSize, overlap int) *Processor {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Processor{
		catalog:     catalog,
		chunkSize:   chunkSize,
		overlap:     overlap,
		parallelism: 4,
	}
}

// BuildChunks converts a parsed document into store chunks. Every chunk
// is prefixed with its course and lesson so retrieval hits stay
// interpretable out of context.
func (p *Processor) BuildChunks(doc *document) []store.Chunk {
	var chunks []store.Chunk
	index := 0
	for _, lesson := range doc.lessons {
		lessonNumber := lesson.number
		for _, piece := range chunkText(lesson.text, p.chunkSize, p.overlap) {
			n := lessonNumber
			chunks = append(chunks, store.Chunk{
				Content:      fmt.Sprintf("Course %s Lesson %d content: %s", doc.course.Title, lessonNumber, piece),
				CourseTitle:  doc.course.Title,
				LessonNumber: &n,
				ChunkIndex:   index,
			})
			index++
		}
	}
	return chunks
}

// AddCourseFile ingests one document. Returns the course title and the
// number of chunks indexed.
func (p *Processor) AddCourseFile(ctx context.Context, path string) (string, int, error) {
	doc, err := ParseCourseFile(path)
	if err != nil {
		return "", 0, err
	}

	if err := p.catalog.AddCourse(ctx, doc.course); err != nil {
		return "", 0, err
	}
	if err := p.catalog.DeleteChunks(ctx, doc.course.Title); err != nil {
		return "", 0, err
	}
	chunks := p.BuildChunks(doc)
	if err := p.catalog.AddChunks(ctx, chunks); err != nil {
		return "", 0, err
	}

	observability.RecordIngestion(len(chunks))
	logging.Ingest("Ingested %s: %d chunks from %s", doc.course.Title, len(chunks), filepath.Base(path))
	return doc.course.Title, len(chunks), nil
}

// AddCourseFolder ingests every supported document in dir. Documents
// whose course title already exists in the catalog are skipped unless
// clearExisting wipes the store first. Returns courses added and total
// chunks indexed.
func (p *Processor) AddCourseFolder(ctx context.Context, dir string, clearExisting bool) (int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read course folder %s: %w", dir, err)
	}

	if clearExisting {
		if err := p.catalog.Clear(ctx); err != nil {
			return 0, 0, err
		}
	}

	existing, err := p.catalog.ExistingCourseTitles(ctx)
	if err != nil {
		return 0, 0, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !SupportedFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	var mu sync.Mutex
	courses, totalChunks := 0, 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)
	for _, path := range paths {
		path := path
		g.Go(func() error {
			doc, err := ParseCourseFile(path)
			if err != nil {
				logging.Ingest("Skipping %s: %v", filepath.Base(path), err)
				return nil
			}

			mu.Lock()
			if existing[doc.course.Title] {
				mu.Unlock()
				logging.IngestDebug("Skipping %s: already indexed", doc.course.Title)
				return nil
			}
			existing[doc.course.Title] = true
			mu.Unlock()

			if err := p.catalog.AddCourse(gctx, doc.course); err != nil {
				return err
			}
			chunks := p.BuildChunks(doc)
			if err := p.catalog.AddChunks(gctx, chunks); err != nil {
				return err
			}
			observability.RecordIngestion(len(chunks))
			logging.Ingest("Ingested %s: %d chunks", doc.course.Title, len(chunks))

			mu.Lock()
			courses++
			totalChunks += len(chunks)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return courses, totalChunks, err
	}
	return courses, totalChunks, nil
}
