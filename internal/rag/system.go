// Package rag wires retrieval, tools, sessions and generation into the
// question answering system.
package rag

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coursemind/internal/config"
	"coursemind/internal/embedding"
	"coursemind/internal/generator"
	"coursemind/internal/ingest"
	"coursemind/internal/llm"
	"coursemind/internal/logging"
	"coursemind/internal/observability"
	"coursemind/internal/session"
	"coursemind/internal/store"
	"coursemind/internal/tools"
)

// Answerer is the generation controller the system drives.
type Answerer interface {
	Generate(ctx context.Context, query, history string, toolDefs []llm.ToolDefinition, executor generator.ToolExecutor) (string, error)
}

// Analytics summarizes the indexed catalog.
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// System is the top-level orchestrator. Queries are serialized per
// System so concurrent callers cannot interleave source tracking.
type System struct {
	cfg       *config.Config
	gen       Answerer
	registry  *tools.Registry
	sessions  *session.Manager
	store     *store.VectorStore
	processor *ingest.Processor

	mu sync.Mutex
}

// New builds a fully wired system from configuration: embedding engine,
// vector store, tool registry, session manager and generator.
func New(cfg *config.Config) (*System, error) {
	engine, err := embedding.NewEngine(cfg.Embedding)
	if err != nil {
		// The store degrades to keyword matching without an engine, so a
		// missing embedding key is not fatal.
		logging.Boot("Embedding engine unavailable, using keyword search: %v", err)
		engine = nil
	}

	vs, err := store.NewVectorStore(cfg.Storage.DatabasePath, engine, cfg.Storage.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	registry := tools.NewRegistry()
	registry.MustRegister(tools.NewSearchTool(vs))
	registry.MustRegister(tools.NewOutlineTool(vs))

	client := llm.NewAnthropicClientWithConfig(llm.AnthropicConfig{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.GetLLMTimeout(),
	})

	sys := &System{
		cfg:       cfg,
		gen:       generator.New(client, cfg.LLM.MaxToolRounds),
		registry:  registry,
		sessions:  session.NewManager(cfg.Session.MaxHistory),
		store:     vs,
		processor: ingest.NewProcessor(vs, cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
	}
	logging.Boot("RAG system initialized (model=%s, tools=%v)", cfg.LLM.Model, registry.Names())
	return sys, nil
}

// Close releases the underlying store.
func (s *System) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Answer runs one query through the generation loop and returns the
// answer text plus the sources the tools consulted.
func (s *System) Answer(ctx context.Context, query, sessionID string) (string, []tools.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	// Drop anything a previous failed query left behind.
	s.registry.ResetSources()
	history := s.sessions.History(sessionID)
	prompt := fmt.Sprintf("Answer this question about course materials: %s", query)

	answer, err := s.gen.Generate(ctx, prompt, history, s.registry.Definitions(), instrumented{s.registry})
	observability.RecordQuery(start, err)
	if err != nil {
		logging.APIError("Query failed: %v", err)
		return "", nil, err
	}

	sources := s.registry.LastSources()
	s.registry.ResetSources()

	if sessionID != "" {
		s.sessions.AddExchange(sessionID, query, answer)
	}
	logging.API("Answered query in %s (%d sources)", time.Since(start), len(sources))
	return answer, sources, nil
}

// CreateSession starts a new conversation.
func (s *System) CreateSession() string {
	observability.SessionOpened()
	return s.sessions.Create()
}

// ClearSession drops a conversation's history.
func (s *System) ClearSession(id string) {
	observability.SessionClosed()
	s.sessions.Clear(id)
}

// AddCourseFolder ingests every document in dir. Returns courses added
// and chunks indexed.
func (s *System) AddCourseFolder(ctx context.Context, dir string, clearExisting bool) (int, int, error) {
	return s.processor.AddCourseFolder(ctx, dir, clearExisting)
}

// Processor exposes the ingestion pipeline for the docs watcher.
func (s *System) Processor() *ingest.Processor {
	return s.processor
}

// GetAnalytics reports catalog statistics.
func (s *System) GetAnalytics(ctx context.Context) (*Analytics, error) {
	count, err := s.store.CourseCount(ctx)
	if err != nil {
		return nil, err
	}
	titles, err := s.store.CourseTitles(ctx)
	if err != nil {
		return nil, err
	}
	if titles == nil {
		titles = []string{}
	}
	return &Analytics{TotalCourses: count, CourseTitles: titles}, nil
}

// instrumented wraps the registry with per-tool metrics.
type instrumented struct {
	registry *tools.Registry
}

func (i instrumented) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	start := time.Now()
	result, err := i.registry.Execute(ctx, name, args)
	observability.RecordToolExecution(name, start, err)
	return result, err
}
