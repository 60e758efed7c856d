package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"ragserver/internal/assembler"
	"ragserver/internal/domain"
)

// NoAnswerReply is returned when retrieval finds nothing relevant. It is
// a normal reply, not an error.
const NoAnswerReply = "I couldn't find relevant information in the documentation to answer your question."

// DefaultTopK is the number of chunks retrieved when the caller does not
// override it.
const DefaultTopK = 4

// MaxTopK caps caller-supplied overrides.
const MaxTopK = 20

// Retriever is the service-facing subset of the retrieval engine.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.RankedResult, error)
}

// Tracker receives one event per completed query. Best-effort only.
type Tracker interface {
	TrackQuery(query, response string, sources []string, elapsed time.Duration) error
}

// Source attributes part of a reply to a document, with the similarity
// score rendered as a confidence percentage.
type Source struct {
	Title      string `json:"title"`
	Section    string `json:"section,omitempty"`
	File       string `json:"file"`
	Confidence int    `json:"confidence"`
}

// Reply is the outcome of one chat query.
type Reply struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Service runs a query end to end: retrieve, assemble context, generate
// (or fall back to a template answer), report to analytics. Retrieval
// failures fail the request; generation failures do not.
type Service struct {
	retriever Retriever
	generator domain.Generator
	tracker   Tracker
	logger    *slog.Logger
}

// New creates a service. generator and tracker may be nil: without a
// generator every reply uses the template fallback, without a tracker no
// analytics are emitted.
func New(retriever Retriever, generator domain.Generator, tracker Tracker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{retriever: retriever, generator: generator, tracker: tracker, logger: logger}
}

// Chat answers a query using the top-K retrieved chunks. topK <= 0 means
// the default; values above MaxTopK are clamped.
func (s *Service) Chat(ctx context.Context, query string, topK int) (*Reply, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.Wrap(domain.ErrInvalidRequest, "empty query")
	}
	topK = clampTopK(topK)

	started := time.Now()
	results, err := s.retriever.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		reply := &Reply{Answer: NoAnswerReply, Sources: []Source{}}
		s.emit(query, reply, started)
		return reply, nil
	}

	contextBlock := assembler.Assemble(results)
	answer := s.generate(ctx, query, contextBlock)

	reply := &Reply{Answer: answer, Sources: sources(results)}
	s.emit(query, reply, started)
	return reply, nil
}

// Search returns raw ranked records without the generation step.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]domain.RankedResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.Wrap(domain.ErrInvalidRequest, "empty query")
	}
	return s.retriever.Retrieve(ctx, query, clampTopK(topK))
}

// generate runs the generation step, recovering locally with the template
// fallback: generation is best-effort, retrieval is not.
func (s *Service) generate(ctx context.Context, query, contextBlock string) string {
	if s.generator == nil {
		return assembler.Fallback(query, contextBlock)
	}
	answer, err := s.generator.Generate(ctx, assembler.Prompt(query, contextBlock))
	if err != nil {
		s.logger.Warn("generation failed, using template fallback", "error", err)
		return assembler.Fallback(query, contextBlock)
	}
	return answer
}

func (s *Service) emit(query string, reply *Reply, started time.Time) {
	if s.tracker == nil {
		return
	}
	labels := make([]string, len(reply.Sources))
	for i, src := range reply.Sources {
		labels[i] = src.File
	}
	if err := s.tracker.TrackQuery(query, reply.Answer, labels, time.Since(started)); err != nil {
		s.logger.Warn("analytics emission failed", "error", err)
	}
}

func sources(results []domain.RankedResult) []Source {
	out := make([]Source, len(results))
	for i, r := range results {
		out[i] = Source{
			Title:      r.Source.Title,
			Section:    r.Source.Section,
			File:       r.Source.Path,
			Confidence: r.Confidence(),
		}
	}
	return out
}

func clampTopK(k int) int {
	if k <= 0 {
		return DefaultTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}
