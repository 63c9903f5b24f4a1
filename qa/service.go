// Package qa implements the context-augmented streaming question pipeline:
// keyword-matched knowledge retrieval, question-triggered structured
// lookups, owner context, prompt assembly, and the streamed model answer.
// Every retrieval source degrades to empty on failure; no failure escapes
// StreamAnswer as anything but caller-visible content.
package qa

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/communitykit/smartqa/llm"
)

const (
	msgInvalidQuestion = "请输入有效的问题。"
	msgStreamFailure   = "抱歉，智能问答服务暂时不可用，请稍后再试。错误信息："
	msgEmptyAnswer     = "抱歉，暂时没有生成回答，请稍后再试。"
	msgUnexpected      = "抱歉，处理您的问题时出现异常，请稍后再试。"
)

// Stores bundles the read-only community lookups the pipeline consumes.
type Stores struct {
	Owners     OwnerStore
	Residences ResidenceStore
	Vehicles   VehicleStore
	Meters     MeterStore
	Knowledge  KnowledgeStore
}

type Service struct {
	owners     OwnerStore
	residences ResidenceStore
	vehicles   VehicleStore
	meters     MeterStore
	knowledge  KnowledgeStore
	files      FileFetcher
	llm        llm.StreamClient
	logger     *zap.Logger
}

func NewService(stores Stores, files FileFetcher, llmClient llm.StreamClient, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		owners:     stores.Owners,
		residences: stores.Residences,
		vehicles:   stores.Vehicles,
		meters:     stores.Meters,
		knowledge:  stores.Knowledge,
		files:      files,
		llm:        llmClient,
		logger:     logger,
	}
}

// retrievedContext carries the three independently optional context
// blocks. Blocks are never nil-like to consumers: absent means "".
type retrievedContext struct {
	Owner      string
	Knowledge  string
	Structured string
}

func (rc retrievedContext) grounded() bool {
	return rc.Knowledge != "" || rc.Structured != ""
}

// StreamAnswer runs the whole pipeline and returns the answer chunks in
// generation order. The channel always closes, always carries at least one
// chunk, and never surfaces an error: blank questions, mid-stream
// transport failures, and anything unexpected all arrive as content.
func (s *Service) StreamAnswer(ctx context.Context, req Request) <-chan string {
	out := make(chan string, 1)

	go func() {
		defer close(out)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("qa pipeline panicked", zap.Any("panic", r))
				s.emit(ctx, out, msgUnexpected)
			}
		}()

		question := strings.TrimSpace(req.Question)
		if question == "" {
			s.emit(ctx, out, msgInvalidQuestion)
			return
		}

		rc := s.retrieve(ctx, question, req.OwnerID)
		systemPrompt := BuildSystemPrompt(rc.Owner, rc.Knowledge, rc.Structured, rc.grounded())
		messages := BuildMessages(systemPrompt, req.History, question)

		emitted := false
		err := s.llm.GenerateStream(ctx, messages, func(chunk string) error {
			if chunk == "" {
				return nil
			}
			if !s.emit(ctx, out, chunk) {
				return context.Canceled
			}
			emitted = true
			return nil
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			s.logger.Warn("model stream failed", zap.Error(err))
			s.emit(ctx, out, msgStreamFailure+err.Error())
			return
		}

		if !emitted {
			s.emit(ctx, out, msgEmptyAnswer)
		}
	}()

	return out
}

// retrieve gathers the three context sources concurrently. Each source is
// attempt-wrapped, so retrieval always reaches assembly with whatever
// survived.
func (s *Service) retrieve(ctx context.Context, question string, ownerID int64) retrievedContext {
	var rc retrievedContext

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rc.Owner = attempt(s.logger, "owner", func() (string, error) {
			return s.ownerContext(gctx, ownerID)
		})
		return nil
	})
	g.Go(func() error {
		rc.Knowledge = attempt(s.logger, "knowledge", func() (string, error) {
			return s.knowledgeContext(gctx, question)
		})
		return nil
	})
	g.Go(func() error {
		rc.Structured = attempt(s.logger, "structured", func() (string, error) {
			return s.structuredContext(gctx, question, ownerID)
		})
		return nil
	})
	_ = g.Wait()

	return rc
}

// emit forwards one chunk unless the caller has gone away.
func (s *Service) emit(ctx context.Context, out chan<- string, chunk string) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
