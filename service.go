package main

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/seaglass/answers-fulfillment/answers"
	"github.com/seaglass/answers-fulfillment/selector"
)

// AnswersService turns a user utterance into a rendering decision.
type AnswersService struct {
	searcher answers.Searcher
	selector *selector.Selector
	logger   *zap.Logger
}

func NewAnswersService(searcher answers.Searcher, sel *selector.Selector, logger *zap.Logger) *AnswersService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnswersService{
		searcher: searcher,
		selector: sel,
		logger:   logger,
	}
}

// Answer searches for query and selects a descriptor. Search failures are
// logged and answered with NoMatch; Answer never fails.
func (s *AnswersService) Answer(ctx context.Context, query string) selector.Descriptor {
	query = strings.TrimSpace(query)
	if query == "" {
		s.logger.Info("empty query, skipping search")
		return selector.NoMatch{}
	}

	results, err := s.searcher.UniversalSearch(ctx, query)
	if err != nil {
		s.logger.Error("universal search failed", zap.String("query", query), zap.Error(err))
		return selector.NoMatch{}
	}

	desc := s.selector.Select(results)

	verticalKey := ""
	if top, ok := selector.TopVertical(results); ok {
		verticalKey = top.VerticalKey
	}
	s.logger.Info("answer selected",
		zap.String("query", query),
		zap.Bool("direct_answer", results != nil && results.DirectAnswer != nil),
		zap.String("vertical_key", verticalKey),
		zap.String("kind", selector.Kind(desc)),
	)
	return desc
}
