package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/personalmind/ai"
	"github.com/poiesic/personalmind/core"
)

const (
	// GeneralErrorMessage replaces the conversational reply when the oracle fails.
	GeneralErrorMessage = "I'm here to help! However, I encountered an error. Please try again."

	generalTemperature = 0.7
	generalMaxTokens   = 300
)

const generalPrompt = `You are a helpful AI assistant for PersonalMind, a second brain system.
Respond to the user's general conversation query.

User: %s`

// Reply is the outcome of processing one question.
type Reply struct {
	Intent  Intent
	Text    string
	Sources []core.ID
	// Degraded is set when any oracle call fell back to a fixed answer.
	Degraded bool
}

// Option configures a Service.
type Option func(*options)

type options struct {
	topK   int
	logger *slog.Logger
}

// WithTopK sets how many chunks are retrieved per SEARCH question.
func WithTopK(k int) Option {
	return func(o *options) {
		o.topK = k
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Service routes questions and produces replies.
type Service struct {
	oracle   ai.Oracle
	router   *Router
	answerer *Answerer
	logger   *slog.Logger
}

// NewService creates a Service over an oracle and a retriever.
func NewService(oracle ai.Oracle, retriever Retriever, opts ...Option) (*Service, error) {
	o := &options{
		topK:   DefaultTopK,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	router, err := NewRouter(oracle, o.logger)
	if err != nil {
		return nil, err
	}
	answerer, err := NewAnswerer(oracle, retriever, o.topK, o.logger)
	if err != nil {
		return nil, err
	}
	return &Service{
		oracle:   oracle,
		router:   router,
		answerer: answerer,
		logger:   o.logger.With("component", "chat"),
	}, nil
}

// Process routes question and answers it. The only error returned is a
// failed retrieval on the SEARCH path.
func (s *Service) Process(ctx context.Context, question string) (*Reply, error) {
	route := s.router.Route(ctx, question)
	reply := &Reply{Intent: route.Value, Degraded: route.Degraded()}
	s.logger.Debug("question routed", "intent", route.Value, "degraded", route.Degraded())

	if route.Value == IntentSearch {
		answer, err := s.answerer.Answer(ctx, question)
		if err != nil {
			return nil, err
		}
		reply.Text = answer.Value.Text
		reply.Sources = answer.Value.Sources
		reply.Degraded = reply.Degraded || answer.Degraded()
		return reply, nil
	}

	general := s.Converse(ctx, question)
	reply.Text = general.Value
	reply.Degraded = reply.Degraded || general.Degraded()
	return reply, nil
}

// Converse produces a conversational reply without retrieval.
func (s *Service) Converse(ctx context.Context, question string) ai.Result[string] {
	text, err := s.oracle.Complete(ctx, fmt.Sprintf(generalPrompt, question), generalTemperature, generalMaxTokens)
	if err != nil {
		result := ai.Fallback("converse", GeneralErrorMessage, err)
		s.logger.Warn("conversation degraded", "err", result.Err)
		return result
	}
	return ai.Ok(text)
}
