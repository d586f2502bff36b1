// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/personalmind/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// Oracle implements ai.Oracle using OpenAI-compatible chat APIs.
type Oracle struct {
	client  llms.Model
	limiter *rate.Limiter // nil when unlimited
	logger  *slog.Logger
}

// newOracle is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newOracle(config *ai.Config) (*Oracle, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst)
	}

	return &Oracle{
		client:  client,
		limiter: limiter,
		logger:  slog.Default().With("component", "openai-oracle"),
	}, nil
}

// NewOracle creates a new oracle using the provided configuration.
//
// Returns ai.Oracle interface to enforce abstraction.
func NewOracle(config *ai.Config) (ai.Oracle, error) {
	return newOracle(config)
}

// Complete sends prompt as a single human message and returns the trimmed reply.
func (o *Oracle) Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return "", &ai.OracleError{Op: "complete", Err: err}
		}
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
			},
		},
	}

	o.logger.Debug("sending prompt", "length", len(prompt), "temperature", temperature, "max_tokens", maxTokens)

	response, err := o.client.GenerateContent(ctx, content,
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens))
	if err != nil {
		o.logger.Error("failed to generate content", "err", err)
		return "", &ai.OracleError{Op: "complete", Err: err}
	}

	if len(response.Choices) < 1 {
		o.logger.Debug("no choices returned from model")
		return "", &ai.OracleError{Op: "complete", Err: ai.ErrEmptyReply}
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}
