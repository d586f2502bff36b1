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

// Package ai provides abstractions for AI services used in PersonalMind.
//
// The core treats the language model as a black-box oracle: a prompt goes in,
// a string comes out, and the call may fail. Embeddings are produced by a
// separate Embedder so that retrieval can use a different model or host.
//
//   - Oracle: single-prompt text generation
//   - Embedder: vector embeddings for the chunk index
//   - AIProvider: aggregates both for lifecycle management
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs (Groq, Ollama, vLLM) through langchaingo
//   - ai/mock: test doubles with scripted replies and deterministic vectors
//
// # Degraded Results
//
// Classification, routing and answering never fail the caller when the oracle
// misbehaves. Those call sites return a Result whose Value is the documented
// fallback and whose Err describes what went wrong:
//
//	res := classifier.ClassifyCategory(ctx, text, title)
//	if res.Degraded() {
//	    logger.Warn("category fell back to default", "err", res.Err)
//	}
//	doc.Category = res.Value
//
// Public constructors (openai.NewProvider, openai.NewOracle) return interface
// types. Mock constructors return concrete types so tests can inspect calls.
package ai
