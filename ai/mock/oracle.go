package mock

import (
	"context"
	"strings"
	"sync"
)

// Call records one invocation of MockOracle.Complete.
type Call struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

type rule struct {
	match string
	reply string
	err   error
}

// MockOracle is a test double for ai.Oracle.
// Replies are scripted by prompt substring; the first matching rule wins.
type MockOracle struct {
	// CompleteFunc is called by Complete if set, bypassing the rules.
	CompleteFunc func(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)

	// Default is returned when no rule matches.
	Default string

	mu    sync.Mutex
	rules []rule
	calls []Call
}

// NewMockOracle creates a mock oracle with no rules.
func NewMockOracle() *MockOracle {
	return &MockOracle{}
}

// On replies with reply to prompts containing match.
func (m *MockOracle) On(match, reply string) *MockOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rule{match: match, reply: reply})
	return m
}

// OnError fails prompts containing match with err.
func (m *MockOracle) OnError(match string, err error) *MockOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rule{match: match, err: err})
	return m
}

// Complete returns the scripted reply for prompt.
func (m *MockOracle) Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Prompt: prompt, Temperature: temperature, MaxTokens: maxTokens})
	fn := m.CompleteFunc
	rules := m.rules
	def := m.Default
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, temperature, maxTokens)
	}

	for _, r := range rules {
		if strings.Contains(prompt, r.match) {
			if r.err != nil {
				return "", r.err
			}
			return r.reply, nil
		}
	}
	return def, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockOracle) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of the recorded calls in order.
func (m *MockOracle) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsMatching counts recorded prompts containing match.
func (m *MockOracle) CallsMatching(match string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if strings.Contains(c.Prompt, match) {
			n++
		}
	}
	return n
}

// Reset clears recorded calls, rules and custom functions.
func (m *MockOracle) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.rules = nil
	m.CompleteFunc = nil
	m.Default = ""
}
