// Package mock provides test double implementations of AI service interfaces.
//
// The mocks allow tests to run without external AI services and give
// controlled, deterministic behavior.
//
// # Usage in Tests
//
//	oracle := mock.NewMockOracle().
//	    On("PARA categories", "Projects").
//	    On("main topics", `["Taxes", "Finance"]`).
//	    OnError("Extract all tasks", errors.New("timeout"))
//
//	provider := mock.NewMockProviderWithServices(oracle, mock.NewMockEmbedder())
//	...
//	assert.Equal(t, 3, oracle.CallCount())
//
// # Default Behavior
//
//   - MockOracle: returns Default ("" unless set) for prompts no rule matches
//   - MockEmbedder: returns bag-of-words vectors, so texts sharing words score higher
//   - MockProvider: aggregates a mock oracle and embedder
package mock
