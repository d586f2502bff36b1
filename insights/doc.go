// Package insights summarizes the knowledge base and generates short
// reflections about it.
//
// Stats gathers counts from the stores. Generate turns those counts into up
// to four insights: a weekly reflection, a suggested action, a learning
// pattern and an achievement. The first three are written by the oracle and
// fall back to templated text when it fails; the achievement is computed
// locally.
package insights
