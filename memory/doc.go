// Package memory ranks, stores and reinforces long-term agent memory.
//
// Ranker combines the semantic score a MemoryStore returns with recency decay,
// reinforcement weight and a per-type weight into a composite score, prunes
// weak candidates and returns the best k. Reinforcer turns user feedback into
// bounded weight deltas and session-scoped behavioral adjustments.
// InMemoryStore is a process-local MemoryStore using lexical cosine
// similarity; durable and vector-backed stores live in subpackages.
package memory
