// Package embedder provides core.Embedder implementations: a deterministic
// feature-hashing embedder for offline use and tests, an OpenAI embeddings
// client, and a ristretto-backed cache that wraps either.
package embedder
