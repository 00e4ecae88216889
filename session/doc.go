// Package session houses concrete implementations of core.ThreadStore, the
// short-term conversation history keyed by session id.
//
// Add additional backends in sub-packages without changing calling code;
// only the wiring layer decides which implementation to instantiate.
package session
