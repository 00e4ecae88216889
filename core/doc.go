// Package core provides the foundational domain types and collaborator
// interfaces used by voiceagent. It defines:
//
//   - TraitVector / GenerationParams (personality input and derived sampling policy)
//   - Message and Role (the closed System | User | Assistant variant)
//   - TurnState, Status and Action (the record threaded through the turn engine)
//   - MemoryRecord, Namespace and Candidate (ranked long-term memory)
//   - Feedback (raw user signals consumed by the reinforcer)
//   - Completer, Synthesizer, Transcriber, Embedder, MemoryStore and
//     ThreadStore (the external collaborators the engine consumes)
//
// The package keeps implementation concerns (persistence, provider SDKs,
// orchestration) out of scope so that backends can be swapped freely.
package core
