// Package engine implements the turn state machine of the voice agent.
//
// A turn takes one user utterance through a fixed set of nodes and always
// ends in a terminal status, Completed or Error. The engine never hangs:
// every collaborator call carries a timeout and the number of transitions is
// bounded by the persona's iteration cap.
//
// # Nodes
//
//	Supervisor ──► MemoryRetrieval ──► Orchestrate ──► Respond ──► SynthesizeVoice ──► StoreMemory ──► Completed
//	    ▲                                  │              │                                ▲
//	    └────────────── iterate ───────────┘              └──── voice disabled ────────────┘
//
// Supervisor validates the configuration and identifiers, derives the
// generation parameters from the persona's traits and enforces the
// iteration cap. MemoryRetrieval loads the short-term thread and ranked
// long-term memories in parallel. Orchestrate routes the utterance, runs
// matching tools when budget remains and renders the system prompt. Respond
// calls the completion service. SynthesizeVoice renders audio when the
// persona enables voice. StoreMemory appends the exchange to memory and
// applies pending feedback.
//
// # Failure handling
//
// Failures on the path to the response text (configuration, completion) end
// the turn in Error with a classified core.TurnError. Failures off that path
// (retrieval, tools, synthesis, persistence) are recorded as warnings and
// the turn continues with reduced functionality; retrieval, tool and
// synthesis failures also set TurnState.Degraded.
//
// # Hooks
//
// A HookManager observes the lifecycle. BeforeNode hooks run before each
// node and can reject the turn; AfterNode hooks see every decided
// transition; OnError hooks run once when a turn fails.
//
// # Concurrency
//
// Each turn runs on the caller's goroutine. The engine bounds the number of
// turns in flight with Config.MaxConcurrentTurns and lets callers cancel a
// running turn with StopTurn.
package engine
