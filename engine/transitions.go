package engine

import "github.com/hupe1980/voiceagent/core"

// Transitions lists every legal edge of the turn state machine. Any node may
// also fail into StatusError.
var Transitions = map[core.Status][]core.Status{
	core.StatusSupervisor:      {core.StatusMemoryRetrieval, core.StatusOrchestrate, core.StatusCompleted},
	core.StatusMemoryRetrieval: {core.StatusOrchestrate},
	core.StatusOrchestrate:     {core.StatusRespond, core.StatusSupervisor, core.StatusCompleted},
	core.StatusRespond:         {core.StatusSynthesizeVoice, core.StatusStoreMemory},
	core.StatusSynthesizeVoice: {core.StatusStoreMemory},
	core.StatusStoreMemory:     {core.StatusCompleted},
}

// Legal reports whether from -> to is an edge of the state machine.
func Legal(from, to core.Status) bool {
	if from.Terminal() {
		return false
	}
	if to == core.StatusError {
		return true
	}
	for _, s := range Transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
