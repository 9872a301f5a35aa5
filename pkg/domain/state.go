package domain

// State tracks multi-step command flows per telegram chat.
type State struct {
	AwaitingCharacterForm bool
}
