package wordle

import (
	"errors"
	"strings"
)

var (
	ErrInvalidWord           = errors.New("invalid word")
	ErrInvalidGuess          = errors.New("invalid guess")
	ErrInvalidFeedback       = errors.New("invalid feedback")
	ErrOutOfRange            = errors.New("out of range")
	ErrWrongState            = errors.New("wrong game state")
	ErrInternalInconsistency = errors.New("internal inconsistency")
)

// InconsistencyError reports that no solution is consistent with the history.
// With correctly computed feedback this can not happen, it points at a bug in
// feedback evaluation or filtering (or at a person typing the wrong colors).
type InconsistencyError struct {
	History []Turn
}

func (e *InconsistencyError) Error() string {
	turns := make([]string, 0, len(e.History))
	for _, turn := range e.History {
		turns = append(turns, turn.Guess+" "+turn.Feedback.String())
	}
	return "no candidate matches history [" + strings.Join(turns, ", ") + "]: " + ErrInternalInconsistency.Error()
}

func (e *InconsistencyError) Unwrap() error {
	return ErrInternalInconsistency
}
