package chat

// NeutralMessage is everything a user ever learns about a failed turn.
const NeutralMessage = "Вибачте, не вдалося отримати відповідь. Спробуйте ще раз трохи пізніше."

// TurnError is returned by HandleTurn when the answer could not be produced.
// Its text is always NeutralMessage; the cause is only reachable through
// Unwrap and belongs in diagnostics.
type TurnError struct {
	cause error
}

func (e *TurnError) Error() string {
	return NeutralMessage
}

func (e *TurnError) Unwrap() error {
	return e.cause
}
