package domain

import "errors"

// GenerationFailedMessage is the only text a player sees when questions cannot be produced.
const GenerationFailedMessage = "Kon de vragen niet genereren. Probeer het later opnieuw."

var (
	// ErrSessionNotFound is returned when a game id is unknown or the game has ended.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrUnknownMode is returned for a mode other than practice or challenge.
	ErrUnknownMode = errors.New("unknown game mode")
	// ErrInvalidTransition is returned when an operation is not allowed in the current state.
	ErrInvalidTransition = errors.New("operation not allowed in current state")
	// ErrAlreadyPlaying is returned when a game is started while another one is active.
	ErrAlreadyPlaying = errors.New("a game is already in progress")
	// ErrNotPlaying is returned when a game operation is used from the home screen.
	ErrNotPlaying = errors.New("no game in progress")
)

// GenerationError is the single failure kind of the question provider.
type GenerationError struct {
	Message string
	Err     error
}

// NewGenerationError wraps cause with the fixed user-facing message.
func NewGenerationError(cause error) *GenerationError {
	return &GenerationError{Message: GenerationFailedMessage, Err: cause}
}

func (e *GenerationError) Error() string {
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown to a player for a failed load.
func UserMessage(err error) string {
	var genErr *GenerationError
	if errors.As(err, &genErr) && genErr.Message != "" {
		return genErr.Message
	}
	return GenerationFailedMessage
}
