package app

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrSessionNotFound = errors.New("session not found")
	ErrUpstream        = errors.New("upstream error")
	ErrExtraction      = errors.New("text extraction failed")
)

// Input errors carry their own client-facing message and match ErrInvalidInput.
var (
	ErrNotPDF         = invalidInput("only PDF files are allowed")
	ErrNoDocument     = invalidInput("no document found for this session")
	ErrEmptyMessage   = invalidInput("message content is empty")
	ErrInvalidMode    = invalidInput("mode must be general or pdf")
	ErrEmptyQuery     = invalidInput("research query is empty")
	ErrEmptyLanguage  = invalidInput("target language is empty")
	ErrQuestionCount  = invalidInput("num_questions must be between 1 and 50")
	ErrSamplingParams = invalidInput("temperature must be in [0, 2] and max_tokens must not be negative")
)

type inputError struct {
	msg string
}

func invalidInput(msg string) error {
	return &inputError{msg: msg}
}

func (e *inputError) Error() string { return e.msg }

func (e *inputError) Is(target error) bool { return target == ErrInvalidInput }
