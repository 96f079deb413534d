package chatbot

import "fmt"

// ParsingError marks a webhook payload the bot could not make sense of.
type ParsingError struct {
	What  string
	Cause error
}

func (e ParsingError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.What, e.Cause)
}

func (e ParsingError) Unwrap() error {
	return e.Cause
}

// WrapParsingError wraps a parse failure with what was being parsed.
func WrapParsingError(err error, what string) error {
	if err == nil {
		return nil
	}
	return ParsingError{What: what, Cause: err}
}
