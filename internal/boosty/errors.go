package boosty

import "fmt"

// NetworkError is a transport failure that survived the retry policy.
// It aborts the crawl for the affected channel only.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError marks a malformed or unexpected API response. The offending
// item is skipped with a warning; the crawl continues.
type ParseError struct {
	Op  string
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unexpected %s response: %s", e.Op, e.Msg)
}
