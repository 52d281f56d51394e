package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

type ResolutionErrorKind string

const (
	ResolutionNetworkFailure ResolutionErrorKind = "network_failure"
	ResolutionNotFound       ResolutionErrorKind = "not_found"
)

// ResolutionError reports why the provider build id could not be discovered.
type ResolutionError struct {
	Kind       ResolutionErrorKind
	StatusCode int
	Err        error
}

func (e *ResolutionError) Error() string {
	msg := "resolve build id: " + string(e.Kind)
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (status=%d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrDependencyUnavailable
}

type FetchErrorKind string

const (
	FetchNetworkFailure  FetchErrorKind = "network_failure"
	FetchStaleIdentifier FetchErrorKind = "stale_identifier"
	FetchInvalidResponse FetchErrorKind = "invalid_response"
	FetchInvalidInput    FetchErrorKind = "invalid_input"
)

// FetchError reports why team games could not be retrieved.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	msg := "fetch team games: " + string(e.Kind)
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (status=%d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	if e.Kind == FetchInvalidInput {
		return target == ErrInvalidInput
	}
	return target == ErrDependencyUnavailable
}

func NewFetchError(kind FetchErrorKind, status int, err error) *FetchError {
	return &FetchError{Kind: kind, StatusCode: status, Err: err}
}

func NewResolutionError(kind ResolutionErrorKind, status int, err error) *ResolutionError {
	return &ResolutionError{Kind: kind, StatusCode: status, Err: err}
}

// AsFetchError unwraps err into a FetchError.
func AsFetchError(err error) (*FetchError, bool) {
	var target *FetchError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// AsResolutionError unwraps err into a ResolutionError.
func AsResolutionError(err error) (*ResolutionError, bool) {
	var target *ResolutionError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// UserMessage renders guidance for people using the crawler, keyed by failure kind.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if resErr, ok := AsResolutionError(err); ok {
		switch resErr.Kind {
		case ResolutionNotFound:
			return "LiveScore changed its page layout and the build id could not be found. The crawler needs an update."
		default:
			return "LiveScore could not be reached. Check your connection or try again later."
		}
	}
	if fetchErr, ok := AsFetchError(err); ok {
		switch fetchErr.Kind {
		case FetchInvalidInput:
			return "Check the team name, team id and number of games (1 to 50)."
		case FetchStaleIdentifier:
			return "LiveScore rejected the request even after refreshing its build id. Check the team name and id, or try again later."
		case FetchInvalidResponse:
			return "LiveScore answered with data the crawler does not understand."
		default:
			return "LiveScore could not be reached. Try again later."
		}
	}
	return "Unexpected error while fetching games."
}
