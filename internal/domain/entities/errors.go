package entities

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParameterAlreadySet is returned when a parameter is set twice on the same container.
	ErrParameterAlreadySet = errors.New("parameter already set")
	// ErrMissingParameter is returned when a required parameter was never set.
	ErrMissingParameter = errors.New("missing parameter")
	// ErrParameterType is returned when a stored value does not match the requested type.
	ErrParameterType = errors.New("wrong parameter type")
	// ErrNoSuchProvider is returned when no provider is registered for a tag.
	ErrNoSuchProvider = errors.New("no such provider")
	// ErrNoSuchCommand is returned for command names outside the known set.
	ErrNoSuchCommand = errors.New("no such command")
	// ErrUnsupportedCommand is returned when a provider does not implement a command.
	ErrUnsupportedCommand = errors.New("unsupported command")
	// ErrInvalidURL is the root of every connection string validation failure.
	ErrInvalidURL = errors.New("invalid scm url")
	// ErrRepositoryType is returned when a descriptor is handed to the wrong provider.
	ErrRepositoryType = errors.New("unexpected repository type")
	// ErrResultType is returned when a provider answers a command with the wrong result type.
	ErrResultType = errors.New("unexpected result type")
	// ErrNotLoggedIn is returned by session based providers when no session was started.
	ErrNotLoggedIn = errors.New("not logged in")
)

// ParameterError describes a failed access to a CommandParameters container.
type ParameterError struct {
	Parameter CommandParameter
	Reason    error
	Detail    string
}

func (e *ParameterError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Parameter)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Reason, e.Parameter, e.Detail)
}

func (e *ParameterError) Unwrap() error { return e.Reason }

// ValidationError collects every violated constraint of a connection string.
type ValidationError struct {
	URL      string
	Messages []string
}

func NewValidationError(url string, messages []string) *ValidationError {
	return &ValidationError{URL: url, Messages: messages}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid scm url %q: %s", e.URL, strings.Join(e.Messages, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidURL }

// NoSuchProviderError is returned by the dispatcher for unregistered tags.
type NoSuchProviderError struct {
	Tag string
}

func (e *NoSuchProviderError) Error() string {
	return fmt.Sprintf("no such provider: %q", e.Tag)
}

func (e *NoSuchProviderError) Unwrap() error { return ErrNoSuchProvider }

// UnsupportedCommandError is returned when a provider has no implementation for a command.
type UnsupportedCommandError struct {
	Provider string
	Command  CommandName
}

func (e *UnsupportedCommandError) Error() string {
	return fmt.Sprintf("provider %q does not support the %q command", e.Provider, e.Command)
}

func (e *UnsupportedCommandError) Unwrap() error { return ErrUnsupportedCommand }

// ScmError is a structural failure: no well-formed result could be produced.
// Failed but well-formed tool runs are reported through Result instead.
type ScmError struct {
	Op  string
	Err error
}

func NewScmError(op string, err error) *ScmError {
	return &ScmError{Op: op, Err: err}
}

func (e *ScmError) Error() string {
	return fmt.Sprintf("scm %s: %v", e.Op, e.Err)
}

func (e *ScmError) Unwrap() error { return e.Err }

// IsStructural reports whether err is a structural failure rather than a configuration one.
func IsStructural(err error) bool {
	var scmErr *ScmError
	return errors.As(err, &scmErr)
}
