package entities

import (
	"fmt"
	"time"
)

// CommandParameters carries the arguments of a single command invocation.
// A parameter may be set at most once; typed getters check the stored value on retrieval.
// It is built per invocation and is not safe for concurrent use.
type CommandParameters struct {
	values map[CommandParameter]any
}

// NewCommandParameters creates an empty container.
func NewCommandParameters() *CommandParameters {
	return &CommandParameters{values: make(map[CommandParameter]any)}
}

// Set stores value under p. It fails if p already holds a value.
func (c *CommandParameters) Set(p CommandParameter, value any) error {
	if !p.IsValid() {
		return &ParameterError{Parameter: p, Reason: ErrMissingParameter, Detail: "not a known parameter"}
	}
	if value == nil {
		return &ParameterError{Parameter: p, Reason: ErrParameterType, Detail: "nil value"}
	}
	if _, exists := c.values[p]; exists {
		return &ParameterError{Parameter: p, Reason: ErrParameterAlreadySet}
	}
	c.values[p] = value
	return nil
}

// MustSet is Set for callers building parameters from literals.
func (c *CommandParameters) MustSet(p CommandParameter, value any) *CommandParameters {
	if err := c.Set(p, value); err != nil {
		panic(err)
	}
	return c
}

// Has reports whether p holds a value.
func (c *CommandParameters) Has(p CommandParameter) bool {
	if c == nil {
		return false
	}
	_, ok := c.values[p]
	return ok
}

// Names returns the parameters currently set, in enumeration order.
func (c *CommandParameters) Names() []CommandParameter {
	var names []CommandParameter
	for _, p := range AllCommandParameters() {
		if c.Has(p) {
			names = append(names, p)
		}
	}
	return names
}

// Get returns the value stored under p as T.
func Get[T any](c *CommandParameters, p CommandParameter) (T, error) {
	var zero T
	if !c.Has(p) {
		return zero, &ParameterError{Parameter: p, Reason: ErrMissingParameter}
	}
	return cast[T](p, c.values[p])
}

// GetOr returns the value stored under p as T, or def when p is absent.
func GetOr[T any](c *CommandParameters, p CommandParameter, def T) (T, error) {
	if !c.Has(p) {
		return def, nil
	}
	return cast[T](p, c.values[p])
}

func cast[T any](p CommandParameter, raw any) (T, error) {
	value, ok := raw.(T)
	if !ok {
		var zero T
		return zero, &ParameterError{
			Parameter: p,
			Reason:    ErrParameterType,
			Detail:    fmt.Sprintf("stored %T, requested %T", raw, zero),
		}
	}
	return value, nil
}

func (c *CommandParameters) GetString(p CommandParameter) (string, error) {
	return Get[string](c, p)
}

func (c *CommandParameters) GetStringOr(p CommandParameter, def string) (string, error) {
	return GetOr(c, p, def)
}

func (c *CommandParameters) GetInt(p CommandParameter) (int, error) {
	return Get[int](c, p)
}

func (c *CommandParameters) GetIntOr(p CommandParameter, def int) (int, error) {
	return GetOr(c, p, def)
}

func (c *CommandParameters) GetBool(p CommandParameter) (bool, error) {
	return Get[bool](c, p)
}

func (c *CommandParameters) GetBoolOr(p CommandParameter, def bool) (bool, error) {
	return GetOr(c, p, def)
}

func (c *CommandParameters) GetDate(p CommandParameter) (time.Time, error) {
	return Get[time.Time](c, p)
}

// GetDateOr returns the stored date or def. A zero def means "no date".
func (c *CommandParameters) GetDateOr(p CommandParameter, def time.Time) (time.Time, error) {
	return GetOr(c, p, def)
}

func (c *CommandParameters) GetFiles(p CommandParameter) ([]string, error) {
	return Get[[]string](c, p)
}

func (c *CommandParameters) GetVersion(p CommandParameter) (ScmVersion, error) {
	return Get[ScmVersion](c, p)
}

func (c *CommandParameters) GetVersionOr(p CommandParameter, def ScmVersion) (ScmVersion, error) {
	return GetOr(c, p, def)
}

func (c *CommandParameters) GetTagParameters(p CommandParameter) (TagParameters, error) {
	return GetOr(c, p, TagParameters{})
}

func (c *CommandParameters) GetBranchParameters(p CommandParameter) (BranchParameters, error) {
	return GetOr(c, p, BranchParameters{})
}
