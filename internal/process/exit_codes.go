package process

import "slices"

// ExitCodePolicy declares which exit codes of a command count as success.
type ExitCodePolicy struct {
	Accepted []int
}

// DefaultPolicy accepts only a zero exit code.
//
//nolint:gochecknoglobals // immutable default policy
var DefaultPolicy = ExitCodePolicy{Accepted: []int{0}}

// AcceptCodes returns a policy accepting exactly the given codes.
func AcceptCodes(codes ...int) ExitCodePolicy {
	return ExitCodePolicy{Accepted: slices.Clone(codes)}
}

// Accepts reports whether code counts as success.
func (p ExitCodePolicy) Accepts(code int) bool {
	if len(p.Accepted) == 0 {
		return code == 0
	}
	return slices.Contains(p.Accepted, code)
}
