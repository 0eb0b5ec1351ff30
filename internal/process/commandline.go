// Package process runs the external tools wrapped by CLI-backed providers and
// streams their output to line consumers.
package process

import (
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/kballard/go-shellquote"
)

const maskedValue = "*****"

// Commandline describes one invocation of an external tool.
type Commandline struct {
	Executable string
	Args       []string
	Dir        string
	Env        map[string]string
	// Secrets are masked when the command line is rendered.
	Secrets []string
}

// NewCommandline builds a command line for executable running in dir.
func NewCommandline(dir, executable string, args ...string) *Commandline {
	return &Commandline{Executable: executable, Args: args, Dir: dir, Env: map[string]string{}}
}

// Arg appends arguments.
func (c *Commandline) Arg(args ...string) *Commandline {
	c.Args = append(c.Args, args...)
	return c
}

// SecretArg appends an argument whose value must not be shown in logs.
func (c *Commandline) SecretArg(flag, value string) *Commandline {
	if flag != "" {
		c.Args = append(c.Args, flag)
	}
	c.Args = append(c.Args, value)
	if value != "" {
		c.Secrets = append(c.Secrets, value)
	}
	return c
}

// Mask hides values that appear inside other arguments, such as a password embedded in a URL.
// The URL-encoded forms of each value are hidden too.
func (c *Commandline) Mask(values ...string) *Commandline {
	for _, v := range values {
		if v == "" {
			continue
		}
		c.Secrets = append(c.Secrets, v)
		userInfo := strings.TrimPrefix(url.UserPassword("", v).String(), ":")
		for _, encoded := range []string{userInfo, url.QueryEscape(v)} {
			if encoded != v && !slices.Contains(c.Secrets, encoded) {
				c.Secrets = append(c.Secrets, encoded)
			}
		}
	}
	return c
}

// SetEnv adds an environment variable on top of the inherited environment.
func (c *Commandline) SetEnv(key, value string) *Commandline {
	if c.Env == nil {
		c.Env = map[string]string{}
	}
	c.Env[key] = value
	return c
}

// Environ returns the full environment of the child process.
func (c *Commandline) Environ() []string {
	env := os.Environ()
	for k, v := range c.Env {
		env = append(env, k+"="+v)
	}
	return env
}

// String renders a shell-quoted command line with secrets masked.
func (c *Commandline) String() string {
	words := make([]string, 0, len(c.Args)+1)
	words = append(words, c.Executable)
	for _, arg := range c.Args {
		words = append(words, c.mask(arg))
	}
	return shellquote.Join(words...)
}

func (c *Commandline) mask(arg string) string {
	for _, secret := range c.Secrets {
		if secret != "" && strings.Contains(arg, secret) {
			arg = strings.ReplaceAll(arg, secret, maskedValue)
		}
	}
	return arg
}

// SplitArgs splits a user supplied argument string the way a POSIX shell would.
func SplitArgs(raw string) ([]string, error) {
	return shellquote.Split(raw)
}
