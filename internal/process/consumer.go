package process

import (
	"strings"
	"sync"
)

// LineConsumer receives the output of a process one line at a time, without the
// trailing newline.
type LineConsumer interface {
	ConsumeLine(line string)
}

// LineConsumerFunc adapts a function to LineConsumer.
type LineConsumerFunc func(line string)

func (f LineConsumerFunc) ConsumeLine(line string) { f(line) }

// StringConsumer accumulates every line it receives.
type StringConsumer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (c *StringConsumer) ConsumeLine(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sb.WriteString(line)
	c.sb.WriteByte('\n')
}

// Output returns everything consumed so far.
func (c *StringConsumer) Output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sb.String()
}

// FilteringConsumer drops lines containing any of the benign markers and forwards the rest.
// Tools write harmless warnings to stderr that must not be reported as diagnostics.
type FilteringConsumer struct {
	StringConsumer
	benign []string
}

func NewFilteringConsumer(benign ...string) *FilteringConsumer {
	return &FilteringConsumer{benign: benign}
}

func (c *FilteringConsumer) ConsumeLine(line string) {
	for _, marker := range c.benign {
		if strings.Contains(line, marker) {
			return
		}
	}
	c.StringConsumer.ConsumeLine(line)
}

// Tee forwards every line to all consumers.
func Tee(consumers ...LineConsumer) LineConsumer {
	return LineConsumerFunc(func(line string) {
		for _, c := range consumers {
			if c != nil {
				c.ConsumeLine(line)
			}
		}
	})
}
