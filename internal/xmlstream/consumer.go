// Package xmlstream parses XML written line by line by an external tool while the tool
// is still running.
//
// Lines pushed through ConsumeLine travel through a bounded channel to a parser goroutine.
// The producer must Close the consumer once the tool exits and then Wait for the parser
// before reading accumulated results.
package xmlstream

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultBufferSize = 256

// Element is an XML element as seen by a handler. Path is the slash-separated chain of
// local names from the document root, e.g. "log/logentry/paths/path".
type Element struct {
	Path  string
	Name  string
	Attrs map[string]string
	Text  string
}

// Attr returns the named attribute, or "".
func (e Element) Attr(name string) string { return e.Attrs[name] }

// Handler receives elements matching the path it was registered for.
type Handler func(Element)

// Consumer is a tag-path aware, attribute keyed XML event consumer.
type Consumer struct {
	name          string
	lines         chan string
	startHandlers map[string][]Handler
	endHandlers   map[string][]Handler
	group         errgroup.Group
	startOnce     sync.Once
	closeOnce     sync.Once

	mu       sync.Mutex
	warnings []string
}

// NewConsumer creates a consumer; name is used in log messages.
func NewConsumer(name string) *Consumer {
	return NewConsumerWithBuffer(name, defaultBufferSize)
}

// NewConsumerWithBuffer creates a consumer whose channel holds at most size lines.
func NewConsumerWithBuffer(name string, size int) *Consumer {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &Consumer{
		name:          name,
		lines:         make(chan string, size),
		startHandlers: map[string][]Handler{},
		endHandlers:   map[string][]Handler{},
	}
}

// OnStart registers h for the start tag of elements at path. Text is empty at that point.
// Handlers must be registered before the first line is consumed.
func (c *Consumer) OnStart(path string, h Handler) *Consumer {
	c.startHandlers[path] = append(c.startHandlers[path], h)
	return c
}

// OnEnd registers h for the end tag of elements at path.
func (c *Consumer) OnEnd(path string, h Handler) *Consumer {
	c.endHandlers[path] = append(c.endHandlers[path], h)
	return c
}

// ConsumeLine feeds one line of output. It blocks while the channel is full.
func (c *Consumer) ConsumeLine(line string) {
	c.start()
	c.lines <- line
}

// Close signals the end of output. It is safe to call more than once.
func (c *Consumer) Close() {
	c.start()
	c.closeOnce.Do(func() { close(c.lines) })
}

// Wait blocks until the parser has processed every line. Close must be called first.
// Malformed XML is not an error: it is logged and kept in Warnings.
func (c *Consumer) Wait(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- c.group.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("waiting for %s parser: %w", c.name, ctx.Err())
	}
}

// Warnings returns the parse problems found so far.
func (c *Consumer) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.warnings...)
}

func (c *Consumer) start() {
	c.startOnce.Do(func() {
		c.group.Go(c.parse)
	})
}

type frame struct {
	name  string
	attrs map[string]string
	text  strings.Builder
}

func (c *Consumer) parse() error {
	reader := &chanReader{lines: c.lines}
	decoder := xml.NewDecoder(reader)

	var stack []*frame
	path := func() string {
		names := make([]string, len(stack))
		for i, f := range stack {
			names[i] = f.name
		}
		return strings.Join(names, "/")
	}

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			if len(stack) > 0 {
				c.warn(fmt.Sprintf("unexpected end of document inside <%s>", path()))
			}
			return nil
		}
		if err != nil {
			c.warn(err.Error())
			reader.drain()
			return nil
		}

		switch t := token.(type) {
		case xml.StartElement:
			f := &frame{name: t.Name.Local, attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				f.attrs[a.Name.Local] = a.Value
			}
			stack = append(stack, f)
			c.dispatch(c.startHandlers, Element{Path: path(), Name: f.name, Attrs: f.attrs})
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			f := stack[len(stack)-1]
			element := Element{
				Path:  path(),
				Name:  f.name,
				Attrs: f.attrs,
				Text:  strings.TrimSpace(f.text.String()),
			}
			stack = stack[:len(stack)-1]
			c.dispatch(c.endHandlers, element)
		}
	}
}

func (c *Consumer) dispatch(handlers map[string][]Handler, element Element) {
	for _, h := range handlers[element.Path] {
		h(element)
	}
}

func (c *Consumer) warn(message string) {
	logger.Warnf("[%s] Malformed XML output, keeping partial results: %s", c.name, message)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, message)
}

// chanReader exposes the line channel as an io.Reader for the decoder.
type chanReader struct {
	lines   <-chan string
	pending []byte
}

func (r *chanReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		line, ok := <-r.lines
		if !ok {
			return 0, io.EOF
		}
		r.pending = []byte(line + "\n")
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// drain discards the remaining lines so the producer never blocks after a parse failure.
func (r *chanReader) drain() {
	for range r.lines {
	}
}
