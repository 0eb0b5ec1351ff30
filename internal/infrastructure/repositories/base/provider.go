// Package base holds the command table and tool plumbing shared by every provider.
package base

import (
	"context"
	"fmt"
	"sort"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

// CommandFunc implements one command for one provider.
type CommandFunc func(
	ctx context.Context,
	repo entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error)

// Provider is the command table embedded by concrete providers.
type Provider struct {
	name     string
	commands map[entities.CommandName]CommandFunc
}

// NewProvider creates an empty command table for the provider tag name.
func NewProvider(name string) *Provider {
	return &Provider{name: name, commands: map[entities.CommandName]CommandFunc{}}
}

// Handle registers fn as the implementation of cmd.
func (p *Provider) Handle(cmd entities.CommandName, fn CommandFunc) *Provider {
	p.commands[cmd] = fn
	return p
}

// Name returns the provider tag.
func (p *Provider) Name() string { return p.name }

// Supports reports whether cmd has an implementation.
func (p *Provider) Supports(cmd entities.CommandName) bool {
	_, ok := p.commands[cmd]
	return ok
}

// Commands lists the supported commands, sorted.
func (p *Provider) Commands() []entities.CommandName {
	names := make([]entities.CommandName, 0, len(p.commands))
	for name := range p.commands {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Execute dispatches cmd to its implementation.
func (p *Provider) Execute(
	ctx context.Context,
	cmd entities.CommandName,
	repo entities.RepositoryDescriptor,
	fileSet entities.FileSet,
	params *entities.CommandParameters,
) (entities.Result, error) {
	fn, ok := p.commands[cmd]
	if !ok {
		return nil, &entities.UnsupportedCommandError{Provider: p.name, Command: cmd}
	}
	if repo == nil {
		return nil, entities.NewScmError(string(cmd), fmt.Errorf("no repository given to provider %q", p.name))
	}
	if params == nil {
		params = entities.NewCommandParameters()
	}

	logger.Debugf("[%s] Executing %s on %s", p.name, cmd, fileSet)
	result, err := fn(ctx, repo, fileSet, params)
	if err != nil {
		return nil, err
	}
	if !result.IsSuccess() {
		logger.Warnf("[%s] %s failed: %s", p.name, cmd, result.ProviderMessage())
	}
	return result, nil
}
