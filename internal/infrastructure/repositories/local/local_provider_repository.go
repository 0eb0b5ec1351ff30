// Package local implements a provider backed by a plain directory tree. It needs no
// external tool, which makes it the reference implementation of the command set.
package local

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	domainRepos "github.com/rios0rios0/scmforge/internal/domain/repositories"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/base"
)

const (
	providerName = "local"
	metadataFile = ".scmforge-local"
	tagsDir      = ".tags"
	historyDir   = ".history"
)

// Repository points at <root>/<module>.
type Repository struct {
	entities.BaseRepository
	Root   string
	Module string
}

func (r *Repository) String() string {
	return fmt.Sprintf("local:%s:%s", r.Root, r.Module)
}

// ModuleDir is the directory holding the current content of the module.
func (r *Repository) ModuleDir() string {
	return filepath.Join(r.Root, r.Module)
}

// TagDir is the directory holding the content of the module at tag.
func (r *Repository) TagDir(tag string) string {
	return filepath.Join(r.Root, tagsDir, tag, r.Module)
}

// HistoryFile records the change sets of the module.
func (r *Repository) HistoryFile() string {
	return filepath.Join(r.Root, historyDir, r.Module+".yaml")
}

// ProviderRepository is the local directory provider.
type ProviderRepository struct {
	*base.Provider
}

// NewProviderRepository creates the local provider.
func NewProviderRepository(_ *entities.Settings) domainRepos.ProviderRepository {
	p := &ProviderRepository{Provider: base.NewProvider(providerName)}
	p.Handle(entities.CommandAdd, p.add).
		Handle(entities.CommandChangeLog, p.changeLog).
		Handle(entities.CommandCheckIn, p.checkIn).
		Handle(entities.CommandCheckOut, p.checkOut).
		Handle(entities.CommandDiff, p.diff).
		Handle(entities.CommandExport, p.export).
		Handle(entities.CommandList, p.list).
		Handle(entities.CommandRemove, p.remove).
		Handle(entities.CommandStatus, p.status).
		Handle(entities.CommandTag, p.tag).
		Handle(entities.CommandUpdate, p.update)
	return p
}

func (p *ProviderRepository) ScmSpecificFilename() string { return metadataFile }

// MakeRepository parses "root<d>module".
func (p *ProviderRepository) MakeRepository(url string, delimiter rune) (entities.RepositoryDescriptor, error) {
	repo, messages := parseURL(url, delimiter)
	if err := base.Invalid(url, messages); err != nil {
		return nil, err
	}
	return repo, nil
}

// MakeRepositoryFromPath reads the metadata of a local working copy.
func (p *ProviderRepository) MakeRepositoryFromPath(path string) (entities.RepositoryDescriptor, error) {
	meta, err := readMetadata(path)
	if err != nil {
		return nil, err
	}
	repo := &Repository{BaseRepository: entities.NewBaseRepository(), Root: meta.Root, Module: meta.Module}
	return repo, nil
}

func (p *ProviderRepository) ValidateURL(url string, delimiter rune) []string {
	_, messages := parseURL(url, delimiter)
	return messages
}

func parseURL(url string, delimiter rune) (*Repository, []string) {
	tokens := base.SplitURL(url, delimiter)
	if len(tokens) != 2 {
		return nil, []string{fmt.Sprintf(
			"the url must be of the form 'root%cmodule', got %d token(s)", delimiter, len(tokens))}
	}

	var messages []string
	root, module := tokens[0], tokens[1]
	if root == "" {
		messages = append(messages, "the root directory must not be empty")
	} else if info, err := os.Stat(root); err != nil || !info.IsDir() {
		messages = append(messages, fmt.Sprintf("the root directory %q does not exist", root))
	}
	if module == "" {
		messages = append(messages, "the module must not be empty")
	} else if strings.Contains(module, "..") || filepath.IsAbs(module) {
		messages = append(messages, fmt.Sprintf("the module %q must be a relative path inside the root", module))
	} else if root != "" {
		if info, err := os.Stat(filepath.Join(root, module)); err != nil || !info.IsDir() {
			messages = append(messages, fmt.Sprintf("the module directory %q does not exist", filepath.Join(root, module)))
		}
	}
	if len(messages) > 0 {
		return nil, messages
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, []string{fmt.Sprintf("cannot resolve root %q: %v", root, err)}
	}
	return &Repository{BaseRepository: entities.NewBaseRepository(), Root: absRoot, Module: module}, nil
}
