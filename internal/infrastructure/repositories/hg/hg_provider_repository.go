// Package hg implements a provider wrapping the Mercurial command line client.
package hg

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	domainRepos "github.com/rios0rios0/scmforge/internal/domain/repositories"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/base"
)

const (
	providerName = "hg"
	metadataDir  = ".hg"
)

//nolint:gochecknoglobals // closed lookup table
var supportedSchemes = map[string]bool{"file": true, "http": true, "https": true, "ssh": true}

// Repository is a Mercurial repository URL or local path.
type Repository struct {
	entities.BaseRepository
	URL string
}

func (r *Repository) String() string { return r.URL }

// ParseRepository accepts http(s), ssh and file URLs, or a local path.
func ParseRepository(raw string) (*Repository, []string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, []string{"the hg url must not be empty"}
	}
	repo := &Repository{BaseRepository: entities.NewBaseRepository(), URL: raw}
	if !strings.Contains(raw, "://") {
		if !filepath.IsAbs(raw) {
			return nil, []string{fmt.Sprintf("the hg path %q must be absolute", raw)}
		}
		return repo, nil
	}

	parsed, err := url.Parse(raw)
	switch {
	case err != nil:
		return nil, []string{fmt.Sprintf("invalid hg url %q: %v", raw, err)}
	case !supportedSchemes[parsed.Scheme]:
		return nil, []string{fmt.Sprintf("unsupported hg url scheme %q", parsed.Scheme)}
	case parsed.Scheme != "file" && parsed.Host == "":
		return nil, []string{fmt.Sprintf("the hg url %q has no host", raw)}
	}
	repo.Host = parsed.Hostname()
	if parsed.User != nil {
		repo.User = parsed.User.Username()
		repo.Password, _ = parsed.User.Password()
		parsed.User = nil
		repo.URL = parsed.String()
	}
	return repo, nil
}

// AuthenticatedURL puts the descriptor credentials back into an http(s) URL.
func AuthenticatedURL(repo *Repository) string {
	parsed, err := url.Parse(repo.URL)
	if err != nil || repo.User == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return repo.URL
	}
	if repo.Password != "" {
		parsed.User = url.UserPassword(repo.User, repo.Password)
	} else {
		parsed.User = url.User(repo.User)
	}
	return parsed.String()
}

// ProviderRepository is the Mercurial provider.
type ProviderRepository struct {
	*base.Provider
	tool *base.Tool
}

// NewProviderRepository creates the hg provider using the executable configured in settings.
func NewProviderRepository(settings *entities.Settings) domainRepos.ProviderRepository {
	p := &ProviderRepository{
		Provider: base.NewProvider(providerName),
		tool:     base.NewTool(providerName, settings.Executable(providerName, "hg")),
	}
	p.Handle(entities.CommandAdd, p.add).
		Handle(entities.CommandBlame, p.blame).
		Handle(entities.CommandBranch, p.branch).
		Handle(entities.CommandChangeLog, p.changeLog).
		Handle(entities.CommandCheckIn, p.checkIn).
		Handle(entities.CommandCheckOut, p.checkOut).
		Handle(entities.CommandDiff, p.diff).
		Handle(entities.CommandInfo, p.info).
		Handle(entities.CommandList, p.list).
		Handle(entities.CommandRemove, p.remove).
		Handle(entities.CommandStatus, p.status).
		Handle(entities.CommandTag, p.tag).
		Handle(entities.CommandUpdate, p.update)
	return p
}

func (p *ProviderRepository) ScmSpecificFilename() string { return metadataDir }

func (p *ProviderRepository) MakeRepository(raw string, _ rune) (entities.RepositoryDescriptor, error) {
	repo, messages := ParseRepository(raw)
	if err := base.Invalid(raw, messages); err != nil {
		return nil, err
	}
	return repo, nil
}

// MakeRepositoryFromPath reads the default path from .hg/hgrc, falling back to the working
// copy itself.
func (p *ProviderRepository) MakeRepositoryFromPath(path string) (entities.RepositoryDescriptor, error) {
	if err := base.RequireWorkingCopy(path, metadataDir); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, entities.NewScmError("resolve working copy", err)
	}
	if remote := readDefaultPath(filepath.Join(abs, metadataDir, "hgrc")); remote != "" {
		return p.MakeRepository(remote, ':')
	}
	return p.MakeRepository(abs, ':')
}

func (p *ProviderRepository) ValidateURL(raw string, _ rune) []string {
	_, messages := ParseRepository(raw)
	return messages
}

func readDefaultPath(hgrc string) string {
	data, err := os.ReadFile(hgrc)
	if err != nil {
		return ""
	}
	inPaths := false
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") {
			inPaths = line == "[paths]"
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if inPaths && found && strings.TrimSpace(key) == "default" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
