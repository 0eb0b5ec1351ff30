// Package bazaar implements a provider wrapping the Bazaar (bzr) command line client.
package bazaar

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
	providerName = "bazaar"
	metadataDir  = ".bzr"
)

//nolint:gochecknoglobals // closed lookup table
var supportedSchemes = map[string]bool{
	"bzr": true, "bzr+ssh": true, "file": true, "ftp": true, "http": true, "https": true, "sftp": true,
}

// Repository is a Bazaar branch URL or local path.
type Repository struct {
	entities.BaseRepository
	URL string
}

func (r *Repository) String() string { return r.URL }

// ParseRepository accepts a branch URL in one of the bzr transports or an absolute path.
func ParseRepository(raw string) (*Repository, []string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, []string{"the bazaar url must not be empty"}
	}
	repo := &Repository{BaseRepository: entities.NewBaseRepository(), URL: raw}
	if !strings.Contains(raw, "://") {
		if !filepath.IsAbs(raw) {
			return nil, []string{fmt.Sprintf("the bazaar path %q must be absolute", raw)}
		}
		return repo, nil
	}
	parsed, err := url.Parse(raw)
	switch {
	case err != nil:
		return nil, []string{fmt.Sprintf("invalid bazaar url %q: %v", raw, err)}
	case !supportedSchemes[parsed.Scheme]:
		return nil, []string{fmt.Sprintf("unsupported bazaar url scheme %q", parsed.Scheme)}
	case parsed.Scheme != "file" && parsed.Host == "":
		return nil, []string{fmt.Sprintf("the bazaar url %q has no host", raw)}
	}
	repo.Host = parsed.Hostname()
	if parsed.User != nil {
		repo.User = parsed.User.Username()
		repo.Password, _ = parsed.User.Password()
	}
	return repo, nil
}

// ProviderRepository is the Bazaar provider.
type ProviderRepository struct {
	*base.Provider
	tool *base.Tool
}

// NewProviderRepository creates the bazaar provider using the executable configured in settings.
func NewProviderRepository(settings *entities.Settings) domainRepos.ProviderRepository {
	p := &ProviderRepository{
		Provider: base.NewProvider(providerName),
		tool:     base.NewTool(providerName, settings.Executable(providerName, "bzr")),
	}
	p.Handle(entities.CommandAdd, p.add).
		Handle(entities.CommandBlame, p.blame).
		Handle(entities.CommandChangeLog, p.changeLog).
		Handle(entities.CommandCheckIn, p.checkIn).
		Handle(entities.CommandCheckOut, p.checkOut).
		Handle(entities.CommandDiff, p.diff).
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

// MakeRepositoryFromPath uses the bound location of a checkout, or the branch itself.
func (p *ProviderRepository) MakeRepositoryFromPath(path string) (entities.RepositoryDescriptor, error) {
	if err := base.RequireWorkingCopy(path, metadataDir); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, entities.NewScmError("resolve working copy", err)
	}
	if bound := readBoundLocation(filepath.Join(abs, metadataDir, "branch", "branch.conf")); bound != "" {
		return p.MakeRepository(bound, ':')
	}
	return p.MakeRepository(abs, ':')
}

func (p *ProviderRepository) ValidateURL(raw string, _ rune) []string {
	_, messages := ParseRepository(raw)
	return messages
}

func readBoundLocation(conf string) string {
	data, err := os.ReadFile(conf)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		key, value, found := strings.Cut(line, "=")
		if found && strings.TrimSpace(key) == "bound_location" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
