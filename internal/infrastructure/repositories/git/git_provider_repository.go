// Package git implements a provider wrapping the git command line client.
package git

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
	domainRepos "github.com/rios0rios0/scmforge/internal/domain/repositories"
	"github.com/rios0rios0/scmforge/internal/infrastructure/repositories/base"
)

const (
	providerName = "git"
	metadataDir  = ".git"
)

//nolint:gochecknoglobals // compiled once
var scpLikeURL = regexp.MustCompile(`^[A-Za-z0-9._-]+@([A-Za-z0-9.-]+):.+$`)

//nolint:gochecknoglobals // closed lookup table
var supportedSchemes = map[string]bool{
	"file": true, "http": true, "https": true, "ssh": true, "git": true,
}

// Repository holds the fetch and push URLs of a git remote. They are equal unless the
// connection string declares a separate push URL.
type Repository struct {
	entities.BaseRepository
	FetchURL string
	PushURL  string
}

func (r *Repository) String() string {
	if r.PushURL == r.FetchURL {
		return r.FetchURL
	}
	return fmt.Sprintf("fetch=%s;push=%s", r.FetchURL, r.PushURL)
}

// ParseRepository parses "[fetch=]<url>[;push=<url>]". Credentials embedded in an http URL
// are moved onto the descriptor.
func ParseRepository(raw string) (*Repository, []string) {
	repo := &Repository{BaseRepository: entities.NewBaseRepository()}
	var messages []string

	for _, part := range strings.Split(strings.TrimSpace(raw), ";") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
			continue
		case strings.HasPrefix(part, "push="):
			repo.PushURL = strings.TrimPrefix(part, "push=")
		case strings.HasPrefix(part, "fetch="):
			repo.FetchURL = strings.TrimPrefix(part, "fetch=")
		case repo.FetchURL == "":
			repo.FetchURL = part
		default:
			messages = append(messages, fmt.Sprintf("unexpected url segment %q", part))
		}
	}
	if repo.FetchURL == "" {
		return nil, append(messages, "the git url must not be empty")
	}
	if repo.PushURL == "" {
		repo.PushURL = repo.FetchURL
	}

	for _, u := range []*string{&repo.FetchURL, &repo.PushURL} {
		cleaned, host, problems := checkURL(*u, &repo.BaseRepository)
		*u = cleaned
		messages = append(messages, problems...)
		if repo.Host == "" {
			repo.Host = host
		}
	}
	if len(messages) > 0 {
		return nil, messages
	}
	return repo, nil
}

// checkURL validates one remote URL and strips its user info into creds.
func checkURL(raw string, creds *entities.BaseRepository) (string, string, []string) {
	if match := scpLikeURL.FindStringSubmatch(raw); match != nil {
		return raw, match[1], nil
	}
	if !strings.Contains(raw, "://") {
		if filepath.IsAbs(raw) {
			return raw, "", nil
		}
		return raw, "", []string{fmt.Sprintf("unsupported git url %q", raw)}
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return raw, "", []string{fmt.Sprintf("invalid git url %q: %v", raw, err)}
	}
	var messages []string
	if !supportedSchemes[parsed.Scheme] {
		messages = append(messages, fmt.Sprintf("unsupported git url scheme %q", parsed.Scheme))
	}
	if parsed.Scheme != "file" && parsed.Host == "" {
		messages = append(messages, fmt.Sprintf("the git url %q has no host", raw))
	}
	if parsed.User != nil && (parsed.Scheme == "http" || parsed.Scheme == "https") {
		creds.User = parsed.User.Username()
		creds.Password, _ = parsed.User.Password()
		parsed.User = nil
	}
	return parsed.String(), parsed.Hostname(), messages
}

// AuthenticatedURL returns raw with the descriptor credentials added for http remotes.
func AuthenticatedURL(repo *Repository, raw string) string {
	if repo.User == "" {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return raw
	}
	if repo.Password != "" {
		parsed.User = url.UserPassword(repo.User, repo.Password)
	} else {
		parsed.User = url.User(repo.User)
	}
	return parsed.String()
}

// ProviderRepository is the git CLI provider.
type ProviderRepository struct {
	*base.Provider
	tool *base.Tool
}

// NewProviderRepository creates the git provider using the executable configured in settings.
func NewProviderRepository(settings *entities.Settings) domainRepos.ProviderRepository {
	return newProviderRepository(base.NewTool(providerName, settings.Executable(providerName, "git")))
}

func newProviderRepository(tool *base.Tool) *ProviderRepository {
	p := &ProviderRepository{Provider: base.NewProvider(providerName), tool: tool}
	p.Handle(entities.CommandAdd, p.add).
		Handle(entities.CommandBlame, p.blame).
		Handle(entities.CommandBranch, p.branch).
		Handle(entities.CommandChangeLog, p.changeLog).
		Handle(entities.CommandCheckIn, p.checkIn).
		Handle(entities.CommandCheckOut, p.checkOut).
		Handle(entities.CommandDiff, p.diff).
		Handle(entities.CommandExport, p.export).
		Handle(entities.CommandInfo, p.info).
		Handle(entities.CommandList, p.list).
		Handle(entities.CommandRemoteInfo, p.remoteInfo).
		Handle(entities.CommandRemove, p.remove).
		Handle(entities.CommandStatus, p.status).
		Handle(entities.CommandTag, p.tag).
		Handle(entities.CommandUntag, p.untag).
		Handle(entities.CommandUpdate, p.update)
	return p
}

func (p *ProviderRepository) ScmSpecificFilename() string { return metadataDir }

func (p *ProviderRepository) MakeRepository(url string, _ rune) (entities.RepositoryDescriptor, error) {
	repo, messages := ParseRepository(url)
	if err := base.Invalid(url, messages); err != nil {
		return nil, err
	}
	return repo, nil
}

// MakeRepositoryFromPath reads the origin remote of an existing clone.
func (p *ProviderRepository) MakeRepositoryFromPath(path string) (entities.RepositoryDescriptor, error) {
	if err := base.RequireWorkingCopy(path, metadataDir); err != nil {
		return nil, err
	}
	origin, err := readOriginURL(filepath.Join(path, metadataDir, "config"))
	if err != nil {
		return nil, err
	}
	return p.MakeRepository(origin, ':')
}

func (p *ProviderRepository) ValidateURL(url string, _ rune) []string {
	_, messages := ParseRepository(url)
	return messages
}

// readOriginURL extracts remote "origin" from a git config file.
func readOriginURL(configPath string) (string, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", entities.NewScmError("read git config", err)
	}
	inOrigin := false
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") {
			inOrigin = line == `[remote "origin"]`
			continue
		}
		if key, value, found := strings.Cut(line, "="); inOrigin && found && strings.TrimSpace(key) == "url" {
			return strings.TrimSpace(value), nil
		}
	}
	return "", entities.NewValidationError(configPath, []string{"no origin remote configured"})
}
