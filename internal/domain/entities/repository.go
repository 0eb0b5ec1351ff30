package entities

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// BaseRepository holds the connection fields shared by every provider descriptor.
// Credentials and push behaviour may be changed by the caller before first use.
// Instances are not safe for concurrent use by simultaneous commands.
type BaseRepository struct {
	User            string
	Password        string
	PrivateKey      string
	Passphrase      string
	Host            string
	Port            int
	PersistCheckout bool
	PushChanges     bool
}

// NewBaseRepository returns a base with the default push behaviour.
func NewBaseRepository() BaseRepository {
	return BaseRepository{PushChanges: true}
}

// Base returns the mutable credential block. Embedding BaseRepository satisfies
// RepositoryDescriptor's Base method.
func (b *BaseRepository) Base() *BaseRepository { return b }

// HasCredentials reports whether a user name was provided.
func (b *BaseRepository) HasCredentials() bool { return b.User != "" }

// RepositoryDescriptor is the parsed, provider-specific form of a connection string.
type RepositoryDescriptor interface {
	Base() *BaseRepository
	String() string
}

// ScmRepository binds a descriptor to the provider tag that produced it.
// The tag cannot change after construction.
type ScmRepository struct {
	provider   string
	descriptor RepositoryDescriptor
}

func NewScmRepository(provider string, descriptor RepositoryDescriptor) *ScmRepository {
	return &ScmRepository{provider: provider, descriptor: descriptor}
}

// Provider returns the provider tag.
func (r *ScmRepository) Provider() string { return r.provider }

// Descriptor returns the provider-specific descriptor.
func (r *ScmRepository) Descriptor() RepositoryDescriptor { return r.descriptor }

func (r *ScmRepository) String() string {
	return fmt.Sprintf("%s:%s", r.provider, r.descriptor)
}

// DescriptorAs returns the descriptor of repo as the concrete type T, or an ErrRepositoryType
// error when a provider is handed a descriptor it did not create.
func DescriptorAs[T RepositoryDescriptor](repo RepositoryDescriptor) (T, error) {
	typed, ok := repo.(T)
	if !ok {
		var zero T
		return zero, NewScmError("resolve repository",
			fmt.Errorf("%w: got %T, want %T", ErrRepositoryType, repo, zero))
	}
	return typed, nil
}

// UserInfo is the parsed form of a "user[/password]@host[:port]" token.
type UserInfo struct {
	User     string
	Password string
	Host     string
	Port     int
}

// ParseUserInfo parses "user[/password]@host[:port]" or "host[:port]". It returns every
// problem it finds rather than stopping at the first one.
func ParseUserInfo(token string) (UserInfo, []string) {
	var info UserInfo
	var messages []string

	hostPart := token
	if at := strings.LastIndex(token, "@"); at >= 0 {
		credentials := token[:at]
		hostPart = token[at+1:]
		if slash := strings.Index(credentials, "/"); slash >= 0 {
			info.User = credentials[:slash]
			info.Password = credentials[slash+1:]
		} else {
			info.User = credentials
		}
		if info.User == "" {
			messages = append(messages, "user name must not be empty before '@'")
		}
	}

	if colon := strings.LastIndex(hostPart, ":"); colon >= 0 {
		info.Host = hostPart[:colon]
		port, err := strconv.Atoi(hostPart[colon+1:])
		if err != nil || port <= 0 || port > 65535 {
			messages = append(messages, fmt.Sprintf("invalid port %q", hostPart[colon+1:]))
		} else {
			info.Port = port
		}
	} else {
		info.Host = hostPart
	}
	if info.Host == "" && (strings.Contains(token, "@") || strings.Contains(token, ":")) {
		messages = append(messages, "host must not be empty")
	}
	return info, messages
}

// SplitQuery separates a trailing "?key=value&..." suffix from a connection string.
func SplitQuery(raw string) (string, url.Values, error) {
	idx := strings.Index(raw, "?")
	if idx < 0 {
		return raw, url.Values{}, nil
	}
	values, err := url.ParseQuery(raw[idx+1:])
	if err != nil {
		return raw[:idx], url.Values{}, fmt.Errorf("invalid query %q: %w", raw[idx+1:], err)
	}
	return raw[:idx], values, nil
}
