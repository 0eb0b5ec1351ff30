package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	logger "github.com/sirupsen/logrus"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Settings is the top-level configuration for scmforge.
type Settings struct {
	// Implementations overrides the provider used for a tag (e.g. git -> gogit).
	Implementations map[string]string `yaml:"implementations" hcl:"implementations,optional"`
	// Executables overrides the binary used by a CLI-backed provider (e.g. svn -> /opt/svn/bin/svn).
	Executables map[string]string  `yaml:"executables" hcl:"executables,optional"`
	Credentials []CredentialConfig `yaml:"credentials" hcl:"credential,block"`
	Defaults    *DefaultsConfig    `yaml:"defaults" hcl:"defaults,block"`
}

// CredentialConfig holds the credentials applied to repositories on a given host.
type CredentialConfig struct {
	Host       string `yaml:"host"        hcl:"host,label"`
	User       string `yaml:"user"        hcl:"user"`
	Password   string `yaml:"password"    hcl:"password,optional"`  // Inline, ${ENV_VAR}, or file path
	PrivateKey string `yaml:"private_key" hcl:"private_key,optional"`
	Passphrase string `yaml:"passphrase"  hcl:"passphrase,optional"` // Inline, ${ENV_VAR}, or file path
}

// DefaultsConfig holds values used when a command line flag is not given.
type DefaultsConfig struct {
	WorkingDirectory     string `yaml:"working_directory"      hcl:"working_directory,optional"`
	ChangeLogDatePattern string `yaml:"changelog_date_pattern" hcl:"changelog_date_pattern,optional"`
	PushChanges          *bool  `yaml:"push_changes"           hcl:"push_changes,optional"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// NewDefaultSettings returns the settings used when no configuration file exists.
func NewDefaultSettings() *Settings {
	return &Settings{
		Implementations: map[string]string{},
		Executables:     map[string]string{},
		Defaults:        &DefaultsConfig{},
	}
}

// NewSettings reads and parses a YAML or HCL configuration file, expanding environment
// variables and resolving secret file paths.
func NewSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	settings := NewDefaultSettings()
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		if decodeErr := decodeHCL(path, data, settings); decodeErr != nil {
			return nil, decodeErr
		}
	} else if unmarshalErr := yaml.Unmarshal(data, settings); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}
	settings.normalize()

	for i := range settings.Credentials {
		settings.Credentials[i].Password = resolveSecret(settings.Credentials[i].Password)
		settings.Credentials[i].Passphrase = resolveSecret(settings.Credentials[i].Passphrase)
	}

	if validateErr := settings.Validate(); validateErr != nil {
		return nil, validateErr
	}
	return settings, nil
}

// LoadSettings loads path when given, otherwise the first default location, otherwise defaults.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		found, err := FindConfigFile()
		if err != nil {
			logger.Debugf("No config file found, using defaults: %v", err)
			return NewDefaultSettings(), nil
		}
		path = found
	}
	logger.Debugf("Using config file: %s", path)
	return NewSettings(path)
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".scmforge.yaml",
		".scmforge.yml",
		".scmforge.hcl",
		"scmforge.yaml",
		"scmforge.yml",
		"scmforge.hcl",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// Validate checks every configured value and reports all problems at once.
func (s *Settings) Validate() error {
	var errs []error
	for tag, impl := range s.Implementations {
		if strings.TrimSpace(tag) == "" || strings.TrimSpace(impl) == "" {
			errs = append(errs, fmt.Errorf("implementations: %q -> %q must both be non-empty", tag, impl))
		}
	}
	for tag, exe := range s.Executables {
		if strings.TrimSpace(exe) == "" {
			errs = append(errs, fmt.Errorf("executables.%s must not be empty", tag))
		}
	}
	for i, c := range s.Credentials {
		if c.Host == "" {
			errs = append(errs, fmt.Errorf("credentials[%d].host is required", i))
		}
		if c.User == "" {
			errs = append(errs, fmt.Errorf("credentials[%d].user is required", i))
		}
	}
	return errors.Join(errs...)
}

// CredentialsFor returns the credentials configured for host, if any.
func (s *Settings) CredentialsFor(host string) (CredentialConfig, bool) {
	for _, c := range s.Credentials {
		if strings.EqualFold(c.Host, host) {
			return c, true
		}
	}
	return CredentialConfig{}, false
}

// Executable returns the binary configured for a provider tag, or fallback.
func (s *Settings) Executable(tag, fallback string) string {
	if exe, ok := s.Executables[tag]; ok && exe != "" {
		return exe
	}
	return fallback
}

func (s *Settings) normalize() {
	if s.Implementations == nil {
		s.Implementations = map[string]string{}
	}
	if s.Executables == nil {
		s.Executables = map[string]string{}
	}
	if s.Defaults == nil {
		s.Defaults = &DefaultsConfig{}
	}
}

// decodeHCL decodes an HCL configuration. Values may reference the environment as env.NAME.
func decodeHCL(path string, data []byte, settings *Settings) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse config file: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": environmentObject()},
	}
	if decodeDiags := gohcl.DecodeBody(file.Body, evalCtx, settings); decodeDiags.HasErrors() {
		return fmt.Errorf("failed to decode config file: %s", decodeDiags.Error())
	}
	return nil
}

func environmentObject() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !hclsyntax.ValidIdentifier(name) {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}

// resolveSecret expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the secret from the file.
func resolveSecret(raw string) string {
	if raw == "" {
		return raw
	}

	// Expand ${ENV_VAR} references
	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	// If the resolved value is a path to an existing file, read the secret from it
	if info, statErr := os.Stat(resolved); statErr == nil && !info.IsDir() {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read secret file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Debugf("Read secret from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}
