package local

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

// metadata is stored in every local working copy. Baseline maps each checked out file to
// the checksum it had at checkout/update/checkin time.
type metadata struct {
	Root     string            `yaml:"root"`
	Module   string            `yaml:"module"`
	Revision int               `yaml:"revision"`
	Baseline map[string]string `yaml:"baseline"`
	Added    []string          `yaml:"added,omitempty"`
	Removed  []string          `yaml:"removed,omitempty"`
}

func newMetadata(repo *Repository) *metadata {
	return &metadata{Root: repo.Root, Module: repo.Module, Baseline: map[string]string{}}
}

func readMetadata(workDir string) (*metadata, error) {
	data, err := os.ReadFile(filepath.Join(workDir, metadataFile))
	if err != nil {
		return nil, entities.NewValidationError(workDir, []string{
			fmt.Sprintf("%s is not a local working copy: %v", workDir, err),
		})
	}
	meta := &metadata{}
	if unmarshalErr := yaml.Unmarshal(data, meta); unmarshalErr != nil {
		return nil, entities.NewScmError("read local metadata", unmarshalErr)
	}
	if meta.Baseline == nil {
		meta.Baseline = map[string]string{}
	}
	return meta, nil
}

func (m *metadata) write(workDir string) error {
	sort.Strings(m.Added)
	sort.Strings(m.Removed)
	data, err := yaml.Marshal(m)
	if err != nil {
		return entities.NewScmError("write local metadata", err)
	}
	if writeErr := os.WriteFile(filepath.Join(workDir, metadataFile), data, 0o644); writeErr != nil {
		return entities.NewScmError("write local metadata", writeErr)
	}
	return nil
}

func (m *metadata) isAdded(path string) bool   { return contains(m.Added, path) }
func (m *metadata) isRemoved(path string) bool { return contains(m.Removed, path) }

func (m *metadata) markAdded(path string) {
	if !m.isAdded(path) {
		m.Added = append(m.Added, path)
	}
	m.Removed = without(m.Removed, path)
}

func (m *metadata) markRemoved(path string) {
	if !m.isRemoved(path) {
		m.Removed = append(m.Removed, path)
	}
	m.Added = without(m.Added, path)
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func without(list []string, value string) []string {
	kept := list[:0]
	for _, v := range list {
		if v != value {
			kept = append(kept, v)
		}
	}
	return kept
}

// snapshot maps every regular file under dir (slash-separated, relative) to its checksum.
// The local metadata file is never part of a snapshot.
func snapshot(dir string) (map[string]string, error) {
	sums := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || d.Name() == metadataFile {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		sum, sumErr := checksum(path)
		if sumErr != nil {
			return sumErr
		}
		sums[filepath.ToSlash(rel)] = sum
		return nil
	})
	if err != nil {
		return nil, entities.NewScmError("scan directory", err)
	}
	return sums, nil
}

func checksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, copyErr := io.Copy(hash, file); copyErr != nil {
		return "", copyErr
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
