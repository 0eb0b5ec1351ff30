package local

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/scmforge/internal/domain/entities"
)

type historyEntry struct {
	Revision string        `yaml:"revision"`
	Author   string        `yaml:"author"`
	Date     string        `yaml:"date"`
	Comment  string        `yaml:"comment"`
	Files    []historyFile `yaml:"files"`
}

type historyFile struct {
	Name   string `yaml:"name"`
	Action string `yaml:"action"`
}

func readHistory(repo *Repository) ([]historyEntry, error) {
	data, err := os.ReadFile(repo.HistoryFile())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, entities.NewScmError("read local history", err)
	}
	var entries []historyEntry
	if unmarshalErr := yaml.Unmarshal(data, &entries); unmarshalErr != nil {
		return nil, entities.NewScmError("read local history", unmarshalErr)
	}
	return entries, nil
}

func appendHistory(repo *Repository, entry historyEntry) error {
	entries, err := readHistory(repo)
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	data, err := yaml.Marshal(entries)
	if err != nil {
		return entities.NewScmError("write local history", err)
	}
	if mkErr := os.MkdirAll(filepath.Dir(repo.HistoryFile()), 0o755); mkErr != nil {
		return entities.NewScmError("write local history", mkErr)
	}
	if writeErr := os.WriteFile(repo.HistoryFile(), data, 0o644); writeErr != nil {
		return entities.NewScmError("write local history", writeErr)
	}
	return nil
}

// toChangeSet converts a stored entry; dates use the primary timestamp layout.
func (e historyEntry) toChangeSet() (entities.ChangeSet, error) {
	cs := entities.ChangeSet{Author: e.Author, Comment: e.Comment, Revision: e.Revision}
	if err := cs.SetDate(e.Date, ""); err != nil {
		return cs, err
	}
	for _, f := range e.Files {
		file := entities.NewChangeFile(f.Name, e.Revision)
		if status, ok := entities.ParseScmFileStatus(f.Action); ok {
			file.Action = status
		}
		cs.AddFile(file)
	}
	return cs, nil
}
