package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phiremock/phiremock/pkg/expectation"
)

// ExpectationSource supplies expectations at boot. The default source reads
// a directory on disk; tests inject in-memory sources.
type ExpectationSource interface {
	// LoadAll returns every expectation the source holds.
	LoadAll() ([]*expectation.Expectation, error)
}

// DirSource loads every *.json file in a directory as one expectation.
// Files are read once; changes on disk during runtime are not observed.
type DirSource struct {
	// Path is the directory to scan.
	Path string
}

// NewDirSource creates a DirSource for the given directory.
func NewDirSource(path string) *DirSource {
	return &DirSource{Path: path}
}

// LoadAll parses each *.json file in the directory as an expectation.
// A missing directory or an unparsable file is an error: a broken bootstrap
// set is a fatal configuration problem, not something to serve around.
func (d *DirSource) LoadAll() ([]*expectation.Expectation, error) {
	info, err := os.Stat(d.Path)
	if err != nil {
		return nil, fmt.Errorf("expectations dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("expectations dir: %s is not a directory", d.Path)
	}

	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, fmt.Errorf("scan expectations dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			files = append(files, filepath.Join(d.Path, entry.Name()))
		}
	}
	sort.Strings(files)

	result := make([]*expectation.Expectation, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		e, err := expectation.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("validate %s: %w", file, err)
		}
		result = append(result, e)
	}
	return result, nil
}

// StaticSource serves a fixed set of expectations. Used by tests.
type StaticSource struct {
	Expectations []*expectation.Expectation
}

// LoadAll returns the fixed set.
func (s *StaticSource) LoadAll() ([]*expectation.Expectation, error) {
	return s.Expectations, nil
}
