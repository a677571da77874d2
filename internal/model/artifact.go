package model

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/spigell/ad-targeter/internal/textvec"
)

// Save writes the model as a single JSON blob.
func (m *UnifiedAdModel) Save(path string) error {
	return writeJSON(path, m)
}

// Load reads a model written by Save and checks its category invariant.
func Load(path string) (*UnifiedAdModel, error) {
	var m UnifiedAdModel
	if err := readJSON(path, &m); err != nil {
		return nil, err
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact %q: %w", path, err)
	}

	return &m, nil
}

// SaveVectorizer writes the vectorizer on its own.
func SaveVectorizer(path string, v *textvec.Vectorizer) error {
	return writeJSON(path, v)
}

func LoadVectorizer(path string) (*textvec.Vectorizer, error) {
	var v textvec.Vectorizer
	if err := readJSON(path, &v); err != nil {
		return nil, err
	}

	if !v.Fitted() {
		return nil, fmt.Errorf("vectorizer artifact %q is not fitted", path)
	}

	return &v, nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}

	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %q: %w", path, err)
	}

	return nil
}
