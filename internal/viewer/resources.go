// Package viewer renders per-user ad recommendations in the terminal.
package viewer

import (
	"fmt"
	"math"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/spigell/ad-targeter/internal/dataset"
	"github.com/spigell/ad-targeter/internal/model"
	"github.com/spigell/ad-targeter/internal/textvec"
)

// Resources are the files the viewer cannot start without.
type Resources struct {
	Users *dataset.Users
	Model *model.UnifiedAdModel
	// Vectorizer is the standalone artifact. It is only checked against the
	// model's own vectorizer, which is the one used for prediction.
	Vectorizer *textvec.Vectorizer
}

type Paths struct {
	Data       string
	Model      string
	Vectorizer string
}

// LoadResources reads the user table and both artifacts. Errors keep the
// underlying os error so callers can tell a missing file apart.
func LoadResources(paths Paths) (*Resources, error) {
	users, err := dataset.Load(paths.Data)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}

	m, err := model.Load(paths.Model)
	if err != nil {
		return nil, fmt.Errorf("loading model: %w", err)
	}

	vectorizer, err := model.LoadVectorizer(paths.Vectorizer)
	if err != nil {
		return nil, fmt.Errorf("loading vectorizer: %w", err)
	}

	if err := sameVectorizer(vectorizer, m.Vectorizer); err != nil {
		return nil, fmt.Errorf("vectorizer %q does not belong to model %s: %w", paths.Vectorizer, m.ID, err)
	}

	return &Resources{Users: users, Model: m, Vectorizer: vectorizer}, nil
}

// sameVectorizer fails unless saved maps every term to the same column with the
// same idf weight as embedded.
func sameVectorizer(saved, embedded *textvec.Vectorizer) error {
	if saved.Dimension() != embedded.Dimension() {
		return fmt.Errorf("%d features, model expects %d", saved.Dimension(), embedded.Dimension())
	}

	for term, idx := range embedded.Vocabulary {
		got, ok := saved.Vocabulary[term]
		if !ok {
			return fmt.Errorf("vocabulary lacks term %q", term)
		}
		if got != idx {
			return fmt.Errorf("term %q is column %d, model expects %d", term, got, idx)
		}
	}

	for i, weight := range embedded.IDF {
		if math.Abs(saved.IDF[i]-weight) > 1e-9 {
			return fmt.Errorf("idf of column %d is %v, model expects %v", i, saved.IDF[i], weight)
		}
	}

	return nil
}

// IsTerminal reports whether f is attached to an interactive terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
