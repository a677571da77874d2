package ai

import (
	"context"

	"github.com/spigell/ad-targeter/internal/dataset"
	"github.com/spigell/ad-targeter/internal/recommend"
)

// Pitch is a short piece of ad copy written for one user.
type Pitch struct {
	Headline   string
	Body       string
	Categories []string
	Raw        string
}

// Pitcher writes ad copy for a user's ranked recommendations.
type Pitcher interface {
	Pitch(ctx context.Context, user *dataset.User, recs *recommend.Recommendations) (*Pitch, error)
}
