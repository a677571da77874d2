package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"

	"github.com/spigell/ad-targeter/internal/ai"
	"github.com/spigell/ad-targeter/internal/dataset"
	"github.com/spigell/ad-targeter/internal/logger"
	"github.com/spigell/ad-targeter/internal/recommend"
)

const (
	PromptExit = "Exit"

	pitchCategories = 3
)

// ErrExit is returned by a Selector when the user asked to leave.
var ErrExit = errors.New("exit requested")

// Selector picks one profile label.
type Selector interface {
	Select(labels []string) (string, error)
}

// PromptSelector asks with a searchable promptui list.
type PromptSelector struct {
	Label string
	Size  int
}

func (s *PromptSelector) Select(labels []string) (string, error) {
	items := append(append(make([]string, 0, len(labels)+1), labels...), PromptExit)

	size := s.Size
	if size <= 0 {
		size = 10
	}

	prompt := promptui.Select{
		Label: s.Label,
		Items: items,
		Size:  size,
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(items[index]), strings.ToLower(strings.TrimSpace(input)))
		},
	}

	_, selected, err := prompt.Run()
	if err != nil {
		return "", err
	}

	if selected == PromptExit {
		return "", ErrExit
	}

	return selected, nil
}

type Viewer struct {
	resources *Resources
	pipeline  *recommend.Pipeline
	pitcher   ai.Pitcher
	out       io.Writer
	logger    *zap.Logger
}

// New builds a viewer. pitcher may be nil.
func New(resources *Resources, pipeline *recommend.Pipeline, pitcher ai.Pitcher, out io.Writer, log *zap.Logger) *Viewer {
	return &Viewer{
		resources: resources,
		pipeline:  pipeline,
		pitcher:   pitcher,
		out:       out,
		logger:    logger.WithFields(log, logger.StringFields(logger.StringField{Key: logger.FieldModelID, Value: resources.Model.ID})...),
	}
}

// Recommend predicts every category for one user and runs the filter pipeline.
func (v *Viewer) Recommend(ctx context.Context, user *dataset.User) (*recommend.Recommendations, error) {
	m := v.resources.Model

	probs, err := m.PredictProba([]string{user.Features()})
	if err != nil {
		return nil, fmt.Errorf("predicting: %w", err)
	}

	recs, err := recommend.FromProbabilities(probs, m.Categories, 0)
	if err != nil {
		return nil, err
	}

	return v.pipeline.Run(ctx, recs)
}

// Show renders a single recommendation round. Nothing is written when the round fails.
func (v *Viewer) Show(ctx context.Context, userID int) error {
	user := v.resources.Users.FindByID(userID)
	if user == nil {
		return fmt.Errorf("user %d not found", userID)
	}

	recs, err := v.Recommend(ctx, user)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString(RenderProfile(user) + "\n")
	buf.WriteString(RenderRecommendations(recs))

	if v.pitcher != nil && recs.Len() > 0 {
		pitch, err := v.pitcher.Pitch(ctx, user, recs.Top(pitchCategories))
		if err != nil {
			v.logger.Warn("skipping ad pitch", zap.Int("user_id", user.ID), zap.Error(err))
		} else {
			buf.WriteString("\n" + RenderPitch(pitch))
		}
	}

	v.logger.Debug("recommendations rendered",
		zap.Int("user_id", user.ID),
		zap.Strings("categories", recs.Categories()),
	)

	_, err = v.out.Write(buf.Bytes())
	return err
}

// Run keeps asking for a profile until the selector returns ErrExit. A failed
// round is reported and the loop goes on.
func (v *Viewer) Run(ctx context.Context, selector Selector) error {
	labels := v.resources.Users.Labels()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		selected, err := selector.Select(labels)
		if err != nil {
			if errors.Is(err, ErrExit) {
				v.logger.Info("exiting", zap.String("reason", "exit selected"))
				return nil
			}
			return err
		}

		id, err := dataset.ParseLabelID(selected)
		if err == nil {
			err = v.Show(ctx, id)
		}
		if err != nil {
			v.logger.Error("failed to generate recommendations", zap.String("selection", selected), zap.Error(err))
			fmt.Fprintf(v.out, "Failed to generate recommendations: %v\n", err)
			continue
		}

		fmt.Fprintln(v.out)
	}
}
