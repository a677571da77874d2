package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/ad-targeter/internal/ai"
	"github.com/spigell/ad-targeter/internal/dataset"
	"github.com/spigell/ad-targeter/internal/recommend"
	"github.com/spigell/ad-targeter/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, prompt string) (string, error)
}

type Pitcher struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200
	systemInstruction   = "You are a copywriter for a targeted advertising product. Output JSON only."
)

func NewPitcher(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Pitcher {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Pitcher{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

var _ ai.Pitcher = (*Pitcher)(nil)

func (p *Pitcher) Pitch(ctx context.Context, user *dataset.User, recs *recommend.Recommendations) (*ai.Pitch, error) {
	if user == nil {
		return nil, errors.New("user is required")
	}
	if recs == nil || recs.Len() == 0 {
		return nil, errors.New("nothing to pitch: no recommendations")
	}

	profileJSON, err := json.MarshalIndent(map[string]any{
		"age":       user.Age,
		"gender":    user.Gender,
		"location":  user.Location,
		"interests": user.Interests,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}

	categoriesJSON, err := json.MarshalIndent(recs.Items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal recommendations: %w", err)
	}

	prompt := buildPrompt(string(profileJSON), string(categoriesJSON))

	p.logger.Debug("gemini generate content request",
		zap.Int("user_id", user.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, p.maxLogLen)),
	)

	raw, err := p.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("gemini generate content response",
		zap.Int("user_id", user.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, p.maxLogLen)),
	)

	pitch, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	pitch.Categories = recs.Categories()
	pitch.Raw = raw

	return pitch, nil
}

func buildPrompt(profileJSON, categoriesJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Profile:\n{{PROFILE_JSON}}\n\nCategories:\n{{CATEGORIES_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{PROFILE_JSON}}", profileJSON)
	prompt = strings.ReplaceAll(prompt, "{{CATEGORIES_JSON}}", categoriesJSON)
	return prompt
}

func parseResponse(raw string) (*ai.Pitch, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	pitch := &ai.Pitch{
		Headline: coerceString(data["headline"]),
		Body:     coerceString(data["body"]),
	}

	if pitch.Headline == "" && pitch.Body == "" {
		return nil, errors.New("gemini response has neither headline nor body")
	}

	return pitch, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}
