package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spigell/ad-targeter/internal/ai"
	"github.com/spigell/ad-targeter/internal/dataset"
	"github.com/spigell/ad-targeter/internal/recommend"
)

const (
	NoRecommendations = "No strong recommendations found"

	barWidth   = 30
	labelWidth = 20
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	titleCaser   = cases.Title(language.Und)
)

// RenderProfile shows the fields of a user the recommendations were computed for.
func RenderProfile(user *dataset.User) string {
	var sb strings.Builder
	sb.WriteString(headingStyle.Render("User Profile") + "\n")
	fmt.Fprintf(&sb, "Age: %d\n", user.Age)
	fmt.Fprintf(&sb, "Gender: %s\n", user.Gender)
	fmt.Fprintf(&sb, "Location: %s\n", user.Location)
	fmt.Fprintf(&sb, "Interests: %s\n", user.Interests)

	return sb.String()
}

// RenderRecommendations draws one progress bar per category in list order.
func RenderRecommendations(recs *recommend.Recommendations) string {
	var sb strings.Builder
	sb.WriteString(headingStyle.Render("Recommended Ads") + "\n")

	if recs == nil || recs.Len() == 0 {
		sb.WriteString(warningStyle.Render(NoRecommendations) + "\n")
		return sb.String()
	}

	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)

	for _, rec := range recs.Items {
		label := fmt.Sprintf("%-*s", labelWidth, titleCaser.String(rec.Category)+":")
		fmt.Fprintf(&sb, "%s %s %.2f\n", label, bar.ViewAs(rec.Probability), rec.Probability)
	}

	return sb.String()
}

func RenderPitch(pitch *ai.Pitch) string {
	var sb strings.Builder
	sb.WriteString(headingStyle.Render("Ad Pitch") + "\n")
	if pitch.Headline != "" {
		sb.WriteString(pitch.Headline + "\n")
	}
	if pitch.Body != "" {
		sb.WriteString(pitch.Body + "\n")
	}

	return sb.String()
}
