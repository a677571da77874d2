package dataset

import "strings"

// DefaultCategories is the ad category set used when the config does not override it.
var DefaultCategories = []string{
	"cricket", "bollywood", "cooking", "yoga", "technology",
	"fashion", "travel", "spirituality", "education", "gaming",
	"music", "finance", "health", "politics", "startups",
}

// HasInterest reports whether category is one of the whitespace separated interest tokens.
// The match is exact and case-sensitive.
func (u *User) HasInterest(category string) bool {
	for _, token := range strings.Fields(u.Interests) {
		if token == category {
			return true
		}
	}

	return false
}

// Labels builds the binary target column of every category.
func Labels(users *Users, categories []string) map[string][]int {
	labels := make(map[string][]int, len(categories))
	for _, category := range categories {
		column := make([]int, users.Len())
		for i, user := range users.Items {
			if user.HasInterest(category) {
				column[i] = 1
			}
		}
		labels[category] = column
	}

	return labels
}
