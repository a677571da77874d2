package analysis

import (
	"fmt"
	"math"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/gonum/stat"
)

// Regression is a least squares fit of probability against age:
// probability = Intercept + Slope*age.
type Regression struct {
	Category    string
	Intercept   float64
	Slope       float64
	Correlation float64
	RSquared    float64
	Ages        []float64
	Probs       []float64
}

func AgeRegression(category string, ages, probs []float64) (*Regression, error) {
	if len(ages) != len(probs) {
		return nil, fmt.Errorf("got %d ages and %d probabilities", len(ages), len(probs))
	}
	if len(ages) < 2 {
		return nil, fmt.Errorf("need at least 2 users for a regression, got %d", len(ages))
	}
	if _, variance := stat.MeanVariance(ages, nil); variance == 0 {
		return nil, fmt.Errorf("all users have the same age")
	}

	alpha, beta := stat.LinearRegression(ages, probs, nil, false)

	return &Regression{
		Category:    category,
		Intercept:   alpha,
		Slope:       beta,
		Correlation: finite(stat.Correlation(ages, probs, nil)),
		RSquared:    finite(stat.RSquared(ages, probs, nil, alpha, beta)),
		Ages:        ages,
		Probs:       probs,
	}, nil
}

// Predict evaluates the fitted line at age.
func (r *Regression) Predict(age float64) float64 {
	return r.Intercept + r.Slope*age
}

// finite maps the NaN a constant probability column produces to zero.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func RenderRegression(r *Regression) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Ad Interest Probability vs. Age for '%s'", cases.Title(language.Und).String(r.Category))
	tw.AppendRows([]table.Row{
		{"Users", strconv.Itoa(len(r.Ages))},
		{"Intercept", formatFloat(r.Intercept)},
		{"Slope (per year)", formatFloat(r.Slope)},
		{"Pearson r", formatFloat(r.Correlation)},
		{"R^2", formatFloat(r.RSquared)},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})

	return tw.Render()
}

func regressionTable(r *Regression) table.Writer {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"age", "probability", "fitted"})
	for i := range r.Ages {
		tw.AppendRow(table.Row{
			strconv.FormatFloat(r.Ages[i], 'f', -1, 64),
			strconv.FormatFloat(r.Probs[i], 'f', -1, 64),
			strconv.FormatFloat(r.Predict(r.Ages[i]), 'f', -1, 64),
		})
	}

	return tw
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
