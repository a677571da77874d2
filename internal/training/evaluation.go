package training

import (
	"fmt"
	"math"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/sjwhitworth/golearn/evaluation"
)

// Evaluation holds multi-label metrics over a held-out set.
type Evaluation struct {
	// Accuracy is the subset accuracy: rows whose every label was predicted correctly.
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
	Rows      int
	Scores    []CategoryScore
}

type CategoryScore struct {
	Category  string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Evaluate compares per-category truth and prediction columns. Macro averages treat
// undefined ratios as zero.
func Evaluate(truth, pred map[string][]int, categories []string) (*Evaluation, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("no categories to evaluate")
	}

	rows := len(truth[categories[0]])
	for _, category := range categories {
		if len(truth[category]) != rows || len(pred[category]) != rows {
			return nil, fmt.Errorf("category %s: expected %d rows in truth and prediction", category, rows)
		}
	}

	eval := &Evaluation{Rows: rows}

	exact := 0
	for i := range rows {
		match := true
		for _, category := range categories {
			if truth[category][i] != pred[category][i] {
				match = false
				break
			}
		}
		if match {
			exact++
		}
	}
	if rows > 0 {
		eval.Accuracy = float64(exact) / float64(rows)
	}

	for _, category := range categories {
		score := scoreCategory(category, truth[category], pred[category])
		eval.Scores = append(eval.Scores, score)

		eval.Precision += score.Precision
		eval.Recall += score.Recall
		eval.F1 += score.F1
	}

	n := float64(len(categories))
	eval.Precision /= n
	eval.Recall /= n
	eval.F1 /= n

	return eval, nil
}

const (
	positive = "1"
	negative = "0"
)

// scoreCategory builds the binary confusion matrix of one category, keyed by
// reference class then predicted class, and reads the positive-class scores from it.
func scoreCategory(category string, truth, pred []int) CategoryScore {
	cm := evaluation.ConfusionMatrix{
		positive: {positive: 0, negative: 0},
		negative: {positive: 0, negative: 0},
	}

	support := 0
	for i, t := range truth {
		if t == 1 {
			support++
		}
		cm[classOf(t)][classOf(pred[i])]++
	}

	return CategoryScore{
		Category:  category,
		Precision: zeroIfUndefined(evaluation.GetPrecision(positive, cm)),
		Recall:    zeroIfUndefined(evaluation.GetRecall(positive, cm)),
		F1:        zeroIfUndefined(evaluation.GetF1Score(positive, cm)),
		Support:   support,
	}
}

func classOf(label int) string {
	if label == 1 {
		return positive
	}
	return negative
}

// zeroIfUndefined maps the NaN of a 0/0 score to zero.
func zeroIfUndefined(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// RenderEvaluation renders the summary and per-category scores as tables.
func RenderEvaluation(eval *Evaluation) string {
	summary := table.NewWriter()
	summary.SetStyle(table.StyleRounded)
	summary.SetTitle("Overall evaluation on %d test rows", eval.Rows)
	summary.AppendRows([]table.Row{
		{"Accuracy (subset)", format(eval.Accuracy)},
		{"Precision (macro)", format(eval.Precision)},
		{"Recall (macro)", format(eval.Recall)},
		{"F1 Score (macro)", format(eval.F1)},
	})
	summary.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})

	scores := table.NewWriter()
	scores.SetStyle(table.StyleRounded)
	scores.AppendHeader(table.Row{"Category", "Precision", "Recall", "F1", "Support"})
	for _, s := range eval.Scores {
		scores.AppendRow(table.Row{s.Category, format(s.Precision), format(s.Recall), format(s.F1), strconv.Itoa(s.Support)})
	}
	scores.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	return summary.Render() + "\n" + scores.Render()
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
