// Package analysis summarises model output across the whole user table:
// a probability heatmap, an age regression for one category and a 2D
// clustering of the interest vectors.
package analysis

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/spigell/ad-targeter/internal/dataset"
	"github.com/spigell/ad-targeter/internal/model"
)

// Matrix holds one probability per user (row) and category (column).
type Matrix struct {
	Categories []string
	UserIDs    []int
	Rows       [][]float64
}

func Probabilities(m *model.UnifiedAdModel, users *dataset.Users) (*Matrix, error) {
	if users.Len() == 0 {
		return nil, fmt.Errorf("user table is empty")
	}

	probs, err := m.PredictProba(users.Features())
	if err != nil {
		return nil, err
	}

	matrix := &Matrix{
		Categories: slices.Clone(m.Categories),
		UserIDs:    make([]int, users.Len()),
		Rows:       make([][]float64, users.Len()),
	}
	for i, u := range users.Items {
		matrix.UserIDs[i] = u.ID
		row := make([]float64, len(matrix.Categories))
		for j, category := range matrix.Categories {
			row[j] = probs[category][i]
		}
		matrix.Rows[i] = row
	}

	return matrix, nil
}

// Column returns the probabilities of one category for every user.
func (m *Matrix) Column(category string) ([]float64, error) {
	j := slices.Index(m.Categories, category)
	if j < 0 {
		return nil, fmt.Errorf("unknown category %q", category)
	}

	column := make([]float64, len(m.Rows))
	for i, row := range m.Rows {
		column[i] = row[j]
	}

	return column, nil
}

// Heatmap renders the first rows of the matrix with two-decimal cells.
func Heatmap(m *Matrix, rows int) string {
	if rows <= 0 || rows > len(m.Rows) {
		rows = len(m.Rows)
	}

	tw := heatmapTable(m, rows, 2)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Top %d Users - Classification Probabilities per Category", rows)

	configs := make([]table.ColumnConfig, 0, len(m.Categories))
	for j := range m.Categories {
		configs = append(configs, table.ColumnConfig{Number: j + 3, Align: text.AlignRight})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func heatmapTable(m *Matrix, rows, precision int) table.Writer {
	tw := table.NewWriter()

	header := table.Row{"index", "user_id"}
	for _, category := range m.Categories {
		header = append(header, category)
	}
	tw.AppendHeader(header)

	for i := range rows {
		row := table.Row{i, m.UserIDs[i]}
		for _, p := range m.Rows[i] {
			row = append(row, strconv.FormatFloat(p, 'f', precision, 64))
		}
		tw.AppendRow(row)
	}

	return tw
}
