// Package extract pulls recipe tables, usage matrices and free-text passages
// out of a parsed CSA week page.
package extract

import (
	"errors"

	"github.com/PuerkitoBio/goquery"

	"github.com/starford/csaharvest/internal/normalize"
)

// ErrTablesNotFound is returned when a page has fewer than two qualifying
// recipe tables.
var ErrTablesNotFound = errors.New("extract: recipe tables not found")

// TableClassifier decides whether a table is a recipe table.
type TableClassifier interface {
	Qualifies(table *goquery.Selection) bool
}

// HeaderClassifier accepts tables whose first row holds at least MinCells
// non-empty <td> cells.
type HeaderClassifier struct {
	MinCells int
}

// DefaultClassifier is the classifier used when none is configured.
var DefaultClassifier = HeaderClassifier{MinCells: 3}

// Qualifies implements TableClassifier.
func (c HeaderClassifier) Qualifies(table *goquery.Selection) bool {
	first := rows(table).First()
	if first.Length() == 0 {
		return false
	}
	return len(nonEmptyTexts(first.ChildrenFiltered("td"))) >= c.MinCells
}

// Pair holds the two recipe tables of a page.
type Pair struct {
	Share       *goquery.Selection // CSA share contents by recipe
	Ingredients *goquery.Selection // pantry ingredients by recipe
	Qualified   int                // number of qualifying tables on the page
}

// Locate returns the first two qualifying tables in document order.
func Locate(doc *goquery.Document, classifier TableClassifier) (Pair, error) {
	if classifier == nil {
		classifier = DefaultClassifier
	}
	var found []*goquery.Selection
	doc.Find("table").Each(func(_ int, t *goquery.Selection) {
		if classifier.Qualifies(t) {
			found = append(found, t)
		}
	})
	if len(found) < 2 {
		return Pair{Qualified: len(found)}, ErrTablesNotFound
	}
	return Pair{Share: found[0], Ingredients: found[1], Qualified: len(found)}, nil
}

// RecipeNames returns the non-empty <td> texts of the table's first row.
func RecipeNames(table *goquery.Selection) []string {
	return nonEmptyTexts(rows(table).First().ChildrenFiltered("td"))
}

// TableData is the label column and usage matrix of a recipe table.
// Labels[i] describes Usage[i]; Usage[i][j] reports whether recipe j uses it.
type TableData struct {
	Labels []string
	Usage  [][]bool
}

// Used reports whether the row label is used by recipe col. Columns past the
// end of a short row are not used.
func (d TableData) Used(row, col int) bool {
	if row < 0 || row >= len(d.Usage) || col < 0 {
		return false
	}
	return col < len(d.Usage[row]) && d.Usage[row][col]
}

// ParseTable reads every row after the header. Rows without a <th> label, or
// whose label normalizes to nothing, are dropped along with their usage.
func ParseTable(table *goquery.Selection) TableData {
	var data TableData
	rows(table).Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := tr.ChildrenFiltered("td, th")
		labelAt := -1
		cells.EachWithBreak(func(i int, c *goquery.Selection) bool {
			if goquery.NodeName(c) == "th" {
				labelAt = i
				return false
			}
			return true
		})
		if labelAt < 0 {
			return
		}
		label := normalize.Alias(Text(cells.Eq(labelAt)))
		if label == "" {
			return
		}
		usage := make([]bool, 0, cells.Length()-labelAt-1)
		cells.Each(func(j int, c *goquery.Selection) {
			if j > labelAt {
				usage = append(usage, Text(c) != "")
			}
		})
		data.Labels = append(data.Labels, label)
		data.Usage = append(data.Usage, usage)
	})
	return data
}

// Labels returns the normalized row labels of a recipe table.
func Labels(table *goquery.Selection) []string {
	return ParseTable(table).Labels
}

// Usage returns the usage matrix of a recipe table.
func Usage(table *goquery.Selection) [][]bool {
	return ParseTable(table).Usage
}

// rows returns the <tr> elements owned by table, skipping nested tables.
func rows(table *goquery.Selection) *goquery.Selection {
	return table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").IsSelection(table)
	})
}

func nonEmptyTexts(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := Text(s); t != "" {
			out = append(out, t)
		}
	})
	return out
}
