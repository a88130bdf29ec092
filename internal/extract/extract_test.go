package extract

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const weekPage = `<html><body>
<p>Farm news</p>
<h2>Welcome to Week 3!</h2>
<p>Greens are back this week.</p>
<table id="share">
  <tr><td></td><td>Soup</td><td>Salad</td><td>Stew</td></tr>
  <tr><th>Carrots (2 lb)</th><td>x</td><td></td><td>x</td></tr>
  <tr><th>Baby oakleaf lettuce</th><td></td><td>x</td><td></td></tr>
  <tr><th>123</th><td>x</td><td>x</td><td>x</td></tr>
  <tr><td>no label</td><td>x</td><td>x</td><td>x</td></tr>
</table>
<table id="ingredients">
  <tr><td></td><td>Soup</td><td>Salad</td><td>Stew</td></tr>
  <tr><th>Olive oil</th><td>x</td><td>x</td><td></td></tr>
  <tr><th>Garlic cloves</th><td>x</td></tr>
</table>
<h3>Soup</h3>
<p>Chop the carrots.</p>
<p>   </p>
<div><p>Simmer   for an hour.</p></div>
<h3>Salad</h3>
<p>Toss everything.</p>
</body></html>`

func parse(t *testing.T, src string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestLocate(t *testing.T) {
	doc := parse(t, weekPage)
	pair, err := Locate(doc, nil)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if id, _ := pair.Share.Attr("id"); id != "share" {
		t.Errorf("share table id = %q", id)
	}
	if id, _ := pair.Ingredients.Attr("id"); id != "ingredients" {
		t.Errorf("ingredients table id = %q", id)
	}
	if pair.Qualified != 2 {
		t.Errorf("Qualified = %d, want 2", pair.Qualified)
	}
}

func TestLocate_SingleTable(t *testing.T) {
	doc := parse(t, `<table><tr><td>A</td><td>B</td><td>C</td></tr></table>
<table><tr><td>A</td><td>B</td></tr></table>`)
	_, err := Locate(doc, nil)
	if !errors.Is(err, ErrTablesNotFound) {
		t.Errorf("err = %v, want ErrTablesNotFound", err)
	}
}

func TestLocate_TakesFirstTwo(t *testing.T) {
	row := `<tr><td>A</td><td>B</td><td>C</td></tr>`
	doc := parse(t, `<table id="one">`+row+`</table><table id="two">`+row+`</table><table id="three">`+row+`</table>`)
	pair, err := Locate(doc, nil)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if id, _ := pair.Ingredients.Attr("id"); id != "two" {
		t.Errorf("second table id = %q, want two", id)
	}
	if pair.Qualified != 3 {
		t.Errorf("Qualified = %d, want 3", pair.Qualified)
	}
}

func TestHeaderClassifier(t *testing.T) {
	tests := []struct {
		name string
		min  int
		html string
		want bool
	}{
		{"three names", 3, `<table><tr><td>A</td><td>B</td><td>C</td></tr></table>`, true},
		{"blank cells ignored", 3, `<table><tr><td> </td><td>B</td><td>C</td></tr></table>`, false},
		{"th not counted", 3, `<table><tr><th>A</th><td>B</td><td>C</td></tr></table>`, false},
		{"lower threshold", 2, `<table><tr><td>A</td><td>B</td></tr></table>`, true},
		{"empty table", 1, `<table></table>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.html)
			got := HeaderClassifier{MinCells: tt.min}.Qualifies(doc.Find("table").First())
			if got != tt.want {
				t.Errorf("Qualifies = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecipeNames(t *testing.T) {
	doc := parse(t, weekPage)
	got := RecipeNames(doc.Find("#share"))
	want := []string{"Soup", "Salad", "Stew"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RecipeNames = %v, want %v", got, want)
	}
}

func TestParseTable(t *testing.T) {
	doc := parse(t, weekPage)
	data := ParseTable(doc.Find("#share"))

	wantLabels := []string{"carrots", "oakleaf_lettuce"}
	if !reflect.DeepEqual(data.Labels, wantLabels) {
		t.Errorf("Labels = %v, want %v", data.Labels, wantLabels)
	}
	wantUsage := [][]bool{{true, false, true}, {false, true, false}}
	if !reflect.DeepEqual(data.Usage, wantUsage) {
		t.Errorf("Usage = %v, want %v", data.Usage, wantUsage)
	}
	if len(data.Labels) != len(data.Usage) {
		t.Errorf("labels and usage misaligned: %d vs %d", len(data.Labels), len(data.Usage))
	}

	if got := Labels(doc.Find("#share")); !reflect.DeepEqual(got, wantLabels) {
		t.Errorf("Labels() = %v, want %v", got, wantLabels)
	}
	if got := Usage(doc.Find("#share")); !reflect.DeepEqual(got, wantUsage) {
		t.Errorf("Usage() = %v, want %v", got, wantUsage)
	}
}

func TestTableData_UsedShortRow(t *testing.T) {
	doc := parse(t, weekPage)
	data := ParseTable(doc.Find("#ingredients"))
	if !data.Used(1, 0) {
		t.Error("garlic should be used by recipe 0")
	}
	if data.Used(1, 2) {
		t.Error("column past a short row should not be used")
	}
	if data.Used(5, 0) || data.Used(0, -1) {
		t.Error("out-of-range lookups should not be used")
	}
}

func TestParseTable_NestedTableIgnored(t *testing.T) {
	doc := parse(t, `<table id="outer">
<tr><td>A</td><td>B</td><td>C</td></tr>
<tr><th>Kale</th><td>x<table><tr><th>Beets</th><td>x</td></tr></table></td><td></td><td></td></tr>
</table>`)
	data := ParseTable(doc.Find("#outer"))
	if !reflect.DeepEqual(data.Labels, []string{"kale"}) {
		t.Errorf("Labels = %v, want [kale]", data.Labels)
	}
}

func TestInstructions(t *testing.T) {
	doc := parse(t, weekPage)
	got := Instructions(doc, "  soup ")
	want := []string{"Chop the carrots.", "Simmer for an hour."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Instructions = %q, want %q", got, want)
	}
	if got := Instructions(doc, "Stew"); len(got) != 0 {
		t.Errorf("Instructions(Stew) = %q, want empty", got)
	}
}

func TestHaulIntro(t *testing.T) {
	doc := parse(t, weekPage)
	if got := HaulIntro(doc); got != "Welcome to Week 3!" {
		t.Errorf("HaulIntro = %q", got)
	}
}

func TestHaulIntro_ParagraphFallback(t *testing.T) {
	doc := parse(t, `<h1>Recipes</h1><p>Old news</p><p>Lots of squash.</p><div><table><tr><td>A</td></tr></table></div>`)
	if got := HaulIntro(doc); got != "Lots of squash." {
		t.Errorf("HaulIntro = %q", got)
	}
}

func TestHaulIntro_NearestParagraphEmpty(t *testing.T) {
	doc := parse(t, `<p>Old news</p><p> </p><table><tr><td>A</td></tr></table>`)
	if got := HaulIntro(doc); got != "" {
		t.Errorf("HaulIntro = %q, want empty", got)
	}
}

func TestHaulIntro_NoTable(t *testing.T) {
	doc := parse(t, `<h1>Week 1</h1><p>hello</p>`)
	if got := HaulIntro(doc); got != "" {
		t.Errorf("HaulIntro = %q, want empty", got)
	}
}

func TestText(t *testing.T) {
	doc := parse(t, `<table><tr><td id="c">  Car<b>rot</b>s
	<!-- note -->  fresh <script>x()</script></td></tr></table>`)
	if got := Text(doc.Find("#c")); got != "Carrots fresh" {
		t.Errorf("Text = %q", got)
	}
}
