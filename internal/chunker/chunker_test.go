package chunker_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"vatcompanion/internal/chunker"
	"vatcompanion/internal/domain"
)

const decreeLaw = `Federal Decree-Law No. (8) of 2017 on Value Added Tax.
We, Khalifa Bin Zayed Al Nahyan, President of the United Arab Emirates.

Title One General Provisions
Chapter One Definitions
Article (1)
Definitions
In implementing the provisions of this Decree-Law:
1. State: United Arab Emirates.
2. Tax: Value Added Tax imposed on import and supply
of Goods and Services.

Chapter Two Imposition of Tax
Article (2) - Imposition of Tax
Tax shall be imposed on every taxable supply and import.
Article (3) Tax Rate
1. Tax shall be imposed at the standard rate of 5%.
`

func TestArticleChunker(t *testing.T) {
	chunks, err := chunker.NewArticleChunker(5, 0).Chunk(domain.Document{Source: "VAT_Decree_Law_2017", Content: decreeLaw})
	gt.NoError(t, err).Required()

	type row struct{ chapter, article, name, clause, text string }
	var got []row
	for _, c := range chunks {
		gt.Value(t, c.Source).Equal("VAT_Decree_Law_2017")
		got = append(got, row{c.ChapterNumber, c.ArticleNumber, c.ArticleName, c.ClauseNumber, c.Text})
	}
	gt.Value(t, got).Equal([]row{
		{"", "", "", "", "Federal Decree-Law No. (8) of 2017 on Value Added Tax. We, Khalifa Bin Zayed Al Nahyan, President of the United Arab Emirates."},
		{"One", "1", "Definitions", "", "In implementing the provisions of this Decree-Law:"},
		{"One", "1", "Definitions", "1", "State: United Arab Emirates."},
		{"One", "1", "Definitions", "2", "Tax: Value Added Tax imposed on import and supply of Goods and Services."},
		{"Two", "2", "Imposition of Tax", "", "Tax shall be imposed on every taxable supply and import."},
		{"Two", "3", "Tax Rate", "1", "Tax shall be imposed at the standard rate of 5%."},
	})
	gt.Value(t, chunks[1].TitleNumber).Equal("One")
	gt.Value(t, chunks[1].TitleName).Equal("General Provisions")
}

func TestArticleChunkerWithoutHeadings(t *testing.T) {
	chunks, err := chunker.NewArticleChunker(2, 0).Chunk(domain.Document{Source: "S", Content: "One. Two. Three"})
	gt.NoError(t, err).Required()
	gt.Array(t, chunks).Length(2).Required()
	gt.Value(t, chunks[0].Text).Equal("One. Two.")
	gt.Value(t, chunks[1].Text).Equal("Three")
	gt.Value(t, chunks[1].ArticleNumber).Equal("")
}

func TestSentenceChunkerOverlap(t *testing.T) {
	chunks, err := chunker.NewSentenceChunker(2, 1).Chunk(domain.Document{Source: "S", Content: "A one. B two! C three? D four."})
	gt.NoError(t, err).Required()

	var texts []string
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	gt.Value(t, texts).Equal([]string{"A one. B two!", "B two! C three?", "C three? D four."})
}

func TestSentenceChunkerEmpty(t *testing.T) {
	chunks, err := chunker.NewSentenceChunker(5, 1).Chunk(domain.Document{Content: "   \n "})
	gt.NoError(t, err).Required()
	gt.Array(t, chunks).Length(0)
}

func TestSentences(t *testing.T) {
	testCases := map[string]struct {
		text string
		want []string
	}{
		"unterminated tail": {
			text: "Goods are taxable. The rate is 5% under Article (45)",
			want: []string{"Goods are taxable.", "The rate is 5% under Article (45)"},
		},
		"decimal": {
			text: "The threshold is AED 187.5 thousand. It applies yearly.",
			want: []string{"The threshold is AED 187.5 thousand.", "It applies yearly."},
		},
		"colon ending": {
			text: "Exempt supplies include:\n  residential buildings;",
			want: []string{"Exempt supplies include: residential buildings;"},
		},
		"empty": {
			text: "  ",
			want: nil,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			gt.Value(t, chunker.Sentences(tc.text)).Equal(tc.want)
		})
	}
}
