package chunker

import (
	"regexp"
	"strings"

	"vatcompanion/internal/domain"
)

const ordinal = `(\d+|[IVXLC]+|One|Two|Three|Four|Five|Six|Seven|Eight|Nine|Ten|Eleven|Twelve|Thirteen|Fourteen|Fifteen|Sixteen)`

var (
	titleRe   = regexp.MustCompile(`^\s*Title\s+` + ordinal + `\b\s*[-–:.]?\s*(.*)$`)
	chapterRe = regexp.MustCompile(`^\s*Chapter\s+` + ordinal + `\b\s*[-–:.]?\s*(.*)$`)
	articleRe = regexp.MustCompile(`^\s*Article\s*\((\d+)\)\s*[-–:.]?\s*(.*)$`)
	clauseRe  = regexp.MustCompile(`^\s*(\d+)\s*[.)-]\s+(.*)$`)
)

// ArticleChunker splits legislation into one chunk per numbered clause.
// Headings of the form "Article (12) Name" open a new article; "Title" and "Chapter"
// headings are carried onto every chunk below them. Article text before the first
// clause becomes its own chunk. Text outside any article is grouped by sentences.
type ArticleChunker struct {
	sentences *SentenceChunker
}

func NewArticleChunker(sentencesPerChunk, overlapSentences int) *ArticleChunker {
	return &ArticleChunker{sentences: NewSentenceChunker(sentencesPerChunk, overlapSentences)}
}

type section struct {
	meta   domain.Chunk
	clause string
	lines  []string
}

func (c *ArticleChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	meta := domain.Chunk{Source: document.Source}
	var chunks []domain.Chunk
	var cur *section
	var loose []string
	inArt := false

	flushLoose := func() {
		if len(loose) == 0 {
			return
		}
		for _, text := range c.sentences.split(strings.Join(loose, "\n")) {
			ch := meta
			ch.Text = text
			chunks = append(chunks, ch)
		}
		loose = nil
	}
	flush := func() {
		if cur == nil {
			return
		}
		if text := strings.Join(strings.Fields(strings.Join(cur.lines, " ")), " "); text != "" {
			ch := cur.meta
			ch.ClauseNumber = cur.clause
			ch.Text = text
			chunks = append(chunks, ch)
		}
		cur = nil
	}

	for _, line := range strings.Split(strings.ReplaceAll(document.Content, "\r\n", "\n"), "\n") {
		switch {
		case titleRe.MatchString(line):
			flush()
			flushLoose()
			m := titleRe.FindStringSubmatch(line)
			meta = domain.Chunk{Source: document.Source, TitleNumber: m[1], TitleName: strings.TrimSpace(m[2])}
			inArt = false
		case chapterRe.MatchString(line):
			flush()
			flushLoose()
			m := chapterRe.FindStringSubmatch(line)
			meta.ChapterNumber, meta.ChapterName = m[1], strings.TrimSpace(m[2])
			meta.ArticleNumber, meta.ArticleName = "", ""
			inArt = false
		case articleRe.MatchString(line):
			flush()
			flushLoose()
			m := articleRe.FindStringSubmatch(line)
			meta.ArticleNumber, meta.ArticleName = m[1], strings.TrimSpace(m[2])
			inArt = true
			cur = &section{meta: meta}
		case inArt && clauseRe.MatchString(line):
			flush()
			m := clauseRe.FindStringSubmatch(line)
			cur = &section{meta: meta, clause: m[1], lines: []string{m[2]}}
		case inArt:
			if cur == nil {
				cur = &section{meta: meta}
			}
			// a heading without a name takes the first line below it
			if cur.clause == "" && len(cur.lines) == 0 && meta.ArticleName == "" && strings.TrimSpace(line) != "" {
				meta.ArticleName = strings.TrimSpace(line)
				cur.meta.ArticleName = meta.ArticleName
				continue
			}
			cur.lines = append(cur.lines, line)
		default:
			loose = append(loose, line)
		}
	}
	flush()
	flushLoose()
	return chunks, nil
}
