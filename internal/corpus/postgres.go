package corpus

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pgvector/pgvector-go"
)

// DefaultTable is read when a postgres source names no table.
const DefaultTable = "vat_chunks"

// Querier is satisfied by *pgxpool.Pool and *pgx.Conn.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func isPostgres(loc string) bool {
	return strings.HasPrefix(loc, "postgres://") || strings.HasPrefix(loc, "postgresql://")
}

// selectRowsSQL expects a table with an id column for stable ordering and a pgvector
// embedding column. Identifier columns may be numeric or text.
func selectRowsSQL(table string) string {
	return fmt.Sprintf(`
		SELECT
			embedding::text,
			coalesce(text, ''),
			coalesce(clause_text, ''),
			coalesce(source, ''),
			coalesce(title_number::text, ''),
			coalesce(title_name, ''),
			coalesce(chapter_number::text, ''),
			coalesce(chapter_name, ''),
			coalesce(article_number::text, ''),
			coalesce(article_name, ''),
			coalesce(clause_number::text, '')
		FROM %s
		ORDER BY id`, pgx.Identifier(strings.Split(table, ".")).Sanitize())
}

// pgRecord is one scanned table row before conversion.
type pgRecord struct {
	Embedding     *string
	Text          string
	ClauseText    string
	Source        string
	TitleNumber   string
	TitleName     string
	ChapterNumber string
	ChapterName   string
	ArticleNumber string
	ArticleName   string
	ClauseNumber  string
}

func (r pgRecord) toRow() (Row, error) {
	row := Row{
		Text:          r.Text,
		ClauseText:    r.ClauseText,
		Source:        r.Source,
		TitleNumber:   Label(normalizeLabel(r.TitleNumber)),
		TitleName:     r.TitleName,
		ChapterNumber: Label(normalizeLabel(r.ChapterNumber)),
		ChapterName:   r.ChapterName,
		ArticleNumber: Label(normalizeLabel(r.ArticleNumber)),
		ArticleName:   r.ArticleName,
		ClauseNumber:  Label(normalizeLabel(r.ClauseNumber)),
	}
	if r.Embedding == nil {
		return row, nil
	}
	var vec pgvector.Vector
	if err := vec.Scan(*r.Embedding); err != nil {
		return Row{}, goerr.Wrap(err, "failed to parse pgvector embedding")
	}
	values := vec.Slice()
	row.Embedding = make([]float64, len(values))
	for i, v := range values {
		row.Embedding[i] = float64(v)
	}
	return row, nil
}

func (l *loader) readPostgres(ctx context.Context, dsn, table string) ([]Row, error) {
	if table == "" {
		table = DefaultTable
	}
	q := l.postgres
	if q == nil {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to connect to postgres")
		}
		defer pool.Close()
		q = pool
	}

	rows, err := q.Query(ctx, selectRowsSQL(table))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query corpus table", goerr.V("table", table))
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var rec pgRecord
		if err := rows.Scan(
			&rec.Embedding,
			&rec.Text,
			&rec.ClauseText,
			&rec.Source,
			&rec.TitleNumber,
			&rec.TitleName,
			&rec.ChapterNumber,
			&rec.ChapterName,
			&rec.ArticleNumber,
			&rec.ArticleName,
			&rec.ClauseNumber,
		); err != nil {
			return nil, goerr.Wrap(err, "failed to scan corpus row")
		}
		row, err := rec.toRow()
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "error iterating corpus rows")
	}
	return out, nil
}
