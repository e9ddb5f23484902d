package corpus_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/gt"

	"vatcompanion/internal/corpus"
)

func TestLoadFromPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	gt.NoError(t, err).Required()
	defer pool.Close()

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`DROP TABLE IF EXISTS vat_chunks_test`,
		`CREATE TABLE vat_chunks_test (
			id serial PRIMARY KEY,
			text text,
			clause_text text,
			source text,
			title_number int,
			title_name text,
			chapter_number int,
			chapter_name text,
			article_number int,
			article_name text,
			clause_number int,
			embedding vector(2)
		)`,
		`INSERT INTO vat_chunks_test (text, article_number, embedding) VALUES
			('row one', 1, '[1,0]'),
			('row two', 2, NULL),
			('row three', 3, '[0,1]')`,
	}
	for _, s := range stmts {
		_, err := pool.Exec(ctx, s)
		gt.NoError(t, err).Required()
	}
	defer pool.Exec(ctx, `DROP TABLE IF EXISTS vat_chunks_test`)

	store, err := corpus.Load(ctx,
		[]corpus.Source{{Label: "VAT_Decree_Law_2017", Location: dsn, Table: "vat_chunks_test"}},
		corpus.WithPostgres(pool))
	gt.NoError(t, err).Required()
	gt.Number(t, store.Len()).Equal(2)
	gt.Value(t, store.Chunks()[0].Text).Equal("row one")
	gt.Value(t, store.Chunks()[1].ArticleNumber).Equal("3")
}
