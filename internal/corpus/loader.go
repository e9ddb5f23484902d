// Package corpus materialises the immutable store of pre-embedded legal text.
package corpus

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"vatcompanion/internal/domain"
)

// Source is one configured corpus input.
type Source struct {
	// Label tags every chunk from this source, e.g. "VAT_Decree_Law_2017".
	// When empty the row's own source column is used.
	Label string
	// Location is a local path, an s3://bucket/key URI or a postgres:// DSN.
	Location string
	// Format is jsonl, json or yaml; inferred from Location when empty.
	Format string
	// Table names the pgvector table for postgres locations.
	Table string
}

// LoadError reports a corpus input that could not be read.
// It matches domain.ErrCorpusLoad and its cause under errors.Is.
type LoadError struct {
	Location string
	Err      error
}

func (e *LoadError) Error() string {
	return "corpus " + e.Location + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() []error {
	return []error{domain.ErrCorpusLoad, e.Err}
}

type loader struct {
	logger   zerolog.Logger
	s3       ObjectGetter
	postgres Querier
}

// Option configures Load.
type Option func(*loader)

// WithLogger sets the logger used while loading.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *loader) { l.logger = logger }
}

// WithS3 injects the client used for s3:// locations.
func WithS3(client ObjectGetter) Option {
	return func(l *loader) { l.s3 = client }
}

// WithPostgres injects the querier used for postgres:// locations.
func WithPostgres(q Querier) Option {
	return func(l *loader) { l.postgres = q }
}

// Load reads every source concurrently and returns the store in configured order.
// Rows without an embedding are dropped. Repeated loads of the same input yield identical stores.
func Load(ctx context.Context, sources []Source, opts ...Option) (*Store, error) {
	l := &loader{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	if len(sources) == 0 {
		return nil, goerr.Wrap(domain.ErrCorpusLoad, "no corpus sources configured")
	}

	results := make([][]Row, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			rows, err := l.read(gctx, src)
			if err != nil {
				return &LoadError{Location: src.Location, Err: err}
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	store := &Store{}
	offset := 0
	for i, rows := range results {
		st := SourceStats{Label: sources[i].Label, Location: sources[i].Location}
		for j, row := range rows {
			if !row.HasEmbedding() {
				st.Dropped++
				continue
			}
			if !store.accept(row.toChunk(sources[i].Label)) {
				return nil, &LoadError{
					Location: sources[i].Location,
					Err:      dimensionError(offset+j, store.dimension, len(row.Embedding)),
				}
			}
			st.Rows++
		}
		offset += len(rows)
		store.stats = append(store.stats, st)
		l.logger.Info().
			Str("location", st.Location).
			Str("label", st.Label).
			Int("rows", st.Rows).
			Int("dropped", st.Dropped).
			Msg("corpus source loaded")
	}
	return store, nil
}

func (l *loader) read(ctx context.Context, src Source) ([]Row, error) {
	loc := strings.TrimSpace(src.Location)
	switch {
	case loc == "":
		return nil, goerr.New("empty corpus location")
	case isPostgres(loc):
		return l.readPostgres(ctx, loc, src.Table)
	case strings.HasPrefix(loc, "s3://"):
		return l.readS3(ctx, loc, src.Format)
	default:
		return readFile(loc, src.Format)
	}
}

func readFile(path, format string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open corpus file")
	}
	defer f.Close()
	return decodeWithFormat(f, path, format)
}

func decodeWithFormat(r io.Reader, location, format string) ([]Row, error) {
	if format == "" {
		format = DetectFormat(location)
	}
	return DecodeRows(r, format)
}

func dimensionError(index, want, got int) error {
	return goerr.Wrap(domain.ErrDimensionMismatch, "inconsistent embedding dimension in corpus",
		goerr.V("row", index),
		goerr.V("want", want),
		goerr.V("got", got))
}
