package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"vatcompanion/internal/domain"
)

func TestChunkReference(t *testing.T) {
	testCases := []struct {
		name  string
		chunk domain.Chunk
		want  string
	}{
		{
			name:  "source only",
			chunk: domain.Chunk{Source: "Executive_Regulations_VAT"},
			want:  "Executive_Regulations_VAT",
		},
		{
			name:  "article only",
			chunk: domain.Chunk{Source: "VAT_Decree_Law_2017", ArticleNumber: "12"},
			want:  "VAT_Decree_Law_2017 - Article (12)",
		},
		{
			name:  "article and clause",
			chunk: domain.Chunk{Source: "VAT_Decree_Law_2017", ArticleNumber: "12", ClauseNumber: "4"},
			want:  "VAT_Decree_Law_2017 - Article (12) Clause 4",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Value(t, tc.chunk.Reference()).Equal(tc.want)
		})
	}
}

func TestServiceErrorMatchesSentinelAndCause(t *testing.T) {
	err := domain.NewServiceError("openai", context.DeadlineExceeded)
	wrapped := goerr.Wrap(err, "failed to embed question")

	gt.Bool(t, errors.Is(wrapped, domain.ErrExternalService)).True()
	gt.Bool(t, errors.Is(wrapped, context.DeadlineExceeded)).True()
	gt.Bool(t, errors.Is(wrapped, domain.ErrEmptyCorpus)).False()
	gt.String(t, err.Error()).Contains("openai")
}

func TestNewServiceErrorNil(t *testing.T) {
	gt.NoError(t, domain.NewServiceError("openai", nil))
}

func TestNewServiceErrorDoesNotRewrap(t *testing.T) {
	inner := domain.NewServiceError("openai embeddings", context.Canceled)
	outer := domain.NewServiceError("openai:text-embedding-3-small", inner)
	gt.Value(t, outer).Equal(inner)
}
