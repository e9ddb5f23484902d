package qdrant

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	pb "github.com/qdrant/go-client/qdrant"

	"vatcompanion/internal/domain"
	"vatcompanion/internal/vectorstore"
)

var _ vectorstore.Storage = (*Storage)(nil)

func TestPayloadRoundTrip(t *testing.T) {
	c := domain.Chunk{
		Source:        "VAT_Decree_Law_2017",
		ArticleNumber: "12",
		ArticleName:   "Deemed Supply",
		ClauseNumber:  "4",
		Text:          "clause text",
	}
	payload := chunkPayload(c, 7)
	gt.Value(t, payload["position"].GetIntegerValue()).Equal(int64(7))
	_, hasTitle := payload["title_number"]
	gt.Bool(t, hasTitle).False()

	gt.Value(t, chunkFromPayload(payload)).Equal(c)
}

func TestStringValue(t *testing.T) {
	gt.Value(t, stringValue(&pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: 12}})).Equal("12")
	gt.Value(t, stringValue(&pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: 4.5}})).Equal("4.5")
	gt.Value(t, stringValue(&pb.Value{Kind: &pb.Value_BoolValue{BoolValue: true}})).Equal("")
}

func TestQdrantLive(t *testing.T) {
	addr := os.Getenv("TEST_QDRANT_ADDR")
	if addr == "" {
		t.Skip("TEST_QDRANT_ADDR not set")
	}
	ctx := context.Background()

	s, err := NewStorage(Config{Addr: addr, Collection: "vat_test_" + uuid.NewString()[:8]})
	gt.NoError(t, err).Required()
	defer s.Close()
	defer s.Clear(ctx)

	gt.NoError(t, s.Init(ctx, 2)).Required()
	gt.NoError(t, s.Upsert(ctx, []domain.Chunk{
		{Source: "Source", Text: "A", Embedding: []float64{1, 0}},
		{Source: "Source", Text: "B", Embedding: []float64{0, 1}},
	})).Required()

	res, err := s.Search(ctx, []float64{0.9, 0.1}, 1)
	gt.NoError(t, err).Required()
	gt.Array(t, res).Length(1).Required()
	gt.Value(t, res[0].Chunk.Text).Equal("A")
	gt.Number(t, res[0].Rank).Equal(1)

	_, err = s.Search(ctx, []float64{1, 0, 0}, 1)
	gt.Error(t, err).Is(domain.ErrDimensionMismatch)
}
