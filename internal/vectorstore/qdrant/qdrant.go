package qdrant

import (
	"context"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"vatcompanion/internal/domain"
)

const upsertBatchSize = 256

// Storage keeps corpus chunks in a Qdrant collection over gRPC.
// It assumes cosine distance and creates the collection if missing.
type Storage struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	dimension   int
	next        uint64
}

type Config struct {
	Addr       string
	Collection string
}

// NewStorage connects to Qdrant at the given gRPC address.
func NewStorage(cfg Config) (*Storage, error) {
	conn, err := grpc.NewClient(cfg.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to dial qdrant", goerr.V("addr", cfg.Addr))
	}
	return &Storage{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  cfg.Collection,
	}, nil
}

// Close closes the underlying gRPC connection.
func (s *Storage) Close() error {
	return s.conn.Close()
}

// Init creates the collection when it does not exist yet.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return goerr.New("invalid dimension", goerr.V("dimension", dimension))
	}
	s.dimension = dimension

	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return goerr.Wrap(err, "failed to list qdrant collections")
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return nil
		}
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to create qdrant collection", goerr.V("collection", s.collection))
	}
	return nil
}

// Upsert stores chunks in batches. Point ids follow corpus order.
func (s *Storage) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(chunks))
		points := make([]*pb.PointStruct, 0, end-start)
		for i, c := range chunks[start:end] {
			if s.dimension != 0 && len(c.Embedding) != s.dimension {
				return goerr.Wrap(domain.ErrDimensionMismatch, "vector dimension mismatch",
					goerr.V("index", start+i),
					goerr.V("want", s.dimension),
					goerr.V("got", len(c.Embedding)))
			}
			points = append(points, &pb.PointStruct{
				Id: &pb.PointId{
					PointIdOptions: &pb.PointId_Num{Num: s.next},
				},
				Vectors: &pb.Vectors{
					VectorsOptions: &pb.Vectors_Vector{
						Vector: &pb.Vector{Data: toFloat32(c.Embedding)},
					},
				},
				Payload: chunkPayload(c, s.next),
			})
			s.next++
		}

		wait := true
		if _, err := s.points.Upsert(ctx, &pb.UpsertPoints{
			CollectionName: s.collection,
			Wait:           &wait,
			Points:         points,
		}); err != nil {
			return goerr.Wrap(err, "failed to upsert points", goerr.V("count", len(points)))
		}
	}
	return nil
}

// Search performs k-NN similarity search. Qdrant breaks score ties by point id, i.e. corpus order.
func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.RankedResult, error) {
	if s.dimension != 0 && len(vector) != s.dimension {
		return nil, goerr.Wrap(domain.ErrDimensionMismatch, "query dimension does not match collection",
			goerr.V("want", s.dimension),
			goerr.V("got", len(vector)))
	}
	if topK <= 0 {
		topK = 10
	}
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         toFloat32(vector),
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "qdrant search failed", goerr.V("collection", s.collection))
	}
	if len(resp.GetResult()) == 0 {
		return nil, goerr.Wrap(domain.ErrEmptyCorpus, "qdrant collection has no points", goerr.V("collection", s.collection))
	}

	results := make([]domain.RankedResult, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		results[i] = domain.RankedResult{
			Chunk: chunkFromPayload(r.GetPayload()),
			Score: float64(r.GetScore()),
			Rank:  i + 1,
		}
	}
	return results, nil
}

// Clear deletes the collection; the next Init recreates it.
func (s *Storage) Clear(ctx context.Context) error {
	_, err := s.collections.Delete(ctx, &pb.DeleteCollection{
		CollectionName: s.collection,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to delete qdrant collection", goerr.V("collection", s.collection))
	}
	s.next = 0
	return nil
}

var payloadFields = []string{
	"source", "title_number", "title_name", "chapter_number", "chapter_name",
	"article_number", "article_name", "clause_number", "text",
}

func chunkFields(c *domain.Chunk) []*string {
	return []*string{
		&c.Source, &c.TitleNumber, &c.TitleName, &c.ChapterNumber, &c.ChapterName,
		&c.ArticleNumber, &c.ArticleName, &c.ClauseNumber, &c.Text,
	}
}

func chunkPayload(c domain.Chunk, position uint64) map[string]*pb.Value {
	payload := make(map[string]*pb.Value, len(payloadFields)+1)
	for i, f := range chunkFields(&c) {
		if *f == "" {
			continue
		}
		payload[payloadFields[i]] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: *f}}
	}
	payload["position"] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(position)}}
	return payload
}

func chunkFromPayload(payload map[string]*pb.Value) domain.Chunk {
	var c domain.Chunk
	for i, f := range chunkFields(&c) {
		if v, ok := payload[payloadFields[i]]; ok {
			*f = stringValue(v)
		}
	}
	return c
}

func stringValue(v *pb.Value) string {
	switch k := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return k.StringValue
	case *pb.Value_IntegerValue:
		return strconv.FormatInt(k.IntegerValue, 10)
	case *pb.Value_DoubleValue:
		return strconv.FormatFloat(k.DoubleValue, 'f', -1, 64)
	default:
		return ""
	}
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
