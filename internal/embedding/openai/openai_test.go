package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"vatcompanion/internal/domain"
	"vatcompanion/internal/embedding/openai"
	"vatcompanion/internal/openaiapi"
)

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.URL.Path).Equal("/embeddings")
		var body map[string]any
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&body)).Required()
		gt.Value(t, body["model"]).Equal("text-embedding-3-small")
		gt.Value(t, body["input"]).Equal("Is export of goods zero-rated?")
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	c, err := openai.NewClient(openai.Config{BaseURL: srv.URL, APIKey: "sk-test"})
	gt.NoError(t, err).Required()
	gt.Value(t, c.Name()).Equal("openai:text-embedding-3-small")

	v, err := c.Embed(context.Background(), "Is export of goods zero-rated?")
	gt.NoError(t, err).Required()
	gt.Value(t, v).Equal([]float64{0.1, 0.2, 0.3})
}

func TestEmbedOllamaShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[1,2]}`))
	}))
	defer srv.Close()

	c, err := openai.NewClient(openai.Config{BaseURL: srv.URL, APIKey: "k", Model: "nomic-embed-text"})
	gt.NoError(t, err).Required()
	v, err := c.Embed(context.Background(), "q")
	gt.NoError(t, err).Required()
	gt.Value(t, v).Equal([]float64{1, 2})
}

func TestEmbedFailuresAreExternalServiceErrors(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid key", http.StatusUnauthorized)
		}))
		defer srv.Close()

		c, err := openai.NewClient(openai.Config{BaseURL: srv.URL, APIKey: "k"})
		gt.NoError(t, err).Required()
		_, err = c.Embed(context.Background(), "q")
		gt.Error(t, err).Is(domain.ErrExternalService)
		var apiErr *openaiapi.APIError
		gt.Bool(t, errors.As(err, &apiErr)).True()
	})

	t.Run("empty payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":[]}`))
		}))
		defer srv.Close()

		c, err := openai.NewClient(openai.Config{BaseURL: srv.URL, APIKey: "k"})
		gt.NoError(t, err).Required()
		_, err = c.Embed(context.Background(), "q")
		gt.Error(t, err).Is(domain.ErrExternalService)
	})
}
