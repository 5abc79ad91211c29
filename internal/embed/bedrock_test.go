// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/medkb/pkg/types"
)

var testAWS = types.AWSConfig{
	Region:          "us-east-1",
	AccessKeyID:     "AKIAEXAMPLE",
	SecretAccessKey: "wJalrXUtnFEMI",
}

func vector(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestBedrockEmbed(t *testing.T) {
	var gotBody titanRequest
	var gotPath, gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(titanResponse{
			Embedding:           vector(types.EmbeddingDimensions, 0.25),
			InputTextTokenCount: 2,
		})
	}))
	defer ts.Close()

	b := NewBedrock(testAWS, WithEndpoint(ts.URL))
	vec, err := b.Embed(context.Background(), "check pulse")
	require.NoError(t, err)

	assert.Len(t, vec, types.EmbeddingDimensions)
	assert.Equal(t, 0.25, vec[0])
	assert.Equal(t, "check pulse", gotBody.InputText)
	assert.Equal(t, "/model/"+TitanEmbedTextV1+"/invoke", gotPath)
	assert.True(t, strings.HasPrefix(gotAuth, "AWS4-HMAC-SHA256"), "request must be SigV4 signed, got %q", gotAuth)
	assert.Contains(t, gotAuth, "AKIAEXAMPLE/")
	assert.Contains(t, gotAuth, "/us-east-1/bedrock/aws4_request")
}

func TestBedrockServiceErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		code     string
		wantCode string
	}{
		{name: "access denied", status: http.StatusForbidden, code: "AccessDeniedException", wantCode: "AccessDeniedException"},
		{name: "throttled", status: http.StatusTooManyRequests, code: "ThrottlingException", wantCode: "ThrottlingException"},
		{name: "server error", status: http.StatusInternalServerError, code: "InternalServerException", wantCode: "InternalServerException"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Amzn-ErrorType", tt.code)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"request failed"}`))
			}))
			defer ts.Close()

			b := NewBedrock(testAWS, WithEndpoint(ts.URL))
			vec, err := b.Embed(context.Background(), "start CPR")
			require.Error(t, err)
			assert.Nil(t, vec)
			assert.True(t, errors.Is(err, types.ErrEmbedding))
			assert.Equal(t, tt.wantCode, ErrorCode(err))
			assert.Contains(t, err.Error(), tt.wantCode)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

type fakeInvoker struct {
	body []byte
	err  error
}

func (f fakeInvoker) InvokeModel(context.Context, *bedrockruntime.InvokeModelInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: f.body}, nil
}

func TestBedrockMalformedResponses(t *testing.T) {
	short, _ := json.Marshal(titanResponse{Embedding: vector(8, 1)})

	tests := []struct {
		name    string
		client  fakeInvoker
		wantMsg string
	}{
		{name: "wrong dimension", client: fakeInvoker{body: short}, wantMsg: "returned 8 dimensions, want 1536"},
		{name: "missing embedding", client: fakeInvoker{body: []byte(`{}`)}, wantMsg: "returned 0 dimensions"},
		{name: "not json", client: fakeInvoker{body: []byte(`<html>`)}, wantMsg: "decoding response"},
		{name: "transport failure", client: fakeInvoker{err: errors.New("dial tcp: i/o timeout")}, wantMsg: "i/o timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Bedrock{client: tt.client, model: TitanEmbedTextV1, dimensions: types.EmbeddingDimensions}
			_, err := b.Embed(context.Background(), "text")
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrEmbedding))
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, "", ErrorCode(err))
		})
	}
}

func TestEmbedderFunc(t *testing.T) {
	var e Embedder = EmbedderFunc(func(_ context.Context, text string) ([]float64, error) {
		return []float64{float64(len(text))}, nil
	})
	vec, err := e.Embed(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, vec)
}
