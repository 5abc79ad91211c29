// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"

	"github.com/pdiddy/medkb/pkg/types"
)

// TitanEmbedTextV1 is the Bedrock model used for every embedding.
const TitanEmbedTextV1 = "amazon.titan-embed-text-v1"

// invoker is the part of the Bedrock runtime client Bedrock uses.
type invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Bedrock embeds text with an Amazon Titan model on AWS Bedrock. Each call is
// a single InvokeModel request; failed requests are not retried.
type Bedrock struct {
	client     invoker
	model      string
	dimensions int
}

// BedrockOption customizes a Bedrock client.
type BedrockOption func(*bedrockOptions)

type bedrockOptions struct {
	endpoint   string
	model      string
	dimensions int
}

// WithEndpoint sends requests to endpoint instead of the regional Bedrock
// runtime endpoint.
func WithEndpoint(endpoint string) BedrockOption {
	return func(o *bedrockOptions) { o.endpoint = endpoint }
}

// WithModel overrides the model ID and its expected vector length.
func WithModel(model string, dimensions int) BedrockOption {
	return func(o *bedrockOptions) {
		o.model = model
		o.dimensions = dimensions
	}
}

// NewBedrock returns a Bedrock embedder authenticated with the static
// credentials in cfg. Requests are SigV4-signed for cfg.Region.
func NewBedrock(cfg types.AWSConfig, opts ...BedrockOption) *Bedrock {
	o := bedrockOptions{
		model:      TitanEmbedTextV1,
		dimensions: types.EmbeddingDimensions,
	}
	for _, opt := range opts {
		opt(&o)
	}

	awsCfg := aws.Config{
		Region: cfg.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	}

	client := bedrockruntime.NewFromConfig(awsCfg, func(bo *bedrockruntime.Options) {
		bo.Retryer = aws.NopRetryer{}
		if o.endpoint != "" {
			bo.BaseEndpoint = aws.String(o.endpoint)
		}
	})

	return &Bedrock{client: client, model: o.model, dimensions: o.dimensions}
}

type titanRequest struct {
	InputText string `json:"inputText"`
}

type titanResponse struct {
	Embedding           []float64 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// Embed returns the embedding for text. Errors match types.ErrEmbedding.
func (b *Bedrock) Embed(ctx context.Context, text string) ([]float64, error) {
	vec, err := b.embed(ctx, text)
	return vec, types.KindError(types.ErrEmbedding, err)
}

func (b *Bedrock) embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(titanRequest{InputText: text})
	if err != nil {
		return nil, errors.Wrap(err, "encoding request")
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.model),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		if code := ErrorCode(err); code != "" {
			return nil, errors.Wrapf(err, "invoking %s (%s)", b.model, code)
		}
		return nil, errors.Wrapf(err, "invoking %s", b.model)
	}

	var resp titanResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, errors.Wrap(err, "decoding response")
	}
	if len(resp.Embedding) != b.dimensions {
		return nil, errors.Errorf("%s returned %d dimensions, want %d", b.model, len(resp.Embedding), b.dimensions)
	}
	return resp.Embedding, nil
}

// ErrorCode returns the AWS API error code in err's chain, e.g.
// "ThrottlingException", or "" when err did not come from the service.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
