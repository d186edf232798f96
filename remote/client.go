package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
)

// invoker is the part of the lambda client we use.
type invoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// Client calls the lookup lambda.
type Client struct {
	function string
	api      invoker
}

// NewClient uses the default AWS credential chain.
func NewClient(ctx context.Context, function string) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return &Client{function: function, api: lambda.NewFromConfig(cfg)}, nil
}

// Lookup invokes the lambda synchronously and returns its answer.
func (c *Client) Lookup(ctx context.Context, req Request) (Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, err
	}
	out, err := c.api.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(c.function),
		Payload:      payload,
	})
	if err != nil {
		return Response{}, fmt.Errorf("invoking %s: %w", c.function, err)
	}
	if out.FunctionError != nil {
		return Response{}, fmt.Errorf("%s failed: %s: %s", c.function, aws.ToString(out.FunctionError), out.Payload)
	}
	var resp Response
	if err := json.Unmarshal(out.Payload, &resp); err != nil {
		return Response{}, fmt.Errorf("decoding %s response: %w", c.function, err)
	}
	return resp, nil
}
