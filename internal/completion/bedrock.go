package completion

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// bedrockAPI is the subset of the Bedrock Runtime client used here
type bedrockAPI interface {
	ConverseStream(ctx context.Context, params *bedrockruntime.ConverseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseStreamOutput, error)
}

// bedrockEventStream is satisfied by *bedrockruntime.ConverseStreamEventStream
type bedrockEventStream interface {
	Events() <-chan types.ConverseStreamOutput
	Close() error
	Err() error
}

// BedrockProvider streams from AWS Bedrock Runtime using the Converse API.
// Credentials come from the default AWS chain.
type BedrockProvider struct {
	api bedrockAPI
}

// NewBedrockProvider loads AWS configuration and creates a provider. An empty
// region defers to AWS_REGION and the shared config files.
func NewBedrockProvider(ctx context.Context, region string) (*BedrockProvider, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &BedrockProvider{api: bedrockruntime.NewFromConfig(cfg)}, nil
}

// Name returns the provider name
func (p *BedrockProvider) Name() string { return "bedrock" }

// Open starts a ConverseStream call
func (p *BedrockProvider) Open(ctx context.Context, req Request) (EventReader, error) {
	messages := make([]types.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, types.Message{
			Role: types.ConversationRole(m.Role),
			Content: []types.ContentBlock{
				&types.ContentBlockMemberText{Value: m.Content},
			},
		})
	}

	out, err := p.api.ConverseStream(ctx, &bedrockruntime.ConverseStreamInput{
		ModelId:  aws.String(req.Model),
		Messages: messages,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens: aws.Int32(int32(req.MaxTokens)),
		},
	})
	if err != nil {
		return nil, err
	}

	return &bedrockReader{ctx: ctx, stream: out.GetStream()}, nil
}

type bedrockReader struct {
	ctx    context.Context
	stream bedrockEventStream
}

func (r *bedrockReader) Recv() (Event, error) {
	for {
		var (
			ev types.ConverseStreamOutput
			ok bool
		)
		select {
		case <-r.ctx.Done():
			return Event{}, r.ctx.Err()
		case ev, ok = <-r.stream.Events():
		}
		if !ok {
			if err := r.stream.Err(); err != nil {
				return Event{}, err
			}
			return Event{}, io.EOF
		}

		switch v := ev.(type) {
		case *types.ConverseStreamOutputMemberContentBlockDelta:
			if text, ok := v.Value.Delta.(*types.ContentBlockDeltaMemberText); ok {
				return Event{Text: text.Value}, nil
			}
		case *types.ConverseStreamOutputMemberMetadata:
			if u := v.Value.Usage; u != nil {
				return Event{Usage: &Usage{
					InputTokens:  int(aws.ToInt32(u.InputTokens)),
					OutputTokens: int(aws.ToInt32(u.OutputTokens)),
				}}, nil
			}
		}
		// Message start/stop and block boundaries carry no text.
	}
}

func (r *bedrockReader) Close() error {
	return r.stream.Close()
}
