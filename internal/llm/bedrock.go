package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// ConverseAPI is the part of the Bedrock runtime client used here.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Bedrock implements Client on the Bedrock Converse API.
type Bedrock struct {
	api     ConverseAPI
	modelID string
}

func NewBedrock(api ConverseAPI, modelID string) (*Bedrock, error) {
	if api == nil {
		return nil, errors.New("llm: bedrock converse client is required")
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, errors.New("llm: bedrock model id is required")
	}
	return &Bedrock{api: api, modelID: modelID}, nil
}

// NewBedrockFromRegion loads the default AWS credential chain for region.
func NewBedrockFromRegion(ctx context.Context, region, modelID string) (*Bedrock, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("llm: load aws config: %w", err)
	}
	return NewBedrock(bedrockruntime.NewFromConfig(cfg), modelID)
}

func (b *Bedrock) Complete(ctx context.Context, req Request) (Response, error) {
	modelID := b.modelID
	if req.Model != "" {
		modelID = req.Model
	}

	system := make([]brtypes.SystemContentBlock, 0, len(req.System))
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		system = append(system, &brtypes.SystemContentBlockMemberText{Value: block})
	}

	messages := make([]brtypes.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		var role brtypes.ConversationRole
		switch msg.Role {
		case RoleSystem:
			system = append(system, &brtypes.SystemContentBlockMemberText{Value: content})
			continue
		case RoleUser:
			role = brtypes.ConversationRoleUser
		case RoleAssistant:
			role = brtypes.ConversationRoleAssistant
		default:
			return Response{}, fmt.Errorf("llm: unsupported role %q", msg.Role)
		}
		messages = append(messages, brtypes.Message{
			Role:    role,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: content}},
		})
	}
	if len(messages) == 0 {
		return Response{}, errors.New("llm: bedrock requires at least one message")
	}

	out, err := b.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:         aws.String(modelID),
		System:          system,
		Messages:        messages,
		InferenceConfig: inferenceConfig(req),
	})
	if err != nil {
		return Response{}, fmt.Errorf("llm: bedrock converse: %w", err)
	}

	text, err := converseText(out)
	if err != nil {
		return Response{}, err
	}
	resp := Response{Text: strings.TrimSpace(text), StopReason: string(out.StopReason)}
	if out.Usage != nil {
		resp.Usage = Usage{
			InputTokens:  aws.ToInt32(out.Usage.InputTokens),
			OutputTokens: aws.ToInt32(out.Usage.OutputTokens),
			TotalTokens:  aws.ToInt32(out.Usage.TotalTokens),
		}
	}
	return resp, nil
}

func inferenceConfig(req Request) *brtypes.InferenceConfiguration {
	cfg := &brtypes.InferenceConfiguration{}
	if req.MaxTokens > 0 {
		cfg.MaxTokens = aws.Int32(req.MaxTokens)
	}
	if req.Temperature >= 0 {
		cfg.Temperature = aws.Float32(req.Temperature)
	}
	if req.TopP != 0 {
		cfg.TopP = aws.Float32(req.TopP)
	}
	if cfg.MaxTokens == nil && cfg.Temperature == nil && cfg.TopP == nil {
		return nil
	}
	return cfg
}

func converseText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", ErrEmptyResponse
	}
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok || len(msg.Value.Content) == 0 {
		return "", ErrEmptyResponse
	}
	var b strings.Builder
	for _, block := range msg.Value.Content {
		if t, ok := block.(*brtypes.ContentBlockMemberText); ok {
			b.WriteString(t.Value)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}
