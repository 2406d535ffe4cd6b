package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConverse struct {
	input *bedrockruntime.ConverseInput
	out   *bedrockruntime.ConverseOutput
	err   error
}

func (f *fakeConverse) Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = params
	return f.out, f.err
}

func textOutput(parts ...string) *bedrockruntime.ConverseOutput {
	blocks := make([]brtypes.ContentBlock, 0, len(parts))
	for _, p := range parts {
		blocks = append(blocks, &brtypes.ContentBlockMemberText{Value: p})
	}
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: blocks,
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage: &brtypes.TokenUsage{
			InputTokens:  aws.Int32(12),
			OutputTokens: aws.Int32(3),
			TotalTokens:  aws.Int32(15),
		},
	}
}

func TestBedrock_Complete(t *testing.T) {
	api := &fakeConverse{out: textOutput(" appoint", "ment \n")}
	client, err := NewBedrock(api, "anthropic.test-model")
	require.NoError(t, err)

	req := Prompt("Reply with one label.", "I'd like to book a visit")
	req.Messages = append([]Message{{Role: RoleSystem, Content: "be brief"}}, req.Messages...)
	req.Temperature = 0
	req.MaxTokens = 5

	resp, err := client.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "appointment", resp.Text)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, Usage{InputTokens: 12, OutputTokens: 3, TotalTokens: 15}, resp.Usage)

	require.NotNil(t, api.input)
	assert.Equal(t, "anthropic.test-model", aws.ToString(api.input.ModelId))
	assert.Len(t, api.input.System, 2)
	require.Len(t, api.input.Messages, 1)
	assert.Equal(t, brtypes.ConversationRoleUser, api.input.Messages[0].Role)
	require.NotNil(t, api.input.InferenceConfig)
	assert.Equal(t, int32(5), aws.ToInt32(api.input.InferenceConfig.MaxTokens))
	assert.Equal(t, float32(0), aws.ToFloat32(api.input.InferenceConfig.Temperature))
}

func TestBedrock_ModelOverride(t *testing.T) {
	api := &fakeConverse{out: textOutput("qa")}
	client, err := NewBedrock(api, "default-model")
	require.NoError(t, err)

	req := Prompt("", "hi")
	req.Model = "other-model"
	req.Temperature = -1
	_, err = client.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "other-model", aws.ToString(api.input.ModelId))
	assert.Nil(t, api.input.InferenceConfig)
	assert.Empty(t, api.input.System)
}

func TestBedrock_Errors(t *testing.T) {
	_, err := NewBedrock(nil, "m")
	assert.Error(t, err)
	_, err = NewBedrock(&fakeConverse{}, " ")
	assert.Error(t, err)

	boom := errors.New("throttled")
	client, err := NewBedrock(&fakeConverse{err: boom}, "m")
	require.NoError(t, err)
	_, err = client.Complete(context.Background(), Prompt("", "hi"))
	assert.ErrorIs(t, err, boom)

	client, _ = NewBedrock(&fakeConverse{out: textOutput("   ")}, "m")
	_, err = client.Complete(context.Background(), Prompt("", "hi"))
	assert.ErrorIs(t, err, ErrEmptyResponse)

	client, _ = NewBedrock(&fakeConverse{out: &bedrockruntime.ConverseOutput{}}, "m")
	_, err = client.Complete(context.Background(), Prompt("", "hi"))
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = client.Complete(context.Background(), Request{Messages: []Message{{Role: "tool", Content: "x"}}})
	assert.Error(t, err)

	_, err = client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "  "}}})
	assert.Error(t, err)
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "  ", "")
	assert.Error(t, err)
}
