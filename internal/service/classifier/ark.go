package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// ErrNoLabel is returned when the chat model reply holds no JSON object.
var ErrNoLabel = errors.New("classifier reply has no label object")

// ArkTextClassifier 使用大模型做文本情绪分类，输出与 HTTP 模型相同的排序列表形态。
type ArkTextClassifier struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewArkTextClassifier compiles the prompt → chat model chain.
func NewArkTextClassifier(ctx context.Context, chatModel model.ChatModel) (*ArkTextClassifier, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(textSystemPrompt),
		schema.UserMessage("{text}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile text classifier chain: %w", err)
	}
	return &ArkTextClassifier{chain: runnable}, nil
}

// ClassifyText asks the model for one label. topK is accepted for interface
// parity; the model always answers with a single entry.
func (c *ArkTextClassifier) ClassifyText(ctx context.Context, text string, _ int) (any, error) {
	msg, err := c.chain.Invoke(ctx, map[string]any{"text": text})
	if err != nil {
		return nil, fmt.Errorf("ark classifier invoke: %w", err)
	}
	if msg == nil {
		return []any{}, nil
	}

	obj, err := extractObject(msg.Content)
	if err != nil {
		return nil, err
	}
	return []any{obj}, nil
}

func extractObject(content string) (map[string]any, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, ErrNoLabel
	}

	obj := make(map[string]any)
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &obj); err != nil {
		return nil, fmt.Errorf("ark classifier decode: %w", err)
	}
	return obj, nil
}

const textSystemPrompt = "You are an emotion classifier. Read the user's text and pick exactly one label from: anger, disgust, fear, joy, neutral, sadness, surprise. " +
	"Reply with a single JSON object with two fields: label (one of the labels above) and score (your confidence, a number between 0 and 1). Output nothing else."
