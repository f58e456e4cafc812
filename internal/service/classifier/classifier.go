// Package classifier talks to the external emotion models. Every backend
// returns the decoded JSON of a ranked {label, score} list; Top1 turns that
// into a Prediction.
package classifier

import "context"

// TextClassifier 文本情绪分类模型。
type TextClassifier interface {
	ClassifyText(ctx context.Context, text string, topK int) (any, error)
}

// AudioClassifier 音频情绪分类模型，输入为本地音频文件路径。
type AudioClassifier interface {
	ClassifyAudio(ctx context.Context, path string) (any, error)
}
