package emotion

import (
	"context"
	"fmt"
	"log"

	analysis "github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/analysis/emotion"
	"github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/config"
	"github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/service/classifier"
)

// NewFromConfig 按配置构建标签映射与两个分类器，返回的 cleanup 在进程退出时调用。
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Service, func(), error) {
	mapper, err := analysis.LoadMapper(cfg.Inference.LabelMapFile)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[emotion] label map ready with %d codes", mapper.Len())

	text, closeText, err := newTextClassifier(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("text classifier: %w", err)
	}

	audio := classifier.NewHTTPAudioClassifier(classifier.HTTPConfig{
		URL:     cfg.Inference.AudioURL,
		Token:   cfg.Inference.AudioToken,
		Timeout: cfg.Inference.Timeout,
	})
	log.Printf("[emotion] audio classifier endpoint: %s", cfg.Inference.AudioURL)

	cleanup := func() {
		closeText()
		audio.Close()
		log.Printf("[emotion] classifier connections closed")
	}

	svc, err := NewService(text, audio, mapper, Config{
		Timeout: cfg.Inference.Timeout,
		TempDir: cfg.Inference.TempDir,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

func newTextClassifier(ctx context.Context, cfg *config.Config) (classifier.TextClassifier, func(), error) {
	if cfg.Inference.TextBackend == config.BackendArk {
		chatModel, err := cfg.Ark.NewChatModel(ctx)
		if err != nil {
			return nil, nil, err
		}
		c, err := classifier.NewArkTextClassifier(ctx, chatModel)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[emotion] text classifier backend: ark model %s", cfg.Ark.Model)
		return c, func() {}, nil
	}

	c := classifier.NewHTTPTextClassifier(classifier.HTTPConfig{
		URL:     cfg.Inference.TextURL,
		Token:   cfg.Inference.TextToken,
		Timeout: cfg.Inference.Timeout,
	})
	log.Printf("[emotion] text classifier endpoint: %s", cfg.Inference.TextURL)
	return c, c.Close, nil
}
