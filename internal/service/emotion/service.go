package emotion

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	analysis "github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/analysis/emotion"
	"github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/metrics"
	model "github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/model/emotion"
	"github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/service/classifier"
)

const defaultTimeout = 30 * time.Second

// Config 控制推理超时与临时文件目录。
type Config struct {
	Timeout time.Duration
	TempDir string
}

// Service 将请求输入转交给外部模型，并把模型标签归一化为展示标签。
// 所有字段在构造后只读，可被并发请求共享。
type Service struct {
	text    classifier.TextClassifier
	audio   classifier.AudioClassifier
	mapper  *analysis.Mapper
	timeout time.Duration
	tempDir string
}

// NewService wires the two classifiers and the label mapper.
func NewService(text classifier.TextClassifier, audio classifier.AudioClassifier, mapper *analysis.Mapper, cfg Config) (*Service, error) {
	if text == nil || audio == nil {
		return nil, fmt.Errorf("both text and audio classifiers are required")
	}
	if mapper == nil {
		mapper = analysis.NewMapper(nil)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	tempDir := strings.TrimSpace(cfg.TempDir)
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0o700); err != nil {
		return nil, fmt.Errorf("prepare temp dir %s: %w", tempDir, err)
	}

	return &Service{
		text:    text,
		audio:   audio,
		mapper:  mapper,
		timeout: timeout,
		tempDir: tempDir,
	}, nil
}

// PredictText 对文本进行情绪识别。空文本直接返回哨兵结果，不调用模型。
func (s *Service) PredictText(ctx context.Context, text string) model.Result {
	if text == "" {
		metrics.ObservePrediction(metrics.ModalityText, metrics.OutcomeMissing)
		return model.Sentinel(model.NoTextProvided)
	}

	raw, err := s.invoke(ctx, metrics.ModalityText, func(ctx context.Context) (any, error) {
		return s.text.ClassifyText(ctx, text, 1)
	})
	if err != nil {
		log.Printf("[emotion] request=%s text classification failed: %v", middleware.GetReqID(ctx), err)
		metrics.ObservePrediction(metrics.ModalityText, metrics.OutcomeError)
		return model.Failed()
	}

	prediction := classifier.Top1(raw)
	code := strings.ToLower(prediction.Label)
	if code == "" {
		code = model.Unknown
	}
	if prediction.Kind == classifier.Malformed {
		log.Printf("[emotion] request=%s malformed text classifier output, code=%s", middleware.GetReqID(ctx), code)
	}

	metrics.ObservePrediction(metrics.ModalityText, metrics.OutcomeOK)
	return model.Scored(s.mapper.Lookup(code), prediction.Score)
}

// PredictAudio 将上传的音频写入本次请求独占的临时文件后交给音频模型。
// 临时文件在任何退出路径上都会被删除。
func (s *Service) PredictAudio(ctx context.Context, upload io.Reader, filename string) model.Result {
	path, err := s.writeTemp(upload, filename)
	if err != nil {
		log.Printf("[emotion] request=%s failed to store audio upload: %v", middleware.GetReqID(ctx), err)
		metrics.ObservePrediction(metrics.ModalityAudio, metrics.OutcomeError)
		return model.Failed()
	}
	defer s.removeTemp(path)

	raw, err := s.invoke(ctx, metrics.ModalityAudio, func(ctx context.Context) (any, error) {
		return s.audio.ClassifyAudio(ctx, path)
	})
	if err != nil {
		log.Printf("[emotion] request=%s audio classification failed: %v", middleware.GetReqID(ctx), err)
		metrics.ObservePrediction(metrics.ModalityAudio, metrics.OutcomeError)
		return model.Failed()
	}

	prediction := classifier.Top1(raw)
	if prediction.Kind != classifier.WellFormed {
		log.Printf("[emotion] request=%s audio classification failed: %s output", middleware.GetReqID(ctx), prediction.Kind)
		metrics.ObservePrediction(metrics.ModalityAudio, metrics.OutcomeError)
		return model.Failed()
	}

	metrics.ObservePrediction(metrics.ModalityAudio, metrics.OutcomeOK)
	return model.Scored(s.mapper.Lookup(prediction.Label), prediction.Score)
}

// invoke runs one classifier call under the inference timeout. A panic in
// the classifier is turned into an error.
func (s *Service) invoke(ctx context.Context, modality string, call func(context.Context) (any, error)) (raw any, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	defer metrics.ObserveInference(modality, started)

	defer func() {
		if rec := recover(); rec != nil {
			raw = nil
			err = fmt.Errorf("%s classifier panic: %v", modality, rec)
		}
	}()

	return call(ctx)
}

func (s *Service) writeTemp(upload io.Reader, filename string) (string, error) {
	path := filepath.Join(s.tempDir, "emotion-audio-"+uuid.NewString()+audioExt(filename))

	fd, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(fd, upload); err != nil {
		fd.Close()
		s.removeTemp(path)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := fd.Close(); err != nil {
		s.removeTemp(path)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return path, nil
}

func (s *Service) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("[emotion] failed to remove temp file %s: %v", path, err)
	}
}

// audioExt 仅保留常见音频扩展名，其余一律按 wav 处理。
func audioExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".wav", ".mp3", ".flac", ".webm", ".m4a", ".ogg":
		return ext
	default:
		return ".wav"
	}
}
