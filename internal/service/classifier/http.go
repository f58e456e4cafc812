package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrEmptyAudio is returned when the audio file to classify has no bytes.
var ErrEmptyAudio = errors.New("audio file is empty")

// HTTPConfig 描述一个 Hugging Face Inference API 兼容的模型端点。
type HTTPConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type httpBackend struct {
	name   string
	url    string
	token  string
	client *http.Client
}

func newHTTPBackend(name string, cfg HTTPConfig) httpBackend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return httpBackend{
		name:   name,
		url:    strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		token:  strings.TrimSpace(cfg.Token),
		client: &http.Client{Timeout: timeout},
	}
}

func (b httpBackend) post(ctx context.Context, contentType string, body io.Reader) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, body)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", b.name, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s call: %w", b.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%s %s: %s", b.name, resp.Status, strings.TrimSpace(string(msg)))
	}

	var out any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%s decode: %w", b.name, err)
	}
	return out, nil
}

func (b httpBackend) close() {
	b.client.CloseIdleConnections()
}

// HTTPTextClassifier 通过 HTTP 调用文本分类模型。
type HTTPTextClassifier struct {
	backend httpBackend
}

// NewHTTPTextClassifier creates a text classifier bound to cfg.URL.
func NewHTTPTextClassifier(cfg HTTPConfig) *HTTPTextClassifier {
	return &HTTPTextClassifier{backend: newHTTPBackend("text classifier", cfg)}
}

type textRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters textParameters `json:"parameters"`
}

type textParameters struct {
	TopK int `json:"top_k"`
}

// ClassifyText posts the text and returns the ranked output.
func (c *HTTPTextClassifier) ClassifyText(ctx context.Context, text string, topK int) (any, error) {
	if topK < 1 {
		topK = 1
	}
	payload, err := json.Marshal(textRequest{Inputs: text, Parameters: textParameters{TopK: topK}})
	if err != nil {
		return nil, fmt.Errorf("text classifier encode: %w", err)
	}

	out, err := c.backend.post(ctx, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	return unwrapSingleInput(out), nil
}

// Close releases idle connections.
func (c *HTTPTextClassifier) Close() {
	c.backend.close()
}

// 托管推理接口对单条输入可能返回 [[{label,score}]]，此处剥掉外层批次维度。
func unwrapSingleInput(out any) any {
	list, ok := out.([]any)
	if !ok || len(list) != 1 {
		return out
	}
	if inner, ok := list[0].([]any); ok {
		return inner
	}
	return out
}

// HTTPAudioClassifier 读取本地音频文件并以原始字节上传到分类模型。
type HTTPAudioClassifier struct {
	backend httpBackend
}

// NewHTTPAudioClassifier creates an audio classifier bound to cfg.URL.
func NewHTTPAudioClassifier(cfg HTTPConfig) *HTTPAudioClassifier {
	return &HTTPAudioClassifier{backend: newHTTPBackend("audio classifier", cfg)}
}

// ClassifyAudio uploads the file at path and returns the ranked output.
func (c *HTTPAudioClassifier) ClassifyAudio(ctx context.Context, path string) (any, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer fd.Close()

	info, err := fd.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat audio: %w", err)
	}
	if info.Size() == 0 {
		return nil, ErrEmptyAudio
	}

	return c.backend.post(ctx, audioContentType(path), fd)
}

// Close releases idle connections.
func (c *HTTPAudioClassifier) Close() {
	c.backend.close()
}

func audioContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	case ".webm":
		return "audio/webm"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	default:
		return "audio/wav"
	}
}
