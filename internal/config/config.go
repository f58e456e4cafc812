package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

const (
	defaultTextClassifierURL  = "https://api-inference.huggingface.co/models/j-hartmann/emotion-english-distilroberta-base"
	defaultAudioClassifierURL = "https://api-inference.huggingface.co/models/superb/wav2vec2-base-superb-er"
)

// 文本分类后端。
const (
	BackendHTTP = "http"
	BackendArk  = "ark"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Inference InferenceConfig
	Ark       ArkConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	inference, err := loadInferenceConfig()
	if err != nil {
		return nil, err
	}

	arkCfg := loadArkConfig()
	if inference.TextBackend == BackendArk && !arkCfg.Enabled() {
		return nil, fmt.Errorf("TEXT_CLASSIFIER_BACKEND=ark requires ARK_MODEL and ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY")
	}

	return &Config{Server: server, Inference: inference, Ark: arkCfg}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	MetricsEnabled bool
}

// loadServerConfig 解析服务器监听地址，默认监听所有网卡的 5000 端口。
func loadServerConfig() (ServerConfig, error) {
	metricsEnabled, err := parseBoolEnv("METRICS_ENABLED", true)
	if err != nil {
		return ServerConfig{}, err
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":5000" 或 "0.0.0.0:5000"。
		return ServerConfig{Addr: port, MetricsEnabled: metricsEnabled}, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, MetricsEnabled: metricsEnabled}, nil
}

// InferenceConfig 描述外部模型端点与推理相关限制。
type InferenceConfig struct {
	TextBackend    string
	TextURL        string
	TextToken      string
	AudioURL       string
	AudioToken     string
	Timeout        time.Duration
	TempDir        string
	MaxUploadBytes int64
	LabelMapFile   string
}

func loadInferenceConfig() (InferenceConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("TEXT_CLASSIFIER_BACKEND", BackendHTTP))
	if backend != BackendHTTP && backend != BackendArk {
		return InferenceConfig{}, fmt.Errorf("invalid TEXT_CLASSIFIER_BACKEND value %q", backend)
	}

	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("INFERENCE_TIMEOUT"); err != nil {
		return InferenceConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return InferenceConfig{}, fmt.Errorf("INFERENCE_TIMEOUT must be positive, got %d", *override)
		}
		timeoutSeconds = *override
	}

	maxUploadMB := 32
	if override, err := parseOptionalIntEnv("AUDIO_MAX_UPLOAD_MB"); err != nil {
		return InferenceConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return InferenceConfig{}, fmt.Errorf("AUDIO_MAX_UPLOAD_MB must be positive, got %d", *override)
		}
		maxUploadMB = *override
	}

	// 单独的 token 未配置时回退到共享的 HF_API_TOKEN
	sharedToken := strings.TrimSpace(os.Getenv("HF_API_TOKEN"))

	return InferenceConfig{
		TextBackend:    backend,
		TextURL:        getEnvOrDefault("TEXT_CLASSIFIER_URL", defaultTextClassifierURL),
		TextToken:      getEnvOrDefault("TEXT_CLASSIFIER_TOKEN", sharedToken),
		AudioURL:       getEnvOrDefault("AUDIO_CLASSIFIER_URL", defaultAudioClassifierURL),
		AudioToken:     getEnvOrDefault("AUDIO_CLASSIFIER_TOKEN", sharedToken),
		Timeout:        time.Duration(timeoutSeconds) * time.Second,
		TempDir:        getEnvOrDefault("AUDIO_TEMP_DIR", os.TempDir()),
		MaxUploadBytes: int64(maxUploadMB) << 20,
		LabelMapFile:   strings.TrimSpace(os.Getenv("EMOTION_LABEL_MAP_FILE")),
	}, nil
}

// ArkConfig 描述作为文本分类后端的大模型配置。
type ArkConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string
}

// Enabled 表示是否提供了必需的密钥。
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c ArkConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	// 分类任务要求输出稳定
	temperature := float32(0)

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		Temperature: &temperature,
	})
}

func loadArkConfig() ArkConfig {
	return ArkConfig{
		APIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:     strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:    getEnvOrDefault("ARK_REGION", "cn-beijing"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
