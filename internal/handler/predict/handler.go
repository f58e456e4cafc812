package predict

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/metrics"
	model "github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/model/emotion"
	"github.com/ririyaza/Emotion-Detection-Testing-Stub/pkg/utils"
)

const (
	maxTextBodyBytes      = 1 << 20
	defaultMaxUploadBytes = 32 << 20
)

// Predictor 抽象情绪识别业务，便于测试与替换实现
type Predictor interface {
	PredictText(ctx context.Context, text string) model.Result
	PredictAudio(ctx context.Context, upload io.Reader, filename string) model.Result
}

// Handler 情绪识别的HTTP处理器。所有结果都以 200 返回，错误只体现在 emotion 字段。
type Handler struct {
	svc            Predictor
	maxUploadBytes int64
}

// New 创建情绪识别处理器
func New(svc Predictor, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes 注册情绪识别相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/predict_text", h.handlePredictText)
	r.Post("/predict_audio", h.handlePredictAudio)
	r.Get("/health", h.handleHealth)
}

// handlePredictText 处理文本情绪识别。请求体无法解析时按空文本处理，超过大小上限时返回 error。
func (h *Handler) handlePredictText(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}

	body := http.MaxBytesReader(w, r.Body, maxTextBodyBytes)
	if err := json.NewDecoder(body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Printf("[predict] request=%s text body exceeds %d bytes", middleware.GetReqID(r.Context()), tooLarge.Limit)
			metrics.ObservePrediction(metrics.ModalityText, metrics.OutcomeError)
			utils.RespondJSON(w, http.StatusOK, model.Failed())
			return
		}
		log.Printf("[predict] request=%s unreadable text body, treating as empty: %v", middleware.GetReqID(r.Context()), err)
		payload.Text = ""
	}

	utils.RespondJSON(w, http.StatusOK, h.svc.PredictText(r.Context(), payload.Text))
}

// handlePredictAudio 处理音频情绪识别，音频位于 multipart 的 audio 字段。
func (h *Handler) handlePredictAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Printf("[predict] request=%s audio upload exceeds %d bytes", middleware.GetReqID(r.Context()), h.maxUploadBytes)
			metrics.ObservePrediction(metrics.ModalityAudio, metrics.OutcomeError)
			utils.RespondJSON(w, http.StatusOK, model.Failed())
			return
		}
		h.respondNoAudio(w)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		h.respondNoAudio(w)
		return
	}
	defer file.Close()

	utils.RespondJSON(w, http.StatusOK, h.svc.PredictAudio(r.Context(), file, header.Filename))
}

func (h *Handler) respondNoAudio(w http.ResponseWriter) {
	metrics.ObservePrediction(metrics.ModalityAudio, metrics.OutcomeMissing)
	utils.RespondJSON(w, http.StatusOK, model.Sentinel(model.NoAudioFile))
}

// handleHealth 健康检查端点
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "emotion",
	})
}
