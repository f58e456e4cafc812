package emotion

// 哨兵情绪值，出现在 emotion 字段中代替 HTTP 错误码。
const (
	NoTextProvided = "no text provided"
	NoAudioFile    = "no audio file"
	Error          = "error"
	Unknown        = "unknown"
)

// Result 情绪识别响应。Score 为 nil 时不输出 score 字段。
type Result struct {
	Emotion string   `json:"emotion"`
	Score   *float64 `json:"score,omitempty"`
}

// Scored builds a Result that always carries a score, zero included.
func Scored(emotion string, score float64) Result {
	return Result{Emotion: emotion, Score: &score}
}

// Sentinel builds a Result without a score.
func Sentinel(emotion string) Result {
	return Result{Emotion: emotion}
}

// Failed 推理失败时的统一结果。
func Failed() Result {
	return Scored(Error, 0)
}
