package classifier

// Kind 标记模型输出首项的形态。
type Kind int

const (
	// Malformed covers empty lists, non-list payloads, non-mapping first
	// entries and mappings missing a string label or numeric score.
	Malformed Kind = iota
	// WellFormed means the first entry carried both a string label and a
	// numeric score.
	WellFormed
)

func (k Kind) String() string {
	if k == WellFormed {
		return "well-formed"
	}
	return "malformed"
}

// Prediction is the top-1 entry of a ranked classifier output. For a
// Malformed prediction Label and Score hold whatever could be recovered,
// which may be the zero values.
type Prediction struct {
	Kind  Kind
	Label string
	Score float64
}

// Top1 inspects the decoded JSON of a ranked list of {label, score} objects
// and returns its first entry.
func Top1(raw any) Prediction {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return Prediction{Kind: Malformed}
	}

	item, ok := list[0].(map[string]any)
	if !ok {
		return Prediction{Kind: Malformed}
	}

	label, labelOK := item["label"].(string)
	score, scoreOK := toFloat(item["score"])

	p := Prediction{Kind: Malformed, Label: label, Score: score}
	if labelOK && scoreOK {
		p.Kind = WellFormed
	}
	return p
}

// Ranked builds the decoded shape of a ranked output, highest score first.
func Ranked(pairs ...Pair) []any {
	out := make([]any, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, map[string]any{"label": p.Label, "score": p.Score})
	}
	return out
}

// Pair 一个候选标签及其置信度。
type Pair struct {
	Label string
	Score float64
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
