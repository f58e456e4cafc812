package emotion

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Label 表示返回给调用方的情绪展示标签。
type Label string

const (
	Anger    Label = "anger"
	Happy    Label = "happy"
	Sad      Label = "sad"
	Neutral  Label = "neutral"
	Fear     Label = "fear / anxious"
	Surprise Label = "surprise"
	Disgust  Label = "disgust"
)

// defaultCodes 覆盖语音模型的三字母缩写与文本模型的完整标签。
var defaultCodes = map[string]Label{
	// audio model codes
	"ang": Anger,
	"hap": Happy,
	"sad": Sad,
	"neu": Neutral,
	"fea": Fear,
	"sur": Surprise,
	"dis": Disgust,

	// text model labels
	"joy":      Happy,
	"anger":    Anger,
	"sadness":  Sad,
	"fear":     Fear,
	"love":     Happy,
	"surprise": Surprise,
	"disgust":  Disgust,
}

// Mapper 将模型输出的原始编码映射为展示标签。构造后只读，可并发使用。
type Mapper struct {
	codes map[string]Label
}

// NewMapper returns a Mapper seeded with the built-in table plus overrides.
func NewMapper(overrides map[string]string) *Mapper {
	codes := make(map[string]Label, len(defaultCodes)+len(overrides))
	for code, label := range defaultCodes {
		codes[code] = label
	}
	for code, label := range overrides {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		codes[code] = Label(strings.TrimSpace(label))
	}
	return &Mapper{codes: codes}
}

// LoadMapper 读取 YAML 格式的 code: label 覆盖文件。path 为空时仅使用内置表。
func LoadMapper(path string) (*Mapper, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return NewMapper(nil), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label map %s: %w", path, err)
	}

	overrides := make(map[string]string)
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse label map %s: %w", path, err)
	}
	return NewMapper(overrides), nil
}

// Lookup returns the display label for code, or code itself on a miss.
// The lookup is case-sensitive.
func (m *Mapper) Lookup(code string) string {
	if label, ok := m.codes[code]; ok {
		return string(label)
	}
	return code
}

// Len reports how many codes the mapper knows.
func (m *Mapper) Len() int {
	return len(m.codes)
}
