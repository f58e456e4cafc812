package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/config"
	model "github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/model/emotion"
	emotionservice "github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/service/emotion"
)

// emotiontester 绕过 HTTP 层，直接用当前配置调用外部模型，便于排查模型端点问题。
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	mode := flag.String("mode", "", "测试模式: text 或 audio")
	text := flag.String("text", "", "text 模式的输入文本")
	audioPath := flag.String("audio", "", "audio 模式的音频文件路径")
	timeout := flag.Duration("timeout", 45*time.Second, "整体超时时间")

	flag.Parse()

	if *mode != "text" && *mode != "audio" {
		flag.Usage()
		log.Fatal("请通过 -mode=text 或 -mode=audio 指定测试模式")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc, cleanup, err := emotionservice.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("初始化情绪识别服务失败: %v", err)
	}
	defer cleanup()

	var result model.Result
	switch *mode {
	case "text":
		log.Printf("开始进行文本情绪识别: length=%d", len(*text))
		result = svc.PredictText(ctx, *text)
	case "audio":
		result = runAudio(ctx, svc, *audioPath)
	}

	out, _ := json.Marshal(result)
	log.Printf("识别结果: %s", out)
}

func runAudio(ctx context.Context, svc *emotionservice.Service, audioPath string) model.Result {
	if audioPath == "" {
		log.Println("audio 模式未提供 -audio，按缺少音频处理")
		return model.Sentinel(model.NoAudioFile)
	}

	file, err := os.Open(audioPath)
	if err != nil {
		log.Printf("打开音频文件失败: %v", err)
		return model.Failed()
	}
	defer file.Close()

	log.Printf("开始进行音频情绪识别: file=%s", audioPath)
	return svc.PredictAudio(ctx, file, filepath.Base(audioPath))
}
