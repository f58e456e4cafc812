package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	analysis "github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/analysis/emotion"
	"github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/service/classifier"
	emotionservice "github.com/ririyaza/Emotion-Detection-Testing-Stub/internal/service/emotion"
)

type stubText struct{}

func (stubText) ClassifyText(ctx context.Context, text string, topK int) (any, error) {
	if text == "explode" {
		return nil, errors.New("model crashed")
	}
	return classifier.Ranked(classifier.Pair{Label: "joy", Score: 0.87}), nil
}

// echoAudio 以文件内容作为标签返回，便于校验每个请求读取的是自己的文件。
type echoAudio struct{}

func (echoAudio) ClassifyAudio(ctx context.Context, path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if string(data) == "broken" {
		return nil, errors.New("decode failed")
	}
	return classifier.Ranked(classifier.Pair{Label: string(data), Score: 0.6}), nil
}

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	svc, err := emotionservice.NewService(stubText{}, echoAudio{}, analysis.NewMapper(nil), emotionservice.Config{
		Timeout: time.Second,
		TempDir: dir,
	})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}

	srv := httptest.NewServer(NewRouter(svc, Options{MaxUploadBytes: 1 << 20, MetricsEnabled: true}))
	t.Cleanup(srv.Close)
	return srv, dir
}

func postAudio(t *testing.T, url string, content string) map[string]any {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio", "clip.wav")
	if err != nil {
		t.Errorf("CreateFormFile err: %v", err)
		return nil
	}
	_, _ = part.Write([]byte(content))
	_ = writer.Close()

	resp, err := http.Post(url+"/predict_audio", writer.FormDataContentType(), body)
	if err != nil {
		t.Errorf("post audio err: %v", err)
		return nil
	}
	defer resp.Body.Close()
	return decodeResponse(t, resp)
}

func postText(t *testing.T, url string, text string) map[string]any {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"text": text})
	resp, err := http.Post(url+"/predict_text", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("post text err: %v", err)
	}
	defer resp.Body.Close()
	return decodeResponse(t, resp)
}

func decodeResponse(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	out := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Errorf("decode response err: %v", err)
	}
	return out
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir err: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no temp files left, found %d", len(entries))
	}
}

func TestPredictTextEndToEnd(t *testing.T) {
	srv, _ := newTestServer(t)

	out := postText(t, srv.URL, "I am so happy today")
	if out["emotion"] != "happy" || out["score"] != 0.87 {
		t.Fatalf("unexpected response %v", out)
	}

	out = postText(t, srv.URL, "")
	if out["emotion"] != "no text provided" {
		t.Fatalf("unexpected response %v", out)
	}
	if _, ok := out["score"]; ok {
		t.Fatalf("score should be absent: %v", out)
	}
}

func TestPredictTextFailureStaysInContract(t *testing.T) {
	srv, _ := newTestServer(t)

	out := postText(t, srv.URL, "explode")
	if out["emotion"] != "error" || out["score"] != 0.0 {
		t.Fatalf("unexpected response %v", out)
	}
}

func TestPredictAudioEndToEnd(t *testing.T) {
	srv, dir := newTestServer(t)

	out := postAudio(t, srv.URL, "hap")
	if out["emotion"] != "happy" || out["score"] != 0.6 {
		t.Fatalf("unexpected response %v", out)
	}
	assertDirEmpty(t, dir)

	out = postAudio(t, srv.URL, "broken")
	if out["emotion"] != "error" || out["score"] != 0.0 {
		t.Fatalf("unexpected response %v", out)
	}
	assertDirEmpty(t, dir)
}

func TestConcurrentAudioRequestsAreIsolated(t *testing.T) {
	srv, dir := newTestServer(t)

	const clients = 12
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			want := fmt.Sprintf("speaker-%d", i)
			out := postAudio(t, srv.URL, want)
			if out["emotion"] != want {
				t.Errorf("client %d got %v", i, out["emotion"])
			}
		}(i)
	}
	wg.Wait()
	assertDirEmpty(t, dir)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	postText(t, srv.URL, "I am so happy today")

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics err: %v", err)
	}
	defer resp.Body.Close()

	buf := &bytes.Buffer{}
	_, _ = buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "emotion_predictions_total") {
		t.Fatal("expected prediction counter in metrics output")
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/predict_text", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight err: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header")
	}
}
