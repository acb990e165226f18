package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"indisense/sentiment-gateway/internal/analysis"
	"indisense/sentiment-gateway/internal/rpc"
	"indisense/sentiment-gateway/models"
)

const analyzedBody = `{"status":"analyzed","emotions":{"Happy":85,"Sad":0,"Anger":0,"Fear":0,"Surprise":10,"Neutral":5},"keyThemes":["joy","gratitude"]}`

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

type fakeGateway struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeGateway(t *testing.T, status int, body string) *fakeGateway {
	t.Helper()
	g := &fakeGateway{}
	g.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		g.mu.Lock()
		g.requests = append(g.requests, recordedRequest{r.Method, r.URL.Path, r.Header.Get("Authorization"), string(data)})
		g.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(g.Close)
	return g
}

func (g *fakeGateway) last(t *testing.T) recordedRequest {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.requests) == 0 {
		t.Fatal("no request reached the gateway")
	}
	return g.requests[len(g.requests)-1]
}

func isolateConfig(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, key := range []string{"INDISENSE_SERVER", "INDISENSE_GRPC", "INDISENSE_TOKEN"} {
		t.Setenv(key, "")
	}
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n%s", needle, haystack)
	}
}

func TestTextCommand(t *testing.T) {
	isolateConfig(t)
	gw := newFakeGateway(t, http.StatusOK, analyzedBody)

	out, _, err := runCLI(t, "", "--server", gw.URL, "text", "I", "love", "this!")
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	req := gw.last(t)
	if req.Path != "/api/v1/analyze/text" || req.Body != `{"text":"I love this!"}` {
		t.Fatalf("unexpected request %+v", req)
	}
	requireContains(t, out, "Happy (85% confidence)")
	requireContains(t, out, "Positive")
	requireContains(t, out, "joy, gratitude")
	if strings.Contains(out, ansiReset) {
		t.Fatal("output to a buffer must not be colored")
	}
}

func TestTextCommandReadsStdin(t *testing.T) {
	isolateConfig(t)
	gw := newFakeGateway(t, http.StatusOK, analyzedBody)

	if _, _, err := runCLI(t, "  from a pipe \n", "--server", gw.URL, "text"); err != nil {
		t.Fatalf("text: %v", err)
	}
	if body := gw.last(t).Body; body != `{"text":"from a pipe"}` {
		t.Fatalf("body = %s", body)
	}
}

func TestTextCommandRejectsBlankInput(t *testing.T) {
	isolateConfig(t)
	gw := newFakeGateway(t, http.StatusOK, analyzedBody)

	if _, _, err := runCLI(t, "   ", "--server", gw.URL, "text"); err == nil {
		t.Fatal("expected an error for blank input")
	}
	if len(gw.requests) != 0 {
		t.Fatal("blank input must not reach the gateway")
	}
}

func TestTextCommandSurfacesGatewayErrors(t *testing.T) {
	isolateConfig(t)
	gw := newFakeGateway(t, http.StatusTooManyRequests, `{"status":"error","message":"Rate limit exceeded. Please try again later."}`)

	_, _, err := runCLI(t, "", "--server", gw.URL, "text", "hello")
	if err == nil || !strings.Contains(err.Error(), "Rate limit exceeded") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestServerFromEnvironmentAndConfigFile(t *testing.T) {
	isolateConfig(t)
	gw := newFakeGateway(t, http.StatusOK, analyzedBody)

	t.Setenv("INDISENSE_SERVER", gw.URL)
	if _, _, err := runCLI(t, "", "text", "from env"); err != nil {
		t.Fatalf("env server: %v", err)
	}
	t.Setenv("INDISENSE_SERVER", "")

	cfgPath := filepath.Join(t.TempDir(), "indisense.yaml")
	if err := os.WriteFile(cfgPath, []byte("server: "+gw.URL+"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, "", "--config", cfgPath, "text", "from file"); err != nil {
		t.Fatalf("config server: %v", err)
	}
	if len(gw.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(gw.requests))
	}
}

func TestFileCommandInfersMode(t *testing.T) {
	isolateConfig(t)
	gw := newFakeGateway(t, http.StatusOK, `{"status":"analyzed","emotions":{"Sad":70,"Neutral":30},"keyThemes":[],"transcription":"i miss the old days"}`)

	path := filepath.Join(t.TempDir(), "memo.wav")
	if err := os.WriteFile(path, []byte("RIFF0000WAVE"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, _, err := runCLI(t, "", "--server", gw.URL, "file", path)
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	req := gw.last(t)
	if req.Path != "/api/v1/analyze/audio" || !strings.Contains(req.Body, `"mimeType":"audio/wav"`) || !strings.Contains(req.Body, `"fileName":"memo.wav"`) {
		t.Fatalf("unexpected request %+v", req)
	}
	requireContains(t, out, "Negative")
	requireContains(t, out, "i miss the old days")
}

func TestFileCommandRejectsTextMode(t *testing.T) {
	isolateConfig(t)
	path := filepath.Join(t.TempDir(), "memo.mp3")
	if err := os.WriteFile(path, []byte("ID3"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := runCLI(t, "", "file", "--mode", "text", path); err == nil {
		t.Fatal("expected an error for text mode")
	}
}

func TestFileMode(t *testing.T) {
	withVideo := func() (bool, error) { return true, nil }
	audioOnly := func() (bool, error) { return false, nil }
	unreadable := func() (bool, error) { return false, errors.New("ffprobe failed") }
	cases := []struct {
		requested, mime string
		hasVideo        hasVideoFunc
		want            string
		wantErr         bool
	}{
		{"", "audio/mpeg", nil, "audio", false},
		{"", "audio/webm", withVideo, "audio", false},
		{"", "video/webm", nil, "video", false},
		{"", "video/webm", withVideo, "video", false},
		{"", "video/webm", audioOnly, "audio", false},
		{"", "video/webm", unreadable, "video", false},
		{"", "video/ogg", nil, "video", false},
		{"", "video/ogg", audioOnly, "audio", false},
		{"", "video/mp4", audioOnly, "video", false},
		{"", "text/plain", nil, "", true},
		{"video", "video/webm", nil, "video", false},
		{"audio", "video/webm", withVideo, "audio", false},
		{"text", "audio/wav", nil, "", true},
		{"bogus", "audio/wav", nil, "", true},
	}
	for _, tc := range cases {
		got, err := fileMode(tc.requested, tc.mime, tc.hasVideo)
		if (err != nil) != tc.wantErr || string(got) != tc.want {
			t.Errorf("fileMode(%q, %q) = %q, %v; want %q", tc.requested, tc.mime, got, err, tc.want)
		}
	}
}

func TestRecordCommandRejectsTextMode(t *testing.T) {
	isolateConfig(t)
	if _, _, err := runCLI(t, "", "record", "--mode", "text"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestArchiveCommandsNeedToken(t *testing.T) {
	isolateConfig(t)
	for _, args := range [][]string{{"archive", "list"}, {"archive", "upload", "x.mp3"}} {
		if _, _, err := runCLI(t, "", args...); err != errNoToken {
			t.Errorf("%v: expected errNoToken, got %v", args, err)
		}
	}
}

func TestArchiveUpload(t *testing.T) {
	isolateConfig(t)
	gw := newFakeGateway(t, http.StatusAccepted, `{"status":"accepted","upload":{"storage_path":"user-1/1700.mp3","size_bytes":3}}`)

	path := filepath.Join(t.TempDir(), "note.mp3")
	if err := os.WriteFile(path, []byte("ID3"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, _, err := runCLI(t, "", "--server", gw.URL, "--token", "tok", "archive", "upload", path)
	if err != nil {
		t.Fatalf("archive upload: %v", err)
	}
	req := gw.last(t)
	if req.Method != http.MethodPost || req.Path != "/api/v1/media" || req.Auth != "Bearer tok" {
		t.Fatalf("unexpected request %+v", req)
	}
	requireContains(t, out, "user-1/1700.mp3")
}

func TestArchiveList(t *testing.T) {
	isolateConfig(t)
	gw := newFakeGateway(t, http.StatusOK, `{"status":"success","uploads":[{"file_name":"b.mp3","mime_type":"audio/mpeg","size_bytes":1000,"storage_path":"u/2.mp3"}]}`)

	out, _, err := runCLI(t, "", "--server", gw.URL, "--token", "tok", "archive", "list", "-n", "5")
	if err != nil {
		t.Fatalf("archive list: %v", err)
	}
	requireContains(t, out, "b.mp3")
	requireContains(t, out, "1.0 kB")
	requireContains(t, out, "u/2.mp3")
}

type stubAnalyzer struct{}

func (stubAnalyzer) AnalyzeText(context.Context, string) (*models.AnalysisResult, error) {
	return &models.AnalysisResult{Emotions: models.EmotionScores{Fear: 65, Neutral: 35}, KeyThemes: []string{"deadline"}}, nil
}

func (stubAnalyzer) AnalyzeMedia(context.Context, analysis.MediaInput) (*models.AnalysisResult, error) {
	return nil, &analysis.Error{Kind: analysis.KindTranscriptionFailed, Message: "Could not transcribe audio."}
}

func startGRPC(t *testing.T) string {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv, _ := rpc.NewServer(stubAnalyzer{}, logger)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return lis.Addr().String()
}

func TestTextCommandOverGRPC(t *testing.T) {
	isolateConfig(t)
	addr := startGRPC(t)

	out, _, err := runCLI(t, "", "--grpc", addr, "text", "due tomorrow")
	if err != nil {
		t.Fatalf("text over grpc: %v", err)
	}
	requireContains(t, out, "Fear (65% confidence)")
	requireContains(t, out, "Negative")
	requireContains(t, out, "deadline")
}

func TestLargeFileReachesGRPCServer(t *testing.T) {
	isolateConfig(t)
	addr := startGRPC(t)

	path := filepath.Join(t.TempDir(), "long.mp3")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x7f}, 5<<20), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	// The stub fails every media request, so this error proves delivery.
	_, _, err := runCLI(t, "", "--grpc", addr, "file", path)
	if err == nil || !strings.Contains(err.Error(), "Could not transcribe audio.") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRenderResult(t *testing.T) {
	res := &models.AnalysisResult{Emotions: models.EmotionScores{Neutral: 60, Happy: 20, Sad: 20}}

	plain := renderResult(res, false)
	requireContains(t, plain, "Neutral (60% confidence)")
	requireContains(t, plain, "Overall:")
	if strings.Contains(plain, "Key themes") || strings.Contains(plain, "Transcription") {
		t.Fatalf("empty sections must be omitted:\n%s", plain)
	}

	colored := renderResult(res, true)
	requireContains(t, colored, ansiYellow+"Neutral"+ansiReset)
}

func TestScoreBar(t *testing.T) {
	cases := map[float64]string{
		0:   strings.Repeat(".", barWidth),
		100: strings.Repeat("#", barWidth),
		150: strings.Repeat("#", barWidth),
		50:  strings.Repeat("#", barWidth/2) + strings.Repeat(".", barWidth/2),
	}
	for score, want := range cases {
		if got := scoreBar(score); got != want {
			t.Errorf("scoreBar(%v) = %q, want %q", score, got, want)
		}
	}
}

func TestRenderUploads(t *testing.T) {
	if got := renderUploads(nil, time.Now()); got != "No archived media\n" {
		t.Fatalf("empty listing = %q", got)
	}
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	out := renderUploads([]models.MediaUpload{{FileName: "a.webm", MimeType: "audio/webm", SizeBytes: 2048, CreatedAt: created}}, created.Add(2*time.Hour))
	requireContains(t, out, "2.0 kB")
	requireContains(t, out, "2 hours ago")
}
