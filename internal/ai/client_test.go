package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func geminiReply(text string) string {
	body, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
	return string(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:      "test-key",
		BaseURL:     srv.URL,
		Models:      []string{"missing-model", "good-model"},
		MinInterval: time.Millisecond,
	})
}

func TestGenerateFallsBackAcrossModels(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("api key not sent")
		}
		if strings.Contains(r.URL.Path, "missing-model") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(geminiReply("hello")))
	})

	text, err := client.Generate(context.Background(), "hi")
	if err != nil || text != "hello" {
		t.Fatalf("generate: %q %v", text, err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := client.Generate(context.Background(), "again"); err != nil {
		t.Fatalf("second generate: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 3 || !strings.Contains(paths[2], "good-model") {
		t.Fatalf("working model not remembered: %v", paths)
	}
}

func TestGenerateDisabledWithoutKey(t *testing.T) {
	client := NewClient(Config{})
	if client.Enabled() {
		t.Fatal("client without key should be disabled")
	}
	if _, err := client.Generate(context.Background(), "hi"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestGenerateRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiReply("ok")))
	}))
	defer srv.Close()
	client := NewClient(Config{APIKey: "k", BaseURL: srv.URL, MinInterval: time.Hour})

	if _, err := client.Generate(context.Background(), "one"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := client.Generate(context.Background(), "two"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestGenerateServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	if _, err := client.Generate(context.Background(), "hi"); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestScheduleEndToEnd(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		prompt := req.Contents[0].Parts[0].Text
		if !strings.Contains(prompt, `"preferred_time": "17:00"`) || !strings.Contains(prompt, "08:00-16:00") {
			t.Errorf("prompt missing task data: %s", prompt)
		}
		w.Write([]byte(geminiReply("```json\n" + `{"schedule":[{"task_id":"1","task":"Gym","start":"17:00","end":"18:00"}],"review":["Drink water"]}` + "\n```")))
	})

	res, err := client.Schedule(context.Background(), []TaskBrief{
		{ID: "1", Title: "Gym", DurationHours: 1, Priority: "high", PreferredTime: "17:00"},
	}, WorkHours{Start: "08:00", End: "16:00"})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].TaskID != "1" || res.Review[0] != "Drink water" {
		t.Fatalf("unexpected result: %+v", res)
	}
}
