package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	var buf bytes.Buffer
	client := NewClient(server.Client(), newTestLogger(&buf), "test-key", "gemini-2.5-flash")
	client.endpoint = server.URL
	return client, server
}

func TestClient_Generate_ParsesCandidateText(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{
					{"text": "Hello "},
					{"text": "world"},
				}}},
			},
		})
	})

	got, err := client.Generate(context.Background(), "prompt", "")
	if err != nil {
		t.Fatalf("Generate() がエラーを返した: %v", err)
	}
	if got != "Hello world" {
		t.Errorf("Generate() = %q, want %q", got, "Hello world")
	}
}

func TestClient_Generate_SendsSystemInstruction(t *testing.T) {
	var gotBody map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "ok"}}}},
			},
		})
	})

	_, err := client.Generate(context.Background(), "prompt", "be brief")
	if err != nil {
		t.Fatalf("Generate() がエラーを返した: %v", err)
	}

	if _, ok := gotBody["systemInstruction"]; !ok {
		t.Error("リクエストボディにsystemInstructionが含まれない")
	}
}

func TestClient_Generate_UsesModelAndKeyInURL(t *testing.T) {
	var gotPath, gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "ok"}}}},
			},
		})
	})

	client.Generate(context.Background(), "prompt", "")

	if !strings.Contains(gotPath, "models/gemini-2.5-flash:generateContent") {
		t.Errorf("リクエストパスが期待と異なる: %q", gotPath)
	}
	if !strings.Contains(gotQuery, "key=test-key") {
		t.Errorf("APIキーがクエリに含まれない: %q", gotQuery)
	}
}

func TestClient_Generate_ErrorOnNon200(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := client.Generate(context.Background(), "prompt", "")
	if err == nil {
		t.Fatal("エラーステータス時にGenerate()はエラーを返すべき")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("エラーにステータスコードが含まれない: %v", err)
	}
}

func TestClient_Generate_ErrorOnNoCandidates(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	})

	_, err := client.Generate(context.Background(), "prompt", "")
	if err == nil {
		t.Fatal("候補なしレスポンスでGenerate()はエラーを返すべき")
	}
}

func TestClient_DefaultModel(t *testing.T) {
	var buf bytes.Buffer
	client := NewClient(http.DefaultClient, newTestLogger(&buf), "key", "")

	if client.Model() != "gemini-2.5-flash" {
		t.Errorf("Model() = %q, want %q", client.Model(), "gemini-2.5-flash")
	}
}

func TestClient_HealthCheck_RoundTrip(t *testing.T) {
	var gotBody map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "OK"}}}},
			},
		})
	})

	got, err := client.HealthCheck(context.Background())
	if err != nil {
		t.Fatalf("HealthCheck() がエラーを返した: %v", err)
	}
	if got != "OK" {
		t.Errorf("HealthCheck() = %q, want %q", got, "OK")
	}
	if _, ok := gotBody["systemInstruction"]; !ok {
		t.Error("疎通確認でもsystemInstructionを送るべき")
	}
}
