package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"verbquiz-service/internal/domain"
)

func TestFetchQuestionsFromToolCall(t *testing.T) {
	args := `{"questions":[
		{"id":42,"incompleteSentence":"De monteur [___] de banden.","infinitive":"verwisselen","correctForm":"verwisselt","tense":"tegenwoordige tijd","explanation":"Stam + t."},
		{"incompleteSentence":"Gisteren [___] ik op stage.","infinitive":"werken","correctForm":"werkte","tense":"verleden tijd","explanation":"'t kofschip."}
	]}`
	var seen map[string]any
	server := newCompletionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&seen); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		writeToolCall(w, submitToolName, args)
	})
	defer server.Close()

	p := NewOpenAIProvider(Options{APIKey: "test", BaseURL: server.URL, Model: "test-model"})
	questions, err := p.FetchQuestions(context.Background(), 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].ID != 0 || questions[1].ID != 1 {
		t.Fatalf("expected sequential ids, got %d and %d", questions[0].ID, questions[1].ID)
	}
	if questions[1].CorrectForm != "werkte" {
		t.Fatalf("unexpected question %+v", questions[1])
	}
	if seen["model"] != "test-model" {
		t.Fatalf("expected configured model, got %v", seen["model"])
	}
	if _, ok := seen["tools"]; !ok {
		t.Fatalf("expected tool definition in request")
	}
}

func TestFetchQuestionsFallsBackToContent(t *testing.T) {
	server := newCompletionServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeContent(w, `[{"incompleteSentence":"Hij [___] hard.","correctForm":"rent"}]`)
	})
	defer server.Close()

	p := NewOpenAIProvider(Options{APIKey: "test", BaseURL: server.URL})
	questions, err := p.FetchQuestions(context.Background(), 5)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 1 || questions[0].CorrectForm != "rent" {
		t.Fatalf("unexpected questions %+v", questions)
	}
}

func TestFetchQuestionsRejectsNonSequence(t *testing.T) {
	server := newCompletionServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeToolCall(w, submitToolName, `{"questions":{"incompleteSentence":"x"}}`)
	})
	defer server.Close()

	p := NewOpenAIProvider(Options{APIKey: "test", BaseURL: server.URL})
	_, err := p.FetchQuestions(context.Background(), 5)
	assertGenerationError(t, err)
	if !errors.Is(err, errNotSequence) {
		t.Fatalf("expected shape error as cause, got %v", err)
	}
}

func TestFetchQuestionsWrapsTransportFailure(t *testing.T) {
	server := newCompletionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"rate_limit"}}`))
	})
	defer server.Close()

	p := NewOpenAIProvider(Options{APIKey: "test", BaseURL: server.URL})
	_, err := p.FetchQuestions(context.Background(), 5)
	assertGenerationError(t, err)
}

func TestFetchQuestionsRejectsInvalidCount(t *testing.T) {
	p := NewOpenAIProvider(Options{APIKey: "test", BaseURL: "http://127.0.0.1:0"})
	_, err := p.FetchQuestions(context.Background(), 0)
	assertGenerationError(t, err)
}

func TestFetchQuestionsWritesTranscript(t *testing.T) {
	server := newCompletionServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeToolCall(w, submitToolName, `{"questions":[]}`)
	})
	defer server.Close()

	dir := t.TempDir()
	p := NewOpenAIProvider(Options{APIKey: "test", BaseURL: server.URL, TranscriptDir: dir})
	questions, err := p.FetchQuestions(context.Background(), 5)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("expected empty list, got %d", len(questions))
	}

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one transcript file, got %v (%v)", entries, err)
	}
	data, err := os.ReadFile(dir + "/" + entries[0].Name())
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if !strings.Contains(string(data), "=== REQUEST ===") || !strings.Contains(string(data), "=== RESPONSE ===") {
		t.Fatalf("transcript missing sections:\n%s", data)
	}
}

func TestDecodeQuestionsIsLenientPerItem(t *testing.T) {
	questions, err := decodeQuestions([]byte(`[{"correctForm":"loopt","tense":5}, 17, {"infinitive":"lopen"}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 items, got %d", len(questions))
	}
	if questions[0].CorrectForm != "loopt" || questions[0].Tense != "" {
		t.Fatalf("unexpected first item %+v", questions[0])
	}
	if questions[1] != (domain.Question{ID: 1}) {
		t.Fatalf("expected blank second item, got %+v", questions[1])
	}
	if questions[2].Infinitive != "lopen" || questions[2].ID != 2 {
		t.Fatalf("unexpected third item %+v", questions[2])
	}
}

func newCompletionServer(t *testing.T, handle http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", handle)
	return httptest.NewServer(mux)
}

func writeToolCall(w http.ResponseWriter, name, arguments string) {
	writeCompletion(w, map[string]any{
		"role": "assistant",
		"tool_calls": []map[string]any{{
			"id":   "call_1",
			"type": "function",
			"function": map[string]any{
				"name":      name,
				"arguments": arguments,
			},
		}},
	})
}

func writeContent(w http.ResponseWriter, content string) {
	writeCompletion(w, map[string]any{
		"role":    "assistant",
		"content": content,
	})
}

func writeCompletion(w http.ResponseWriter, message map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"message":       message,
			"finish_reason": "stop",
		}},
	})
}

func assertGenerationError(t *testing.T, err error) {
	t.Helper()
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Error() != domain.GenerationFailedMessage {
		t.Fatalf("expected fixed message, got %q", genErr.Error())
	}
}
