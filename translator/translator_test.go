package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/errs"
	"github.com/spektr-org/charta/schema"
)

// ============================================================================
// GEMINI
// ============================================================================

func TestGemini_Complete(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "k&y", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"{\"chart_type\":\"bar\"}"}]}}]}`)
	}))
	defer srv.Close()

	g := NewGemini(Config{APIKey: "k&y", Model: "test-model", Endpoint: srv.URL + "/models"})
	text, err := g.Complete(context.Background(), "SYSTEM", "USER")
	require.NoError(t, err)
	assert.Equal(t, `{"chart_type":"bar"}`, text)

	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "SYSTEM", got.SystemInstruction.Parts[0].Text)
	require.Len(t, got.Contents, 1)
	assert.Equal(t, "USER", got.Contents[0].Parts[0].Text)
}

func TestGemini_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"http status", http.StatusTooManyRequests, `quota`, "returned 429"},
		{"api error", http.StatusOK, `{"error":{"code":400,"message":"bad key"}}`, "bad key"},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, "empty response"},
		{"not json", http.StatusOK, `<html>`, "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewGemini(Config{Endpoint: srv.URL}).Complete(context.Background(), "", "q")
			var up *errs.UpstreamError
			require.ErrorAs(t, err, &up)
			assert.Equal(t, "gemini", up.Source)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestGemini_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewGemini(Config{Endpoint: srv.URL}).Complete(ctx, "", "q")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// ============================================================================
// OPENAI-COMPATIBLE
// ============================================================================

func TestOpenAI_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`)
	}))
	defer srv.Close()

	o := NewOpenAI(Config{APIKey: "sk-test", Endpoint: srv.URL + "/v1/"})
	text, err := o.Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	assert.Equal(t, defaultOpenAIModel, got.Model)
	assert.Equal(t, []chatMessage{{Role: "system", Content: "sys"}, {Role: "user", Content: "usr"}}, got.Messages)
}

func TestOpenAI_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"message":"missing key"}}`)
			return
		}
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	_, err := NewOpenAI(Config{Endpoint: srv.URL}).Complete(context.Background(), "", "q")
	assert.ErrorContains(t, err, "returned 401")
	assert.ErrorContains(t, err, "openai")

	_, err = NewOpenAI(Config{Endpoint: srv.URL, APIKey: "k"}).Complete(context.Background(), "", "q")
	assert.ErrorContains(t, err, "empty response")
}

func TestNew(t *testing.T) {
	tr, err := New(DefaultGeminiConfig("k"))
	require.NoError(t, err)
	assert.IsType(t, &GeminiTranslator{}, tr)

	tr, err = New(DefaultOpenAIConfig("k"))
	require.NoError(t, err)
	assert.IsType(t, &OpenAITranslator{}, tr)

	tr, err = New(Config{})
	require.NoError(t, err)
	assert.IsType(t, &GeminiTranslator{}, tr)

	_, err = New(Config{Provider: "claude-local"})
	assert.ErrorContains(t, err, "unknown translator provider")
}

// ============================================================================
// PROMPTS
// ============================================================================

func employees() *dataset.Dataset {
	return dataset.Load([]string{"name", "dept", "salary", "hired"}, []dataset.Row{
		{"name": "ana", "dept": "eng", "salary": "1,200", "hired": "2024-01-02"},
		{"name": "budi", "dept": "ops", "salary": "800", "hired": "2023-05-06"},
		{"name": "citra", "dept": "eng", "salary": "950", "hired": "2022-11-30"},
		{"name": "dewi", "dept": "ops", "salary": "700", "hired": "2021-03-04"},
	})
}

func TestBuildInstructionPrompt(t *testing.T) {
	p := schema.Discover(employees(), schema.Options{Name: "staff"})
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	prompt := BuildInstructionPrompt(p, now)
	assert.Contains(t, prompt, `dataset "staff"`)
	assert.Contains(t, prompt, "CURRENT DATE: 2026-03-01")
	assert.Contains(t, prompt, "DATASET: 4 rows")
	assert.Contains(t, prompt, `- "salary" [numeric, measure]`)
	assert.Contains(t, prompt, "range: 700..1200")
	assert.Contains(t, prompt, `"chart_type": "bar|line|scatter|pie|histogram|map"`)
	assert.Contains(t, prompt, `- "dept" [categorical, dimension] (Dept) values: ["eng", "ops"]`)
	assert.Contains(t, prompt, `"x_column":"name"`, "examples use the dataset's own columns")
	assert.Contains(t, prompt, `- "name" is a child of "dept"`)
}

func TestBuildUserMessage(t *testing.T) {
	p := schema.Discover(employees())
	msg := BuildUserMessage(p, "salary per dept")
	assert.Contains(t, msg, `"name", "dept", "salary", "hired"`)
	assert.Contains(t, msg, "USER REQUEST: salary per dept")
	assert.True(t, strings.HasSuffix(msg, "Respond with valid JSON only:"))
}

func TestBuildQuestionPrompt(t *testing.T) {
	prompt := BuildQuestionPrompt(employees())
	assert.Contains(t, prompt, `"name":"budi"`)
	assert.Contains(t, prompt, "AVAILABLE COLUMNS: name, dept, salary, hired")
	assert.Contains(t, prompt, "one JSON object per line")

	rows := make([]dataset.Row, MaxQuestionRows+5)
	for i := range rows {
		rows[i] = dataset.Row{"n": float64(i)}
	}
	big := BuildQuestionPrompt(dataset.New([]string{"n"}, rows))
	assert.Contains(t, big, fmt.Sprintf("first %d of %d rows", MaxQuestionRows, MaxQuestionRows+5))
	assert.NotContains(t, big, fmt.Sprintf(`{"n":%d}`, MaxQuestionRows+1))
}
