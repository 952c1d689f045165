package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"orby/config"
	"orby/model"
	"orby/provider/testutil"
)

var _ model.Provider = (*OllamaProvider)(nil)

type ollamaChatBody struct {
	Model    string           `json:"model"`
	Stream   *bool            `json:"stream"`
	Options  map[string]any   `json:"options"`
	Messages []map[string]any `json:"messages"`
}

func newOllamaTestProvider(t *testing.T, handler http.HandlerFunc) *OllamaProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewOllamaProvider(Config{
		Type:        config.BackendOllama,
		BaseURL:     srv.URL,
		Model:       "llama3.2",
		Temperature: 0.2,
		MaxTokens:   64,
		HTTPClient:  srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewOllamaProvider: %v", err)
	}
	return p
}

func TestOllamaComplete(t *testing.T) {
	var got ollamaChatBody
	p := newOllamaTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"model":"llama3.2","message":{"role":"assistant","content":"hello"},"done":true}`)
	})

	reply, err := p.Complete(context.Background(), model.ChatRequest{
		Messages: testutil.SingleUserMessage("hi"),
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "hello" {
		t.Errorf("Complete() = %q, want %q", reply, "hello")
	}

	if got.Model != "llama3.2" {
		t.Errorf("model = %q", got.Model)
	}
	if got.Stream == nil || *got.Stream {
		t.Errorf("stream = %v, want false", got.Stream)
	}
	if got.Options["temperature"] != 0.2 {
		t.Errorf("temperature = %v", got.Options["temperature"])
	}
	if got.Options["num_predict"] != float64(64) {
		t.Errorf("num_predict = %v", got.Options["num_predict"])
	}
	if len(got.Messages) != 1 || got.Messages[0]["content"] != "hi" {
		t.Errorf("messages = %v", got.Messages)
	}
}

func TestOllamaCompleteUsesRequestModel(t *testing.T) {
	var got ollamaChatBody
	p := newOllamaTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"ok"},"done":true}`)
	})

	if _, err := p.Complete(context.Background(), model.ChatRequest{Model: "qwen2.5", Messages: testutil.SingleUserMessage("hi")}); err != nil {
		t.Fatal(err)
	}
	if got.Model != "qwen2.5" {
		t.Errorf("model = %q, want qwen2.5", got.Model)
	}
}

func TestOllamaChatStreams(t *testing.T) {
	p := newOllamaTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var body ollamaChatBody
		json.NewDecoder(r.Body).Decode(&body)
		if body.Stream == nil || !*body.Stream {
			t.Errorf("stream = %v, want true", body.Stream)
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, c := range []string{"a", "", "b", "c"} {
			fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q},"done":false}`+"\n", c)
		}
		fmt.Fprint(w, `{"message":{"role":"assistant","content":""},"done":true}`+"\n")
	})

	var chunks []string
	err := p.Chat(context.Background(), model.ChatRequest{Messages: testutil.SingleUserMessage("hi")}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if strings.Join(chunks, "") != "abc" {
		t.Errorf("concatenated = %q, want abc", strings.Join(chunks, ""))
	}
	if len(chunks) != 3 {
		t.Errorf("got %d chunks, empty chunks should be skipped: %q", len(chunks), chunks)
	}
}

func TestOllamaChatCallbackErrorAborts(t *testing.T) {
	p := newOllamaTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		for _, c := range []string{"a", "b", "c"} {
			fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q},"done":false}`+"\n", c)
		}
	})

	stop := errors.New("stop")
	calls := 0
	err := p.Chat(context.Background(), model.ChatRequest{Messages: testutil.SingleUserMessage("hi")}, func(string) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("Chat() error = %v, want callback error", err)
	}
	if calls != 1 {
		t.Errorf("callback called %d times", calls)
	}
}

func TestOllamaModelNotFound(t *testing.T) {
	p := newOllamaTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model \"mystery\" not found, try pulling it first"}`)
	})

	_, err := p.Complete(context.Background(), model.ChatRequest{Model: "mystery", Messages: testutil.SingleUserMessage("hi")})
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("Complete() error = %v, want ErrModelNotFound", err)
	}

	var notFound *ModelNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error %T does not carry *ModelNotFoundError", err)
	}
	if notFound.Hint != "ollama pull mystery" {
		t.Errorf("Hint = %q", notFound.Hint)
	}
	want := "Model 'mystery' not found. Please pull the model first with: ollama pull mystery"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	if errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrBackendProtocol) {
		t.Error("model not found must not match other kinds")
	}
}

func TestOllamaServerError(t *testing.T) {
	p := newOllamaTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"llama runner process has terminated"}`)
	})

	err := p.Chat(context.Background(), model.ChatRequest{Messages: testutil.SingleUserMessage("hi")}, func(string) error { return nil })
	if !errors.Is(err, ErrBackendProtocol) {
		t.Fatalf("Chat() error = %v, want ErrBackendProtocol", err)
	}

	var backendErr *BackendError
	if !errors.As(err, &backendErr) || backendErr.Backend != "ollama" {
		t.Errorf("error = %#v, want *BackendError for ollama", err)
	}
}

func TestOllamaUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p, err := NewOllamaProvider(Config{Type: config.BackendOllama, BaseURL: url, Model: "llama3.2"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.Complete(context.Background(), model.ChatRequest{Messages: testutil.SingleUserMessage("hi")})
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Complete() error = %v, want ErrBackendUnavailable", err)
	}
	if err := p.Ping(context.Background()); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Ping() error = %v, want ErrBackendUnavailable", err)
	}

	models := p.ListModels(context.Background())
	if len(models) != 1 || models[0] != "llama3.2" {
		t.Errorf("ListModels() = %v, want [llama3.2]", models)
	}
}

func TestOllamaCancelled(t *testing.T) {
	p := newOllamaTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Complete(ctx, model.ChatRequest{Messages: testutil.SingleUserMessage("hi")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Complete() error = %v, want context.Canceled", err)
	}
}

func TestOllamaListModels(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "name key",
			body: `{"models":[{"name":"llama3.2:latest","size":1},{"name":"qwen2.5:7b"}]}`,
			want: []string{"llama3.2:latest", "qwen2.5:7b"},
		},
		{
			name: "model key",
			body: `{"models":[{"model":"mistral:latest"}]}`,
			want: []string{"mistral:latest"},
		},
		{
			name: "id key",
			body: `{"models":[{"id":"phi3"}]}`,
			want: []string{"phi3"},
		},
		{
			name: "name preferred over id",
			body: `{"models":[{"id":"sha256:abc","name":"gemma2:2b"}]}`,
			want: []string{"gemma2:2b"},
		},
		{
			name: "unrecognized shape",
			body: `{"tags":["x"]}`,
			want: []string{"llama3.2"},
		},
		{
			name: "not json",
			body: `<html>oops</html>`,
			want: []string{"llama3.2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newOllamaTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/tags" {
					http.NotFound(w, r)
					return
				}
				fmt.Fprint(w, tt.body)
			})

			got := p.ListModels(context.Background())
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("ListModels() = %v, want %v", got, tt.want)
			}
		})
	}
}
