package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatClientSendsSystemAndUser(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Pendapatan Rp 1.000"}}]}`))
	}))
	defer srv.Close()

	c := &ChatClient{HTTP: srv.Client(), BaseURL: srv.URL + "/v1", APIKey: "k1", Model: "m"}
	reply, err := c.Complete(context.Background(), Prompt{System: "sys", User: "berapa?"})
	require.NoError(t, err)
	assert.Equal(t, "Pendapatan Rp 1.000", reply)
	assert.Equal(t, "m", got.Model)
	assert.Equal(t, 0.5, got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "sys"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "berapa?"}, got.Messages[1])
}

func TestChatClientEmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := &ChatClient{HTTP: srv.Client(), BaseURL: srv.URL, APIKey: "k", Model: "m"}
	reply, err := c.Complete(context.Background(), Prompt{User: "q"})
	require.NoError(t, err)
	assert.Equal(t, emptyReply, reply)
}

func TestChatClientProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := &ChatClient{HTTP: srv.Client(), BaseURL: srv.URL, APIKey: "bad", Model: "m"}
	_, err := c.Complete(context.Background(), Prompt{User: "q"})
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusUnauthorized, perr.Status)
	assert.Contains(t, perr.Body, "invalid api key")
}

func TestGeminiClient(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "gk", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Halo"},{"text":" dunia"}]}}]}`))
	}))
	defer srv.Close()

	c := &GeminiClient{HTTP: srv.Client(), BaseURL: srv.URL, APIKey: "gk", Model: "gemini-2.5-flash"}
	reply, err := c.Complete(context.Background(), Prompt{System: "sys", User: "apa?"})
	require.NoError(t, err)
	assert.Equal(t, "Halo dunia", reply)
	require.Len(t, got.Contents, 1)
	assert.Equal(t, []geminiPart{{Text: "sys"}, {Text: "\n\nUser Question: apa?"}}, got.Contents[0].Parts)
}

func TestHTTPCompletersDefaults(t *testing.T) {
	factory := HTTPCompleters(5 * time.Second)

	c, err := factory(ProviderGroq, "k", "")
	require.NoError(t, err)
	chat := c.(*ChatClient)
	assert.Equal(t, groqBaseURL, chat.BaseURL)
	assert.Equal(t, "llama-3.1-8b-instant", chat.Model)

	c, err = factory(ProviderOpenAI, "k", "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", c.(*ChatClient).Model)

	c, err = factory(ProviderGemini, "k", "")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", c.(*GeminiClient).Model)

	_, err = factory(Provider("CLAUDE"), "k", "")
	require.Error(t, err)
}
