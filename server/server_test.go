package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chatx "github.com/b3cub3d/mcp-playground/agent/agents/chat"
	contractx "github.com/b3cub3d/mcp-playground/agent/contract"
)

type fakeChatService struct {
	lastSession string
	lastText    string
	result      contractx.RunResult
	err         error
}

func (f *fakeChatService) HandleMessage(ctx context.Context, sessionID string, text string) (contractx.RunResult, error) {
	f.lastSession = sessionID
	f.lastText = text
	if f.err != nil {
		return contractx.RunResult{}, f.err
	}
	return f.result, nil
}

func postChat(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChatResponseShape(t *testing.T) {
	t.Parallel()

	svc := &fakeChatService{
		result: contractx.RunResult{
			Reply:       "2 + 3 equals 5.",
			HandoffInfo: "Handed off to: FinancialSpecialist",
		},
	}
	handler := Handler(svc, nil)

	rec := postChat(t, handler, `{"message": "What is 2 + 3?", "session_id": "s1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var resp struct {
		Response    string `json:"response"`
		HandoffInfo string `json:"handoff_info"`
		SessionID   string `json:"session_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Response != "2 + 3 equals 5." || resp.HandoffInfo != "Handed off to: FinancialSpecialist" || resp.SessionID != "s1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if svc.lastSession != "s1" || svc.lastText != "What is 2 + 3?" {
		t.Fatalf("request not forwarded: session=%q text=%q", svc.lastSession, svc.lastText)
	}
}

func TestChatDefaultsSessionID(t *testing.T) {
	t.Parallel()

	svc := &fakeChatService{result: contractx.RunResult{Reply: "hi"}}
	handler := Handler(svc, nil)

	rec := postChat(t, handler, `{"message": "hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if svc.lastSession != DefaultSessionID {
		t.Fatalf("missing session id must default, got %q", svc.lastSession)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["session_id"] != DefaultSessionID {
		t.Fatalf("response must echo the session id: %v", resp)
	}
}

func TestChatRejectsWrongMethod(t *testing.T) {
	t.Parallel()

	handler := Handler(&fakeChatService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestChatRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	handler := Handler(&fakeChatService{}, nil)

	rec := postChat(t, handler, `{"message":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestChatMapsServiceErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"empty message", chatx.ErrInvalidMessage, http.StatusBadRequest},
		{"validation", contractx.ErrValidation, http.StatusBadRequest},
		{"model failure", contractx.ErrModelInvoke, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			handler := Handler(&fakeChatService{err: tc.err}, nil)
			rec := postChat(t, handler, `{"message": "x"}`)
			if rec.Code != tc.want {
				t.Fatalf("unexpected status: %d, want %d", rec.Code, tc.want)
			}

			var resp map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp["error"] == "" {
				t.Fatalf("error body missing: %v", resp)
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	handler := Handler(&fakeChatService{}, func(ctx context.Context) error { return nil })
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	down := Handler(&fakeChatService{}, func(ctx context.Context) error { return errors.New("upstream down") })
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}
