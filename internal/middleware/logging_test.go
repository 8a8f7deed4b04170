package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		method        string
		path          string
		handlerStatus int
		writeBody     bool
	}{
		{name: "GET request", method: "GET", path: "/healthz", handlerStatus: http.StatusOK},
		{name: "register", method: "POST", path: "/api/v1/auth/register", handlerStatus: http.StatusCreated, writeBody: true},
		{name: "not found", method: "GET", path: "/notfound", handlerStatus: http.StatusNotFound},
		{name: "implicit 200", method: "GET", path: "/implicit", handlerStatus: 0, writeBody: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.InfoLevel)
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.handlerStatus != 0 {
					w.WriteHeader(tt.handlerStatus)
				}
				if tt.writeBody {
					_, _ = w.Write([]byte("{}"))
				}
			})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			Logging(zap.New(core))(handler).ServeHTTP(w, req)

			wantStatus := tt.handlerStatus
			if wantStatus == 0 {
				wantStatus = http.StatusOK
			}
			if w.Code != wantStatus {
				t.Errorf("Expected status %d, got %d", wantStatus, w.Code)
			}

			entries := logs.FilterMessage("http_request").All()
			if len(entries) != 1 {
				t.Fatalf("Expected one http_request entry, got %d", len(entries))
			}
			fields := entries[0].ContextMap()
			if fields["status_code"] != int64(wantStatus) {
				t.Errorf("Expected logged status %d, got %v", wantStatus, fields["status_code"])
			}
			if fields["path"] != tt.path {
				t.Errorf("Expected logged path %s, got %v", tt.path, fields["path"])
			}
		})
	}
}

func TestAudit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		path      string
		status    int
		wantEvent string
	}{
		{"unauthorized", "/api/v1/auth/me", http.StatusUnauthorized, "security_event"},
		{"register conflict", "/api/v1/auth/register", http.StatusConflict, "account_conflict"},
		{"rate limited", "/api/v1/auth/login", http.StatusTooManyRequests, "rate_limit_violation"},
		{"ok", "/api/v1/auth/login", http.StatusOK, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.InfoLevel)
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			req := httptest.NewRequest("POST", tt.path, nil)
			Audit(zap.New(core))(handler).ServeHTTP(httptest.NewRecorder(), req)

			if tt.wantEvent == "" {
				if logs.Len() != 0 {
					t.Errorf("Expected no audit entries, got %d", logs.Len())
				}
				return
			}
			if logs.FilterMessage(tt.wantEvent).Len() != 1 {
				t.Errorf("Expected one %s entry, got %v", tt.wantEvent, logs.All())
			}
		})
	}
}
