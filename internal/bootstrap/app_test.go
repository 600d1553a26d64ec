package bootstrap

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"briefly-backend/internal/shared/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		MaxUploadBytes:  1 << 20,
		JWTSecret:       "test-secret",
		JWTTTL:          time.Hour,
		LLMProvider:     "placeholder",
		ReconcileGrace:  time.Hour,
	}
}

type envelope struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
}

func call(t *testing.T, r *gin.Engine, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func TestBuildServesSummaryFlowInMemory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := Build(testConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()
	if app.DB != nil {
		t.Fatalf("expected memory repositories without DATABASE_URL")
	}

	code, env := call(t, app.Router, http.MethodPost, "/user/create", "", map[string]string{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"phone":     "555",
		"email":     "ada@example.com",
		"password":  "pw",
	})
	if code != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d", code)
	}
	var created struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(env.Result, &created); err != nil || created.UserID == "" {
		t.Fatalf("create user result: %s", env.Result)
	}

	code, env = call(t, app.Router, http.MethodPost, "/user/verify", "", map[string]string{
		"email":    "ada@example.com",
		"password": "pw",
	})
	if code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d", code)
	}
	var session struct {
		Token string `json:"auth_token"`
	}
	if err := json.Unmarshal(env.Result, &session); err != nil || session.Token == "" {
		t.Fatalf("verify result: %s", env.Result)
	}

	code, env = call(t, app.Router, http.MethodPost, "/summary/create", session.Token, map[string]string{
		"userId":      created.UserID,
		"type":        "documentation",
		"initialData": "Install the tool and run it.",
	})
	if code != http.StatusCreated {
		t.Fatalf("create summary: expected 201, got %d", code)
	}
	var summary struct {
		ID string `json:"summary_id"`
	}
	if err := json.Unmarshal(env.Result, &summary); err != nil || summary.ID == "" {
		t.Fatalf("create summary result: %s", env.Result)
	}

	code, env = call(t, app.Router, http.MethodGet, "/summaries/"+created.UserID, session.Token, nil)
	if code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", code)
	}
	if !strings.Contains(string(env.Result), summary.ID) {
		t.Fatalf("expected listed summary %s in %s", summary.ID, env.Result)
	}

	report, err := app.Reconciler.Run(t.Context())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(report.Orphans) != 0 {
		t.Fatalf("expected no orphans, got %v", report.Orphans)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := testConfig(t)
	cfg.Env = "staging"
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}
