package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iblflow/orchestrator/domain"
	"github.com/iblflow/orchestrator/gateway"
	"github.com/iblflow/orchestrator/oracle"
	"github.com/iblflow/orchestrator/policy"
	"github.com/iblflow/orchestrator/schema"
	"github.com/iblflow/orchestrator/service"
	"github.com/iblflow/orchestrator/subagent"
	"github.com/iblflow/orchestrator/supervisor"
	"github.com/iblflow/orchestrator/tests/helpers"
	"github.com/iblflow/orchestrator/tools"
)

const testSchemaDoc = `{
	"logistics_agent": [
		{"field": "AWB", "required": true, "dataType": "string", "description": "Air waybill number"},
		{"field": "Shipment_Mode", "required": true, "dataType": "string", "description": "Mode of shipment"}
	],
	"forwarder_agent": [
		{"field": "ATA", "required": true, "dataType": "date", "description": "Actual time of arrival"}
	]
}`

type scriptedOracle struct {
	results []*oracle.InferResult
	calls   int
}

func (s *scriptedOracle) Infer(ctx context.Context, req oracle.InferRequest) (*oracle.InferResult, error) {
	if s.calls >= len(s.results) {
		return nil, errors.New("scripted oracle exhausted")
	}
	res := s.results[s.calls]
	s.calls++
	return res, nil
}

func clarifyResult(t *testing.T, question string) *oracle.InferResult {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"question":    question,
		"delegate_to": "clarify_user",
		"agent_brief": "",
	})
	if err != nil {
		t.Fatalf("marshal decision: %v", err)
	}
	return &oracle.InferResult{Output: raw}
}

func newTestHandler(t *testing.T, results ...*oracle.InferResult) *Handler {
	t.Helper()

	reg, err := schema.Parse("test", []byte(testSchemaDoc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	st := helpers.NewTestSQLiteStore(t)

	pol, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	stub := &scriptedOracle{results: results}
	gw := gateway.NewFake()
	bridge := tools.NewBridge(tools.NewRegistry())
	router := supervisor.NewRouter(stub, reg, nil)
	agents := []*subagent.Workflow{
		subagent.New(domain.DomainLogistics, reg, stub, gw, pol, bridge, 10),
		subagent.New(domain.DomainForwarder, reg, stub, gw, pol, bridge, 10),
	}

	svc := service.New(st, router, agents, bridge, 10)
	return NewHandler(svc, st)
}

func TestPostMessageClarify(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, clarifyResult(t, "Which shipment do you mean?"))

	body := `{"thread_id":"t1","user_message":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.PostMessage(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ThreadID string           `json:"thread_id"`
		Messages []domain.Message `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Messages) != 2 {
		t.Fatalf("expected user + assistant message, got %+v", resp.Messages)
	}
	if resp.Messages[1].Role != domain.RoleAssistant {
		t.Fatalf("expected assistant reply, got %+v", resp.Messages[1])
	}
}

func TestPostMessageValidation(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t)

	cases := []string{
		`{"user_message":"hello"}`,
		`{"thread_id":"t1","user_message":"   "}`,
		`not json`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := h.PostMessage(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %q, got %d", body, rec.Code)
		}
	}
}

func TestGetThreadMessagesNotFound(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/threads/ghost/messages", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("thread_id")
	c.SetParamValues("ghost")

	if err := h.GetThreadMessages(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetThreadMessagesAfterTurn(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t, clarifyResult(t, "Which shipment do you mean?"))

	if _, err := h.service.HandleTurn(context.Background(), "t1", "hello"); err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/threads/t1/messages", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("thread_id")
	c.SetParamValues("t1")

	if err := h.GetThreadMessages(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %+v", resp.Messages)
	}
}

func TestHealth(t *testing.T) {
	e := echo.New()
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Health(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
