package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iblflow/orchestrator/domain"
)

func TestClientInferStructuredOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["response_format"] == nil {
			t.Fatalf("expected response_format in request")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","choices":[{"index":0,"message":{"role":"assistant","content":"{\"question\":\"\",\"delegate_to\":\"logistics_agent\",\"agent_brief\":\"AWB 123\"}"},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "gpt-4.1", time.Second)
	res, err := client.Infer(context.Background(), InferRequest{
		Prompt:     "route this",
		SchemaName: "routing_decision",
		Schema:     json.RawMessage(`{"type":"object"}`),
	})
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}

	var decision domain.RoutingDecision
	if err := Decode(res, "routing_decision", &decision); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decision.DelegateTo != domain.DelegateLogistics || decision.AgentBrief != "AWB 123" {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}

func TestClientInferToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","choices":[{"index":0,"message":{"role":"assistant","content":"","tool_calls":[{"id":"call_1","type":"function","function":{"name":"db.update","arguments":"{\"record\":{}}"}}]},"finish_reason":"tool_calls"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "gpt-4.1", time.Second)
	res, err := client.Infer(context.Background(), InferRequest{Prompt: "go"})
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}
	if len(res.ToolCalls) != 1 || res.ToolCalls[0].Name != "db.update" || res.ToolCalls[0].CallID != "call_1" {
		t.Fatalf("unexpected tool calls: %+v", res.ToolCalls)
	}
	if len(res.Output) != 0 {
		t.Fatalf("expected no structured output alongside tool calls")
	}
}

func TestClientInferAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "gpt-4.1", time.Second)
	_, err := client.Infer(context.Background(), InferRequest{Prompt: "hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestDecodeRejectsNonConformingOutput(t *testing.T) {
	res := &InferResult{Output: json.RawMessage(`{"question":"","delegate_to":"logistics_agent","agent_brief":"x","extra":true}`)}
	var decision domain.RoutingDecision
	err := Decode(res, "routing_decision", &decision)

	var valErr *domain.DecisionValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected DecisionValidationError, got %v", err)
	}
}

func TestDecodeRejectsEmptyOutput(t *testing.T) {
	var decision domain.RoutingDecision
	err := Decode(&InferResult{}, "routing_decision", &decision)

	var valErr *domain.DecisionValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected DecisionValidationError, got %v", err)
	}
}
