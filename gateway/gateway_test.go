package gateway

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

func TestHTTPGatewayCommit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/records" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var req commitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Domain != string(domain.DomainLogistics) {
			t.Fatalf("unexpected domain: %s", req.Domain)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":true,"reference_id":"ref_1","detail":"record committed"}`)
	}))
	defer server.Close()

	g := NewHTTPGateway(server.URL, time.Second)
	res, err := g.Commit(context.Background(), domain.DomainLogistics, domain.CommitRecord{"AWB": "123"})
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if !res.Success || res.ReferenceID != "ref_1" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestHTTPGatewayCommitFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream down")
	}))
	defer server.Close()

	g := NewHTTPGateway(server.URL, time.Second)
	_, err := g.Commit(context.Background(), domain.DomainForwarder, domain.CommitRecord{"ATA": "2026-08-28"})

	var gwErr *domain.CommitGatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected CommitGatewayError, got %v", err)
	}
	if gwErr.Domain != domain.DomainForwarder {
		t.Fatalf("unexpected domain on error: %s", gwErr.Domain)
	}
}

func TestHTTPGatewayCommitNonSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":false,"detail":"duplicate key"}`)
	}))
	defer server.Close()

	g := NewHTTPGateway(server.URL, time.Second)
	_, err := g.Commit(context.Background(), domain.DomainLogistics, domain.CommitRecord{"AWB": "123"})

	var gwErr *domain.CommitGatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected CommitGatewayError, got %v", err)
	}
	if gwErr.Detail != "duplicate key" {
		t.Fatalf("expected gateway detail to surface, got %q", gwErr.Detail)
	}
}

func TestFakeGatewayIdempotentReference(t *testing.T) {
	f := NewFake()
	record := domain.CommitRecord{"AWB": "ABC123456", "Shipment_Mode": "Air"}

	first, err := f.Commit(context.Background(), domain.DomainLogistics, record)
	if err != nil {
		t.Fatalf("first commit failed: %v", err)
	}
	second, err := f.Commit(context.Background(), domain.DomainLogistics, record)
	if err != nil {
		t.Fatalf("second commit failed: %v", err)
	}
	if first.ReferenceID != second.ReferenceID {
		t.Fatalf("identical records produced different references: %s vs %s", first.ReferenceID, second.ReferenceID)
	}

	other, _ := f.Commit(context.Background(), domain.DomainLogistics, domain.CommitRecord{"AWB": "other"})
	if other.ReferenceID == first.ReferenceID {
		t.Fatalf("different records must not share a reference id")
	}
}

func TestFakeGatewayFailNext(t *testing.T) {
	f := NewFake()
	f.FailNext("db offline")

	_, err := f.Commit(context.Background(), domain.DomainLogistics, domain.CommitRecord{"AWB": "123"})
	var gwErr *domain.CommitGatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected CommitGatewayError, got %v", err)
	}

	res, err := f.Commit(context.Background(), domain.DomainLogistics, domain.CommitRecord{"AWB": "123"})
	if err != nil || !res.Success {
		t.Fatalf("failure must not be sticky: %v %+v", err, res)
	}
	if len(f.Calls()) != 2 {
		t.Fatalf("expected 2 recorded calls, got %d", len(f.Calls()))
	}
}
