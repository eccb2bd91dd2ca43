package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/iblflow/orchestrator/domain"
)

// Fake is an in-memory gateway for tests. Reference ids are derived from the
// record content, so committing an identical record twice yields the same id.
type Fake struct {
	mu       sync.Mutex
	calls    []FakeCall
	failNext *domain.CommitGatewayError
}

// FakeCall records one Commit invocation.
type FakeCall struct {
	Domain domain.Domain
	Record domain.CommitRecord
}

// NewFake creates an empty fake gateway.
func NewFake() *Fake {
	return &Fake{}
}

// FailNext makes the next Commit call fail with the given detail.
func (f *Fake) FailNext(detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = &domain.CommitGatewayError{Detail: detail}
}

// Commit records the call and returns a content-addressed reference id.
func (f *Fake) Commit(ctx context.Context, d domain.Domain, record domain.CommitRecord) (*domain.CommitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, FakeCall{Domain: d, Record: record})

	if f.failNext != nil {
		err := f.failNext
		err.Domain = d
		f.failNext = nil
		return nil, err
	}

	return &domain.CommitResult{
		Success:     true,
		ReferenceID: referenceID(d, record),
		Detail:      "record committed",
	}, nil
}

// Calls returns a copy of all recorded calls.
func (f *Fake) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// referenceID hashes the canonical JSON encoding of the record. Map keys are
// sorted by encoding/json, so identical records hash identically.
func referenceID(d domain.Domain, record domain.CommitRecord) string {
	payload, _ := json.Marshal(struct {
		Domain domain.Domain       `json:"domain"`
		Record domain.CommitRecord `json:"record"`
	}{d, record})
	sum := sha256.Sum256(payload)
	return "ref_" + hex.EncodeToString(sum[:6])
}
