package resilient

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/footrag/internal/domain/query"
	"github.com/kailas-cloud/footrag/internal/domain/table"
	"github.com/kailas-cloud/footrag/internal/metrics"
)

func TestDatastore_RetriesTransientSearch(t *testing.T) {
	inner := &fakeStore{errs: []error{transient("connection reset"), transient("too many clients")}}
	d := NewDatastore(inner, fastPolicy(3), nil)

	before := testutil.ToFloat64(metrics.RetryAttemptsTotal.WithLabelValues(OpSearch))
	docs, err := d.SearchBySimilarity(context.Background(), table.Players, []float32{0.1}, query.NewFilters(nil), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 3 || len(docs) != 1 {
		t.Errorf("expected 3 calls and 1 doc, got %d calls, %d docs", inner.calls, len(docs))
	}
	if got := testutil.ToFloat64(metrics.RetryAttemptsTotal.WithLabelValues(OpSearch)) - before; got != 2 {
		t.Errorf("expected 2 retries recorded, got %v", got)
	}
}

func TestDatastore_NonTransientReturnedAtOnce(t *testing.T) {
	inner := &fakeStore{errs: []error{errors.New("syntax error at or near")}}
	d := NewDatastore(inner, fastPolicy(3), nil)

	srt, err := query.NewSort("goals", "DESC")
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	if _, err := d.SearchRanked(context.Background(), table.Players, query.NewFilters(nil), srt, 5); err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call, got %d", inner.calls)
	}
}

func TestDatastore_FiltersGiveUpAfterAttempts(t *testing.T) {
	inner := &fakeStore{errs: []error{transient("a"), transient("b")}}
	d := NewDatastore(inner, fastPolicy(2), nil)

	docs, err := d.SearchByFilters(context.Background(), table.Teams, query.NewFilters(nil), 5, nil)
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if docs != nil || inner.calls != 2 {
		t.Errorf("expected nil docs after 2 calls, got %v after %d", docs, inner.calls)
	}
}
