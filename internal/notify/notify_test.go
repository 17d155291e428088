package notify

import (
	"context"
	"errors"
	"testing"
)

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) Notify(context.Context, string, string, Severity) error {
	r.calls++
	return r.err
}

func TestMultiFansOut(t *testing.T) {
	t.Parallel()

	a := &recordingNotifier{}
	b := &recordingNotifier{}
	m := NewMulti(nil, a, b)

	if err := m.Notify(context.Background(), "s", "m", SeverityHigh); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls = %d, %d; want 1, 1", a.calls, b.calls)
	}
}

func TestMultiContinuesPastFailure(t *testing.T) {
	t.Parallel()

	failure := errors.New("webhook down")
	a := &recordingNotifier{err: failure}
	b := &recordingNotifier{}
	m := NewMulti(nil, a, b)

	err := m.Notify(context.Background(), "s", "m", SeverityCritical)
	if !errors.Is(err, failure) {
		t.Errorf("err = %v, want first failure", err)
	}
	if b.calls != 1 {
		t.Error("second notifier skipped after first failed")
	}
}

func TestMultiEmpty(t *testing.T) {
	t.Parallel()

	m := NewMulti(nil)
	if err := m.Notify(context.Background(), "s", "m", SeverityLow); err != nil {
		t.Fatalf("Notify: %v", err)
	}
}
