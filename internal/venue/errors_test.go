package venue

import "testing"

func TestRetryableClassification(t *testing.T) {
	cases := []struct {
		kind      ErrorKind
		retryable bool
	}{
		{Connection, true},
		{RateLimited, true},
		{Authentication, false},
		{InvalidRequest, false},
		{OrderNotFound, false},
		{InsufficientFunds, false},
		{SymbolNotFound, false},
		{Venue, false},
		{Unknown, false},
	}
	for _, c := range cases {
		err := newError(c.kind, "x", nil)
		if err.Retryable() != c.retryable {
			t.Errorf("kind %s: expected retryable=%v, got %v", c.kind, c.retryable, err.Retryable())
		}
	}
}

func TestErrorUnwrapsCause(t *testing.T) {
	cause := errTest("boom")
	err := newError(Connection, "dial failed", cause)
	if err.Unwrap() != cause {
		t.Error("expected Unwrap to return the original cause")
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
