package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
)

func TestIsTransient_ExplicitTransientError(t *testing.T) {
	err := NewTransientError(errors.New("server overloaded"), 503)
	if !IsTransient(err) {
		t.Error("expected TransientError to be transient")
	}
}

func TestIsTransient_WrappedTransientError(t *testing.T) {
	inner := NewTransientError(errors.New("rate limited"), 429)
	wrapped := fmt.Errorf("cms call failed: %w", inner)
	if !IsTransient(wrapped) {
		t.Error("expected wrapped TransientError to be transient")
	}
}

func TestIsTransient_NilError(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error should not be transient")
	}
}

func TestIsTransient_RegularError(t *testing.T) {
	if IsTransient(errors.New("invalid input: missing field")) {
		t.Error("regular error should not be transient")
	}
}

func TestIsTransient_ConnectionRefused(t *testing.T) {
	err := fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED)
	if !IsTransient(err) {
		t.Error("ECONNREFUSED should be transient")
	}
}

func TestIsTransient_NetworkTimeout(t *testing.T) {
	err := &net.DNSError{IsTimeout: true, Err: "timeout"}
	if !IsTransient(err) {
		t.Error("network timeout should be transient")
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("expected HTTP %d to be transient", code)
		}
	}
	for _, code := range []int{200, 201, 400, 401, 403, 404, 422} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("expected HTTP %d to NOT be transient", code)
		}
	}
}

func TestUpstream_MatchesKindAndCause(t *testing.T) {
	cause := NewTransientError(errors.New("bad gateway"), 502)
	err := Upstream(cause, "cms: list categories")

	if !IsUpstream(err) {
		t.Error("expected upstream error to match ErrUpstreamUnavailable")
	}
	if !IsTransient(err) {
		t.Error("expected transient cause to stay reachable")
	}
	if err.Error() != "cms: list categories: bad gateway" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestUpstream_SurvivesErisWrap(t *testing.T) {
	err := eris.Wrap(Upstream(nil, "geocode: status 503"), "taxonomy: fetch vocabulary")
	if !IsUpstream(err) {
		t.Error("expected eris-wrapped upstream error to match")
	}
	if IsNotFound(err) {
		t.Error("upstream error must not match ErrNotFound")
	}
}

func TestIsNotFound_Wrapped(t *testing.T) {
	err := eris.Wrap(ErrNotFound, "geocode: Fabriano")
	if !IsNotFound(err) {
		t.Error("expected wrapped ErrNotFound to match")
	}
	if IsUpstream(err) {
		t.Error("not-found must not match upstream")
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("root cause")
	te := NewTransientError(inner, 500)

	if !errors.Is(te, inner) {
		t.Error("TransientError.Unwrap should return the inner error")
	}
	if te.StatusCode != 500 {
		t.Errorf("expected StatusCode 500, got %d", te.StatusCode)
	}
}
