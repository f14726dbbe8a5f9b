package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessageFormat(t *testing.T) {
	err := newResponseError(KindTooManyRequests, 429, Object{"detail": "slow down"})
	if got := err.Error(); got != "taxjar: too_many_requests (HTTP 429): slow down" {
		t.Fatalf("Error() = %s", got)
	}

	terr := NewTransportError(errors.New("connection refused"))
	if got := terr.Error(); got != "taxjar: transport_error: connection refused" {
		t.Fatalf("Error() = %s", got)
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	err := fmt.Errorf("lookup rate: %w", newResponseError(KindForbidden, 403, nil))
	if !IsForbidden(err) || IsNotFound(err) {
		t.Fatalf("unexpected classification for %v", err)
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatalf("plain errors have no kind")
	}
}

func TestNewTransportErrorKeepsTypedErrors(t *testing.T) {
	orig := newParseError(0, "bad url", nil)
	if got := NewTransportError(orig); got != error(orig) {
		t.Fatalf("typed error was rewrapped: %v", got)
	}
	if NewTransportError(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestIsTimeout(t *testing.T) {
	err := NewTransportError(fmt.Errorf("post: %w", context.DeadlineExceeded))
	if !IsTimeout(err) {
		t.Fatalf("deadline exceeded should be a timeout")
	}
	if IsTimeout(NewTransportError(errors.New("reset"))) {
		t.Fatalf("reset is not a timeout")
	}
	if IsTimeout(context.DeadlineExceeded) {
		t.Fatalf("only transport errors are timeouts")
	}
}

func TestKindStrings(t *testing.T) {
	for k := KindParse; k <= KindTransport; k++ {
		if s := k.String(); s == "unknown" || strings.ContainsAny(s, " -") {
			t.Fatalf("kind %d has bad name %q", k, s)
		}
	}
	if _, ok := KindForStatus(302); ok {
		t.Fatalf("302 must not be mapped")
	}
}
