package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := NewNameConflict("Plumbers NYC")
	if !strings.Contains(err.Error(), "NAME_CONFLICT") {
		t.Errorf("expected code in error string, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "Plumbers NYC") {
		t.Errorf("expected name in error string, got %q", err.Error())
	}
}

func TestIs(t *testing.T) {
	if !Is(NewEmptyName(), ErrEmptyName) {
		t.Error("Is should match EMPTY_NAME")
	}
	if Is(NewEmptyName(), ErrNameConflict) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrInternal) {
		t.Error("Is should not match a non-ArchiveError")
	}
	if Is(nil, ErrInternal) {
		t.Error("Is should not match nil")
	}
}

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		err    *ArchiveError
		status int
	}{
		{NewEmptyName(), 400},
		{NewInvalidRequest("bad"), 400},
		{NewUnknownCommand("nope"), 400},
		{NewBatchNotFound("01ABC"), 404},
		{NewNameConflict("x"), 409},
		{NewPageRetrieval("https://example.com"), 422},
		{NewStorage(nil), 500},
		{NewInternal(nil), 500},
	}
	for _, tc := range cases {
		if tc.err.Status != tc.status {
			t.Errorf("%s: expected status %d, got %d", tc.err.Code, tc.status, tc.err.Status)
		}
	}
}

func TestNilWrappedMessages(t *testing.T) {
	if NewStorage(nil).Message != "storage error" {
		t.Error("NewStorage(nil) should use fallback message")
	}
	if NewInternal(nil).Message != "internal error" {
		t.Error("NewInternal(nil) should use fallback message")
	}
}
