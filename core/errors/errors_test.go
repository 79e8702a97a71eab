package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ParseError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "without path",
			err:      &ParseError{Format: "storage", Message: "unexpected EOF"},
			wantMsg:  "failed to parse storage: unexpected EOF",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "with path",
			err:      &ParseError{Format: "storage", Path: "old.xml", Message: "mismatched tag"},
			wantMsg:  "failed to parse storage at old.xml: mismatched tag",
			wantBase: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	// Test with underlying error separately
	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("decoder error")
		err := &ParseError{Format: "storage", Message: "bad token", Err: underlyingErr}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "marker", ID: "abc"},
			wantMsg:  "marker not found: abc",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "body"},
			wantMsg:  "body not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}
}

func TestNewParse(t *testing.T) {
	err := NewParse("storage", "", "stray close tag")
	if !Is(err, ErrInvalidInput) {
		t.Error("NewParse error should unwrap to ErrInvalidInput")
	}
	var perr *ParseError
	if !As(err, &perr) {
		t.Fatal("NewParse error should be a *ParseError")
	}
	if perr.Format != "storage" {
		t.Errorf("Format = %q, want %q", perr.Format, "storage")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("marker", "r1")
	if !Is(err, ErrNotFound) {
		t.Error("NewNotFound error should unwrap to ErrNotFound")
	}
}

func TestWrap(t *testing.T) {
	base := NewParse("storage", "", "broken")
	wrapped := Wrap(base, "parsing old body")
	if want := "parsing old body: failed to parse storage: broken"; wrapped.Error() != want {
		t.Errorf("Error() = %q, want %q", wrapped.Error(), want)
	}
	if !Is(wrapped, ErrInvalidInput) {
		t.Error("wrapping should not break the sentinel chain")
	}
	var perr *ParseError
	if !As(wrapped, &perr) {
		t.Error("wrapping should not hide the ParseError type")
	}

	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapf(t *testing.T) {
	base := errors.New("boom")
	wrapped := Wrapf(base, "step %d of %s", 2, "pipeline")
	if want := "step 2 of pipeline: boom"; wrapped.Error() != want {
		t.Errorf("Error() = %q, want %q", wrapped.Error(), want)
	}
	if !Is(wrapped, base) {
		t.Error("Wrapf should keep the error chain")
	}

	if Wrapf(nil, "step %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}
}
