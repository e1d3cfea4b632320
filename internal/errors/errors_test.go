package errors

import (
	"fmt"
	"testing"
)

func TestStoreErrorFormatting(t *testing.T) {
	err := NewStoreError("write user field", ErrWriteFailed).
		WithKey("users/u1").
		WithField("activeFocus")

	msg := err.Error()
	want := "store error [key=users/u1, field=activeFocus]: write user field: durable write failed"
	if msg != want {
		t.Errorf("Error() = %q, want %q", msg, want)
	}
}

func TestStoreErrorIsRetryableByDefault(t *testing.T) {
	err := NewStoreError("write", nil)
	if !IsRetryable(err) {
		t.Error("IsRetryable(StoreError) = false, want true")
	}

	if IsRetryable(err.WithRetryable(false)) {
		t.Error("IsRetryable(non-retryable StoreError) = true, want false")
	}
}

func TestCoordinationErrorUnwrapsSentinel(t *testing.T) {
	err := NewCoordinationError("clear focus", ErrNotAdmin).WithUserID("u2")

	if !Is(err, ErrNotAdmin) {
		t.Error("Is(err, ErrNotAdmin) = false, want true")
	}
	if IsRetryable(err) {
		t.Error("IsRetryable(CoordinationError) = true, want false")
	}
	if !IsUserFacing(err) {
		t.Error("IsUserFacing(CoordinationError) = false, want true")
	}
}

func TestWrappedErrorsClassify(t *testing.T) {
	inner := NewStoreError("flaky disk", nil)
	wrapped := fmt.Errorf("persist timer: %w", inner)

	if !IsRetryable(wrapped) {
		t.Error("IsRetryable(wrapped StoreError) = false, want true")
	}

	var storeErr *StoreError
	if !As(wrapped, &storeErr) {
		t.Error("As(wrapped, *StoreError) = false, want true")
	}
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("task", "t-42")
	if got, want := err.Error(), "task 't-42' not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !IsUserFacing(err) {
		t.Error("IsUserFacing(NotFoundError) = false, want true")
	}
}

func TestValidationErrorMatchesInvalidInput(t *testing.T) {
	err := NewValidationError("task ID cannot be empty").WithField("taskId")
	if !Is(err, ErrInvalidInput) {
		t.Error("Is(ValidationError, ErrInvalidInput) = false, want true")
	}
}

func TestGetSeverity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{name: "nil", err: nil, want: SeverityDebug},
		{name: "store error", err: NewStoreError("x", nil), want: SeverityWarning},
		{name: "coordination error", err: NewCoordinationError("x", nil), want: SeverityError},
		{name: "plain error", err: New("plain"), want: SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSeverity(tt.err); got != tt.want {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) != nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil) != nil")
	}
}
