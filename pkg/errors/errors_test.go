package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeValidation, "no geometry for slot %q", "before")

	if err.Code != ErrCodeValidation {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeValidation)
	}

	if err.Message != `no geometry for slot "before"` {
		t.Errorf("Message = %v, want %v", err.Message, `no geometry for slot "before"`)
	}

	expected := `VALIDATION: no geometry for slot "before"`
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeUploadFailed, cause, "upload failed")

	if err.Code != ErrCodeUploadFailed {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeUploadFailed)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeValidation, "test"),
			code:     ErrCodeValidation,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeValidation, "test"),
			code:     ErrCodeTimeout,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodePermanentRemote, New(ErrCodeValidation, "inner"), "outer"),
			code:     ErrCodePermanentRemote,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeValidation,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeValidation,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "structured error",
			err:      New(ErrCodeTimeout, "job timed out"),
			expected: ErrCodeTimeout,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "wrapped structured error",
			err:      Wrap(ErrCodeTransientRemote, errors.New("503"), "remote hiccup"),
			expected: ErrCodeTransientRemote,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeValidation, "bad slot")); got != "bad slot" {
		t.Errorf("UserMessage() = %v, want %v", got, "bad slot")
	}
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage() = %v, want %v", got, "plain error")
	}
}

func TestRemoteStatusError(t *testing.T) {
	err := &RemoteStatusError{StatusCode: 403}
	if got := err.Error(); got != "remote status 403" {
		t.Errorf("Error() = %v, want %v", got, "remote status 403")
	}

	err = &RemoteStatusError{StatusCode: 404, Message: "request not found"}
	if got := err.Error(); got != "remote status 404: request not found" {
		t.Errorf("Error() = %v, want %v", got, "remote status 404: request not found")
	}
}
