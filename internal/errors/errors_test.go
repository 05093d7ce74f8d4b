package errors

import (
	"fmt"
	"testing"
)

func TestVaultError_Error(t *testing.T) {
	err := &VaultError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "prompt not found",
	}

	expected := "NOT_FOUND: prompt not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("text is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "text is required" {
		t.Errorf("Message = %q, want %q", err.Message, "text is required")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("prompt", 42)

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["id"] != int64(42) {
		t.Errorf("Details[id] = %v, want 42", err.Details["id"])
	}
}

func TestNewNameAlreadyExists(t *testing.T) {
	err := NewNameAlreadyExists("Planning")

	if err.Code != ErrNameAlreadyExists {
		t.Errorf("Code = %q, want %q", err.Code, ErrNameAlreadyExists)
	}
	if err.Status != 409 {
		t.Errorf("Status = %d, want 409", err.Status)
	}
	if err.Details["name"] != "Planning" {
		t.Errorf("Details[name] = %v, want %q", err.Details["name"], "Planning")
	}
}

func TestStorageConstructors(t *testing.T) {
	cause := fmt.Errorf("disk full")

	tests := []struct {
		name string
		err  *VaultError
		code ErrorCode
	}{
		{"init", NewStorageInit(cause), ErrStorageInit},
		{"read", NewStorageRead(cause), ErrStorageRead},
		{"write", NewStorageWrite(cause), ErrStorageWrite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Status != 500 {
				t.Errorf("Status = %d, want 500", tt.err.Status)
			}
		})
	}
}

func TestNewEnrichment(t *testing.T) {
	err := NewEnrichment("draft", fmt.Errorf("timeout"))

	if err.Code != ErrEnrichment {
		t.Errorf("Code = %q, want %q", err.Code, ErrEnrichment)
	}
	if err.Details["stage"] != "draft" {
		t.Errorf("Details[stage] = %v, want %q", err.Details["stage"], "draft")
	}
}

func TestNewInternal(t *testing.T) {
	err := NewInternal(fmt.Errorf("boom"))
	if err.Message != "boom" {
		t.Errorf("Message = %q, want %q", err.Message, "boom")
	}

	err = NewInternal(nil)
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	err := NewNotFound("prompt", 1)

	if !Is(err, ErrNotFound) {
		t.Error("Is() = false for matching code, want true")
	}
	if Is(err, ErrStorageWrite) {
		t.Error("Is() = true for non-matching code, want false")
	}
	if Is(fmt.Errorf("plain"), ErrNotFound) {
		t.Error("Is() = true for non-VaultError, want false")
	}
}
