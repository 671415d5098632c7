package errors

import (
	stderrors "errors"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeEmptyCorpus, "no files matched in %s", "/tmp/project")
	want := "EMPTY_CORPUS: no files matched in /tmp/project"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	cause := stderrors.New("connection refused")
	wrapped := Wrap(ErrCodeSourceUnavailable, cause, "cannot reach github")
	if wrapped.Error() != "SOURCE_UNAVAILABLE: cannot reach github: connection refused" {
		t.Errorf("wrapped Error() = %q", wrapped.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("timeout")
	err := Wrap(ErrCodeTimeout, cause, "gateway call")

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeProvider, "auth rejected")

	if !Is(err, ErrCodeProvider) {
		t.Error("Is should match the error's code")
	}
	if Is(err, ErrCodeRateLimited) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeProvider) {
		t.Error("Is should not match a plain error")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeCancelled, "run cancelled")); got != ErrCodeCancelled {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeCancelled)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode on plain error = %q, want empty", got)
	}

	// Code survives wrapping with fmt-style chains.
	inner := New(ErrCodeExtractionParse, "bad yaml")
	outer := Wrap(ErrCodeInternal, inner, "batch 2")
	if got := GetCode(outer); got != ErrCodeInternal {
		t.Errorf("GetCode should return outermost code, got %q", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeEmptyCorpus, "no files matched")
	if UserMessage(err) != "no files matched" {
		t.Errorf("UserMessage = %q", UserMessage(err))
	}
	plain := stderrors.New("boom")
	if UserMessage(plain) != "boom" {
		t.Errorf("UserMessage on plain error = %q", UserMessage(plain))
	}
}

func TestValidateProjectName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"fastapi", false},
		{"my-project_1.2", false},
		{"", true},
		{"../etc", true},
		{"a/b", true},
		{"nul\x00byte", true},
		{"tab\tname", true},
	}

	for _, tt := range tests {
		err := ValidateProjectName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateProjectName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestValidateGlobPattern(t *testing.T) {
	tests := []struct {
		pattern string
		wantErr bool
	}{
		{"*.go", false},
		{"tests/*", false},
		{"", true},
		{"bad\x00", true},
	}

	for _, tt := range tests {
		err := ValidateGlobPattern(tt.pattern)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateGlobPattern(%q) error = %v, wantErr %v", tt.pattern, err, tt.wantErr)
		}
	}
}
