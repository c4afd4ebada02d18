package service

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "pdf-epub-converter/pkg/errors"
)

type mockLogger struct{}

func (l *mockLogger) Info(msg string, fields ...interface{})             {}
func (l *mockLogger) Error(msg string, err error, fields ...interface{}) {}
func (l *mockLogger) Debug(msg string, fields ...interface{})            {}
func (l *mockLogger) Warn(msg string, fields ...interface{})             {}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

func expectValidationError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("expected validation error type, got %v", err)
	}
}

func TestValidate_RejectsWrongExtension(t *testing.T) {
	v := NewFileValidator(1<<20, &mockLogger{})
	path := writeFile(t, "book.txt", []byte("%PDF-1.7 content"))

	expectValidationError(t, v.Validate(path))
}

func TestValidate_RejectsEmptyFile(t *testing.T) {
	v := NewFileValidator(1<<20, &mockLogger{})
	path := writeFile(t, "book.pdf", nil)

	expectValidationError(t, v.Validate(path))
}

func TestValidate_RejectsOversizedFile(t *testing.T) {
	v := NewFileValidator(10, &mockLogger{})
	path := writeFile(t, "book.pdf", []byte("%PDF-1.7 this is well over ten bytes"))

	expectValidationError(t, v.Validate(path))
}

func TestValidate_RejectsMissingMagicBytes(t *testing.T) {
	v := NewFileValidator(1<<20, &mockLogger{})
	path := writeFile(t, "book.pdf", []byte("not a pdf at all"))

	expectValidationError(t, v.Validate(path))
}

func TestValidate_RejectsMissingFile(t *testing.T) {
	v := NewFileValidator(1<<20, &mockLogger{})

	expectValidationError(t, v.Validate(filepath.Join(t.TempDir(), "missing.pdf")))
}

func TestValidate_RejectsTruncatedPDF(t *testing.T) {
	v := NewFileValidator(1<<20, &mockLogger{})
	// Correct magic bytes but no document structure behind them.
	path := writeFile(t, "book.pdf", []byte("%PDF-1.7\ngarbage"))

	expectValidationError(t, v.Validate(path))
}
