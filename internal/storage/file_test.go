package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStorage_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	s, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}
	defer s.Close()

	if err := s.Write("env/dev/terraform.tfvars", []byte("prefix = \"opex\"\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "env", "dev", "terraform.tfvars"))
	if err != nil {
		t.Fatalf("Expected file on disk: %v", err)
	}
	if string(data) != "prefix = \"opex\"\n" {
		t.Errorf("Unexpected content %q", data)
	}

	read, err := s.Read("env/dev/terraform.tfvars")
	if err != nil || string(read) != string(data) {
		t.Errorf("Read mismatch: %q, %v", read, err)
	}

	if names := s.List(); len(names) != 1 || names[0] != "env/dev/terraform.tfvars" {
		t.Errorf("Unexpected list %v", names)
	}
}

func TestFileStorage_RejectsEscapes(t *testing.T) {
	s, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}

	if err := s.Write("../escape.tf", []byte("x")); err == nil {
		t.Error("Expected error for path outside the root")
	}
}

func TestFileStorage_ReadMissing(t *testing.T) {
	s, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}

	if _, err := s.Read("nope.tf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
