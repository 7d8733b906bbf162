package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pagopa/opex-dashboard/internal/config"
)

func TestWriteSampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := writeSampleConfig(path, false); err != nil {
		t.Fatalf("writeSampleConfig failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Opex dashboard configuration") {
		t.Error("Expected header comment")
	}
	if !strings.Contains(string(data), "# app-gateway or api-management") {
		t.Error("Expected resource_type comment")
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected sample to be valid: %v", err)
	}
	if len(cfg.Overrides.Endpoints) != 1 || cfg.Overrides.Endpoints[0].Key != "GET /api/v1/services/{service_id}" {
		t.Errorf("Unexpected endpoint overrides: %+v", cfg.Overrides.Endpoints)
	}
}

func TestWriteSampleConfig_Exists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("name: keep\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := writeSampleConfig(path, false); err == nil {
		t.Fatal("Expected error when config exists")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "name: keep\n" {
		t.Error("Existing config was modified")
	}

	if err := writeSampleConfig(path, true); err != nil {
		t.Fatalf("Expected --force to overwrite: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) == "name: keep\n" {
		t.Error("Expected config to be overwritten")
	}
}
