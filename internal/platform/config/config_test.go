package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second || cfg.Server.WriteTimeout != 15*time.Second {
		t.Errorf("unexpected read/write timeouts: %s/%s", cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	}
	if cfg.Server.IdleTimeout != time.Minute {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.Server.TemplatesDir != "templates" || cfg.Server.PublicDir != "public" {
		t.Errorf("unexpected dirs: %s %s", cfg.Server.TemplatesDir, cfg.Server.PublicDir)
	}
	if cfg.Catalog.Source != "products.xml" {
		t.Errorf("unexpected catalog source %s", cfg.Catalog.Source)
	}
	if cfg.Catalog.FetchTimeout != 0 {
		t.Errorf("expected no fetch timeout, got %s", cfg.Catalog.FetchTimeout)
	}
	if cfg.Cart.Backend != BackendMemory || cfg.Cart.StorageKey != "jumpship_cart" {
		t.Errorf("unexpected cart config %+v", cfg.Cart)
	}
	if cfg.Firestore.Collection != "carts" {
		t.Errorf("unexpected collection %s", cfg.Firestore.Collection)
	}
	if cfg.Search.BrowseLimit != 12 || cfg.Search.Debounce != 180*time.Millisecond {
		t.Errorf("unexpected search config %+v", cfg.Search)
	}
	if cfg.Environment != "local" || cfg.Production() {
		t.Errorf("expected local environment, got %s", cfg.Environment)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unexpected log level %s", cfg.LogLevel)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"JUMPSHIP_WEB_PORT":                "9090",
		"JUMPSHIP_WEB_READ_TIMEOUT":        "20s",
		"JUMPSHIP_WEB_DEV":                 "yes",
		"JUMPSHIP_CATALOG_SOURCE":          "gs://bucket/catalog.yaml",
		"JUMPSHIP_CATALOG_FETCH_TIMEOUT":   "5s",
		"JUMPSHIP_CART_BACKEND":            "Firestore",
		"JUMPSHIP_FIRESTORE_PROJECT_ID":    "jumpship-prod",
		"JUMPSHIP_FIRESTORE_EMULATOR_HOST": "localhost:8081",
		"JUMPSHIP_SEARCH_BROWSE_LIMIT":     "24",
		"JUMPSHIP_SEARCH_DEBOUNCE":         "250ms",
		"JUMPSHIP_SESSION_SIGNING_KEY":     "s3cret",
		"JUMPSHIP_ENV":                     "PROD",
		"JUMPSHIP_LOG_LEVEL":               "debug",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" || cfg.Server.ReadTimeout != 20*time.Second || !cfg.Server.DevMode {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Catalog.Source != "gs://bucket/catalog.yaml" || cfg.Catalog.FetchTimeout != 5*time.Second {
		t.Errorf("unexpected catalog config %+v", cfg.Catalog)
	}
	if cfg.Cart.Backend != BackendFirestore {
		t.Errorf("expected firestore backend, got %s", cfg.Cart.Backend)
	}
	if cfg.Firestore.ProjectID != "jumpship-prod" || cfg.Firestore.EmulatorHost != "localhost:8081" {
		t.Errorf("unexpected firestore config %+v", cfg.Firestore)
	}
	if cfg.Search.BrowseLimit != 24 || cfg.Search.Debounce != 250*time.Millisecond {
		t.Errorf("unexpected search config %+v", cfg.Search)
	}
	if cfg.Session.SigningKey != "s3cret" {
		t.Errorf("unexpected signing key")
	}
	if !cfg.Production() {
		t.Errorf("expected production environment")
	}
}

func TestLoadSecretsSection(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{
		"JUMPSHIP_FIRESTORE_PROJECT_ID": "carts-proj",
		"JUMPSHIP_SESSION_SIGNING_KEY":  "secret://session_signing_key",
	}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Secrets.ProjectID != "carts-proj" {
		t.Errorf("expected secret project to default to the firestore project, got %q", cfg.Secrets.ProjectID)
	}
	if cfg.Secrets.FallbackFile != ".secrets.local" {
		t.Errorf("unexpected fallback file %q", cfg.Secrets.FallbackFile)
	}
	if cfg.Session.SigningKey != "secret://session_signing_key" {
		t.Errorf("signing key reference should pass through, got %q", cfg.Session.SigningKey)
	}

	cfg, err = Load(WithEnvMap(map[string]string{
		"JUMPSHIP_FIRESTORE_PROJECT_ID":    "carts-proj",
		"JUMPSHIP_SECRET_PROJECT_ID":       "secrets-proj",
		"JUMPSHIP_SECRET_FALLBACK_FILE":    "/etc/jumpship/secrets",
		"JUMPSHIP_SECRET_CREDENTIALS_FILE": "/etc/jumpship/sa.json",
	}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := SecretsConfig{ProjectID: "secrets-proj", FallbackFile: "/etc/jumpship/secrets", CredentialsFile: "/etc/jumpship/sa.json"}
	if cfg.Secrets != want {
		t.Errorf("unexpected secrets config %+v", cfg.Secrets)
	}
}

func TestLoadPortFallback(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{"PORT": "7070"}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Fatalf("expected PORT fallback, got %s", cfg.Server.Port)
	}

	cfg, err = Load(WithEnvMap(map[string]string{"PORT": "7070", "JUMPSHIP_WEB_PORT": "6060"}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "6060" {
		t.Fatalf("expected explicit port to win, got %s", cfg.Server.Port)
	}
}

func TestLoadValidation(t *testing.T) {
	env := map[string]string{
		"JUMPSHIP_CART_BACKEND":        "redis",
		"JUMPSHIP_SEARCH_BROWSE_LIMIT": "0",
	}
	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []string{"Cart.Backend", "Search.BrowseLimit"}
	if !reflect.DeepEqual(vErr.Fields(), want) {
		t.Fatalf("expected fields %v, got %v", want, vErr.Fields())
	}

	_, err = Load(WithEnvMap(map[string]string{"JUMPSHIP_CART_BACKEND": "firestore"}), WithoutSystemEnv(), WithEnvFile(""))
	if !errors.As(err, &vErr) || !reflect.DeepEqual(vErr.Fields(), []string{"Firestore.ProjectID"}) {
		t.Fatalf("expected firestore project validation error, got %v", err)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# local overrides\nexport JUMPSHIP_WEB_PORT=3000\nJUMPSHIP_CART_BACKEND=\"file\"\nJUMPSHIP_CART_FILE_DIR='/tmp/carts'\ninvalid line\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(WithEnvFile(path), WithoutSystemEnv(), WithEnvMap(map[string]string{"JUMPSHIP_WEB_PORT": "4000"}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "4000" {
		t.Errorf("expected env map to override .env, got %s", cfg.Server.Port)
	}
	if cfg.Cart.Backend != BackendFile || cfg.Cart.FileDir != "/tmp/carts" {
		t.Errorf("unexpected cart config from .env: %+v", cfg.Cart)
	}
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	if _, err := Load(WithEnvFile(filepath.Join(t.TempDir(), "absent.env")), WithoutSystemEnv()); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
}
