package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile        = ".env"
	defaultPort           = "8080"
	defaultReadTimeout    = 15 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
	defaultTemplatesDir   = "templates"
	defaultPublicDir      = "public"
	defaultCatalogSource  = "products.xml"
	defaultCartBackend    = BackendMemory
	defaultCartStorageKey = "jumpship_cart"
	defaultCartFileDir    = "data/carts"
	defaultCollection     = "carts"
	defaultBrowseLimit    = 12
	defaultDebounce       = 180 * time.Millisecond
	defaultEnvironment    = "local"
	defaultLogLevel       = "info"
	defaultSecretFallback = ".secrets.local"
)

// Cart storage backends.
const (
	BackendMemory    = "memory"
	BackendFile      = "file"
	BackendFirestore = "firestore"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server      ServerConfig
	Catalog     CatalogConfig
	Cart        CartConfig
	Firestore   FirestoreConfig
	Search      SearchConfig
	Session     SessionConfig
	Secrets     SecretsConfig
	Environment string
	LogLevel    string
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TemplatesDir string
	PublicDir    string
	DevMode      bool
}

// CatalogConfig locates the product catalog.
type CatalogConfig struct {
	Source       string
	FetchTimeout time.Duration
}

// CartConfig selects where carts persist.
type CartConfig struct {
	Backend    string
	StorageKey string
	FileDir    string
}

// FirestoreConfig stores database parameters for the firestore cart backend.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
	Collection   string
}

// SearchConfig tunes the search panel.
type SearchConfig struct {
	BrowseLimit int
	Debounce    time.Duration
}

// SessionConfig controls the signed session cookie. SigningKey may be a
// literal or a secret:// reference.
type SessionConfig struct {
	SigningKey string
}

// SecretsConfig locates Secret Manager and the local fallback file.
type SecretsConfig struct {
	ProjectID       string
	FallbackFile    string
	CredentialsFile string
}

// Production reports whether the deployment environment is prod.
func (c Config) Production() bool {
	return c.Environment == "prod"
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		if values == nil {
			o.envMap = nil
			return
		}
		cp := make(map[string]string, len(values))
		for k, v := range values {
			cp[k] = v
		}
		o.envMap = cp
	}
}

// WithoutSystemEnv disables reading from the real process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load reads configuration from the environment map, the process environment
// and the .env file, in that order of precedence, then validates it.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "JUMPSHIP_WEB_PORT", stringWithDefault(lookup, "PORT", defaultPort)),
			ReadTimeout:  durationWithDefault(lookup, "JUMPSHIP_WEB_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "JUMPSHIP_WEB_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "JUMPSHIP_WEB_IDLE_TIMEOUT", defaultIdleTimeout),
			TemplatesDir: stringWithDefault(lookup, "JUMPSHIP_WEB_TEMPLATES_DIR", defaultTemplatesDir),
			PublicDir:    stringWithDefault(lookup, "JUMPSHIP_WEB_PUBLIC_DIR", defaultPublicDir),
			DevMode:      boolWithDefault(lookup, "JUMPSHIP_WEB_DEV", false),
		},
		Catalog: CatalogConfig{
			Source:       stringWithDefault(lookup, "JUMPSHIP_CATALOG_SOURCE", defaultCatalogSource),
			FetchTimeout: durationWithDefault(lookup, "JUMPSHIP_CATALOG_FETCH_TIMEOUT", 0),
		},
		Cart: CartConfig{
			Backend:    strings.ToLower(stringWithDefault(lookup, "JUMPSHIP_CART_BACKEND", defaultCartBackend)),
			StorageKey: stringWithDefault(lookup, "JUMPSHIP_CART_STORAGE_KEY", defaultCartStorageKey),
			FileDir:    stringWithDefault(lookup, "JUMPSHIP_CART_FILE_DIR", defaultCartFileDir),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "JUMPSHIP_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "JUMPSHIP_FIRESTORE_EMULATOR_HOST", ""),
			Collection:   stringWithDefault(lookup, "JUMPSHIP_FIRESTORE_COLLECTION", defaultCollection),
		},
		Search: SearchConfig{
			BrowseLimit: intWithDefault(lookup, "JUMPSHIP_SEARCH_BROWSE_LIMIT", defaultBrowseLimit),
			Debounce:    durationWithDefault(lookup, "JUMPSHIP_SEARCH_DEBOUNCE", defaultDebounce),
		},
		Session: SessionConfig{
			SigningKey: stringWithDefault(lookup, "JUMPSHIP_SESSION_SIGNING_KEY", ""),
		},
		Environment: strings.ToLower(stringWithDefault(lookup, "JUMPSHIP_ENV", defaultEnvironment)),
		LogLevel:    stringWithDefault(lookup, "JUMPSHIP_LOG_LEVEL", defaultLogLevel),
	}

	cfg.Secrets = SecretsConfig{
		ProjectID:       stringWithDefault(lookup, "JUMPSHIP_SECRET_PROJECT_ID", cfg.Firestore.ProjectID),
		FallbackFile:    stringWithDefault(lookup, "JUMPSHIP_SECRET_FALLBACK_FILE", defaultSecretFallback),
		CredentialsFile: stringWithDefault(lookup, "JUMPSHIP_SECRET_CREDENTIALS_FILE", ""),
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if strings.TrimSpace(cfg.Server.Port) == "" {
		missing = append(missing, "Server.Port")
	}
	switch cfg.Cart.Backend {
	case BackendMemory, BackendFile:
	case BackendFirestore:
		if cfg.Firestore.ProjectID == "" {
			missing = append(missing, "Firestore.ProjectID")
		}
	default:
		missing = append(missing, "Cart.Backend")
	}
	if cfg.Cart.Backend == BackendFile && strings.TrimSpace(cfg.Cart.FileDir) == "" {
		missing = append(missing, "Cart.FileDir")
	}
	if cfg.Search.BrowseLimit <= 0 {
		missing = append(missing, "Search.BrowseLimit")
	}
	if cfg.Catalog.FetchTimeout < 0 {
		missing = append(missing, "Catalog.FetchTimeout")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
