package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	rerrors "github.com/sylph-dev/sylph/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.BasePath != DefaultBasePath {
		t.Errorf("BasePath = %q, want %q", cfg.BasePath, DefaultBasePath)
	}
	if cfg.Public != DefaultPublic {
		t.Errorf("Public = %q, want %q", cfg.Public, DefaultPublic)
	}
}

func TestLoadMissingUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != DefaultPort || cfg.BasePath != DefaultBasePath {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Public != filepath.Join(DefaultBasePath, "public") {
		t.Errorf("Public = %q", cfg.Public)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q, want empty", cfg.Path())
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configJSON := `{
  "basePath": "src",
  "apiBase": "/api/",
  "port": 8080,
  "origins": ["http://localhost:5173"],
  "historyMode": true,
  "static": {
    "bucket": "assets",
    "region": "eu-west-1"
  }
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, "sylph.json"), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BasePath != "src" {
		t.Errorf("BasePath = %q, want src", cfg.BasePath)
	}
	if cfg.APIBase != "api" {
		t.Errorf("APIBase = %q, want api", cfg.APIBase)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if !reflect.DeepEqual(cfg.Origins, []string{"http://localhost:5173"}) {
		t.Errorf("Origins = %v", cfg.Origins)
	}
	if !cfg.HistoryMode {
		t.Error("HistoryMode should be true")
	}
	if cfg.Static.Bucket != "assets" || cfg.Static.Region != "eu-west-1" {
		t.Errorf("Static = %+v", cfg.Static)
	}
	if cfg.Public != filepath.Join("src", "public") {
		t.Errorf("Public = %q, want public under the base path", cfg.Public)
	}
	if cfg.Dir() != tmpDir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), tmpDir)
	}
	if cfg.BaseDir() != filepath.Join(tmpDir, "src") {
		t.Errorf("BaseDir() = %q", cfg.BaseDir())
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	yaml := "basePath: handlers\nwatch: true\nextensions: [\".so\"]\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "sylph.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BasePath != "handlers" || !cfg.Watch {
		t.Errorf("cfg = %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Extensions, []string{".so"}) {
		t.Errorf("Extensions = %v", cfg.Extensions)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SYLPH_APIBASE", "v1")
	t.Setenv("SYLPH_SILENT", "true")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090 from PORT", cfg.Port)
	}
	if cfg.APIBase != "v1" {
		t.Errorf("APIBase = %q, want v1", cfg.APIBase)
	}
	if !cfg.Silent {
		t.Error("Silent should be true")
	}
}

func TestLoadInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "sylph.json"), []byte("{invalid"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(tmpDir)
	if rerrors.CodeOf(err) != rerrors.CodeConfigInvalid {
		t.Errorf("Load() error = %v, want E120", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	if rerrors.CodeOf(err) != rerrors.CodeConfigNotFound {
		t.Errorf("LoadFile() error = %v, want E121", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("port = 4000\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Port != 4000 {
		t.Errorf("Port = %d, want 4000", cfg.Port)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		code string
	}{
		{"valid", Config{Port: 3000}, ""},
		{"negative port", Config{Port: -1}, rerrors.CodeInvalidPort},
		{"port too large", Config{Port: 70000}, rerrors.CodeInvalidPort},
		{"extension without dot", Config{Extensions: []string{"go"}}, rerrors.CodeConfigInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rerrors.CodeOf(tt.cfg.Validate()); got != tt.code {
				t.Errorf("Validate() code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestDiscoveryExclude(t *testing.T) {
	cfg := New()
	got := cfg.DiscoveryExclude([]string{"utils"})
	want := []string{"utils", "public"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DiscoveryExclude() = %v, want %v", got, want)
	}

	cfg.Public = "static"
	cfg.Exclude = []string{"lib"}
	got = cfg.DiscoveryExclude([]string{"utils"})
	if !reflect.DeepEqual(got, []string{"lib"}) {
		t.Errorf("DiscoveryExclude() = %v, want [lib]", got)
	}
}

func TestAddress(t *testing.T) {
	cfg := New()
	if got := cfg.Address(0); got != ":3000" {
		t.Errorf("Address(0) = %q", got)
	}
	if got := cfg.Address(8081); got != ":8081" {
		t.Errorf("Address(8081) = %q", got)
	}
	cfg.Port = 0
	if got := cfg.Address(0); got != ":3000" {
		t.Errorf("Address(0) with no port = %q", got)
	}
}
