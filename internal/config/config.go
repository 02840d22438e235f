package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"printwatch/internal/apperr"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is looked up inside the base directory when CONFIG_PATH is unset.
	DefaultConfigFile = "config.yaml"
	// DefaultMaxFrames bounds the frames directory; 0 disables pruning.
	DefaultMaxFrames = 500
)

type Config struct {
	StreamURL      string
	ModelPath      string
	ClassNames     []string
	ImgSize        int
	MinConfidence  float64
	ErrorClasses   []string
	WarningClasses []string
	WebhookURL     string
	WebhookTimeout time.Duration
	FramesDir      string
	ResultsDir     string
	LogDebug       bool
	MaxFrames      int // Ile klatek trzymać na dysku (0 = bez limitu)

	Port         int
	BaseDir      string
	ConfigPath   string
	LogDirectory string
	DatabasePath string // Pusty = historia wyłączona
	APIToken     string
}

// fileConfig mirrors the keys recognized in config.yaml.
type fileConfig struct {
	StreamURL      string    `yaml:"stream_url"`
	ModelPath      string    `yaml:"model_path"`
	ClassNames     []string  `yaml:"class_names"`
	ImgSize        yamlInt   `yaml:"imgsz"`
	MinConfidence  yamlFloat `yaml:"min_confidence"`
	ErrorClasses   []string  `yaml:"error_classes"`
	WarningClasses []string  `yaml:"warning_classes"`
	WebhookURL     string    `yaml:"ha_webhook_url"`
	WebhookTimeout yamlInt   `yaml:"ha_webhook_timeout"`
	FramesDir      string    `yaml:"frames_dir"`
	ResultsDir     string    `yaml:"results_dir"`
	LogDebug       bool      `yaml:"log_debug"`
	MaxFrames      yamlInt   `yaml:"max_frames"`
}

// yamlInt accepts quoted numbers ("10") and truncates plain floats (10.5),
// the way the numeric keys have always been coerced.
type yamlInt int

func (v *yamlInt) UnmarshalYAML(node *yaml.Node) error {
	text := strings.TrimSpace(node.Value)
	if n, err := strconv.Atoi(text); err == nil {
		*v = yamlInt(n)
		return nil
	}
	if node.Tag == "!!float" {
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			*v = yamlInt(f)
			return nil
		}
	}
	return fmt.Errorf("line %d: cannot use %q as an integer", node.Line, node.Value)
}

// yamlFloat accepts plain and quoted numbers.
type yamlFloat float64

func (v *yamlFloat) UnmarshalYAML(node *yaml.Node) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(node.Value), 64)
	if err != nil {
		return fmt.Errorf("line %d: cannot use %q as a number", node.Line, node.Value)
	}
	*v = yamlFloat(f)
	return nil
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		ImgSize:        640,
		MinConfidence:  0.8,
		ErrorClasses:   []string{},
		WarningClasses: []string{},
		WebhookTimeout: 10,
		FramesDir:      "frames",
		ResultsDir:     filepath.Join("runs", "detect"),
		MaxFrames:      DefaultMaxFrames,
	}
}

// Load reads an optional .env file, resolves the base directory and
// decodes config.yaml. Environment variables only cover process-level
// settings (port, paths, token); detection settings live in the yaml file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Could not load .env file: %v", err)
	}

	baseDir, err := filepath.Abs(getEnv("BASE_DIR", "."))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfig, "config.Load", "cannot resolve base directory", err)
	}

	cfg, err := LoadFile(baseDir, getEnv("CONFIG_PATH", filepath.Join(baseDir, DefaultConfigFile)))
	if err != nil {
		return nil, err
	}

	cfg.Port = getEnvAsInt("PORT", 5000)
	cfg.LogDirectory = getEnv("LOG_DIR", filepath.Join(baseDir, "logs"))
	cfg.DatabasePath = filepath.Join(baseDir, "data", "printwatch.db")
	if value, ok := os.LookupEnv("DB_PATH"); ok {
		cfg.DatabasePath = value
	}
	cfg.APIToken = getEnv("API_TOKEN", "")

	return cfg, nil
}

// LoadFile decodes the yaml document at path. Relative paths inside it are
// resolved against baseDir. Keys absent from the document keep their defaults.
func LoadFile(baseDir, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.New(apperr.KindConfig, "config.LoadFile", fmt.Sprintf("config.yaml not found in %s", path))
		}
		return nil, apperr.Wrap(apperr.KindConfig, "config.LoadFile", "cannot read config file", err)
	}

	raw := defaultFileConfig()
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, apperr.Wrap(apperr.KindConfig, "config.LoadFile", fmt.Sprintf("invalid config file %s", path), err)
	}

	return &Config{
		StreamURL:      raw.StreamURL,
		ModelPath:      resolve(baseDir, raw.ModelPath),
		ClassNames:     raw.ClassNames,
		ImgSize:        int(raw.ImgSize),
		MinConfidence:  float64(raw.MinConfidence),
		ErrorClasses:   raw.ErrorClasses,
		WarningClasses: raw.WarningClasses,
		WebhookURL:     raw.WebhookURL,
		WebhookTimeout: time.Duration(raw.WebhookTimeout) * time.Second,
		FramesDir:      resolve(baseDir, raw.FramesDir),
		ResultsDir:     resolve(baseDir, raw.ResultsDir),
		LogDebug:       raw.LogDebug,
		MaxFrames:      int(raw.MaxFrames),
		BaseDir:        baseDir,
		ConfigPath:     path,
		Port:           5000,
		LogDirectory:   filepath.Join(baseDir, "logs"),
	}, nil
}

// Validate reports startup errors that must prevent the server from serving.
func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return apperr.New(apperr.KindConfig, "config.Validate", "model_path is not set")
	}
	if _, err := os.Stat(c.ModelPath); os.IsNotExist(err) {
		return apperr.New(apperr.KindConfig, "config.Validate", fmt.Sprintf("YOLO model not found in %s", c.ModelPath))
	}
	return nil
}

// ClassNameMap turns the ordered class_names list into the id → name table
// produced by the detector.
func (c *Config) ClassNameMap() map[int]string {
	names := make(map[int]string, len(c.ClassNames))
	for id, name := range c.ClassNames {
		names[id] = name
	}
	return names
}

// UnknownClasses lists the error_classes and warning_classes entries that
// are missing from class_names. Detections of such classes are reported by
// id, so these entries can never match.
func (c *Config) UnknownClasses() []string {
	var unknown []string
	for _, name := range append(append([]string{}, c.ErrorClasses...), c.WarningClasses...) {
		if !slices.Contains(c.ClassNames, name) && !slices.Contains(unknown, name) {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

func resolve(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(baseDir, p))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
