// Package config provides configuration management for the document translator.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"docx-translator/internal/logger"
	"docx-translator/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "docx-translator-config.json"
	// EnvDeepLAPIKey is the environment variable name for the DeepL API key
	EnvDeepLAPIKey = "DEEPL_API_KEY"
	// EnvDeepLBaseURL is the environment variable name for the DeepL base URL
	EnvDeepLBaseURL = "DEEPL_BASE_URL"
	// DefaultBaseURL is the default DeepL API base URL
	DefaultBaseURL = "https://api.deepl.com"
	// DefaultConcurrency is the default number of concurrent document jobs.
	// DeepL document translation is slow and rate limited; two in flight
	// matches the provider's guidance for document endpoints.
	DefaultConcurrency = 2
	// DefaultRequestPacingMS is the default delay between API requests
	DefaultRequestPacingMS = 1000
	// DefaultOutputDir is the default output directory
	DefaultOutputDir = "./out"
	// DefaultTempDir is the default temporary directory
	DefaultTempDir = "./temp"
	// DefaultReportDir is the default directory for run reports
	DefaultReportDir = "./reports"
)

// Manager loads and holds the application configuration.
type Manager struct {
	configPath string
	config     *types.Config
}

// NewManager creates a Manager for the given config path. An empty path
// selects the default location in the user's home directory. A .env file in
// the working directory is loaded first so DEEPL_API_KEY can come from there.
func NewManager(configPath string) (*Manager, error) {
	// Missing .env is fine; environment variables still apply.
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded .env file")
	}

	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to get user home directory", err)
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "docx-translator", DefaultConfigFileName)
	}

	logger.Info("config manager initialized", logger.String("configPath", configPath))
	return &Manager{
		configPath: configPath,
		config:     defaultConfig(),
	}, nil
}

func defaultConfig() *types.Config {
	return &types.Config{
		DeepLAPIKey:     "",
		DeepLBaseURL:    DefaultBaseURL,
		Concurrency:     DefaultConcurrency,
		RequestPacingMS: DefaultRequestPacingMS,
		OutputDir:       DefaultOutputDir,
		TempDir:         DefaultTempDir,
		StrictMode:      true,
		RawPatch:        false,
		ReportDir:       DefaultReportDir,
	}
}

// Load reads the configuration file. A missing file falls back to defaults;
// invalid JSON is reported as a warning and defaults are used.
func (m *Manager) Load() error {
	logger.Debug("loading configuration", logger.String("path", m.configPath))

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("config file not found, using defaults", logger.String("path", m.configPath))
			m.config = defaultConfig()
		} else {
			logger.Error("failed to read config file", err, logger.String("path", m.configPath))
			return types.NewAppError(types.ErrConfig, "failed to read config file", err)
		}
	} else {
		config := &types.Config{}
		if err := json.Unmarshal(data, config); err != nil {
			logger.Warn("invalid config file format, using defaults",
				logger.String("path", m.configPath), logger.Err(err))
			m.config = defaultConfig()
		} else {
			logger.Info("configuration loaded",
				logger.String("path", m.configPath),
				logger.Int("apiKeyLength", len(config.DeepLAPIKey)),
				logger.String("baseURL", config.DeepLBaseURL))
			m.config = config
		}
	}

	// Apply defaults for empty fields
	if m.config.DeepLBaseURL == "" {
		m.config.DeepLBaseURL = DefaultBaseURL
	}
	if m.config.Concurrency <= 0 {
		m.config.Concurrency = DefaultConcurrency
	}
	if m.config.RequestPacingMS <= 0 {
		m.config.RequestPacingMS = DefaultRequestPacingMS
	}
	if m.config.OutputDir == "" {
		m.config.OutputDir = DefaultOutputDir
	}
	if m.config.TempDir == "" {
		m.config.TempDir = DefaultTempDir
	}
	if m.config.ReportDir == "" {
		m.config.ReportDir = DefaultReportDir
	}

	return nil
}

// Save writes the current configuration to the config file.
func (m *Manager) Save() error {
	logger.Debug("saving configuration", logger.String("path", m.configPath))

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("failed to create config directory", err, logger.String("dir", dir))
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		logger.Error("failed to marshal config", err)
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		logger.Error("failed to write config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved", logger.String("path", m.configPath))
	return nil
}

// GetAPIKey returns the DeepL API key, preferring the config file value and
// falling back to the environment.
func (m *Manager) GetAPIKey() string {
	if m.config != nil && m.config.DeepLAPIKey != "" {
		return m.config.DeepLAPIKey
	}
	return os.Getenv(EnvDeepLAPIKey)
}

// SetAPIKey sets the DeepL API key and saves the configuration.
func (m *Manager) SetAPIKey(key string) error {
	if m.config == nil {
		m.config = defaultConfig()
	}
	m.config.DeepLAPIKey = key
	return m.Save()
}

// GetBaseURL returns the DeepL API base URL, preferring the config file value
// and falling back to the environment.
func (m *Manager) GetBaseURL() string {
	if m.config != nil && m.config.DeepLBaseURL != "" {
		return m.config.DeepLBaseURL
	}
	if envURL := os.Getenv(EnvDeepLBaseURL); envURL != "" {
		return envURL
	}
	return DefaultBaseURL
}

// GetConfig returns the current configuration.
func (m *Manager) GetConfig() *types.Config {
	if m.config == nil {
		return defaultConfig()
	}
	return m.config
}

// GetConfigPath returns the path to the config file.
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// GetConcurrency returns the number of concurrent document jobs.
func (m *Manager) GetConcurrency() int {
	if m.config != nil && m.config.Concurrency > 0 {
		return m.config.Concurrency
	}
	return DefaultConcurrency
}
