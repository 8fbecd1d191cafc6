// config.go: settings struct and functions to load and save the settings.
package conf

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// PerchSettings contains settings for the Perch bird vocalization classifier.
type PerchSettings struct {
	ModelPath     string  // path to the TensorFlow Lite model file
	LabelPath     string  // path to the label file, empty to use perch_labels.csv next to the model
	MinConfidence float64 // minimum confidence for reported detections
	Overlap       float64 // overlap between analysis chunks in seconds
	Latitude      float64 // latitude of the recording site
	Longitude     float64 // longitude of the recording site
	Threads       int     // number of CPU threads for inference, 0 for auto
	RangeFilter   RangeFilterSettings
}

// RangeFilterSettings restricts reported species to those plausible at the
// configured latitude and longitude.
type RangeFilterSettings struct {
	Enabled   bool    // true to filter species by location
	Threshold float64 // minimum occurrence score for a species to pass
}

// InputSettings describes the audio input to analyze.
type InputSettings struct {
	Path      string // path to input file or directory
	Recursive bool   // true to scan subdirectories
}

// OutputSettings contains settings for analysis result sinks.
type OutputSettings struct {
	File struct {
		Enabled bool   // true to write results to a file
		Path    string // path to the result file, empty for stdout
		Type    string // output type, "table" or "csv"
	}
	SQLite struct {
		Enabled bool   // true to mirror detections into SQLite
		Path    string // path to the SQLite database file
	}
}

// CacheSettings contains settings for the on-disk CSV result cache.
type CacheSettings struct {
	Enabled bool   // true to load cached results instead of re-analyzing
	Path    string // directory holding cache CSV files
}

// WebServerSettings contains settings for the dashboard web server.
type WebServerSettings struct {
	Enabled bool   // true to enable the web dashboard
	Port    string // port to listen on
	Debug   bool   // true to enable debug request logging
}

// MQTTSettings contains settings for publishing detections over MQTT.
type MQTTSettings struct {
	Enabled  bool   // true to enable MQTT publishing
	Broker   string // MQTT broker URL
	Topic    string // MQTT topic to publish detections on
	Username string // MQTT username
	Password string // MQTT password
	Retain   bool   // true to set the retained flag on published messages
}

// LogSettings contains settings for application file logging.
type LogSettings struct {
	Enabled bool   // true to enable file logging
	Path    string // path to the log file
}

// MainSettings contains general application settings.
type MainSettings struct {
	Name string // node name, included in log records and MQTT payloads
	Log  LogSettings
}

// Settings is the root configuration struct.
type Settings struct {
	Debug bool // true to enable debug output

	Main      MainSettings
	Perch     PerchSettings
	Input     InputSettings
	Output    OutputSettings
	Cache     CacheSettings
	WebServer WebServerSettings
	MQTT      MQTTSettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment into a Settings struct.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// Setting returns the current settings instance, nil before Load.
func Setting() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create one with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes a config file with default values to the first
// default config path and points viper at it.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	defaults := Settings{}
	if err := viper.Unmarshal(&defaults); err != nil {
		return fmt.Errorf("error unmarshaling defaults: %w", err)
	}

	yamlData, err := yaml.Marshal(&defaults)
	if err != nil {
		return fmt.Errorf("error marshaling default config: %w", err)
	}

	if err := os.WriteFile(configPath, yamlData, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	log.Printf("Created default config file at %s", configPath)
	return viper.ReadInConfig()
}

// GetDefaultConfigPaths returns the config file search paths in priority
// order: working directory first, then the user config directory.
func GetDefaultConfigPaths() ([]string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user config directory: %w", err)
	}

	return []string{
		".",
		filepath.Join(configDir, "perchview"),
	}, nil
}
