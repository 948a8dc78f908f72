package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	OutputDir     string            `json:"output_dir"`
	DocWorkers    int               `json:"doc_workers"`
	ImageWorkers  int               `json:"image_workers"`
	RetryAttempts int               `json:"retry_attempts"`
	RetryDelaySec int               `json:"retry_delay_sec"`
	ImageRPS      float64           `json:"image_rps"` // 0 means unlimited
	Headers       map[string]string `json:"headers"`
	AccessToken   string            `json:"access_token"`
}

var GlobalConfig = Config{
	OutputDir:     "docs",
	DocWorkers:    10,
	ImageWorkers:  10,
	RetryAttempts: 3,
	RetryDelaySec: 3,
}

// LoadConfig overlays settings from a JSON file onto the defaults.
// A missing file is not an error. The PAPER_ACCESS_TOKEN environment
// variable always wins over the file's access_token.
func LoadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv()
			return nil // Use defaults
		}
		return err
	}
	if err := json.Unmarshal(data, &GlobalConfig); err != nil {
		return err
	}
	applyEnv()
	return nil
}

func applyEnv() {
	if tok := os.Getenv("PAPER_ACCESS_TOKEN"); tok != "" {
		GlobalConfig.AccessToken = tok
	}
}
