package config

import (
	"fmt"
	"os"
)

type TranscriberConfig struct {
	ApiUrl  string
	ApiKey  string
	ModelId string
}

func GetTranscriberConfig() (*TranscriberConfig, error) {
	apiUrl := os.Getenv("TRANSCRIBE_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("TRANSCRIBE_API_URL must be set")
	}
	apiKey := os.Getenv("TRANSCRIBE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("TRANSCRIBE_API_KEY must be set")
	}
	modelId := os.Getenv("TRANSCRIBE_MODEL_ID")
	if modelId == "" {
		return nil, fmt.Errorf("TRANSCRIBE_MODEL_ID must be set")
	}
	return &TranscriberConfig{
		ApiUrl:  apiUrl,
		ApiKey:  apiKey,
		ModelId: modelId,
	}, nil
}
