package config

import (
	"fmt"
	"os"
	"strconv"
)

type SpeechConfig struct {
	ApiUrl          string
	ApiKey          string
	ModelId         string
	Stability       float64
	SimilarityBoost float64
}

func GetSpeechConfig() (*SpeechConfig, error) {
	apiUrl := os.Getenv("SPEECH_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("SPEECH_API_URL must be set")
	}
	apiKey := os.Getenv("SPEECH_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("SPEECH_API_KEY must be set")
	}
	modelId := os.Getenv("SPEECH_MODEL_ID")
	if modelId == "" {
		return nil, fmt.Errorf("SPEECH_MODEL_ID must be set")
	}
	stability := os.Getenv("SPEECH_STABILITY")
	if stability == "" {
		return nil, fmt.Errorf("SPEECH_STABILITY must be set")
	}
	stabilityVal, err := strconv.ParseFloat(stability, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse speech stability")
	}
	similarityBoost := os.Getenv("SPEECH_SIMILARITY_BOOST")
	if similarityBoost == "" {
		return nil, fmt.Errorf("SPEECH_SIMILARITY_BOOST must be set")
	}
	similarityBoostVal, err := strconv.ParseFloat(similarityBoost, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse speech similarity boost")
	}

	return &SpeechConfig{
		ApiUrl:          apiUrl,
		ApiKey:          apiKey,
		ModelId:         modelId,
		Stability:       stabilityVal,
		SimilarityBoost: similarityBoostVal,
	}, nil
}
