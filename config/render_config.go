package config

import (
	"os"
	"strconv"
)

type RenderConfig struct {
	FfmpegPath  string
	FfprobePath string
	FrameWidth  int
	FrameHeight int
	FrameRate   int
}

// GetRenderConfig has usable defaults for every field: rendering works on
// any host with ffmpeg on PATH.
func GetRenderConfig() *RenderConfig {
	cfg := &RenderConfig{
		FfmpegPath:  "ffmpeg",
		FfprobePath: "ffprobe",
		FrameWidth:  1920,
		FrameHeight: 1080,
		FrameRate:   30,
	}
	if v := os.Getenv("FFMPEG_PATH"); v != "" {
		cfg.FfmpegPath = v
	}
	if v := os.Getenv("FFPROBE_PATH"); v != "" {
		cfg.FfprobePath = v
	}
	if v, err := strconv.Atoi(os.Getenv("FRAME_WIDTH")); err == nil && v > 0 {
		cfg.FrameWidth = v
	}
	if v, err := strconv.Atoi(os.Getenv("FRAME_HEIGHT")); err == nil && v > 0 {
		cfg.FrameHeight = v
	}
	if v, err := strconv.Atoi(os.Getenv("FRAME_RATE")); err == nil && v > 0 {
		cfg.FrameRate = v
	}
	return cfg
}
