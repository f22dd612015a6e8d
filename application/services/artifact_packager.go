package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jonghyeuk/auto-mpeg/application/ports/inbound"
	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/domain"
)

// Fixed artifact names inside a job's output directory.
const (
	VideoArtifact      = "final.mp4"
	PlainVideoArtifact = "final_nocaptions.mp4"
	CaptionsArtifact   = "captions.ass"
	AudioArtifact      = "narration.mp3"
	ScriptArtifact     = "script.json"
	ThumbnailArtifact  = "thumbnail.png"
	MetadataArtifact   = "metadata.json"
)

type jobMetadata struct {
	JobID             string    `json:"job_id"`
	SourceRef         string    `json:"source_ref"`
	Title             string    `json:"title"`
	Duration          float64   `json:"duration_seconds"`
	Resolution        string    `json:"resolution"`
	FileSize          int64     `json:"file_size_bytes"`
	CreatedAt         time.Time `json:"created_at"`
	ProcessingSeconds float64   `json:"processing_seconds"`
}

type artifactPackager struct {
	logger outbound.LoggerPort
}

func NewArtifactPackager(logger outbound.LoggerPort) inbound.ArtifactPackagerPort {
	return &artifactPackager{logger: logger}
}

// Package copies each artifact into the job directory under its fixed name
// and writes the metadata document. Every write goes through a temp file and
// rename, so a re-run against a partially populated directory never leaves a
// half-written file behind a final name.
func (p *artifactPackager) Package(ctx context.Context, params inbound.PackageParams) (*domain.OutputPackage, error) {
	job := params.Job
	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	out := &domain.OutputPackage{Job: job}

	var err error
	if out.VideoPath, err = p.copyArtifact(params.VideoPath, job.OutputDir, VideoArtifact); err != nil {
		return nil, err
	}
	if params.PlainVideo != "" {
		if out.PlainVideo, err = p.copyArtifact(params.PlainVideo, job.OutputDir, PlainVideoArtifact); err != nil {
			return nil, err
		}
	}
	if out.AudioPath, err = p.copyArtifact(params.AudioPath, job.OutputDir, AudioArtifact); err != nil {
		return nil, err
	}
	if params.Thumbnail != "" {
		if out.ThumbnailPath, err = p.copyArtifact(params.Thumbnail, job.OutputDir, ThumbnailArtifact); err != nil {
			return nil, err
		}
	}

	captionsPath := filepath.Join(job.OutputDir, CaptionsArtifact)
	if err = p.writeFileAtomic(captionsPath, []byte(params.Captions)); err != nil {
		return nil, err
	}
	out.CaptionsPath = captionsPath

	scriptPath := filepath.Join(job.OutputDir, ScriptArtifact)
	if err = p.writeJSONAtomic(scriptPath, params.Script); err != nil {
		return nil, err
	}
	out.ScriptPath = scriptPath

	size := int64(0)
	if info, statErr := os.Stat(out.VideoPath); statErr == nil {
		size = info.Size()
	}
	metadataPath := filepath.Join(job.OutputDir, MetadataArtifact)
	if err = p.writeJSONAtomic(metadataPath, jobMetadata{
		JobID:             job.ID,
		SourceRef:         job.SourceRef,
		Title:             params.Script.Title,
		Duration:          params.Duration,
		Resolution:        fmt.Sprintf("%dx%d", params.Width, params.Height),
		FileSize:          size,
		CreatedAt:         job.CreatedAt,
		ProcessingSeconds: params.ProcessingSeconds,
	}); err != nil {
		return nil, err
	}
	out.MetadataPath = metadataPath

	p.logger.InfoWithFields("artifacts packaged", map[string]interface{}{
		"job":   job.ID,
		"dir":   job.OutputDir,
		"video": out.VideoPath,
	})
	return out, nil
}

func (p *artifactPackager) copyArtifact(src, dir, name string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open artifact %s: %w", src, err)
	}
	defer in.Close()

	dst := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", name, err)
	}
	if _, err = io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("copy artifact %s: %w", name, err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("finalize artifact %s: %w", name, err)
	}
	return dst, nil
}

func (p *artifactPackager) writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (p *artifactPackager) writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return p.writeFileAtomic(path, data)
}
