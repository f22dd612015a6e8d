package adapters

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/config"
	"github.com/jonghyeuk/auto-mpeg/domain"
)

type ffmpegRenderer struct {
	logger       outbound.LoggerPort
	renderConfig *config.RenderConfig
}

func NewFFMPEGRenderer(renderConfig *config.RenderConfig, logger outbound.LoggerPort) outbound.RendererPort {
	return &ffmpegRenderer{
		logger:       logger,
		renderConfig: renderConfig,
	}
}

// Render assembles the narration track, the slide video with overlay boxes,
// the caption burn and the thumbnail, all inside req.WorkDir.
func (r *ffmpegRenderer) Render(ctx context.Context, req outbound.RenderRequest) (*outbound.RenderResult, error) {
	if len(req.AudioSegments) == 0 {
		return nil, domain.ValidationErrorf("no audio segments to render")
	}

	audioPath, err := r.concatAudio(ctx, req.WorkDir, req.AudioSegments)
	if err != nil {
		return nil, err
	}

	plainPath, err := r.composeVideo(ctx, req, audioPath)
	if err != nil {
		return nil, err
	}

	videoPath := plainPath
	if req.CaptionsPath != "" {
		videoPath, err = r.burnCaptions(ctx, req.WorkDir, plainPath, req.CaptionsPath)
		if err != nil {
			return nil, err
		}
	}

	thumbnailPath, err := r.extractThumbnail(ctx, req.WorkDir, videoPath)
	if err != nil {
		return nil, err
	}

	return &outbound.RenderResult{
		VideoPath:      videoPath,
		PlainVideoPath: plainPath,
		AudioPath:      audioPath,
		ThumbnailPath:  thumbnailPath,
	}, nil
}

// concatAudio joins the per-line segments into one narration track using the
// concat demuxer, stream-copied to avoid a re-encode.
func (r *ffmpegRenderer) concatAudio(ctx context.Context, workDir string, segments []string) (string, error) {
	listPath := filepath.Join(workDir, "audio_list.txt")
	var list strings.Builder
	for _, segment := range segments {
		fmt.Fprintf(&list, "file '%s'\n", escapeConcatPath(segment))
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return "", err
	}

	outPath := filepath.Join(workDir, "narration.mp3")
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	}
	if err := r.runFFMPEG(ctx, args); err != nil {
		return "", err
	}
	return outPath, nil
}

// composeVideo builds the caption-free video: slide stills shown for their
// timeline windows (or a plain background when no images exist), overlay
// boxes enabled during their cue windows, narration as the audio track.
func (r *ffmpegRenderer) composeVideo(ctx context.Context, req outbound.RenderRequest, audioPath string) (string, error) {
	outPath := filepath.Join(req.WorkDir, "video_nocaptions.mp4")

	var args []string
	if len(req.SlideImages) > 0 {
		listPath := filepath.Join(req.WorkDir, "slide_list.txt")
		list, err := r.slideConcatList(req.SlideImages, req.SlideWindows)
		if err != nil {
			return "", err
		}
		if err = os.WriteFile(listPath, []byte(list), 0o644); err != nil {
			return "", err
		}
		args = []string{
			"-y",
			"-f", "concat",
			"-safe", "0",
			"-i", listPath,
			"-i", audioPath,
		}
	} else {
		background := fmt.Sprintf("color=c=0x1e2430:s=%dx%d:r=%d",
			r.renderConfig.FrameWidth, r.renderConfig.FrameHeight, r.renderConfig.FrameRate)
		args = []string{
			"-y",
			"-f", "lavfi",
			"-i", background,
			"-i", audioPath,
		}
	}

	filter := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		r.renderConfig.FrameWidth, r.renderConfig.FrameHeight,
		r.renderConfig.FrameWidth, r.renderConfig.FrameHeight)
	if boxes := cueFilters(req.Cues); boxes != "" {
		filter += "," + boxes
	}

	args = append(args,
		"-vf", filter,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-pix_fmt", "yuv420p",
		"-r", fmt.Sprintf("%d", r.renderConfig.FrameRate),
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		outPath,
	)
	if err := r.runFFMPEG(ctx, args); err != nil {
		return "", err
	}
	return outPath, nil
}

// slideConcatList emits the concat demuxer script pairing each slide image
// with its display duration. The final entry is repeated per demuxer rules.
func (r *ffmpegRenderer) slideConcatList(images []string, windows []domain.TimelineSegment) (string, error) {
	if len(windows) != len(images) {
		return "", domain.ValidationErrorf("have %d slide images but %d display windows", len(images), len(windows))
	}
	var list strings.Builder
	for i, image := range images {
		duration := windows[i].End - windows[i].Start
		if duration <= 0 {
			continue
		}
		fmt.Fprintf(&list, "file '%s'\n", escapeConcatPath(image))
		fmt.Fprintf(&list, "duration %.3f\n", duration)
	}
	if len(images) > 0 {
		fmt.Fprintf(&list, "file '%s'\n", escapeConcatPath(images[len(images)-1]))
	}
	return list.String(), nil
}

// burnCaptions re-encodes the video with the subtitle track rendered in.
func (r *ffmpegRenderer) burnCaptions(ctx context.Context, workDir, videoPath, captionsPath string) (string, error) {
	outPath := filepath.Join(workDir, "video_captions.mp4")
	args := []string{
		"-y",
		"-i", videoPath,
		"-vf", "ass=" + captionsPath,
		"-c:a", "copy",
		outPath,
	}
	if err := r.runFFMPEG(ctx, args); err != nil {
		return "", err
	}
	return outPath, nil
}

func (r *ffmpegRenderer) extractThumbnail(ctx context.Context, workDir, videoPath string) (string, error) {
	outPath := filepath.Join(workDir, "thumbnail.png")
	args := []string{
		"-y",
		"-ss", "1",
		"-i", videoPath,
		"-vframes", "1",
		outPath,
	}
	if err := r.runFFMPEG(ctx, args); err != nil {
		return "", err
	}
	return outPath, nil
}

func (r *ffmpegRenderer) runFFMPEG(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, r.renderConfig.FfmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.DebugWithFields("running ffmpeg", map[string]interface{}{
		"args": strings.Join(args, " "),
	})
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.ErrorWithFields(err, "ffmpeg failed", map[string]interface{}{
			"stderr": tail(stderr.String(), 800),
		})
		return fmt.Errorf("%w: %v: %s", domain.ErrRender, err, tail(stderr.String(), 200))
	}
	return nil
}

// cueFilters renders each overlay cue as a drawbox enabled only inside its
// time window.
func cueFilters(cues []domain.OverlayCue) string {
	var filters []string
	for _, cue := range cues {
		filters = append(filters, fmt.Sprintf(
			"drawbox=x=%.0f:y=%.0f:w=%.0f:h=%.0f:color=yellow@0.8:t=6:enable='between(t,%.3f,%.3f)'",
			cue.Box.X, cue.Box.Y, cue.Box.Width, cue.Box.Height, cue.Start, cue.End))
	}
	return strings.Join(filters, ",")
}

func escapeConcatPath(p string) string {
	return strings.ReplaceAll(p, "'", `'\''`)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
