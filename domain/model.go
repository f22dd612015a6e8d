package domain

import "time"

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Job is one end-to-end pipeline run for a single input. Only the
// orchestrator mutates it; stages receive copies of whatever they need.
type Job struct {
	ID        string            `json:"id"`
	Status    JobStatus         `json:"status"`
	SourceRef string            `json:"source_ref"`
	OutputDir string            `json:"output_dir"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func NewJob(id, sourceRef, outputDir string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        id,
		Status:    JobPending,
		SourceRef: sourceRef,
		OutputDir: outputDir,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  make(map[string]string),
	}
}

func (j *Job) SetStatus(s JobStatus) {
	j.Status = s
	j.UpdatedAt = time.Now().UTC()
}

type SectionKind string

const (
	SectionHook         SectionKind = "hook"
	SectionIntroduction SectionKind = "introduction"
	SectionMain         SectionKind = "main"
	SectionSummary      SectionKind = "summary"
	SectionConclusion   SectionKind = "conclusion"
	SectionCallToAction SectionKind = "call_to_action"
)

// ScriptLine is one narrated utterance. Text is immutable once generated;
// Start and End are filled by speech synthesis, in master-timeline seconds.
type ScriptLine struct {
	ID         string   `json:"id"`
	SectionID  string   `json:"section_id"`
	Text       string   `json:"text"`
	Ordinal    int      `json:"ordinal"`
	SlideIndex int      `json:"slide_index"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Keywords   []string `json:"keywords,omitempty"`
}

type ScriptSection struct {
	ID      string       `json:"id"`
	Kind    SectionKind  `json:"kind"`
	Ordinal int          `json:"ordinal"`
	Lines   []ScriptLine `json:"lines"`
}

// Script is the full generated narration document, persisted as script.json.
type Script struct {
	Title    string          `json:"title"`
	Sections []ScriptSection `json:"sections"`
}

// Lines returns every script line across sections in narration order.
func (s Script) Lines() []ScriptLine {
	var lines []ScriptLine
	for _, section := range s.Sections {
		lines = append(lines, section.Lines...)
	}
	return lines
}

// WordCount counts whitespace-separated tokens across the whole script.
func (s Script) WordCount() int {
	count := 0
	for _, line := range s.Lines() {
		count += len(SplitWords(line.Text))
	}
	return count
}

// OutlineSection is the structural plan for one script section before any
// prose exists: what to cover, which slide it belongs to and how long it
// should run.
type OutlineSection struct {
	Kind          SectionKind `json:"kind"`
	Topic         string      `json:"topic"`
	SlideIndex    int         `json:"slide_index"`
	TargetSeconds float64     `json:"target_seconds"`
}

type Outline struct {
	Title    string           `json:"title"`
	Sections []OutlineSection `json:"sections"`
}

type ElementRole string

const (
	RoleTitle   ElementRole = "title"
	RoleBody    ElementRole = "body"
	RoleTextbox ElementRole = "textbox"
	RolePicture ElementRole = "picture"
	RoleOther   ElementRole = "other"
)

// BoundingBox is a screen region in output pixel space.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}

// SlideElement is one positioned text or picture block on a slide, produced
// by the external deck parser. Read-only to the pipeline.
type SlideElement struct {
	SlideIndex int         `json:"slide_index"`
	Role       ElementRole `json:"role"`
	Text       string      `json:"text"`
	Box        BoundingBox `json:"box"`
}

// Slide groups the parsed content of a single deck page.
type Slide struct {
	Index     int            `json:"index"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Notes     string         `json:"notes,omitempty"`
	ImagePath string         `json:"image_path,omitempty"`
	Elements  []SlideElement `json:"elements,omitempty"`
}

// WordTimestamp is a spoken word with timing relative to its owning
// utterance segment, produced by the transcription service.
type WordTimestamp struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type CueConfidence string

const (
	CueExact        CueConfidence = "exact"
	CueInterpolated CueConfidence = "interpolated"
)

// OverlayCue drives one on-screen highlight: a box, an absolute time window
// and the keyword it marks. Produced only by the alignment engine.
type OverlayCue struct {
	Box        BoundingBox   `json:"box"`
	Start      float64       `json:"start"`
	End        float64       `json:"end"`
	Text       string        `json:"text"`
	Confidence CueConfidence `json:"confidence"`
}

type IssueSeverity string

const (
	SeverityLow      IssueSeverity = "low"
	SeverityMedium   IssueSeverity = "medium"
	SeverityHigh     IssueSeverity = "high"
	SeverityCritical IssueSeverity = "critical"
)

type QualityIssue struct {
	Severity    IssueSeverity `json:"severity"`
	Category    string        `json:"category"`
	Description string        `json:"description"`
	// LineID points at the offending script line, when the reviewer named one.
	LineID string `json:"line_id,omitempty"`
}

type Recommendation string

const (
	RecommendApprove Recommendation = "approve"
	RecommendRevise  Recommendation = "revise"
	RecommendReject  Recommendation = "reject"
)

type QualityVerdict struct {
	Score          int            `json:"score"`
	Issues         []QualityIssue `json:"issues"`
	Recommendation Recommendation `json:"recommendation"`
}

// Caption is one subtitle event, wrapped to at most two display lines.
type Caption struct {
	Index   int     `json:"index"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	FadeIn  bool    `json:"fade_in"`
	FadeOut bool    `json:"fade_out"`
}

// OutputPackage lists the packaged artifacts of a completed job.
type OutputPackage struct {
	Job           *Job   `json:"job"`
	VideoPath     string `json:"video_path"`
	PlainVideo    string `json:"plain_video_path,omitempty"`
	CaptionsPath  string `json:"captions_path"`
	AudioPath     string `json:"audio_path"`
	ScriptPath    string `json:"script_path"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
	MetadataPath  string `json:"metadata_path"`
}
