package dto

type CreateLectureRequest struct {
	Input string `json:"input" binding:"required"`
	// Kind is one of text, file or slides; empty means text.
	Kind            string  `json:"kind"`
	VoiceID         string  `json:"voice_id"`
	DurationSeconds float64 `json:"duration_seconds"`
	SkipReview      bool    `json:"skip_review"`
}

type CreateLectureResponse struct {
	JobID     string   `json:"job_id"`
	OutputDir string   `json:"output_dir"`
	VideoPath string   `json:"video_path"`
	Artifacts []string `json:"artifacts"`
}

type JobStatusResponse struct {
	JobID     string            `json:"job_id"`
	Status    string            `json:"status"`
	OutputDir string            `json:"output_dir"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
