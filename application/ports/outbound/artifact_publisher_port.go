package outbound

import "context"

type PublishArtifactRequest struct {
	JobID string
	// LocalPath is the packaged artifact on disk.
	LocalPath string
	// Name is the fixed artifact name inside the job's remote prefix.
	Name string
}

type PublishArtifactResponse struct {
	Key    string
	Region string
}

// ArtifactPublisherPort uploads packaged artifacts to remote storage.
// Optional: the pipeline completes without one configured.
type ArtifactPublisherPort interface {
	Publish(ctx context.Context, req PublishArtifactRequest) (*PublishArtifactResponse, error)
}
