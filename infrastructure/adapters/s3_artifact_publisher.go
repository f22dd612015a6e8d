package adapters

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/config"
)

type s3ArtifactPublisher struct {
	logger   outbound.LoggerPort
	s3Svc    *s3.S3
	s3Config *config.S3Config
}

func NewS3ArtifactPublisher(logger outbound.LoggerPort, s3Svc *s3.S3, s3Config *config.S3Config) outbound.ArtifactPublisherPort {
	return &s3ArtifactPublisher{
		logger:   logger,
		s3Svc:    s3Svc,
		s3Config: s3Config,
	}
}

// Publish uploads one packaged artifact under the job's prefix. The local
// file stays in place; the job directory remains the source of truth.
func (s *s3ArtifactPublisher) Publish(ctx context.Context, req outbound.PublishArtifactRequest) (*outbound.PublishArtifactResponse, error) {
	itemPath := fmt.Sprintf("jobs/%s/%s", req.JobID, req.Name)

	file, err := os.Open(req.LocalPath)
	if err != nil {
		s.logger.Error(err, "Failed to open artifact file")
		return nil, err
	}
	defer func(file *os.File) {
		if closeErr := file.Close(); closeErr != nil {
			s.logger.Error(closeErr, "Failed to close artifact file")
		}
	}(file)

	putInput := &s3.PutObjectInput{
		Bucket: aws.String(s.s3Config.BucketName),
		Key:    aws.String(itemPath),
		Body:   file,
	}

	if _, err = s.s3Svc.PutObjectWithContext(ctx, putInput); err != nil {
		s.logger.ErrorWithFields(err, "Failed to upload artifact to S3", map[string]interface{}{
			"key": itemPath,
		})
		return nil, err
	}

	return &outbound.PublishArtifactResponse{
		Key:    itemPath,
		Region: s.s3Config.Region,
	}, nil
}
