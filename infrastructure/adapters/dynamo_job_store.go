package adapters

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/config"
	"github.com/jonghyeuk/auto-mpeg/domain"
)

type dynamoJobItem struct {
	JobId     string            `dynamodbav:"job_id"`
	Status    string            `dynamodbav:"status"`
	SourceRef string            `dynamodbav:"source_ref"`
	OutputDir string            `dynamodbav:"output_dir"`
	CreatedAt string            `dynamodbav:"created_at"`
	UpdatedAt string            `dynamodbav:"updated_at"`
	Metadata  map[string]string `dynamodbav:"metadata,omitempty"`
	TTL       int64             `dynamodbav:"ttl"`
}

type dynamoJobStore struct {
	logger       outbound.LoggerPort
	dynamoSvc    *dynamodb.DynamoDB
	dynamoConfig *config.DynamoConfig
}

func NewDynamoJobStore(logger outbound.LoggerPort, dynamoSvc *dynamodb.DynamoDB, dynamoConfig *config.DynamoConfig) outbound.JobStorePort {
	return &dynamoJobStore{
		logger:       logger,
		dynamoSvc:    dynamoSvc,
		dynamoConfig: dynamoConfig,
	}
}

func (s *dynamoJobStore) Save(ctx context.Context, job *domain.Job) error {
	item := dynamoJobItem{
		JobId:     job.ID,
		Status:    string(job.Status),
		SourceRef: job.SourceRef,
		OutputDir: job.OutputDir,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
		UpdatedAt: job.UpdatedAt.Format(time.RFC3339),
		Metadata:  job.Metadata,
		TTL:       time.Now().Add(time.Duration(s.dynamoConfig.TtlDays) * 24 * time.Hour).Unix(),
	}
	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		s.logger.ErrorWithFields(err, "Failed to marshal job item", map[string]interface{}{
			"job": job.ID,
		})
		return err
	}

	input := &dynamodb.PutItemInput{
		Item:      av,
		TableName: aws.String(s.dynamoConfig.TableName),
	}

	if _, err = s.dynamoSvc.PutItemWithContext(ctx, input); err != nil {
		s.logger.ErrorWithFields(err, "Failed to save job item", map[string]interface{}{
			"job": job.ID,
		})
		return err
	}
	return nil
}

func (s *dynamoJobStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.dynamoConfig.TableName),
		Key: map[string]*dynamodb.AttributeValue{
			"job_id": {S: aws.String(jobID)},
		},
	}

	out, err := s.dynamoSvc.GetItemWithContext(ctx, input)
	if err != nil {
		s.logger.ErrorWithFields(err, "Failed to read job item", map[string]interface{}{
			"job": jobID,
		})
		return nil, err
	}
	if out.Item == nil {
		return nil, domain.ValidationErrorf("job %s not found", jobID)
	}

	var item dynamoJobItem
	if err = dynamodbattribute.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}

	createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, item.UpdatedAt)
	return &domain.Job{
		ID:        item.JobId,
		Status:    domain.JobStatus(item.Status),
		SourceRef: item.SourceRef,
		OutputDir: item.OutputDir,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Metadata:  item.Metadata,
	}, nil
}
