package controllers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonghyeuk/auto-mpeg/application/ports/inbound"
	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/channel_utils"
	"github.com/jonghyeuk/auto-mpeg/infrastructure/adapters"
	"github.com/jonghyeuk/auto-mpeg/infrastructure/gin_interface/dto"
)

type LectureJobsController interface {
	CreateLecture(c *gin.Context)
	GetJob(c *gin.Context)
	StreamEvents(c *gin.Context)
	RegisterRoutes(g *gin.Engine)
}

type lectureJobsController struct {
	logger       outbound.LoggerPort
	workerPool   outbound.TaskDispatcher
	orchestrator inbound.PipelineOrchestratorPort
	jobStore     outbound.JobStorePort
	progress     *adapters.BroadcastProgressSink
}

func NewLectureJobsController(
	logger outbound.LoggerPort,
	workerPool outbound.TaskDispatcher,
	orchestrator inbound.PipelineOrchestratorPort,
	jobStore outbound.JobStorePort,
	progress *adapters.BroadcastProgressSink,
) LectureJobsController {
	return &lectureJobsController{
		logger:       logger,
		workerPool:   workerPool,
		orchestrator: orchestrator,
		jobStore:     jobStore,
		progress:     progress,
	}
}

func (l *lectureJobsController) CreateLecture(c *gin.Context) {
	var createLectureRequest dto.CreateLectureRequest
	newCtx, cancel := context.WithCancel(c)
	defer cancel()
	if err := c.ShouldBindJSON(&createLectureRequest); err != nil {
		if abortErr := c.AbortWithError(400, err); abortErr != nil {
			l.logger.Error(abortErr, "failed to abort with error")
		}
		return
	}

	kind := inbound.InputKind(createLectureRequest.Kind)
	if kind == "" {
		kind = inbound.InputText
	}

	pkg, err := l.orchestrator.Execute(newCtx, inbound.PipelineInput{
		SourceRef:      createLectureRequest.Input,
		Kind:           kind,
		TargetDuration: createLectureRequest.DurationSeconds,
		VoiceID:        createLectureRequest.VoiceID,
		SkipReview:     createLectureRequest.SkipReview,
	})
	if err != nil {
		if abortErr := c.AbortWithError(500, err); abortErr != nil {
			l.logger.Error(abortErr, "failed to abort with error")
		}
		return
	}

	c.JSON(200, dto.CreateLectureResponse{
		JobID:     pkg.Job.ID,
		OutputDir: pkg.Job.OutputDir,
		VideoPath: pkg.VideoPath,
		Artifacts: []string{
			pkg.VideoPath, pkg.PlainVideo, pkg.CaptionsPath,
			pkg.AudioPath, pkg.ScriptPath, pkg.ThumbnailPath, pkg.MetadataPath,
		},
	})
}

func (l *lectureJobsController) GetJob(c *gin.Context) {
	job, err := l.jobStore.Get(c, c.Param("id"))
	if err != nil {
		if abortErr := c.AbortWithError(404, err); abortErr != nil {
			l.logger.Error(abortErr, "failed to abort with error")
		}
		return
	}

	c.JSON(200, dto.JobStatusResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		OutputDir: job.OutputDir,
		Metadata:  job.Metadata,
	})
}

// StreamEvents pushes pipeline stage events to the client over SSE, with a
// periodic heartbeat merged into the same stream.
func (l *lectureJobsController) StreamEvents(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	events, cancelEvents := l.progress.Subscribe()

	heartbeat := make(chan outbound.ProgressEvent)
	clientGone := c.Request.Context().Done()
	if err := l.workerPool.Submit(func() {
		defer close(heartbeat)
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case heartbeat <- outbound.ProgressEvent{Message: "ping"}:
				case <-clientGone:
					return
				}
			case <-clientGone:
				return
			}
		}
	}); err != nil {
		cancelEvents()
		if abortErr := c.AbortWithError(500, err); abortErr != nil {
			l.logger.Error(abortErr, "failed to abort with error")
		}
		return
	}

	merged, err := channel_utils.MergeChannels[outbound.ProgressEvent](l.workerPool, events, heartbeat)
	if err != nil {
		cancelEvents()
		if abortErr := c.AbortWithError(500, err); abortErr != nil {
			l.logger.Error(abortErr, "failed to abort with error")
		}
		return
	}

	// On exit, unsubscribe and drain the merge so its workers can finish.
	defer func() {
		cancelEvents()
		for range merged {
		}
	}()

	for {
		select {
		case <-clientGone:
			return
		case event, ok := <-merged:
			if !ok {
				return
			}
			payload, marshalErr := json.Marshal(event)
			if marshalErr != nil {
				l.logger.Error(marshalErr, "failed to marshal progress event")
				continue
			}
			if _, writeErr := c.Writer.WriteString("data: " + string(payload) + "\n\n"); writeErr != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

func (l *lectureJobsController) RegisterRoutes(g *gin.Engine) {
	g.POST("/lectures", l.CreateLecture)
	g.GET("/jobs/:id", l.GetJob)
	g.GET("/events", l.StreamEvents)
	g.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
