package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonghyeuk/auto-mpeg/application/ports/inbound"
	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/application/services"
	"github.com/jonghyeuk/auto-mpeg/config"
	"github.com/jonghyeuk/auto-mpeg/infrastructure/adapters"
	"github.com/jonghyeuk/auto-mpeg/infrastructure/gin_interface/controllers"
	"github.com/jonghyeuk/auto-mpeg/middleware"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"
)

func main() {
	inputKind := flag.String("input", "text", "source kind: text, file or slides")
	duration := flag.Float64("duration", 0, "target narration length in seconds")
	voice := flag.String("voice", "", "voice identifier for speech synthesis")
	skipReview := flag.Bool("skip-review", false, "bypass the script quality gate")
	offline := flag.Bool("offline", false, "run with deterministic local stand-ins for every external service")
	cleanup := flag.Bool("cleanup", false, "remove the temporary working area after a failed run")
	outDir := flag.String("out", "", "base output directory")
	serve := flag.Bool("serve", false, "run the HTTP API instead of a one-shot pipeline")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	zeroLogger := adapters.NewZerologWrapper()

	pipelineConfig := config.GetPipelineConfig()
	if *outDir != "" {
		pipelineConfig.OutputDir = *outDir
	}
	renderConfig := config.GetRenderConfig()

	panicHandler := func(p interface{}) {
		zeroLogger.Error(fmt.Errorf("%v", p), "Panic in worker pool")
	}
	workerPool, err := ants.NewPool(pipelineConfig.WorkerPoolSize, ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create worker pool")
	}
	defer workerPool.Release()

	progress := adapters.NewBroadcastProgressSink(adapters.NewLogProgressSink(zeroLogger))

	deps, err := buildDeps(*offline, zeroLogger, workerPool, progress, renderConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build pipeline dependencies")
	}

	orchestrator := services.NewPipelineOrchestrator(services.OrchestratorConfig{
		BaseOutputDir:   pipelineConfig.OutputDir,
		FrameWidth:      renderConfig.FrameWidth,
		FrameHeight:     renderConfig.FrameHeight,
		DefaultDuration: pipelineConfig.DefaultDuration,
		DefaultVoiceID:  pipelineConfig.DefaultVoiceID,
	}, *deps)

	if *serve {
		runServer(orchestrator, deps, workerPool, progress, zeroLogger)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: auto-mpeg [flags] <source>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	pkg, err := orchestrator.Execute(context.Background(), inbound.PipelineInput{
		SourceRef:      flag.Arg(0),
		Kind:           inbound.InputKind(*inputKind),
		TargetDuration: *duration,
		VoiceID:        *voice,
		SkipReview:     *skipReview,
		Cleanup:        *cleanup,
	})
	if err != nil {
		log.Error().Err(err).Msg("Pipeline failed")
		os.Exit(1)
	}

	fmt.Println(pkg.VideoPath)
}

// buildDeps wires either the real service adapters or their offline
// stand-ins. AWS-backed persistence and publishing stay optional either way.
func buildDeps(offline bool, logger outbound.LoggerPort, workerPool outbound.TaskDispatcher, progress outbound.ProgressSink, renderConfig *config.RenderConfig) (*services.OrchestratorDeps, error) {
	deps := &services.OrchestratorDeps{
		Logger:     logger,
		Progress:   progress,
		DeckParser: adapters.NewSlideDeckParser(logger),
		JobStore:   adapters.NewMemoryJobStore(),
	}

	var textGenerator outbound.TextGeneratorPort
	if offline {
		textGenerator = adapters.NewOfflineTextGenerator(logger)
		deps.ContentResolver = adapters.NewContentResolver(adapters.NewContentFetcher(logger), logger)
		deps.Narration = services.NewNarrationSynthesizer(logger, adapters.NewOfflineSpeechSynthesizer(), adapters.NewOfflineTranscriber(), workerPool)
		deps.Renderer = adapters.NewOfflineRenderer()
	} else {
		llmConfig, err := config.GetLLMConfig()
		if err != nil {
			return nil, err
		}
		speechConfig, err := config.GetSpeechConfig()
		if err != nil {
			return nil, err
		}
		transcriberConfig, err := config.GetTranscriberConfig()
		if err != nil {
			return nil, err
		}

		fetcher := adapters.NewContentFetcher(logger)
		textGenerator = adapters.NewLLMTextGenerator(llmConfig, fetcher, workerPool, logger)
		deps.ContentResolver = adapters.NewContentResolver(fetcher, logger)
		deps.Narration = services.NewNarrationSynthesizer(logger,
			adapters.NewSpeechSynthesizer(speechConfig, renderConfig, fetcher, logger),
			adapters.NewSTTTranscriber(transcriberConfig, fetcher, logger),
			workerPool)
		deps.Renderer = adapters.NewFFMPEGRenderer(renderConfig, logger)

		if s3Config, s3Err := config.GetS3Config(); s3Err == nil {
			sess := session.Must(session.NewSessionWithOptions(session.Options{
				SharedConfigState: session.SharedConfigEnable,
			}))
			deps.Publisher = adapters.NewS3ArtifactPublisher(logger, s3.New(sess), s3Config)
			if dynamoConfig, dynErr := config.GetDynamoConfig(); dynErr == nil {
				deps.JobStore = adapters.NewDynamoJobStore(logger, dynamodb.New(sess), dynamoConfig)
			}
		}
	}

	deps.ScriptWriter = services.NewScriptWriter(logger, textGenerator)
	deps.Reviewer = adapters.NewLLMScriptReviewer(textGenerator, logger)
	deps.QualityGate = services.NewQualityGate()
	deps.Captions = services.NewCaptionComposer()
	deps.Alignment = services.NewAlignmentEngine(logger)
	deps.Packager = services.NewArtifactPackager(logger)

	return deps, nil
}

func runServer(orchestrator inbound.PipelineOrchestratorPort, deps *services.OrchestratorDeps, workerPool outbound.TaskDispatcher, progress *adapters.BroadcastProgressSink, logger outbound.LoggerPort) {
	router := gin.Default()
	if err := router.SetTrustedProxies(nil); err != nil {
		log.Fatal().Err(err).Msg("Failed to set trusted proxies!")
	}

	if jwksUrl := os.Getenv("JWKS_URL"); jwksUrl != "" {
		authHandler, err := middleware.NewAuthHandler(jwksUrl, logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create auth handler!")
		}
		router.Use(authHandler.AuthMiddleware())
	}

	controller := controllers.NewLectureJobsController(logger, workerPool, orchestrator, deps.JobStore, progress)
	controller.RegisterRoutes(router)

	if err := router.Run(":8080"); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server!")
	}
}
