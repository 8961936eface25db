package router

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"mentora/internal/api/v1/handler"
	"mentora/internal/config"
	"mentora/internal/media"
	"mentora/internal/middleware"
	"mentora/internal/pubsub"
	"mentora/internal/repository"
	"mentora/internal/service"
	"mentora/internal/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *sql.DB, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initialized")

	// 1. Open DB connection (connection pooling)
	dsn := cfg.DBConnectionString
	// In a development environment, ensure SSL is disabled for local
	// testing. In production the connection string should carry the
	// correct SSL settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := " "
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			if strings.Contains(dsn, "?") {
				separator = "&"
			} else {
				separator = "?"
			}
		}
		dsn += separator + "sslmode=disable"
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open DB connection")
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// 2. Initialize optional S3 client for video archival
	var s3Client *s3.Client
	if cfg.S3URL != "" && cfg.S3Bucket != "" {
		s3Config, err := awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.S3Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
			awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
		)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to load S3 config")
			return nil, nil, err
		}
		s3Client = s3.NewFromConfig(s3Config, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.S3URL)
			o.UsePathStyle = true
		})
	}

	// 3. Initialize optional Pub/Sub publisher for processed-video events
	var publisher pubsub.Publisher
	if cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(context.Background(), cfg.GCPProjectID, cfg.PubSubEmulatorHost)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create Pub/Sub publisher")
			return nil, nil, err
		}
		publisher = p
	}

	// 4. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 5. Initialize repositories & services & handlers
	policy := media.DurationPolicy{
		SuspiciousSeconds: cfg.DurationSuspiciousSec,
		SoftMaxSeconds:    cfg.DurationSoftMaxSec,
		HardMaxSeconds:    cfg.DurationHardMaxSec,
	}
	chunkStore := storage.NewChunkStore(cfg.UploadTempDir)
	probe := media.NewDurationProbe(cfg.FFprobeBin, policy, logger)

	lectureRepo := repository.NewLectureRepository(db)
	courseRepo := repository.NewCourseRepo(db)

	lectureSvc := service.NewLectureService(lectureRepo, policy, logger)
	courseSvc := service.NewCourseService(courseRepo)
	uploadSvc := service.NewUploadService(
		chunkStore,
		probe,
		lectureSvc,
		cfg.VideosDir,
		cfg.PublicPrefix,
		time.Duration(cfg.MergeLockWaitSec)*time.Second,
		s3Client,
		cfg.S3Bucket,
		publisher,
		cfg.PubSubVideoTopic,
		logger,
	)

	lectureHandler := handler.NewLectureHandler(lectureSvc, courseSvc, validate, logger)
	uploadHandler := handler.NewUploadHandler(uploadSvc, validate, cfg.MaxUploadBytes, logger)

	// 6. Create ServeMux router
	mux := http.NewServeMux()
	lectureHandler.RegisterRoutes(mux)
	uploadHandler.RegisterRoutes(mux)

	// Serve assembled videos under the public prefix, mirroring the
	// filesystem layout.
	mux.Handle(cfg.PublicPrefix+"/", http.StripPrefix(cfg.PublicPrefix+"/", http.FileServer(http.Dir(cfg.VideosDir))))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// 7. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger)(c.Handler(mux)), db, nil
}

// removeDisableGzip is a workaround for S3 signature errors with some
// S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
