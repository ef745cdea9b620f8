package di

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/auditjournal/internal/adapter/gateway/collector"
	storagegateway "github.com/YoshitsuguKoike/auditjournal/internal/adapter/gateway/storage"
	"github.com/YoshitsuguKoike/auditjournal/internal/app"
	"github.com/YoshitsuguKoike/auditjournal/internal/application/port/output"
	"github.com/YoshitsuguKoike/auditjournal/internal/application/service"
	"github.com/YoshitsuguKoike/auditjournal/internal/application/usecase/replay"
	"github.com/YoshitsuguKoike/auditjournal/internal/domain/model/journal"
	"github.com/YoshitsuguKoike/auditjournal/internal/domain/repository"
	sqliterepo "github.com/YoshitsuguKoike/auditjournal/internal/infrastructure/persistence/sqlite"
)

// Container is the DI container that holds all dependencies
// This implements manual dependency injection for Clean Architecture
type Container struct {
	// Infrastructure Layer - Database
	db *sql.DB

	// Infrastructure Layer - Repositories
	journalRepo repository.JournalCacheRepository

	// Infrastructure Layer - Gateways
	collectorGateway output.CollectorGateway

	// Application Layer - Use Cases
	replayUseCase *replay.UseCase

	config Config
}

// Config holds configuration for the container
type Config struct {
	StorePath string // Path to the journal cache database

	// Delivery configuration
	CollectorURL    string        // Collector base URL, empty disables delivery
	DeliveryTimeout time.Duration // Per-request delivery timeout

	// Run lifecycle
	PerTaskFinalize bool

	// Archive configuration
	ArchiveDir string // Directory for local archives
	S3Bucket   string // S3 bucket name (for S3 archives)
	S3Prefix   string // S3 key prefix (optional)
	S3Region   string // AWS region (optional, uses default if empty)

	Logger app.Logger
	Fs     afero.Fs // Filesystem for local archives (default: OS)

	// UserLookup overrides operator resolution (tests)
	UserLookup journal.UserLookup
}

// Archive kinds accepted by ArchiveGateway
const (
	ArchiveLocal = "local"
	ArchiveS3    = "s3"
)

// NewContainer opens the store and wires every component.
// A store that cannot be opened is returned as a *journal.StoreError.
func NewContainer(ctx context.Context, config Config) (*Container, error) {
	c := &Container{config: config}
	if c.config.Logger == nil {
		c.config.Logger = app.NopLogger()
	}
	if c.config.Fs == nil {
		c.config.Fs = afero.NewOsFs()
	}

	if err := c.initializeInfrastructure(ctx); err != nil {
		return nil, err
	}
	c.initializeApplication()
	return c, nil
}

// initializeInfrastructure opens the store and builds the gateways
func (c *Container) initializeInfrastructure(ctx context.Context) error {
	db, err := sqliterepo.Open(ctx, c.config.StorePath)
	if err != nil {
		return err
	}
	c.db = db
	c.journalRepo = sqliterepo.NewJournalCacheRepository(db)

	if c.config.CollectorURL == "" {
		c.collectorGateway = collector.NoopCollectorGateway{}
	} else {
		c.collectorGateway = collector.NewHTTPCollectorGateway(collector.HTTPConfig{
			BaseURL: c.config.CollectorURL,
			Timeout: c.config.DeliveryTimeout,
		})
	}
	return nil
}

// initializeApplication initializes application layer components
func (c *Container) initializeApplication() {
	c.replayUseCase = replay.NewUseCase(c.journalRepo, c.config.Logger)
}

// NewRunController starts a fresh journal for one run
func (c *Container) NewRunController() *service.RunController {
	var opts []journal.BuilderOption
	if c.config.UserLookup != nil {
		opts = append(opts, journal.WithUserLookup(c.config.UserLookup))
	}
	return service.NewRunController(
		journal.NewBuilder(opts...),
		c.journalRepo,
		c.collectorGateway,
		c.config.Logger,
		service.RunControllerConfig{PerTaskFinalize: c.config.PerTaskFinalize},
	)
}

// ArchiveGateway builds the archive gateway of the given kind
func (c *Container) ArchiveGateway(ctx context.Context, kind string) (output.ArchiveGateway, error) {
	switch kind {
	case ArchiveLocal:
		if c.config.ArchiveDir == "" {
			return nil, fmt.Errorf("archive directory is not configured")
		}
		return storagegateway.NewLocalArchiveGateway(c.config.Fs, c.config.ArchiveDir)
	case ArchiveS3:
		if c.config.S3Bucket == "" {
			return nil, fmt.Errorf("S3 bucket name is required for S3 archives")
		}
		return storagegateway.NewS3ArchiveGateway(ctx, storagegateway.S3Config{
			BucketName: c.config.S3Bucket,
			Prefix:     c.config.S3Prefix,
			Region:     c.config.S3Region,
		})
	default:
		return nil, fmt.Errorf("unknown archive kind: %s", kind)
	}
}

// GetCollectorGateway returns the collector gateway
func (c *Container) GetCollectorGateway() output.CollectorGateway {
	return c.collectorGateway
}

// GetReplayUseCase returns the query/replay use case
func (c *Container) GetReplayUseCase() *replay.UseCase {
	return c.replayUseCase
}

// StoreSchemaVersion reports the applied store schema version
func (c *Container) StoreSchemaVersion(ctx context.Context) (int, error) {
	return sqliterepo.NewMigrator(c.db).Version(ctx)
}

// Close releases the database connection
func (c *Container) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
