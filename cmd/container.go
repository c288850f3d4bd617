package main

import (
	"context"
	"io"
	"time"

	"github.com/Abraxas-365/cae/compliance/access"
	"github.com/Abraxas-365/cae/compliance/access/accessapi"
	"github.com/Abraxas-365/cae/compliance/access/accessinfra"
	"github.com/Abraxas-365/cae/compliance/access/accesssrv"
	"github.com/Abraxas-365/cae/compliance/company"
	"github.com/Abraxas-365/cae/compliance/company/companyapi"
	"github.com/Abraxas-365/cae/compliance/company/companyinfra"
	"github.com/Abraxas-365/cae/compliance/company/companysrv"
	"github.com/Abraxas-365/cae/compliance/dashboard/dashboardapi"
	"github.com/Abraxas-365/cae/compliance/dashboard/dashboardsrv"
	"github.com/Abraxas-365/cae/compliance/document"
	"github.com/Abraxas-365/cae/compliance/document/documentapi"
	"github.com/Abraxas-365/cae/compliance/document/documentinfra"
	"github.com/Abraxas-365/cae/compliance/document/documentsrv"
	"github.com/Abraxas-365/cae/compliance/document/docworker"
	"github.com/Abraxas-365/cae/compliance/worker"
	"github.com/Abraxas-365/cae/compliance/worker/workerapi"
	"github.com/Abraxas-365/cae/compliance/worker/workerinfra"
	"github.com/Abraxas-365/cae/compliance/worker/workersrv"
	"github.com/Abraxas-365/cae/internal/ai/docvalidator"
	"github.com/Abraxas-365/cae/pkg/audit"
	"github.com/Abraxas-365/cae/pkg/audit/auditkafka"
	"github.com/Abraxas-365/cae/pkg/config"
	"github.com/Abraxas-365/cae/pkg/errx"
	"github.com/Abraxas-365/cae/pkg/fsx"
	"github.com/Abraxas-365/cae/pkg/fsx/fsxmem"
	"github.com/Abraxas-365/cae/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/cae/pkg/iam/auth"
	"github.com/Abraxas-365/cae/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/cae/pkg/iam/user"
	"github.com/Abraxas-365/cae/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/cae/pkg/logx"
	"github.com/Abraxas-365/cae/pkg/metrics"
	"github.com/Abraxas-365/cae/pkg/taxid/taxidapi"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const validationQueue = "cae:document_validation"

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	AuthConfig auth.Config
	Memory     bool

	// Infrastructure
	DB         *sqlx.DB
	Redis      *redis.Client
	FileSystem fsx.FileSystem
	Queue      document.JobQueue
	redisQueue *documentinfra.RedisQueue
	Publisher  audit.Publisher
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics

	// Repositories
	UserRepo     user.UserRepository
	CompanyRepo  company.Repository
	WorkerRepo   worker.Repository
	DocumentRepo document.Repository
	AccessRepo   access.Repository

	// Services
	AuthService      *auth.AuthHandlers
	TokenService     auth.TokenService
	Passwords        auth.PasswordService
	CompanyService   *companysrv.CompanyService
	WorkerService    *workersrv.WorkerService
	DocumentService  *documentsrv.Service
	AccessService    *accesssrv.AccessService
	DashboardService *dashboardsrv.DashboardService

	// API Handlers
	CompanyHandlers   *companyapi.Handlers
	WorkerHandlers    *workerapi.Handlers
	DocumentHandlers  *documentapi.Handlers
	AccessHandlers    *accessapi.Handlers
	DashboardHandlers *dashboardapi.Handlers
	TaxIDHandlers     *taxidapi.Handlers

	// Middleware
	AuthMiddleware *auth.TokenMiddleware

	closers []io.Closer
}

// NewContainer initializes the dependency injection container. With memory
// set, every store lives in process and nothing external is contacted.
func NewContainer(cfg *config.Config, memory bool) (*Container, error) {
	c := &Container{Config: cfg, Memory: memory}
	c.initObservability()

	var err error
	if memory {
		c.initMemoryInfrastructure()
	} else {
		err = c.initInfrastructure()
	}
	if err != nil {
		c.Close()
		return nil, err
	}

	c.initServices()
	return c, nil
}

func (c *Container) initObservability() {
	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = metrics.New(c.Registry)
}

func (c *Container) initInfrastructure() error {
	cfg := c.Config

	// 1. Database Connection
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return errx.Wrap(err, "failed to connect to database", errx.TypeExternal)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	c.DB = db
	c.closers = append(c.closers, db)

	// 2. Redis Connection
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	c.closers = append(c.closers, c.Redis)
	c.redisQueue = documentinfra.NewRedisQueue(c.Redis, validationQueue)
	if err := c.redisQueue.Ping(context.Background()); err != nil {
		logx.Warnf("Failed to connect to Redis: %v", err)
	}
	c.Queue = c.redisQueue

	// 3. AWS S3 Configuration
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Storage.Region))
	if err != nil {
		return errx.Wrap(err, "unable to load AWS SDK config", errx.TypeExternal)
	}
	c.FileSystem = fsxs3.NewS3FileSystem(s3.NewFromConfig(awsCfg), cfg.Storage.Bucket, cfg.Storage.Prefix)

	// 4. Audit events
	if cfg.Kafka.Enabled() {
		p, err := auditkafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		c.Publisher = p
	} else {
		logx.Warn("Kafka is not configured, audit events go to the log")
		c.Publisher = audit.NewLogPublisher()
	}
	c.closers = append(c.closers, c.Publisher)

	// 5. Repositories
	c.UserRepo = userinfra.NewPostgresUserRepository(db)
	c.CompanyRepo = companyinfra.NewPostgresCompanyRepository(db)
	c.WorkerRepo = workerinfra.NewPostgresWorkerRepository(db)
	c.DocumentRepo = documentinfra.NewPostgresDocumentRepository(db)
	c.AccessRepo = accessinfra.NewPostgresAccessRepository(db)
	return nil
}

func (c *Container) initMemoryInfrastructure() {
	logx.Warn("Running with in-memory stores, data is lost on exit")
	c.FileSystem = fsxmem.New()
	c.Queue = documentinfra.NewMemoryQueue(1024)
	c.Publisher = audit.NewLogPublisher()

	c.UserRepo = userinfra.NewMemoryUserRepository()
	c.CompanyRepo = companyinfra.NewMemoryCompanyRepository()
	c.WorkerRepo = workerinfra.NewMemoryWorkerRepository()
	c.DocumentRepo = documentinfra.NewMemoryDocumentRepository()
	c.AccessRepo = accessinfra.NewMemoryAccessRepository()
}

func (c *Container) initServices() {
	cfg := c.Config

	// --- Auth ---
	c.Passwords = authinfra.NewBcryptPasswordService()
	c.AuthConfig = auth.DefaultConfig()
	c.AuthConfig.JWT.SecretKey = cfg.Auth.JWTSecret
	if cfg.Auth.AccessTokenTTL > 0 {
		c.AuthConfig.JWT.AccessTokenTTL = cfg.Auth.AccessTokenTTL
	}
	if cfg.Auth.Issuer != "" {
		c.AuthConfig.JWT.Issuer = cfg.Auth.Issuer
	}
	c.TokenService = auth.NewJWTService(
		c.AuthConfig.JWT.SecretKey,
		c.AuthConfig.JWT.AccessTokenTTL,
		c.AuthConfig.JWT.Issuer,
	)
	c.AuthService = auth.NewAuthHandlers(c.TokenService, c.UserRepo, c.Passwords)
	c.AuthMiddleware = auth.NewAuthMiddleware(c.TokenService)

	// --- Document inspection ---
	var inspector document.Inspector = docvalidator.Manual{}
	if cfg.OpenAI.APIKey != "" {
		inspector = docvalidator.NewValidator(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	} else {
		logx.Warn("OPENAI_API_KEY is not set, every document goes to manual review")
	}

	// --- Domain Services ---
	c.CompanyService = companysrv.NewCompanyService(c.CompanyRepo, c.WorkerRepo, c.Publisher)
	c.WorkerService = workersrv.NewWorkerService(c.WorkerRepo, c.CompanyRepo)
	c.DocumentService = documentsrv.NewService(
		c.DocumentRepo,
		c.Queue,
		c.FileSystem,
		c.CompanyRepo,
		c.WorkerRepo,
		inspector,
		c.Publisher,
		c.Metrics,
		cfg.Worker.MaxRetries,
	)
	c.AccessService = accesssrv.NewAccessService(
		c.AccessRepo,
		c.WorkerRepo,
		c.CompanyRepo,
		c.DocumentService,
		c.Publisher,
		c.Metrics,
	)
	c.DashboardService = dashboardsrv.NewDashboardService(c.CompanyRepo, c.WorkerRepo, c.DocumentService, c.AccessService)

	// --- Handlers ---
	c.CompanyHandlers = companyapi.NewHandlers(c.CompanyService)
	c.WorkerHandlers = workerapi.NewHandlers(c.WorkerService, c.CompanyService)
	c.DocumentHandlers = documentapi.NewHandlers(c.DocumentService, c.CompanyService)
	c.AccessHandlers = accessapi.NewHandlers(c.AccessService, c.CompanyService)
	c.DashboardHandlers = dashboardapi.NewHandlers(c.DashboardService)
	c.TaxIDHandlers = taxidapi.NewHandlers(c.Metrics)
}

// NewValidationWorker builds the background worker over the container's queue
func (c *Container) NewValidationWorker() *docworker.ValidationWorker {
	iv := docworker.DefaultIntervals
	if c.Config.Worker.ExpirySweepEvery != 0 {
		iv.Expiry = c.Config.Worker.ExpirySweepEvery
	}
	return docworker.NewValidationWorker(c.DocumentService, c.Queue, c.Config.Worker.Count).WithIntervals(iv)
}

// Healthy reports the reachability of each external dependency
func (c *Container) Healthy(ctx context.Context) map[string]bool {
	status := map[string]bool{}
	if c.DB != nil {
		status["db"] = c.DB.PingContext(ctx) == nil
	}
	if c.redisQueue != nil {
		status["redis"] = c.redisQueue.Ping(ctx) == nil
	}
	return status
}

// QueueStats reports the validation backlog; ok is false when it cannot be read
func (c *Container) QueueStats(ctx context.Context) (document.QueueStats, bool) {
	stats, err := c.Queue.Stats(ctx)
	if err != nil {
		logx.Warnf("Failed to read queue stats: %v", err)
		return document.QueueStats{}, false
	}
	return stats, true
}

// Close releases connections in reverse order of creation
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			logx.Warnf("Failed to close resource: %v", err)
		}
	}
	c.closers = nil
}
