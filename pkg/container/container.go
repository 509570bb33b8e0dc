package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"refund-backend/internal/config"
	infraCache "refund-backend/internal/infrastructure/cache"
	"refund-backend/internal/infrastructure/database"
	"refund-backend/internal/infrastructure/notify"
	"refund-backend/internal/infrastructure/storage"
	"refund-backend/pkg/cache"
	"refund-backend/pkg/jwt"

	"refund-backend/internal/domains/directory"
	directoryRepo "refund-backend/internal/domains/directory/repository"

	orderRepo "refund-backend/internal/domains/order/repository"

	"refund-backend/internal/domains/refund/gateway"
	"refund-backend/internal/domains/refund/gateway/midtrans"
	"refund-backend/internal/domains/refund/gateway/mock"
	"refund-backend/internal/domains/refund/gateway/xendit"
	refundHandler "refund-backend/internal/domains/refund/handler"
	"refund-backend/internal/domains/refund/model"
	refundRepo "refund-backend/internal/domains/refund/repository"
	refundService "refund-backend/internal/domains/refund/service"

	disputeHandler "refund-backend/internal/domains/dispute/handler"
	disputeRepo "refund-backend/internal/domains/dispute/repository"
	disputeService "refund-backend/internal/domains/dispute/service"

	liabilityHandler "refund-backend/internal/domains/liability/handler"
	liabilityRepo "refund-backend/internal/domains/liability/repository"
	liabilityService "refund-backend/internal/domains/liability/service"

	insuranceHandler "refund-backend/internal/domains/insurance/handler"
	insuranceRepo "refund-backend/internal/domains/insurance/repository"
	insuranceService "refund-backend/internal/domains/insurance/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph. Everything in it is a
// singleton built once at startup; initialization order is config,
// infrastructure, repositories, services, handlers.
type Container struct {
	// Infrastructure
	Config      *config.Config
	DB          *database.PostgresDB
	Cache       cache.Cache
	JWTManager  *jwt.Manager
	AsynqClient *asynq.Client
	Dispatcher  notify.Dispatcher
	Evidence    *storage.EvidenceStorage
	Registry    *gateway.Registry

	// Repositories
	RefundRepo    refundRepo.RefundRepoInterface
	WorkflowRepo  refundRepo.WorkflowRepoInterface
	TxnRepo       refundRepo.TransactionRepoInterface
	OrderRepo     orderRepo.OrderRepoInterface
	Directory     directory.Directory
	DisputeRepo   disputeRepo.DisputeRepoInterface
	LiabilityRepo liabilityRepo.LiabilityRepoInterface
	FundRepo      insuranceRepo.FundRepoInterface

	// Services
	RefundService     refundService.RefundServiceInterface
	ApprovalService   refundService.ApprovalServiceInterface
	ProcessingService refundService.ProcessingServiceInterface
	DisputeService    disputeService.DisputeServiceInterface
	LiabilityService  liabilityService.LiabilityServiceInterface
	FundService       insuranceService.FundServiceInterface

	// Handlers
	RefundHandler    *refundHandler.RefundHandler
	DisputeHandler   *disputeHandler.DisputeHandler
	LiabilityHandler *liabilityHandler.LiabilityHandler
	FundHandler      *insuranceHandler.FundHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI Container...")

	c := &Container{}

	// STEP 1: configuration
	log.Println("📋 Loading configuration...")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("✅ Config loaded (Environment: %s)", cfg.App.Environment)

	// STEP 2: database
	log.Println("🗄️  Connecting to PostgreSQL...")

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	c.DB = db
	log.Println("✅ Database connected")

	// STEP 3: cache
	log.Println("🔴 Connecting to Redis...")

	redisCache := infraCache.NewRedisCache(
		cfg.Redis.Host,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)

	if err := redisCache.Connect(context.Background()); err != nil {
		// Redis failure is non-critical: cached reads fall through to
		// the database.
		log.Printf("⚠️  Redis connection failed (non-critical): %v", err)
	} else {
		log.Println("✅ Redis connected")
	}
	c.Cache = redisCache

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret)

	// STEP 4: queue client and event dispatcher
	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	c.Dispatcher = notify.NewAsynqDispatcher(c.AsynqClient)

	// STEP 5: evidence storage
	evidence, err := storage.NewEvidenceStorage(cfg.MinIO)
	if err != nil {
		return nil, fmt.Errorf("failed to init evidence storage: %w", err)
	}
	c.Evidence = evidence
	log.Println("✅ Evidence storage ready")

	// STEP 6: gateway adapter registry
	if err := c.initRegistry(); err != nil {
		return nil, fmt.Errorf("failed to init gateway registry: %w", err)
	}
	log.Println("✅ Gateway registry built")

	// STEP 7: repositories
	c.initRepositories()
	log.Println("✅ Repositories initialized")

	// STEP 8: services
	c.initServices()
	log.Println("✅ Services initialized")

	// STEP 9: handlers
	c.initHandlers()
	log.Println("✅ Handlers initialized")

	log.Println("🎉 DI Container initialized successfully")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

// initRegistry binds every refund method and source gateway to an adapter.
// The bindings are fixed at startup; a method with no adapter fails the
// refund with a configuration error instead of falling back silently.
func (c *Container) initRegistry() error {
	registry := gateway.NewRegistry()

	// Local channels move no money through an external provider.
	registry.RegisterMethod(model.MethodBankTransfer, gateway.NewBankTransferAdapter())
	registry.RegisterMethod(model.MethodCash, gateway.NewCashAdapter())
	registry.RegisterMethod(model.MethodStoreCredit, gateway.NewStoreCreditAdapter())
	// The manual method has no adapter on purpose: operators disburse out
	// of band and settle through the manual completion endpoint.

	// Source gateways, used for original-method refunds. Without
	// credentials (local dev) the mock adapter stands in.
	var midtransAdapter gateway.Adapter
	if c.Config.Midtrans.ServerKey != "" {
		client, err := midtrans.NewClient(midtrans.NewConfig(c.Config.Midtrans.ServerKey, c.Config.Midtrans.APIURL))
		if err != nil {
			return err
		}
		midtransAdapter = client
	} else {
		log.Println("⚠️  Midtrans key not set, using mock adapter")
		midtransAdapter = mock.New("midtrans")
	}

	var xenditAdapter gateway.Adapter
	if c.Config.Xendit.APIKey != "" {
		client, err := xendit.NewClient(xendit.NewConfig(c.Config.Xendit.APIKey, c.Config.Xendit.APIURL))
		if err != nil {
			return err
		}
		xenditAdapter = client
	} else {
		log.Println("⚠️  Xendit key not set, using mock adapter")
		xenditAdapter = mock.New("xendit")
	}

	registry.RegisterGateway(model.GatewayMidtrans, midtransAdapter)
	registry.RegisterGateway(model.GatewayXendit, xenditAdapter)
	// GoPay payments are captured through Midtrans, so its refunds route
	// back through the same client.
	registry.RegisterGateway(model.GatewayGopay, midtransAdapter)

	c.Registry = registry
	return nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.RefundRepo = refundRepo.NewRefundRepository(pool)
	c.WorkflowRepo = refundRepo.NewWorkflowRepository(pool)
	c.TxnRepo = refundRepo.NewTransactionRepository(pool)
	c.OrderRepo = orderRepo.NewOrderRepository(pool)
	c.Directory = directoryRepo.NewPostgresDirectory(pool)
	c.DisputeRepo = disputeRepo.NewDisputeRepository(pool)
	c.LiabilityRepo = liabilityRepo.NewLiabilityRepository(pool)
	c.FundRepo = insuranceRepo.NewFundRepository(pool)
}

func (c *Container) initServices() {
	pool := c.DB.Pool

	c.FundService = insuranceService.NewFundService(
		pool,
		c.FundRepo,
		c.Cache,
		c.Dispatcher,
	)

	c.LiabilityService = liabilityService.NewLiabilityService(
		pool,
		c.LiabilityRepo,
		c.Dispatcher,
	)

	c.ApprovalService = refundService.NewApprovalService(
		pool,
		c.RefundRepo,
		c.WorkflowRepo,
		c.Directory,
		c.Dispatcher,
	)

	c.RefundService = refundService.NewRefundService(
		pool,
		c.RefundRepo,
		c.TxnRepo,
		c.OrderRepo,
		c.ApprovalService,
		c.LiabilityService, // LiabilityRecorder
		c.FundService,      // InsuranceFund
		c.Dispatcher,
	)

	c.ProcessingService = refundService.NewProcessingService(
		pool,
		c.RefundRepo,
		c.TxnRepo,
		c.OrderRepo,
		c.Registry,
		c.FundService,
		c.Dispatcher,
	)

	c.DisputeService = disputeService.NewDisputeService(
		pool,
		c.DisputeRepo,
		c.RefundRepo,
		c.Dispatcher,
	)
}

func (c *Container) initHandlers() {
	c.RefundHandler = refundHandler.NewRefundHandler(
		c.RefundService,
		c.ApprovalService,
		c.ProcessingService,
		c.Evidence,
	)
	c.DisputeHandler = disputeHandler.NewDisputeHandler(c.DisputeService)
	c.LiabilityHandler = liabilityHandler.NewLiabilityHandler(c.LiabilityService)
	c.FundHandler = insuranceHandler.NewFundHandler(c.FundService)
}

// Cleanup releases shared resources during graceful shutdown.
func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up container resources...")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Printf("⚠️  Failed to close asynq client: %v", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
		log.Println("✅ Database connections closed")
	}

	if c.Cache != nil {
		if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
			if err := rc.Close(); err != nil {
				log.Printf("⚠️  Failed to close Redis: %v", err)
			} else {
				log.Println("✅ Redis connections closed")
			}
		}
	}

	log.Println("✅ Container cleanup completed")
}
