package app

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	storev1 "github.com/vladislavdragonenkov/storefront/api/store/v1"
	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/customer"
	grpcsvc "github.com/vladislavdragonenkov/storefront/internal/service/grpc"
	"github.com/vladislavdragonenkov/storefront/internal/service/order"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
	"github.com/vladislavdragonenkov/storefront/internal/service/product"
	"github.com/vladislavdragonenkov/storefront/internal/service/retention"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

const grpcStopTimeout = 5 * time.Second

// Run поднимает gRPC API, ops HTTP-сервер и фоновые воркеры и блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	if err := cfg.Validate(); err != nil {
		return err
	}

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	storeMetrics := metrics.NewStoreMetrics()
	serviceLogger := logger.WithField("layer", "service")
	storeService := grpcsvc.NewStoreService(
		customer.NewService(deps.uow, storeMetrics, serviceLogger.WithField("service", "customer")),
		product.NewService(deps.uow, storeMetrics, serviceLogger.WithField("service", "product")),
		order.NewService(deps.uow, storeMetrics, serviceLogger.WithField("service", "order")),
		deps.idempotencyRepo,
		logger.WithField("layer", "grpc"),
	)

	grpcMetrics := metrics.NewGRPCServerMetrics(prometheus.DefaultRegisterer)
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))
	storev1.RegisterStoreServiceServer(grpcServer, storeService)
	grpcMetrics.InitializeMetrics(grpcServer)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(storev1.ServiceName, healthpb.HealthCheckResponse_SERVING)

	healthHandler := healthcheck.NewHandler(version.Get().Version)
	healthHandler.RegisterChecker("storage", deps.storageChecker)
	healthHandler.RegisterChecker("outbox", healthcheck.NewBacklogChecker("outbox", cfg.OutboxMaxPending,
		func(ctx context.Context) (int, error) {
			stats, err := deps.outboxRepo.Stats(ctx)
			return stats.PendingCount, err
		}))

	workersCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	producer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, outbox relay disabled")
	}
	defer closeKafkaProducer(producer, logger)

	var outboxDone <-chan struct{}
	if producer != nil {
		events := kafka.NewOutboxPublisher(producer, cfg.KafkaTopic)
		dlq := kafka.NewOutboxPublisher(producer, cfg.KafkaDLQTopic)
		worker := outbox.NewWorker(
			deps.outboxRepo,
			events,
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			outbox.WithDLQPublisher(dlq),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		)
		outboxDone = runWorker(workersCtx, worker.Run)
		logger.WithFields(log.Fields{
			"topic":     events.Topic(),
			"dlq_topic": dlq.Topic(),
		}).Info("outbox relay started")
	} else {
		logger.Info("kafka brokers are not configured, outbox events stay pending")
	}

	janitor := retention.NewWorker(
		deps.idempotencyRepo,
		deps.outboxRepo,
		retention.WithLogger(logger.WithField("component", "retention-worker")),
		retention.WithInterval(cfg.RetentionInterval),
		retention.WithBatchSize(cfg.RetentionBatchSize),
		retention.WithOutboxRetention(cfg.OutboxRetention),
	)
	retentionDone := runWorker(workersCtx, janitor.Run)

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		shutdownHTTP(metricsSrv, logger)
		stopBackground(stopWorkers, logger, outboxDone, retentionDone)
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", lis.Addr().String()).Info("grpc server listening")
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping grpc server")
		healthServer.Shutdown()
		stopGRPC(grpcServer, logger)
		shutdownHTTP(metricsSrv, logger)
		stopBackground(stopWorkers, logger, outboxDone, retentionDone)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		stopBackground(stopWorkers, logger, outboxDone, retentionDone)
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

// runWorker запускает fn в горутине и закрывает канал по её завершении.
func runWorker(ctx context.Context, fn func(context.Context)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(ctx)
	}()
	return done
}

// stopBackground отменяет воркеры и ждёт их завершения не дольше grpcStopTimeout.
func stopBackground(cancel context.CancelFunc, logger *log.Entry, done ...<-chan struct{}) {
	if cancel != nil {
		cancel()
	}

	timeout := time.After(grpcStopTimeout)
	for _, ch := range done {
		if ch == nil {
			continue
		}
		select {
		case <-ch:
		case <-timeout:
			logger.Warn("background workers did not stop in time")
			return
		}
	}
}

// stopGRPC пытается завершить сервер gracefully, а по таймауту останавливает принудительно.
func stopGRPC(server *grpc.Server, logger *log.Entry) {
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(grpcStopTimeout):
		logger.Warn("graceful stop timed out, forcing grpc server stop")
		server.Stop()
	}
}
