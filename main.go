package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"bizcore/auth"
	"bizcore/config"
	"bizcore/controllers"
	"bizcore/database"
	"bizcore/interceptors"
	"bizcore/registry"
	"bizcore/repositories"
	"bizcore/services"
	"bizcore/sessions"
)

func main() {
	config.InitConfig()
	cfg := config.AppConfig

	var logger *zap.Logger
	var err error
	switch cfg.LogLevel {
	case "debug":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(fmt.Errorf("failed to build logger: %w", err))
	}
	defer logger.Sync()

	db, err := database.InitDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	issuer, err := auth.NewTokenIssuer([]byte(cfg.JwtSecret), cfg.AccessTokenTTL,
		auth.WithIssuerName(cfg.ServiceName))
	if err != nil {
		logger.Fatal("Failed to create token issuer", zap.Error(err))
	}

	userRepo := repositories.NewUserRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)
	oppRepo := repositories.NewOpportunityRepository(db)

	sessionManager := sessions.NewManager(tokenRepo,
		sessions.WithRefreshTTL(cfg.RefreshTokenTTL),
		sessions.WithLogger(logger))

	authService := services.NewAuthService(userRepo, sessionManager, issuer, logger,
		services.WithLockoutPolicy(cfg.MaxLoginFailures, cfg.LockoutDuration))
	oppService := services.NewOpportunityService(oppRepo, logger)

	// HTTP surface
	container := restful.NewContainer()

	authWS := new(restful.WebService)
	controllers.NewAuthController(authService, issuer).RegisterRoutes(authWS)
	container.Add(authWS)

	oppWS := new(restful.WebService)
	controllers.NewOpportunityController(oppService, authService, issuer).RegisterRoutes(oppWS)
	container.Add(oppWS)

	healthWS := new(restful.WebService)
	healthWS.Route(healthWS.GET("/health").To(func(req *restful.Request, resp *restful.Response) {
		_ = resp.WriteHeaderAndJson(http.StatusOK, map[string]string{"status": "ok"}, restful.MIME_JSON)
	}))
	container.Add(healthWS)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           container,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// gRPC surface: bearer auth + request logging around the standard health
	// service, so other internal services can probe and authenticate here.
	publicMethods := map[string]bool{
		"/grpc.health.v1.Health/Check": true,
		"/grpc.health.v1.Health/Watch": true,
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		interceptors.ZapLoggingInterceptor(logger),
		interceptors.AuthInterceptor(issuer, publicMethods),
	))
	healthpb.RegisterHealthServer(grpcServer, health.NewServer())

	// Optional service registration
	serviceID := fmt.Sprintf("%s-%d", cfg.ServiceName, cfg.HTTPPort)
	grpcServiceID := fmt.Sprintf("%s-grpc-%d", cfg.ServiceName, cfg.GRPCPort)
	var reg registry.ServiceRegistry
	if cfg.Consul.Enabled {
		reg, err = registry.NewConsulRegistry(cfg.Consul.Address, logger.Sugar())
		if err != nil {
			logger.Fatal("Failed to connect to Consul", zap.Error(err))
		}
		check := registry.CreateHTTPCheck(serviceID, "127.0.0.1", cfg.HTTPPort, "/health", "10s", "1s")
		if err := reg.Register(serviceID, cfg.ServiceName, "127.0.0.1", cfg.HTTPPort, nil, check); err != nil {
			logger.Fatal("Failed to register service", zap.Error(err))
		}
		grpcCheck := registry.CreateGRPCCheck(grpcServiceID, "127.0.0.1", cfg.GRPCPort, "10s", "1s")
		if err := reg.Register(grpcServiceID, cfg.ServiceName+"-grpc", "127.0.0.1", cfg.GRPCPort, nil, grpcCheck); err != nil {
			logger.Fatal("Failed to register gRPC service", zap.Error(err))
		}
	}

	// Periodic refresh-token sweep; storage hygiene only.
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sessionManager.SweepExpired()
			case <-sweepDone:
				return
			}
		}
	}()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		logger.Fatal("Failed to listen for gRPC", zap.Error(err))
	}
	go func() {
		logger.Info("Starting gRPC server", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Fatal("Failed to serve gRPC", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down...")
	close(sweepDone)
	if reg != nil {
		if err := reg.Deregister(serviceID); err != nil {
			logger.Warn("Failed to deregister service", zap.Error(err))
		}
		if err := reg.Deregister(grpcServiceID); err != nil {
			logger.Warn("Failed to deregister gRPC service", zap.Error(err))
		}
	}

	grpcServer.GracefulStop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info("Stopped")
}
