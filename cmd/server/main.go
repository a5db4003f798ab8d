package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/config"
	"liyu1981.xyz/tablet-telemetry-service/pkg/db"
	iotGrpc "liyu1981.xyz/tablet-telemetry-service/pkg/grpc"
	iotHttp "liyu1981.xyz/tablet-telemetry-service/pkg/http"
	"liyu1981.xyz/tablet-telemetry-service/pkg/iot"
	iotMqtt "liyu1981.xyz/tablet-telemetry-service/pkg/mqtt"
	"liyu1981.xyz/tablet-telemetry-service/pkg/notify"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	var dbInstance *db.DB
	switch cfg.DBType {
	case config.DBTypeFile:
		dbInstance, err = db.NewInstance(db.UseSqliteDialector(cfg.DBPath))
	case config.DBTypeMemory:
		dbInstance, err = db.NewInstance(db.UseMemorySqliteDialector())
	}
	if err != nil {
		log.Fatalf("failed to open %s database: %v", cfg.DBType, err)
	}
	defer dbInstance.Close()

	logger := common.GetLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	iotCore := iot.New(dbInstance, cfg.IOT)

	limiters := iot.NewRateLimiterStore(rate.Limit(cfg.DefaultRate), cfg.DefaultBurst)
	overrides, err := iotCore.Config.ListLimiterConfigs(ctx)
	if err != nil {
		log.Fatalf("failed to load limiter overrides: %v", err)
	}
	limiters.Restore(overrides)
	logger.Info("Rate limiters created with:",
		zap.String("default_limiter",
			fmt.Sprintf("{\"default_rate\": %v, \"default_burst\": %v}", cfg.DefaultRate, cfg.DefaultBurst)),
		zap.Int("overrides", len(overrides)))

	go iotCore.RunAnalyticsLoop(ctx, cfg.AnalyticsInterval)

	if cfg.NATSURL != "" {
		nc, err := notify.NewNatsConn(notify.NatsConfig{URL: cfg.NATSURL, Name: "tablet-telemetry-service"})
		if err != nil {
			log.Fatal(err)
		}
		defer nc.Close()
		defer notify.Attach(iotCore.Notifier, nc, cfg.NATSSubject)()
		logger.Info("Publishing analytics snapshots to NATS", zap.String("subject", cfg.NATSSubject))
	}

	if cfg.MQTTBroker != "" {
		client, err := iotMqtt.Connect(iotMqtt.ClientConfig{Broker: cfg.MQTTBroker, ClientID: cfg.MQTTClientID})
		if err != nil {
			log.Fatal(err)
		}
		subscriber := iotMqtt.NewSubscriber(client, cfg.MQTTTopic, iotCore, limiters)
		if err := subscriber.Subscribe(); err != nil {
			log.Fatal(err)
		}
		defer subscriber.Close()
	}

	if cfg.GRPCHostPort != "" {
		s := iotGrpc.NewGrpcServer(iotCore, limiters)
		listener, err := net.Listen("tcp", cfg.GRPCHostPort)
		if err != nil {
			log.Fatalf("failed to listen: %v", err)
		}

		logger.Info("start gRPC server on " + cfg.GRPCHostPort)
		go func() {
			if err := s.Serve(listener); err != nil {
				log.Fatalf("grpc server failed to serve: %v", err)
			}
		}()
		defer s.GracefulStop()
	}

	rs := iotHttp.NewRestfulServer(iotCore, limiters)
	server := &http.Server{Addr: cfg.HTTPHostPort, Handler: rs.Server}

	logger.Info("Starting HTTP server on: " + cfg.HTTPHostPort)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed to serve: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", zap.Error(err))
	}
}
