// Command leaderboard serves stored grading results over HTTP, with tailsql
// and backup routes under /debug/ and a gRPC health endpoint.
//
// Usage:
//
//	leaderboard [flags]                 serve
//	leaderboard [flags] migrate <action>
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/bev-grader/internal/api"
	"github.com/banshee-data/bev-grader/internal/db"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var (
	listen     = flag.String("listen", ":8080", "HTTP listen address")
	grpcListen = flag.String("grpc-listen", ":50051", "gRPC health listen address (empty disables)")
	dbPath     = flag.String("db", "leaderboard.db", "Leaderboard SQLite database")
)

// serviceName is the health-checked service name.
const serviceName = "bevgrader.Leaderboard"

func main() {
	flag.Parse()

	if flag.NArg() > 0 && flag.Arg(0) == "migrate" {
		if err := db.RunMigrateCommand(flag.Args()[1:], *dbPath, os.Stdout); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}
	if flag.NArg() > 0 {
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	mux, err := newMux(database)
	if err != nil {
		log.Fatalf("failed to mount routes: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	healthSrv := health.NewServer()
	var wg sync.WaitGroup

	if *grpcListen != "" {
		lis, err := net.Listen("tcp", *grpcListen)
		if err != nil {
			log.Fatalf("failed to listen on %s: %v", *grpcListen, err)
		}
		gs := newGRPCServer(healthSrv)
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("gRPC health listening on %s", *grpcListen)
			if err := gs.Serve(lis); err != nil {
				log.Printf("gRPC server error: %v", err)
			}
		}()
		go func() {
			<-ctx.Done()
			healthSrv.Shutdown()
			gs.GracefulStop()
		}()
	}

	server := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(mux),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("failed to shut down HTTP server: %v", err)
		}
	}()

	healthSrv.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	log.Printf("leaderboard listening on %s (db %s)", *listen, database.Path())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("failed to start server: %v", err)
	}
	wg.Wait()
	log.Print("leaderboard stopped")
}

// newMux mounts the public API and the admin debug routes.
func newMux(database *db.DB) (*http.ServeMux, error) {
	mux := api.NewServer(database).ServeMux()
	if err := database.AttachAdminRoutes(mux); err != nil {
		return nil, fmt.Errorf("attach admin routes: %w", err)
	}
	return mux, nil
}

func newGRPCServer(h *health.Server) *grpc.Server {
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, h)
	return gs
}
