package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quaddelta/catalog/config"
	"github.com/quaddelta/catalog/internal/api"
	"github.com/quaddelta/catalog/internal/app"
	"github.com/quaddelta/catalog/internal/webserver"
)

var (
	conffile    = flag.String("c", "catalog.yml", "config file")
	initdb      = flag.Bool("initdb", false, "drop and recreate all tables, then exit")
	showVersion = flag.Bool("v", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(api.Version)
		os.Exit(0)
	}

	cfg := config.LoadConfig(*conffile)
	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.S().Info("database initialized")
		return
	}

	server := webserver.New(cfg)
	api.Register(server, application)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.S().Fatalf("server error: %v", err)
	}
}
