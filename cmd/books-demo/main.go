package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/goliatone/go-method-cache/cache"
	"github.com/goliatone/go-method-cache/internal/books"
	"github.com/goliatone/go-method-cache/methodcache"
	"github.com/goliatone/go-method-cache/pkg/di"
	"github.com/goliatone/go-method-cache/pkg/metrics"
)

func main() {
	app := &cli.App{
		Name:  "books-demo",
		Usage: "Walk a book through cached reads, a stale update and an explicit clear",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML cache config file"},
			&cli.StringFlag{Name: "db", Usage: "SQLite DSN; empty uses a private in-memory database"},
			&cli.BoolFlag{Name: "write-through", Usage: "invalidate the cached book on update"},
			&cli.DurationFlag{Name: "ttl", Usage: "per-entry expiry for the book cache, 0 disables it"},
			&cli.StringFlag{Name: "log-mode", Value: "debug", Usage: "debug or production"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	logger, err := newLogger(c.String("log-mode"))
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := cache.DefaultConfig()
	if path := c.String("config"); path != "" {
		if cfg, err = cache.LoadConfig(path); err != nil {
			return err
		}
	}

	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewPrometheusRecorder(registry, "books_demo")
	if err != nil {
		return err
	}

	container, err := di.NewContainer(cfg, di.WithLogger(logger), di.WithMetrics(recorder))
	if err != nil {
		return err
	}
	defer container.Close()

	db, err := books.OpenSQLite(c.String("db"))
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := c.Context
	store := books.NewStore(db)
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	opts := []methodcache.Option{methodcache.WithTTL(c.Duration("ttl"))}
	if c.Bool("write-through") {
		opts = append(opts, methodcache.WithPolicy(methodcache.PolicyWriteThrough))
	}

	service, err := books.NewService(store, container, opts...)
	if err != nil {
		return err
	}

	if err := scenario(ctx, service); err != nil {
		return err
	}

	return reportMetrics(os.Stdout, registry)
}

func scenario(ctx context.Context, service *books.Service) error {
	fmt.Println("=== books-demo ===")
	fmt.Printf("cache %q, policy %s\n\n", service.Cache().Namespace(), service.Cache().Policy())

	id, err := service.AddBook(ctx, &books.Book{Title: "War and Peace"})
	if err != nil {
		return err
	}
	fmt.Printf("1. added book %d\n", id)

	if err := show(ctx, service, "2. first read (miss)", id); err != nil {
		return err
	}

	if err := service.Update(ctx, id, "Harry met Sally"); err != nil {
		return err
	}
	fmt.Println("3. renamed to \"Harry met Sally\" in the store")

	if err := show(ctx, service, "4. read after update", id); err != nil {
		return err
	}

	if err := service.Clear(ctx, id); err != nil {
		return err
	}
	fmt.Println("5. cleared the cached copy")

	return show(ctx, service, "6. read after clear", id)
}

func show(ctx context.Context, service *books.Service, step string, id int64) error {
	start := time.Now()
	b, err := service.GetBook(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %q (%s)\n", step, b.Title, time.Since(start))
	return nil
}

// reportMetrics prints every method cache counter gathered from g, one
// sample per line, e.g. books_demo_method_cache_hits_total{cache="book_service_get_book"} 1.
func reportMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	fmt.Fprintln(w, "\n=== metrics ===")
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			fmt.Fprintf(w, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue())
		}
	}
	return nil
}

func newLogger(mode string) (*zap.Logger, error) {
	if mode == "production" {
		return zap.NewProduction(zap.AddStacktrace(zap.DPanicLevel))
	}
	return zap.NewDevelopment(zap.AddStacktrace(zap.DPanicLevel))
}
