package worker

// digest_cron.go
// Background goroutine that periodically mails the list of every active
// product at or below its minimum stock. It skips ticks while the mailer's
// circuit breaker is open.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gonza-rom/jmr-stock-sub000/internal/infra"
	"github.com/gonza-rom/jmr-stock-sub000/internal/model"

	"github.com/rs/zerolog/log"
)

// BajoStockLister is satisfied by repository.ProductoRepository.
type BajoStockLister interface {
	ListBajoStock(ctx context.Context) ([]model.Producto, error)
}

// DigestCronConfig holds all dependencies for the digest goroutine.
type DigestCronConfig struct {
	Productos  BajoStockLister
	Dispatcher *Dispatcher
	CB         *infra.CircuitBreaker
	To         []string
	Interval   time.Duration
	Negocio    string
}

// StartDigestCron ticks every cfg.Interval until ctx is cancelled. It is a
// no-op without recipients.
func StartDigestCron(ctx context.Context, cfg DigestCronConfig) {
	if len(cfg.To) == 0 || cfg.Interval <= 0 {
		log.Info().Msg("digest_cron: disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("digest_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("digest_cron: shutting down")
				return
			case <-ticker.C:
				if err := runDigest(ctx, cfg); err != nil {
					log.Error().Err(err).Msg("digest_cron: tick failed")
				}
			}
		}
	}()
}

func runDigest(ctx context.Context, cfg DigestCronConfig) error {
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("digest_cron: circuit breaker is open, skipping tick")
		return nil
	}
	productos, err := cfg.Productos.ListBajoStock(ctx)
	if err != nil {
		return fmt.Errorf("listar bajo stock: %w", err)
	}
	if len(productos) == 0 {
		return nil
	}
	subject := fmt.Sprintf("%s - %d productos con stock bajo", cfg.Negocio, len(productos))
	return cfg.Dispatcher.EnqueueEmail(ctx, cfg.To, subject, digestBody(productos))
}

func digestBody(productos []model.Producto) string {
	var b strings.Builder
	b.WriteString("Productos en o por debajo del stock minimo:\n\n")
	for _, p := range productos {
		codigo := "-"
		if p.Codigo != nil {
			codigo = *p.Codigo
		}
		fmt.Fprintf(&b, "%-14s %-40s stock %4d  minimo %4d\n", codigo, p.Nombre, p.Stock, p.StockMinimo)
	}
	return b.String()
}
