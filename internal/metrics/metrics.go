package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa os coletores do bot
type Metrics struct {
	// Duração de cada atualização de cache de usuário
	RefreshDuration prometheus.Histogram

	// Atualizações que falharam ao buscar a wishlist
	RefreshFailures prometheus.Counter

	// Ofertas enviadas pela rotina diária
	DealsNotified prometheus.Counter

	// Usuários processados pela rotina diária, por resultado
	UsersProcessed *prometheus.CounterVec
}

// New cria os coletores e os registra em reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dealbot_refresh_duration_seconds",
			Help:    "Latency of a wishlist cache refresh",
			Buckets: prometheus.DefBuckets,
		}),
		RefreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dealbot_refresh_failures_total",
			Help: "Total number of failed wishlist refreshes",
		}),
		DealsNotified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dealbot_deals_notified_total",
			Help: "Total number of deals sent by the daily job",
		}),
		UsersProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dealbot_users_processed_total",
			Help: "Users handled by the daily job, by result",
		}, []string{"result"}),
	}

	reg.MustRegister(m.RefreshDuration, m.RefreshFailures, m.DealsNotified, m.UsersProcessed)
	return m
}

// Serve expõe /metrics em addr até ctx ser cancelado
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
