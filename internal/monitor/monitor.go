package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"steam-dealbot/internal/database"
	"steam-dealbot/internal/deals"
	"steam-dealbot/internal/metrics"
	"steam-dealbot/internal/models"
	"steam-dealbot/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownUser indica um usuário que ainda não configurou a conta
var ErrUnknownUser = errors.New("usuário não configurado")

// Notifier envia a lista de promoções a um chat
type Notifier interface {
	NotifyDeals(ctx context.Context, chatID int64, games []models.Game) error
}

// Monitor executa a atualização diária de todos os usuários
type Monitor struct {
	users     *database.Users
	refresher *Refresher
	notifier  Notifier
	metrics   *metrics.Metrics
	log       *logger.Logger

	hour, minute int
	workers      int
	now          func() time.Time
}

// Option configura o monitor
type Option func(*Monitor)

// WithSchedule define o horário da rotina diária
func WithSchedule(hour, minute int) Option {
	return func(m *Monitor) {
		m.hour, m.minute = hour, minute
	}
}

// WithWorkers define quantos usuários são processados em paralelo
func WithWorkers(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.workers = n
		}
	}
}

// New cria uma nova instância do monitor
func New(users *database.Users, refresher *Refresher, notifier Notifier, m *metrics.Metrics, log *logger.Logger, opts ...Option) *Monitor {
	mon := &Monitor{
		users:     users,
		refresher: refresher,
		notifier:  notifier,
		metrics:   m,
		log:       log,
		hour:      -1,
		minute:    -1,
		workers:   1,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(mon)
	}
	return mon
}

// ValidTime indica se o horário pode agendar a rotina diária
func ValidTime(hour, minute int) bool {
	return hour >= 0 && hour < 24 && minute >= 0 && minute < 60
}

// NextRun retorna a próxima ocorrência de hour:minute estritamente depois de now
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start executa a rotina diária no horário configurado até ctx ser cancelado
func (m *Monitor) Start(ctx context.Context) {
	if !ValidTime(m.hour, m.minute) {
		m.log.Warn("Horário de atualização inválido, rotina diária desativada", "hour", m.hour, "minute", m.minute)
		return
	}

	m.log.Info(fmt.Sprintf("Monitor iniciado. Atualizações diárias às %02d:%02d", m.hour, m.minute))

	for {
		next := NextRun(m.now(), m.hour, m.minute)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := m.RunOnce(ctx); err != nil {
				m.log.Error("Erro na rotina diária", "error", err)
			}
		}
	}
}

// RunOnce atualiza o cache de todos os usuários, envia as novas promoções e salva os registros
func (m *Monitor) RunOnce(ctx context.Context) error {
	log := m.log.WithField("run_id", uuid.NewString())

	ids, err := m.users.IDs(ctx)
	if err != nil {
		return fmt.Errorf("listar usuários: %w", err)
	}

	log.Info("Atualizando caches locais", "users", len(ids))

	var g errgroup.Group
	g.SetLimit(m.workers)
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		id := id
		g.Go(func() error {
			result := m.processUser(ctx, log, id)
			m.metrics.UsersProcessed.WithLabelValues(result).Inc()
			return nil
		})
	}
	_ = g.Wait()

	log.Info("Atualização diária concluída")
	return ctx.Err()
}

// Resultados de processUser, usados como rótulo da métrica
const (
	resultOK            = "ok"
	resultMissing       = "missing"
	resultRefreshFailed = "refresh_failed"
	resultNotifyFailed  = "notify_failed"
	resultError         = "error"
)

func (m *Monitor) processUser(ctx context.Context, log *logger.Logger, id int64) string {
	unlock := m.users.Lock(id)
	defer unlock()

	rec, found, err := m.users.Get(ctx, id)
	if err != nil {
		log.Error("Erro ao ler registro", "telegram_id", id, "error", err)
		return resultError
	}
	if !found {
		return resultMissing
	}

	log.Debug("Atualizando cache", "telegram_id", id, "username", rec.Username)

	games, err := m.refresher.Refresh(ctx, rec.Username)
	if err != nil {
		// Registro intacto; tenta de novo no próximo ciclo
		log.Warn("Erro ao buscar wishlist", "telegram_id", id, "username", rec.Username, "error", err)
		return resultRefreshFailed
	}
	rec.SetCache(games)

	result := resultOK
	selected := deals.UserQuery(rec, true).Run(rec)
	if len(selected) > 0 {
		if err := m.notifier.NotifyDeals(ctx, rec.TelegramID, selected); err != nil {
			log.Warn("Erro ao enviar promoções", "telegram_id", id, "error", err)
			result = resultNotifyFailed
		} else {
			m.metrics.DealsNotified.Add(float64(len(selected)))
		}
	}

	if result == resultOK {
		rec.ExcludeList = deals.SnapshotExcludes(rec.Cache)
	}

	if err := m.users.Save(ctx, rec); err != nil {
		log.Error("Erro ao salvar registro", "telegram_id", id, "error", err)
		return resultError
	}

	log.Debug("Usuário processado", "telegram_id", id, "games", len(rec.Cache), "notified", len(selected))
	return result
}

// RefreshRecord substitui o cache do registro pela wishlist atual, sem salvar
func (m *Monitor) RefreshRecord(ctx context.Context, rec *models.UserRecord) error {
	games, err := m.refresher.Refresh(ctx, rec.Username)
	if err != nil {
		return err
	}
	rec.SetCache(games)
	return nil
}

// RefreshUser atualiza e salva o cache de um usuário já configurado
func (m *Monitor) RefreshUser(ctx context.Context, id int64) (*models.UserRecord, error) {
	unlock := m.users.Lock(id)
	defer unlock()

	rec, found, err := m.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUnknownUser
	}

	if err := m.RefreshRecord(ctx, rec); err != nil {
		return nil, err
	}
	if err := m.users.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}
