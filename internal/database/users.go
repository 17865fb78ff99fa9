package database

import (
	"context"
	"errors"
	"sync"

	"steam-dealbot/internal/models"
	"steam-dealbot/pkg/logger"
)

// Users serializa o acesso ao registro de cada usuário sobre um Store
type Users struct {
	store Store
	log   *logger.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewUsers cria o gerenciador de registros
func NewUsers(store Store, log *logger.Logger) *Users {
	return &Users{
		store: store,
		log:   log,
		locks: make(map[int64]*sync.Mutex),
	}
}

// Lock bloqueia o registro do usuário até a função retornada ser chamada
func (u *Users) Lock(id int64) func() {
	u.mu.Lock()
	l, ok := u.locks[id]
	if !ok {
		l = &sync.Mutex{}
		u.locks[id] = l
	}
	u.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Get lê o registro; found é false quando ele não existe ou está corrompido.
// Deve ser chamado com o lock do usuário.
func (u *Users) Get(ctx context.Context, id int64) (*models.UserRecord, bool, error) {
	rec, err := u.store.Load(ctx, id)
	if err == nil {
		if fixed := rec.Configs.Repair(); len(fixed) > 0 {
			u.log.Warn("Configuração fora do intervalo, usando valor padrão", "telegram_id", id, "fields", fixed)
		}
		return rec, true, nil
	}
	if IsMissing(err) {
		if !errors.Is(err, ErrNotFound) {
			u.log.Warn("Registro corrompido, usando configuração padrão", "telegram_id", id, "error", err)
		}
		return nil, false, nil
	}
	return nil, false, err
}

// GetOrInit lê o registro ou cria um padrão, sem salvar
func (u *Users) GetOrInit(ctx context.Context, id int64) (*models.UserRecord, error) {
	rec, found, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return models.NewUserRecord(id), nil
	}
	return rec, nil
}

// Save persiste o registro. Deve ser chamado com o lock do usuário.
func (u *Users) Save(ctx context.Context, rec *models.UserRecord) error {
	return u.store.Save(ctx, rec)
}

// Update lê, altera e salva o registro com o lock do usuário; registros ausentes partem do padrão
func (u *Users) Update(ctx context.Context, id int64, fn func(rec *models.UserRecord) error) (*models.UserRecord, error) {
	unlock := u.Lock(id)
	defer unlock()

	rec, err := u.GetOrInit(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	if err := u.store.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// IDs lista os usuários salvos
func (u *Users) IDs(ctx context.Context) ([]int64, error) {
	return u.store.IDs(ctx)
}
