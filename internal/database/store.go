package database

import (
	"context"
	"errors"
	"fmt"

	"steam-dealbot/internal/models"

	"github.com/goccy/go-json"
)

var (
	// ErrNotFound indica que o usuário ainda não tem registro salvo
	ErrNotFound = errors.New("registro de usuário não encontrado")

	// ErrCorruptRecord indica um registro salvo que não pôde ser lido
	ErrCorruptRecord = errors.New("registro de usuário corrompido")
)

// Drivers de armazenamento suportados
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Store persiste o registro de cada usuário como um blob JSON indexado pelo ID do Telegram
type Store interface {
	Load(ctx context.Context, telegramID int64) (*models.UserRecord, error)
	Save(ctx context.Context, rec *models.UserRecord) error
	IDs(ctx context.Context) ([]int64, error)
	Close() error
}

// Open abre o armazenamento do driver escolhido
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverFile, "":
		return NewFileStore(path)
	case DriverSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("driver de armazenamento desconhecido: %q", driver)
	}
}

// IsMissing indica que o registro deve ser tratado como inexistente
func IsMissing(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrCorruptRecord)
}

func encodeRecord(rec *models.UserRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func decodeRecord(data []byte) (*models.UserRecord, error) {
	var rec models.UserRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	rec.Normalize()
	return &rec, nil
}
