package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"steam-dealbot/internal/models"
)

// FileStore guarda um arquivo JSON por usuário, nomeado pelo ID do Telegram
type FileStore struct {
	dir string
}

// NewFileStore usa o diretório informado, criando-o se necessário
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("diretório de dados não configurado")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("criar diretório de dados: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id int64) string {
	return filepath.Join(s.dir, strconv.FormatInt(id, 10))
}

// Load lê o registro do usuário
func (s *FileStore) Load(_ context.Context, id int64) (*models.UserRecord, error) {
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ler registro %d: %w", id, err)
	}
	return decodeRecord(data)
}

// Save grava o registro em um arquivo temporário e o renomeia sobre o anterior
func (s *FileStore) Save(_ context.Context, rec *models.UserRecord) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("serializar registro %d: %w", rec.TelegramID, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("criar arquivo temporário: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("gravar registro %d: %w", rec.TelegramID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("gravar registro %d: %w", rec.TelegramID, err)
	}

	if err := os.Rename(tmp.Name(), s.path(rec.TelegramID)); err != nil {
		return fmt.Errorf("substituir registro %d: %w", rec.TelegramID, err)
	}
	return nil
}

// IDs lista os usuários com registro salvo; arquivos com outros nomes são ignorados
func (s *FileStore) IDs(_ context.Context) ([]int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listar diretório de dados: %w", err)
	}

	var ids []int64
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		id, err := strconv.ParseInt(e.Name(), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *FileStore) Close() error {
	return nil
}
