package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"steam-dealbot/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore guarda o JSON de cada usuário em uma tabela SQLite
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore cria uma nova instância do banco de dados
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("caminho do banco de dados não configurado")
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// Um único escritor evita "database is locked" entre a rotina diária e os comandos
	conn.SetMaxOpenConns(1)

	db := &SQLiteStore{conn: conn}
	if err := db.init(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

// init cria as tabelas necessárias
func (db *SQLiteStore) init() error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS user_records (
		telegram_id INTEGER PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.conn.Exec(createTableSQL); err != nil {
		return fmt.Errorf("criar tabela user_records: %w", err)
	}
	return nil
}

// Close fecha a conexão com o banco de dados
func (db *SQLiteStore) Close() error {
	return db.conn.Close()
}

// Load retorna o registro de um usuário
func (db *SQLiteStore) Load(ctx context.Context, id int64) (*models.UserRecord, error) {
	var data string
	err := db.conn.QueryRowContext(ctx, "SELECT data FROM user_records WHERE telegram_id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ler registro %d: %w", id, err)
	}
	return decodeRecord([]byte(data))
}

// Save insere ou substitui o registro de um usuário
func (db *SQLiteStore) Save(ctx context.Context, rec *models.UserRecord) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("serializar registro %d: %w", rec.TelegramID, err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO user_records (telegram_id, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(telegram_id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		rec.TelegramID, string(data),
	)
	if err != nil {
		return fmt.Errorf("gravar registro %d: %w", rec.TelegramID, err)
	}
	return nil
}

// IDs retorna os IDs de todos os usuários salvos
func (db *SQLiteStore) IDs(ctx context.Context) ([]int64, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT telegram_id FROM user_records ORDER BY telegram_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
