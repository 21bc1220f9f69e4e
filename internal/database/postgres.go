package database

import (
	"database/sql"
)

type PgWorkChatRepository struct {
	conn *sql.DB
}

func NewPgWorkChatRepository(dsn string) (*PgWorkChatRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgWorkChatRepository{conn: db}, nil
}

func (db *PgWorkChatRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgWorkChatRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
