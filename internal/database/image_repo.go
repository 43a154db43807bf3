package database

import (
	"database/sql"
	"errors"
	"fmt"

	"wastesort/internal/models"
)

type ImageRepository struct {
	db *DB
}

func NewImageRepository(db *DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) Create(record *models.ImageRecord) error {
	query := r.db.rebind(`INSERT INTO images (id, filename, content_type, source, width, height, size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.conn.Exec(query,
		record.ID, record.Filename, record.ContentType, record.Source,
		record.Width, record.Height, record.Size, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert image record: %w", err)
	}
	return nil
}

func (r *ImageRepository) GetByID(id string) (*models.ImageRecord, error) {
	query := r.db.rebind(`SELECT id, filename, content_type, source, width, height, size, created_at
		FROM images WHERE id = ?`)

	record := &models.ImageRecord{}
	err := r.db.conn.QueryRow(query, id).Scan(
		&record.ID, &record.Filename, &record.ContentType, &record.Source,
		&record.Width, &record.Height, &record.Size, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("image not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image record: %w", err)
	}
	return record, nil
}

func (r *ImageRepository) List(limit int) ([]*models.ImageRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := r.db.rebind(`SELECT id, filename, content_type, source, width, height, size, created_at
		FROM images ORDER BY created_at DESC LIMIT ?`)

	rows, err := r.db.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list image records: %w", err)
	}
	defer rows.Close()

	var records []*models.ImageRecord
	for rows.Next() {
		record := &models.ImageRecord{}
		if err := rows.Scan(&record.ID, &record.Filename, &record.ContentType, &record.Source,
			&record.Width, &record.Height, &record.Size, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan image record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *ImageRepository) Delete(id string) error {
	query := r.db.rebind(`DELETE FROM images WHERE id = ?`)

	result, err := r.db.conn.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete image record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("image not found")
	}
	return nil
}
