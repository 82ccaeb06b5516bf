package repository

import (
	"context"
	"errors"
	"fmt"

	"boardroom-booking/internal/data/entity"
	"boardroom-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BoardroomRepository interface {
	Create(ctx context.Context, room *entity.Boardroom) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Boardroom, error)
	FindByName(ctx context.Context, name string) (*entity.Boardroom, error)
	FindAll(ctx context.Context, activeOnly bool, minCapacity, limit, offset int) ([]*entity.Boardroom, error)
	CountAll(ctx context.Context, activeOnly bool, minCapacity int) (int64, error)
	Update(ctx context.Context, room *entity.Boardroom) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type boardroomRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBoardroomRepository(db database.PgxIface, log *zap.Logger) BoardroomRepository {
	return &boardroomRepository{
		db:  db,
		log: log.With(zap.String("repository", "boardroom")),
	}
}

const boardroomColumns = `id, name, location, capacity, amenities, is_active, created_at, updated_at, deleted_at`

func scanBoardroom(row pgx.Row, room *entity.Boardroom) error {
	return row.Scan(
		&room.ID,
		&room.Name,
		&room.Location,
		&room.Capacity,
		&room.Amenities,
		&room.IsActive,
		&room.CreatedAt,
		&room.UpdatedAt,
		&room.DeletedAt,
	)
}

func (r *boardroomRepository) Create(ctx context.Context, room *entity.Boardroom) error {
	query := `
		INSERT INTO boardrooms (id, name, location, capacity, amenities, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		room.ID,
		room.Name,
		room.Location,
		room.Capacity,
		room.Amenities,
		room.IsActive,
		room.CreatedAt,
		room.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create boardroom",
			zap.Error(err),
			zap.String("name", room.Name),
		)
		return fmt.Errorf("create boardroom %s: %w", room.Name, duplicateOr(err))
	}

	return nil
}

func (r *boardroomRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Boardroom, error) {
	query := `SELECT ` + boardroomColumns + ` FROM boardrooms WHERE id = $1 AND deleted_at IS NULL`

	var room entity.Boardroom
	err := scanBoardroom(r.db.QueryRow(ctx, query, id), &room)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find boardroom by ID",
			zap.Error(err),
			zap.String("boardroom_id", id.String()),
		)
		return nil, fmt.Errorf("find boardroom by ID %s: %w", id.String(), err)
	}

	return &room, nil
}

func (r *boardroomRepository) FindByName(ctx context.Context, name string) (*entity.Boardroom, error) {
	query := `SELECT ` + boardroomColumns + ` FROM boardrooms WHERE LOWER(name) = LOWER($1) AND deleted_at IS NULL`

	var room entity.Boardroom
	err := scanBoardroom(r.db.QueryRow(ctx, query, name), &room)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find boardroom by name",
			zap.Error(err),
			zap.String("name", name),
		)
		return nil, fmt.Errorf("find boardroom by name %s: %w", name, err)
	}

	return &room, nil
}

func (r *boardroomRepository) FindAll(ctx context.Context, activeOnly bool, minCapacity, limit, offset int) ([]*entity.Boardroom, error) {
	query := `
		SELECT ` + boardroomColumns + `
		FROM boardrooms
		WHERE deleted_at IS NULL
		  AND (NOT $1 OR is_active)
		  AND capacity >= $2
		ORDER BY name
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, activeOnly, minCapacity, limit, offset)
	if err != nil {
		r.log.Error("Failed to find boardrooms",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find boardrooms limit %d offset %d: %w", limit, offset, err)
	}
	defer rows.Close()

	var rooms []*entity.Boardroom
	for rows.Next() {
		var room entity.Boardroom
		if err := scanBoardroom(rows, &room); err != nil {
			r.log.Error("Failed to scan boardroom row", zap.Error(err))
			return nil, fmt.Errorf("scan boardroom row: %w", err)
		}
		rooms = append(rooms, &room)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate boardroom rows: %w", err)
	}

	return rooms, nil
}

func (r *boardroomRepository) CountAll(ctx context.Context, activeOnly bool, minCapacity int) (int64, error) {
	query := `
		SELECT COUNT(*) FROM boardrooms
		WHERE deleted_at IS NULL AND (NOT $1 OR is_active) AND capacity >= $2
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, activeOnly, minCapacity).Scan(&count); err != nil {
		r.log.Error("Failed to count boardrooms", zap.Error(err))
		return 0, fmt.Errorf("count boardrooms: %w", err)
	}

	return count, nil
}

func (r *boardroomRepository) Update(ctx context.Context, room *entity.Boardroom) error {
	query := `
		UPDATE boardrooms
		SET name = $2, location = $3, capacity = $4, amenities = $5, is_active = $6, updated_at = $7
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(ctx, query,
		room.ID,
		room.Name,
		room.Location,
		room.Capacity,
		room.Amenities,
		room.IsActive,
		room.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update boardroom",
			zap.Error(err),
			zap.String("boardroom_id", room.ID.String()),
		)
		return fmt.Errorf("update boardroom %s: %w", room.ID.String(), duplicateOr(err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("boardroom %s not found", room.ID.String())
	}

	return nil
}

func (r *boardroomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE boardrooms SET deleted_at = NOW(), is_active = FALSE WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete boardroom",
			zap.Error(err),
			zap.String("boardroom_id", id.String()),
		)
		return fmt.Errorf("delete boardroom %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("boardroom %s not found", id.String())
	}

	r.log.Info("Boardroom deleted", zap.String("boardroom_id", id.String()))
	return nil
}
