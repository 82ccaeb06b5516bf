package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"boardroom-booking/internal/data/entity"
	"boardroom-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// BookingFilter narrows list queries. Zero values are ignored.
type BookingFilter struct {
	Status      entity.BookingStatus
	BoardroomID uuid.UUID
	From        time.Time
	To          time.Time
}

// ErrBookingConflict is returned by Create when the room is already taken.
var ErrBookingConflict = errors.New("booking conflict")

// Half-open overlap against live bookings: back-to-back slots do not clash.
const conflictQuery = `
	SELECT EXISTS (
		SELECT 1 FROM bookings
		WHERE boardroom_id = $1
		  AND status <> 'cancelled'
		  AND start_time < $3
		  AND end_time > $2
		  AND id <> $4
	)
`

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking, attendeeIDs []uuid.UUID, external []entity.ExternalAttendee) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindDetailByID(ctx context.Context, id uuid.UUID) (*entity.BookingDetail, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.BookingDetail, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	FindAll(ctx context.Context, filter BookingFilter, limit, offset int) ([]*entity.BookingDetail, error)
	CountAll(ctx context.Context, filter BookingFilter) (int64, error)
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus) error

	// Business queries
	HasConflict(ctx context.Context, boardroomID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error)
	FindByBoardroomBetween(ctx context.Context, boardroomID uuid.UUID, from, to time.Time) ([]*entity.Booking, error)
	FindUpcoming(ctx context.Context, from, to time.Time) ([]*entity.BookingDetail, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `b.id, b.boardroom_id, b.organizer_id, b.purpose, b.start_time, b.end_time, b.status, b.created_at, b.updated_at`

func scanBooking(row pgx.Row, booking *entity.Booking) error {
	return row.Scan(
		&booking.ID,
		&booking.BoardroomID,
		&booking.OrganizerID,
		&booking.Purpose,
		&booking.StartTime,
		&booking.EndTime,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking, attendeeIDs []uuid.UUID, external []entity.ExternalAttendee) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create booking %s: %w", booking.ID, err)
	}
	defer tx.Rollback(ctx)

	// Serialise creates per room so the overlap check below cannot race.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, booking.BoardroomID.String()); err != nil {
		return fmt.Errorf("lock boardroom %s: %w", booking.BoardroomID, err)
	}

	var conflict bool
	if err := tx.QueryRow(ctx, conflictQuery, booking.BoardroomID, booking.StartTime, booking.EndTime, booking.ID).Scan(&conflict); err != nil {
		return fmt.Errorf("check conflict for boardroom %s: %w", booking.BoardroomID, err)
	}
	if conflict {
		return ErrBookingConflict
	}

	query := `
		INSERT INTO bookings (id, boardroom_id, organizer_id, purpose, start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = tx.Exec(ctx, query,
		booking.ID,
		booking.BoardroomID,
		booking.OrganizerID,
		booking.Purpose,
		booking.StartTime,
		booking.EndTime,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("boardroom_id", booking.BoardroomID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.ID, err)
	}

	for _, userID := range attendeeIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO booking_attendees (booking_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			booking.ID, userID,
		); err != nil {
			r.log.Error("Failed to add booking attendee",
				zap.Error(err),
				zap.String("booking_id", booking.ID.String()),
				zap.String("user_id", userID.String()),
			)
			return fmt.Errorf("add attendee %s to booking %s: %w", userID, booking.ID, err)
		}
	}

	for _, ea := range external {
		if _, err := tx.Exec(ctx,
			`INSERT INTO booking_external_attendees (id, booking_id, email, name) VALUES ($1, $2, $3, $4)`,
			ea.ID, booking.ID, ea.Email, ea.Name,
		); err != nil {
			r.log.Error("Failed to add external attendee",
				zap.Error(err),
				zap.String("booking_id", booking.ID.String()),
				zap.String("email", ea.Email),
			)
			return fmt.Errorf("add external attendee %s to booking %s: %w", ea.Email, booking.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit booking %s: %w", booking.ID, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`

	var booking entity.Booking
	err := scanBooking(r.db.QueryRow(ctx, query, id), &booking)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return &booking, nil
}

func (r *bookingRepository) FindDetailByID(ctx context.Context, id uuid.UUID) (*entity.BookingDetail, error) {
	booking, err := r.FindByID(ctx, id)
	if err != nil || booking == nil {
		return nil, err
	}

	details, err := r.resolve(ctx, []*entity.Booking{booking})
	if err != nil {
		return nil, err
	}

	return details[0], nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.BookingDetail, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.organizer_id = $1
		   OR EXISTS (SELECT 1 FROM booking_attendees a WHERE a.booking_id = b.id AND a.user_id = $1)
		ORDER BY b.start_time DESC
		LIMIT $2 OFFSET $3
	`

	bookings, err := r.queryBookings(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by user ID %s: %w", userID.String(), err)
	}

	return r.resolve(ctx, bookings)
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*) FROM bookings b
		WHERE b.organizer_id = $1
		   OR EXISTS (SELECT 1 FROM booking_attendees a WHERE a.booking_id = b.id AND a.user_id = $1)
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings by user ID %s: %w", userID.String(), err)
	}

	return count, nil
}

// buildFilter renders a WHERE clause for filter, starting placeholders at $1.
func buildFilter(filter BookingFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("b.status = $%d", len(args)))
	}
	if filter.BoardroomID != uuid.Nil {
		args = append(args, filter.BoardroomID)
		conds = append(conds, fmt.Sprintf("b.boardroom_id = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		conds = append(conds, fmt.Sprintf("b.start_time >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conds = append(conds, fmt.Sprintf("b.start_time < $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *bookingRepository) FindAll(ctx context.Context, filter BookingFilter, limit, offset int) ([]*entity.BookingDetail, error) {
	where, args := buildFilter(filter)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM bookings b%s ORDER BY b.start_time DESC LIMIT $%d OFFSET $%d`,
		bookingColumns, where, len(args)-1, len(args))

	bookings, err := r.queryBookings(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find bookings",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings limit %d offset %d: %w", limit, offset, err)
	}

	return r.resolve(ctx, bookings)
}

func (r *bookingRepository) CountAll(ctx context.Context, filter BookingFilter) (int64, error) {
	where, args := buildFilter(filter)
	query := `SELECT COUNT(*) FROM bookings b` + where

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings", zap.Error(err))
		return 0, fmt.Errorf("count bookings: %w", err)
	}

	return count, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus) error {
	query := `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, bookingID, status)
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update booking %s status to %s: %w", bookingID.String(), string(status), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", bookingID.String())
	}

	return nil
}

// HasConflict reports whether a live booking in the room overlaps [start, end).
func (r *bookingRepository) HasConflict(ctx context.Context, boardroomID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, conflictQuery, boardroomID, start, end, excludeID).Scan(&exists); err != nil {
		r.log.Error("Failed to check booking conflict",
			zap.Error(err),
			zap.String("boardroom_id", boardroomID.String()),
			zap.Time("start", start),
			zap.Time("end", end),
		)
		return false, fmt.Errorf("check conflict for boardroom %s: %w", boardroomID.String(), err)
	}

	return exists, nil
}

func (r *bookingRepository) FindByBoardroomBetween(ctx context.Context, boardroomID uuid.UUID, from, to time.Time) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.boardroom_id = $1
		  AND b.status <> 'cancelled'
		  AND b.start_time < $3
		  AND b.end_time > $2
		ORDER BY b.start_time
	`

	bookings, err := r.queryBookings(ctx, query, boardroomID, from, to)
	if err != nil {
		r.log.Error("Failed to find boardroom bookings",
			zap.Error(err),
			zap.String("boardroom_id", boardroomID.String()),
		)
		return nil, fmt.Errorf("find bookings for boardroom %s: %w", boardroomID.String(), err)
	}

	return bookings, nil
}

// FindUpcoming returns confirmed bookings whose start time lies in [from, to],
// both ends inclusive, with relations resolved.
func (r *bookingRepository) FindUpcoming(ctx context.Context, from, to time.Time) ([]*entity.BookingDetail, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.status = 'confirmed'
		  AND b.start_time >= $1
		  AND b.start_time <= $2
		ORDER BY b.start_time
	`

	bookings, err := r.queryBookings(ctx, query, from, to)
	if err != nil {
		r.log.Error("Failed to find upcoming bookings",
			zap.Error(err),
			zap.Time("from", from),
			zap.Time("to", to),
		)
		return nil, fmt.Errorf("find upcoming bookings: %w", err)
	}

	return r.resolve(ctx, bookings)
}

func (r *bookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]*entity.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		var booking entity.Booking
		if err := scanBooking(rows, &booking); err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, &booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

// resolve loads rooms, organizers and attendees for bookings with one query per relation.
func (r *bookingRepository) resolve(ctx context.Context, bookings []*entity.Booking) ([]*entity.BookingDetail, error) {
	details := make([]*entity.BookingDetail, len(bookings))
	if len(bookings) == 0 {
		return details, nil
	}

	bookingIDs := make([]uuid.UUID, len(bookings))
	roomIDs := make([]uuid.UUID, 0, len(bookings))
	userIDs := make([]uuid.UUID, 0, len(bookings))
	byID := make(map[uuid.UUID]*entity.BookingDetail, len(bookings))

	for i, b := range bookings {
		details[i] = &entity.BookingDetail{Booking: *b}
		byID[b.ID] = details[i]
		bookingIDs[i] = b.ID
		roomIDs = append(roomIDs, b.BoardroomID)
		userIDs = append(userIDs, b.OrganizerID)
	}

	rooms, err := r.loadRooms(ctx, roomIDs)
	if err != nil {
		return nil, err
	}

	attendeeRefs, err := r.loadAttendeeRefs(ctx, bookingIDs)
	if err != nil {
		return nil, err
	}
	for _, ref := range attendeeRefs {
		userIDs = append(userIDs, ref.userID)
	}

	users, err := r.loadUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	external, err := r.loadExternalAttendees(ctx, bookingIDs)
	if err != nil {
		return nil, err
	}

	for _, d := range details {
		d.Room = rooms[d.BoardroomID]
		d.Organizer = users[d.OrganizerID]
	}
	for _, ref := range attendeeRefs {
		if u, ok := users[ref.userID]; ok {
			byID[ref.bookingID].Attendees = append(byID[ref.bookingID].Attendees, u)
		}
	}
	for _, ea := range external {
		byID[ea.BookingID].ExternalAttendees = append(byID[ea.BookingID].ExternalAttendees, ea)
	}

	return details, nil
}

type attendeeRef struct {
	bookingID uuid.UUID
	userID    uuid.UUID
}

func (r *bookingRepository) loadAttendeeRefs(ctx context.Context, bookingIDs []uuid.UUID) ([]attendeeRef, error) {
	rows, err := r.db.Query(ctx,
		`SELECT booking_id, user_id FROM booking_attendees WHERE booking_id = ANY($1)`, bookingIDs)
	if err != nil {
		r.log.Error("Failed to load booking attendees", zap.Error(err))
		return nil, fmt.Errorf("load booking attendees: %w", err)
	}
	defer rows.Close()

	var refs []attendeeRef
	for rows.Next() {
		var ref attendeeRef
		if err := rows.Scan(&ref.bookingID, &ref.userID); err != nil {
			return nil, fmt.Errorf("scan attendee row: %w", err)
		}
		refs = append(refs, ref)
	}

	return refs, rows.Err()
}

func (r *bookingRepository) loadExternalAttendees(ctx context.Context, bookingIDs []uuid.UUID) ([]entity.ExternalAttendee, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, booking_id, email, name FROM booking_external_attendees WHERE booking_id = ANY($1) ORDER BY name`, bookingIDs)
	if err != nil {
		r.log.Error("Failed to load external attendees", zap.Error(err))
		return nil, fmt.Errorf("load external attendees: %w", err)
	}
	defer rows.Close()

	var out []entity.ExternalAttendee
	for rows.Next() {
		var ea entity.ExternalAttendee
		if err := rows.Scan(&ea.ID, &ea.BookingID, &ea.Email, &ea.Name); err != nil {
			return nil, fmt.Errorf("scan external attendee row: %w", err)
		}
		out = append(out, ea)
	}

	return out, rows.Err()
}

func (r *bookingRepository) loadRooms(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Boardroom, error) {
	rows, err := r.db.Query(ctx, `SELECT `+boardroomColumns+` FROM boardrooms WHERE id = ANY($1)`, ids)
	if err != nil {
		r.log.Error("Failed to load boardrooms", zap.Error(err))
		return nil, fmt.Errorf("load boardrooms: %w", err)
	}
	defer rows.Close()

	rooms := make(map[uuid.UUID]*entity.Boardroom)
	for rows.Next() {
		var room entity.Boardroom
		if err := scanBoardroom(rows, &room); err != nil {
			return nil, fmt.Errorf("scan boardroom row: %w", err)
		}
		rooms[room.ID] = &room
	}

	return rooms, rows.Err()
}

func (r *bookingRepository) loadUsers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		r.log.Error("Failed to load users", zap.Error(err))
		return nil, fmt.Errorf("load users: %w", err)
	}
	defer rows.Close()

	users := make(map[uuid.UUID]*entity.User)
	for rows.Next() {
		var user entity.User
		if err := scanUser(rows, &user); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users[user.ID] = &user
	}

	return users, rows.Err()
}
