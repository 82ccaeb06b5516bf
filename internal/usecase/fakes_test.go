package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"boardroom-booking/internal/data/entity"
	"boardroom-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeUserRepo struct {
	users     map[uuid.UUID]*entity.User
	createErr error
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.User, error) {
	var out []*entity.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok && u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindAll(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserRepo) CountAll(ctx context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.users, id)
	return nil
}

type fakeSessionRepo struct {
	sessions []*entity.Session
	revoked  []string
}

func (f *fakeSessionRepo) Create(ctx context.Context, session *entity.Session) error {
	f.sessions = append(f.sessions, session)
	return nil
}

func (f *fakeSessionRepo) FindValidSession(ctx context.Context, token string) (*entity.Session, error) {
	for _, s := range f.sessions {
		if s.Token.String() == token {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSessionRepo) Revoke(ctx context.Context, token string) error {
	f.revoked = append(f.revoked, token)
	return nil
}

func (f *fakeSessionRepo) RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (f *fakeSessionRepo) CleanExpiredSessions(ctx context.Context) error { return nil }

type fakeBoardroomRepo struct {
	rooms    map[uuid.UUID]*entity.Boardroom
	writeErr error
}

func (f *fakeBoardroomRepo) Create(ctx context.Context, room *entity.Boardroom) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.rooms[room.ID] = room
	return nil
}

func (f *fakeBoardroomRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Boardroom, error) {
	return f.rooms[id], nil
}

func (f *fakeBoardroomRepo) FindByName(ctx context.Context, name string) (*entity.Boardroom, error) {
	for _, r := range f.rooms {
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeBoardroomRepo) FindAll(ctx context.Context, activeOnly bool, minCapacity, limit, offset int) ([]*entity.Boardroom, error) {
	var out []*entity.Boardroom
	for _, r := range f.rooms {
		if (!activeOnly || r.IsActive) && r.Capacity >= minCapacity {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeBoardroomRepo) CountAll(ctx context.Context, activeOnly bool, minCapacity int) (int64, error) {
	rooms, _ := f.FindAll(ctx, activeOnly, minCapacity, 0, 0)
	return int64(len(rooms)), nil
}

func (f *fakeBoardroomRepo) Update(ctx context.Context, room *entity.Boardroom) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.rooms[room.ID] = room
	return nil
}

func (f *fakeBoardroomRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.rooms, id)
	return nil
}

// fakeBookingRepo keeps bookings in memory and applies the same half-open
// overlap rule as the SQL implementation.
type fakeBookingRepo struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*entity.Booking
	attendees map[uuid.UUID][]uuid.UUID
	external  map[uuid.UUID][]entity.ExternalAttendee
	users     *fakeUserRepo
	rooms     *fakeBoardroomRepo
	createErr error
}

func (f *fakeBookingRepo) Create(ctx context.Context, booking *entity.Booking, attendeeIDs []uuid.UUID, external []entity.ExternalAttendee) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}
	f.bookings[booking.ID] = booking
	f.attendees[booking.ID] = attendeeIDs
	f.external[booking.ID] = external
	return nil
}

func (f *fakeBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bookings[id], nil
}

func (f *fakeBookingRepo) FindDetailByID(ctx context.Context, id uuid.UUID) (*entity.BookingDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	return f.detail(b), nil
}

func (f *fakeBookingRepo) detail(b *entity.Booking) *entity.BookingDetail {
	d := &entity.BookingDetail{
		Booking:           *b,
		Room:              f.rooms.rooms[b.BoardroomID],
		Organizer:         f.users.users[b.OrganizerID],
		ExternalAttendees: f.external[b.ID],
	}
	for _, id := range f.attendees[b.ID] {
		if u, ok := f.users.users[id]; ok {
			d.Attendees = append(d.Attendees, u)
		}
	}
	return d
}

func (f *fakeBookingRepo) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.BookingDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*entity.BookingDetail
	for _, b := range f.bookings {
		d := f.detail(b)
		if isParticipant(d, userID) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	list, _ := f.FindByUserID(ctx, userID, 0, 0)
	return int64(len(list)), nil
}

func (f *fakeBookingRepo) FindAll(ctx context.Context, filter repository.BookingFilter, limit, offset int) ([]*entity.BookingDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*entity.BookingDetail
	for _, b := range f.bookings {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.BoardroomID != uuid.Nil && b.BoardroomID != filter.BoardroomID {
			continue
		}
		if !filter.From.IsZero() && b.StartTime.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !b.StartTime.Before(filter.To) {
			continue
		}
		out = append(out, f.detail(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeBookingRepo) CountAll(ctx context.Context, filter repository.BookingFilter) (int64, error) {
	list, _ := f.FindAll(ctx, filter, 0, 0)
	return int64(len(list)), nil
}

func (f *fakeBookingRepo) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[bookingID]
	if !ok {
		return fmt.Errorf("booking %s not found", bookingID)
	}
	b.Status = status
	return nil
}

func (f *fakeBookingRepo) HasConflict(ctx context.Context, boardroomID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, b := range f.bookings {
		if b.BoardroomID != boardroomID || b.ID == excludeID || b.Status == entity.BookingStatusCancelled {
			continue
		}
		if b.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookingRepo) FindByBoardroomBetween(ctx context.Context, boardroomID uuid.UUID, from, to time.Time) ([]*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*entity.Booking
	for _, b := range f.bookings {
		if b.BoardroomID == boardroomID && b.Status != entity.BookingStatusCancelled && b.Overlaps(from, to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) FindUpcoming(ctx context.Context, from, to time.Time) ([]*entity.BookingDetail, error) {
	return nil, nil
}

type fakeNotificationRepo struct {
	created []*entity.Notification
	read    map[uuid.UUID]uuid.UUID
}

func (f *fakeNotificationRepo) CreateBatch(ctx context.Context, notifications []*entity.Notification) error {
	f.created = append(f.created, notifications...)
	return nil
}

func (f *fakeNotificationRepo) FindByUserID(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	var out []*entity.Notification
	for _, n := range f.created {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) CountByUserID(ctx context.Context, userID uuid.UUID, unreadOnly bool) (int64, error) {
	list, _ := f.FindByUserID(ctx, userID, unreadOnly, 0, 0)
	return int64(len(list)), nil
}

func (f *fakeNotificationRepo) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	for _, n := range f.created {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return fmt.Errorf("notification %s not found", id)
}

func (f *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, nt := range f.created {
		if nt.UserID == userID && !nt.IsRead {
			nt.IsRead = true
			n++
		}
	}
	return n, nil
}

type fakes struct {
	users         *fakeUserRepo
	sessions      *fakeSessionRepo
	rooms         *fakeBoardroomRepo
	bookings      *fakeBookingRepo
	notifications *fakeNotificationRepo
}

func newFakes() (*repository.Repository, *fakes) {
	users := &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
	rooms := &fakeBoardroomRepo{rooms: make(map[uuid.UUID]*entity.Boardroom)}
	f := &fakes{
		users:    users,
		sessions: &fakeSessionRepo{},
		rooms:    rooms,
		bookings: &fakeBookingRepo{
			bookings:  make(map[uuid.UUID]*entity.Booking),
			attendees: make(map[uuid.UUID][]uuid.UUID),
			external:  make(map[uuid.UUID][]entity.ExternalAttendee),
			users:     users,
			rooms:     rooms,
		},
		notifications: &fakeNotificationRepo{},
	}

	repo := &repository.Repository{
		User:         f.users,
		Session:      f.sessions,
		Boardroom:    f.rooms,
		Booking:      f.bookings,
		Notification: f.notifications,
	}
	return repo, f
}

func (f *fakes) addUser(name string, role entity.UserRole) *entity.User {
	u := &entity.User{
		Base:     entity.Base{ID: uuid.New()},
		Username: name,
		Email:    name + "@example.com",
		Role:     role,
		IsActive: true,
	}
	f.users.users[u.ID] = u
	return u
}

func (f *fakes) addRoom(name string, capacity int) *entity.Boardroom {
	r := &entity.Boardroom{
		Base:     entity.Base{ID: uuid.New()},
		Name:     name,
		Location: "HQ",
		Capacity: capacity,
		IsActive: true,
	}
	f.rooms.rooms[r.ID] = r
	return r
}

var nopLog = zap.NewNop()
