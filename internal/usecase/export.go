package usecase

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"boardroom-booking/internal/data/entity"
	"boardroom-booking/internal/data/repository"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	exportSheet = "Bookings"
	exportLimit = 10000
)

var exportHeaders = []string{
	"Booking ID", "Boardroom", "Location", "Organizer", "Organizer Email",
	"Purpose", "Start", "End", "Status", "Attendees",
}

type ExportService interface {
	// ExportBookings renders bookings starting in [from, to) as an xlsx workbook.
	ExportBookings(ctx context.Context, from, to time.Time) ([]byte, error)
}

type exportService struct {
	bookingRepo repository.BookingRepository
	log         *zap.Logger
}

func NewExportService(bookingRepo repository.BookingRepository, log *zap.Logger) ExportService {
	return &exportService{
		bookingRepo: bookingRepo,
		log:         log.With(zap.String("service", "export")),
	}
}

func (s *exportService) ExportBookings(ctx context.Context, from, to time.Time) ([]byte, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("invalid range: to must be after from")
	}

	bookings, err := s.bookingRepo.FindAll(ctx, repository.BookingFilter{From: from, To: to}, exportLimit, 0)
	if err != nil {
		s.log.Error("Failed to load bookings for export", zap.Error(err))
		return nil, fmt.Errorf("failed to export bookings")
	}

	data, err := renderBookingsWorkbook(bookings, from, to)
	if err != nil {
		s.log.Error("Failed to render export workbook", zap.Error(err))
		return nil, fmt.Errorf("failed to export bookings")
	}

	s.log.Info("Bookings exported",
		zap.Int("rows", len(bookings)),
		zap.Time("from", from),
		zap.Time("to", to))

	return data, nil
}

func renderBookingsWorkbook(bookings []*entity.BookingDetail, from, to time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	f.SetCellValue(exportSheet, "A1", fmt.Sprintf("Period: %s - %s",
		from.Format("02.01.2006"), to.Format("02.01.2006")))

	header, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(exportSheet, cell, h)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	f.SetCellStyle(exportSheet, "A2", lastCol+"2", header)

	cancelled, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#9C0006", Strike: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create cancelled style: %w", err)
	}

	for i, b := range bookings {
		row := i + 3
		values := []any{
			b.ID.String(),
			roomField(b, func(r *entity.Boardroom) string { return r.Name }),
			roomField(b, func(r *entity.Boardroom) string { return r.Location }),
			organizerField(b, func(u *entity.User) string { return u.Username }),
			organizerField(b, func(u *entity.User) string { return u.Email }),
			b.Purpose,
			b.StartTime.Local().Format("2006-01-02 15:04"),
			b.EndTime.Local().Format("2006-01-02 15:04"),
			string(b.Status),
			len(b.Recipients()),
		}

		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}

		if b.Status == entity.BookingStatusCancelled {
			end, _ := excelize.CoordinatesToCellName(len(exportHeaders), row)
			f.SetCellStyle(exportSheet, cell, end, cancelled)
		}
	}

	f.SetColWidth(exportSheet, "A", "A", 38)
	f.SetColWidth(exportSheet, "B", lastCol, 20)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func roomField(b *entity.BookingDetail, get func(*entity.Boardroom) string) string {
	if b.Room == nil {
		return ""
	}
	return get(b.Room)
}

func organizerField(b *entity.BookingDetail, get func(*entity.User) string) string {
	if b.Organizer == nil {
		return ""
	}
	return get(b.Organizer)
}
