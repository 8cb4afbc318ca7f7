package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/google/uuid"
)

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	employee.EmployeeRepository
	tables     policy.Tables
	classifier *Classifier
	aggregator *Aggregator
	now        func() time.Time
}

// Capture implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Capture(ctx context.Context, req attendance.CaptureRequest) (attendance.CaptureResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.CaptureResponse{}, err
	}

	if req.FaceMatch != nil && !req.FaceMatch.Matched {
		return attendance.CaptureResponse{}, attendance.ErrFaceNotMatched
	}

	if _, err := a.EmployeeRepository.GetByID(ctx, req.EmployeeID); err != nil {
		return attendance.CaptureResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	ts := req.Timestamp.In(a.tables.Loc())
	date := period.DateOnly(ts)

	existing, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, req.EmployeeID, date)
	if err != nil {
		return attendance.CaptureResponse{}, fmt.Errorf("failed to get attendance for date: %w", err)
	}

	if existing == nil {
		var confidence *float64
		if req.FaceMatch != nil {
			c := req.FaceMatch.Confidence
			confidence = &c
		}
		resp, err := a.checkIn(ctx, attendance.Event{
			EmployeeID:      req.EmployeeID,
			Date:            date,
			CheckIn:         ts,
			Method:          req.Method,
			MatchConfidence: confidence,
		})
		if !errors.Is(err, attendance.ErrAlreadyCheckedIn) {
			return resp, err
		}

		// A concurrent capture opened the session first; this capture is its check-out.
		existing, err = a.AttendanceRepository.GetByEmployeeAndDate(ctx, req.EmployeeID, date)
		if err != nil {
			return attendance.CaptureResponse{}, fmt.Errorf("failed to get attendance for date: %w", err)
		}
		if existing == nil {
			return attendance.CaptureResponse{}, attendance.ErrAlreadyCheckedIn
		}
		slog.Debug("Check-in lost to concurrent capture, retrying as check-out",
			"employee_id", req.EmployeeID,
			"date", period.DateKey(date),
		)
	}

	if existing.Resolved() {
		return attendance.CaptureResponse{}, attendance.ErrAlreadyCheckedOut
	}

	return a.checkOut(ctx, *existing, ts)
}

// RecordManual implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) RecordManual(ctx context.Context, req attendance.ManualEntryRequest) (attendance.CaptureResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.CaptureResponse{}, err
	}

	if _, err := a.EmployeeRepository.GetByID(ctx, req.EmployeeID); err != nil {
		return attendance.CaptureResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	in := req.CheckIn.In(a.tables.Loc())
	date := period.DateOnly(in)

	existing, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, req.EmployeeID, date)
	if err != nil {
		return attendance.CaptureResponse{}, fmt.Errorf("failed to get attendance for date: %w", err)
	}
	if existing != nil {
		return attendance.CaptureResponse{}, attendance.ErrAlreadyCheckedIn
	}

	event := attendance.Event{
		EmployeeID: req.EmployeeID,
		Date:       date,
		CheckIn:    in,
		Method:     attendance.MethodManual,
	}
	if req.CheckOut != nil {
		if req.CheckOut.Sub(in) < a.tables.Attendance.MinSession {
			return attendance.CaptureResponse{}, attendance.ErrSessionTooShort
		}
		out := req.CheckOut.In(a.tables.Loc())
		event.CheckOut = &out
	}

	return a.checkIn(ctx, event)
}

func (a *AttendanceServiceImpl) checkIn(ctx context.Context, event attendance.Event) (attendance.CaptureResponse, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return attendance.CaptureResponse{}, fmt.Errorf("failed to generate attendance id: %w", err)
	}
	event.ID = id.String()

	created, err := a.AttendanceRepository.Append(ctx, event)
	if err != nil {
		return attendance.CaptureResponse{}, fmt.Errorf("failed to append attendance: %w", err)
	}

	resp := attendance.CaptureResponse{
		Action: attendance.ActionCheckIn,
		Event:  attendance.ToEventResponse(created),
	}
	if created.Resolved() {
		record, err := a.classifier.Classify(created)
		if err != nil {
			return attendance.CaptureResponse{}, err
		}
		r := attendance.ToDailyRecordResponse(record)
		resp.Record = &r
	}

	slog.Info("Attendance captured",
		"employee_id", created.EmployeeID,
		"date", period.DateKey(created.Date),
		"method", created.Method,
		"resolved", created.Resolved(),
	)
	return resp, nil
}

func (a *AttendanceServiceImpl) checkOut(ctx context.Context, open attendance.Event, ts time.Time) (attendance.CaptureResponse, error) {
	if !ts.After(open.CheckIn) {
		return attendance.CaptureResponse{}, attendance.ErrCheckOutBeforeCheckIn
	}
	if ts.Sub(open.CheckIn) < a.tables.Attendance.MinSession {
		return attendance.CaptureResponse{}, attendance.ErrSessionTooShort
	}

	resolved, err := a.AttendanceRepository.ResolveCheckout(ctx, open.EmployeeID, open.Date, ts)
	if err != nil {
		return attendance.CaptureResponse{}, fmt.Errorf("failed to resolve check-out: %w", err)
	}

	record, err := a.classifier.Classify(resolved)
	if err != nil {
		return attendance.CaptureResponse{}, err
	}
	r := attendance.ToDailyRecordResponse(record)

	slog.Info("Attendance check-out resolved",
		"employee_id", resolved.EmployeeID,
		"date", period.DateKey(resolved.Date),
		"status", record.Status,
	)
	return attendance.CaptureResponse{
		Action: attendance.ActionCheckOut,
		Event:  attendance.ToEventResponse(resolved),
		Record: &r,
	}, nil
}

// MonthlyAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) MonthlyAttendance(ctx context.Context, employeeID string, month period.Period) (attendance.MonthlyAttendanceResponse, error) {
	if _, err := a.EmployeeRepository.GetByID(ctx, employeeID); err != nil {
		return attendance.MonthlyAttendanceResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	loc := a.tables.Loc()
	events, err := a.AttendanceRepository.EventsFor(ctx, employeeID, month.Start(loc), month.End(loc))
	if err != nil {
		return attendance.MonthlyAttendanceResponse{}, fmt.Errorf("failed to list attendance events: %w", err)
	}

	records, err := ClassifyAll(a.classifier, events, a.now())
	if err != nil {
		return attendance.MonthlyAttendanceResponse{}, err
	}
	summary := a.aggregator.Aggregate(month, records)

	days := make([]attendance.DailyRecordResponse, 0, len(records))
	for _, r := range records {
		days = append(days, attendance.ToDailyRecordResponse(r))
	}

	return attendance.MonthlyAttendanceResponse{
		EmployeeID: employeeID,
		Month:      month,
		Days:       days,
		Summary:    attendance.ToSummaryResponse(summary),
	}, nil
}

// StaleSessions implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) StaleSessions(ctx context.Context, now time.Time) ([]attendance.Event, error) {
	// Sessions dated before this day have passed their grace deadline.
	before := period.DateOnly(now.In(a.tables.Loc()).Add(-a.tables.Attendance.OpenSessionGrace))

	events, err := a.AttendanceRepository.GetOpenSessions(ctx, before)
	if err != nil {
		return nil, fmt.Errorf("failed to get open sessions: %w", err)
	}
	return events, nil
}

// ClassifyAll classifies events at now. A classification error is reported with the event's date.
func ClassifyAll(c *Classifier, events []attendance.Event, now time.Time) ([]attendance.DailyRecord, error) {
	records := make([]attendance.DailyRecord, 0, len(events))
	for _, e := range events {
		r, err := c.ClassifyAt(e, now)
		if err != nil {
			return nil, fmt.Errorf("attendance on %s: %w", period.DateKey(e.Date), err)
		}
		records = append(records, r)
	}
	return records, nil
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	tables policy.Tables,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		tables:               tables,
		classifier:           NewClassifier(tables),
		aggregator:           NewAggregator(tables),
		now:                  time.Now,
	}
}
