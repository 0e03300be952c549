package service

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/aralhq/aral-go-api/internal/dto"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func floatPtr(v float64) *float64 {
	return &v
}

type fakeAuditRecorder struct {
	entries []AuditEntry
}

func (f *fakeAuditRecorder) Record(ctx context.Context, entry AuditEntry) (dto.AuditEntryResponse, error) {
	f.entries = append(f.entries, entry)
	return dto.AuditEntryResponse{}, nil
}

type fakeInvalidator struct {
	studentIDs []uint
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, studentID uint) {
	f.studentIDs = append(f.studentIDs, studentID)
}
