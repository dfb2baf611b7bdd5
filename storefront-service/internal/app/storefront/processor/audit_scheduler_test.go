package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/storefront-service/internal/app/storefront/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockIntegrityAuditor мок для IntegrityAuditorInterface
type MockIntegrityAuditor struct {
	mock.Mock
}

func (m *MockIntegrityAuditor) Audit(ctx context.Context) (*entity.AuditReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AuditReport), args.Error(1)
}

func TestAuditScheduler_Start(t *testing.T) {
	auditor := new(MockIntegrityAuditor)
	scheduler := NewAuditScheduler(auditor)

	err := scheduler.Start(context.Background(), "@every 1h")

	assert.NoError(t, err)
	assert.Len(t, scheduler.GetEntries(), 1)

	scheduler.Stop()
	// первый запуск только через час
	auditor.AssertNotCalled(t, "Audit", mock.Anything)
}

func TestAuditScheduler_Start_InvalidSchedule(t *testing.T) {
	scheduler := NewAuditScheduler(new(MockIntegrityAuditor))

	err := scheduler.Start(context.Background(), "every now and then")

	assert.Error(t, err)
	assert.Empty(t, scheduler.GetEntries())
}

func TestAuditScheduler_RunsAuditOnSchedule(t *testing.T) {
	auditor := new(MockIntegrityAuditor)
	called := make(chan struct{}, 10)
	auditor.On("Audit", mock.Anything).
		Run(func(mock.Arguments) { called <- struct{}{} }).
		Return(&entity.AuditReport{Warnings: []entity.IntegrityWarning{{Kind: entity.IntegrityCycle}}}, nil)
	scheduler := NewAuditScheduler(auditor)

	assert.NoError(t, scheduler.Start(context.Background(), "@every 1s"))
	defer scheduler.Stop()

	select {
	case <-called:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled audit did not run")
	}
}

func TestAuditScheduler_RunAudit_DeadlineAndError(t *testing.T) {
	auditor := new(MockIntegrityAuditor)
	auditor.On("Audit", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	})).Return(nil, errors.New("catalog store unavailable")).Once()
	scheduler := NewAuditScheduler(auditor)

	assert.NotPanics(t, func() { scheduler.runAudit(context.Background()) })
	auditor.AssertExpectations(t)
}
