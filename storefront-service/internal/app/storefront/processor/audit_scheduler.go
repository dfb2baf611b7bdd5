package processor

import (
	"context"
	"time"

	"storefront/pkg/logger"
	"storefront/storefront-service/internal/app/storefront/service"

	"github.com/robfig/cron/v3"
)

// auditTimeout ограничивает один прогон проверки целостности
const auditTimeout = 5 * time.Minute

// AuditScheduler периодически запускает проверку целостности дерева категорий
type AuditScheduler struct {
	cron    *cron.Cron
	auditor service.IntegrityAuditorInterface
}

func NewAuditScheduler(auditor service.IntegrityAuditorInterface) *AuditScheduler {
	log := cronLogger{}
	c := cron.New(
		cron.WithLogger(log),
		// Следующий прогон пропускается, если предыдущий еще идет
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)

	return &AuditScheduler{
		cron:    c,
		auditor: auditor,
	}
}

// Start регистрирует задачу по расписанию (cron выражение или @every) и запускает планировщик
func (s *AuditScheduler) Start(ctx context.Context, schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.runAudit(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Str("schedule", schedule).Msg("Integrity audit scheduler started")
	return nil
}

// Stop ждет завершения запущенной проверки
func (s *AuditScheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info().Msg("Integrity audit scheduler stopped")
}

func (s *AuditScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}

func (s *AuditScheduler) runAudit(ctx context.Context) {
	auditCtx, cancel := context.WithTimeout(ctx, auditTimeout)
	defer cancel()

	report, err := s.auditor.Audit(auditCtx)
	if err != nil {
		logger.Error().Err(err).Msg("Scheduled integrity audit failed")
		return
	}

	if len(report.Warnings) > 0 {
		logger.Warn().Int("warnings", len(report.Warnings)).Msg("Scheduled integrity audit found problems")
	}
}

// cronLogger направляет сообщения cron в zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
