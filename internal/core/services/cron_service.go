package services

import (
	"context"
	"log"

	"shelftrack/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronService runs the scheduled overdue-loan sweep
type CronService struct {
	cron        *cron.Cron
	loanService *LoanService
}

// NewCronService creates a new cron service
func NewCronService(db *gorm.DB) *CronService {
	loanRepo := repositories.NewLoanRepository(db)
	itemRepo := repositories.NewItemRepository(db)
	memberRepo := repositories.NewMemberRepository(db)

	return &CronService{
		cron:        cron.New(),
		loanService: NewLoanService(db, loanRepo, itemRepo, memberRepo),
	}
}

// Start schedules the daily overdue sweep (08:30)
func (s *CronService) Start() {
	s.cron.AddFunc("30 8 * * *", s.sweepOverdue)
	s.cron.Start()
	log.Println("🚀 Cron service started (overdue sweep daily at 08:30)")
}

// Stop stops the scheduler, waiting for a running sweep to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 Cron service stopped")
}

// sweepOverdue logs every active loan past its due date
func (s *CronService) sweepOverdue() {
	loans, err := s.loanService.ListOverdue(context.Background())
	if err != nil {
		log.Printf("❌ Overdue sweep failed: %v", err)
		return
	}

	for _, loan := range loans {
		log.Printf("⏰ Overdue loan %d: item %d held by member %d since %s",
			loan.ID, loan.ItemID, loan.MemberID, loan.DueDate.Format("2006-01-02"))
	}

	log.Printf("✅ Overdue sweep completed: %d overdue loans", len(loans))
}
