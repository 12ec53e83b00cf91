package background

import (
	"context"
	"log"
	"sync"
	"time"

	"license-service/internal/config"
	"license-service/internal/services"
)

// Runner manages the periodic invoice and audit-log maintenance jobs.
type Runner struct {
	invoiceSvc *services.InvoiceService
	orgSvc     *services.OrganizationService
	config     config.JobsConfig
	stopCh     chan struct{}
	wg         sync.WaitGroup

	overdueTicker *time.Ticker
	pruneTicker   *time.Ticker
}

// NewRunner creates a new background runner
func NewRunner(invoiceSvc *services.InvoiceService, orgSvc *services.OrganizationService, cfg config.JobsConfig) *Runner {
	return &Runner{
		invoiceSvc: invoiceSvc,
		orgSvc:     orgSvc,
		config:     cfg,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the background job processing
func (r *Runner) Start() {
	log.Println("Starting background job runner...")

	overdueInterval := time.Duration(r.config.OverdueSweepMinutes) * time.Minute
	r.overdueTicker = time.NewTicker(overdueInterval)
	log.Printf("Overdue invoice sweep scheduled every %v", overdueInterval)

	pruneInterval := time.Duration(r.config.ValidationPruneHours) * time.Hour
	r.pruneTicker = time.NewTicker(pruneInterval)
	log.Printf("Validation log prune scheduled every %v", pruneInterval)

	r.wg.Add(1)
	go r.runOverdueSweep()

	r.wg.Add(1)
	go r.runValidationPrune()

	log.Println("Background job runner started successfully")
}

// Stop gracefully stops all background jobs
func (r *Runner) Stop() {
	log.Println("Stopping background job runner...")
	close(r.stopCh)

	if r.overdueTicker != nil {
		r.overdueTicker.Stop()
	}
	if r.pruneTicker != nil {
		r.pruneTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Background job runner stopped gracefully")
	case <-time.After(30 * time.Second):
		log.Println("Background job runner stop timeout - forcing shutdown")
	}
}

// runOverdueSweep marks sent invoices past their due date as overdue
func (r *Runner) runOverdueSweep() {
	defer r.wg.Done()

	// Run immediately on start so a restart never delays the sweep
	r.executeOverdueSweep()

	for {
		select {
		case <-r.stopCh:
			log.Println("Overdue sweep stopping...")
			return
		case <-r.overdueTicker.C:
			r.executeOverdueSweep()
		}
	}
}

func (r *Runner) executeOverdueSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	marked, err := r.invoiceSvc.MarkOverdue(ctx)
	if err != nil {
		log.Printf("Error in overdue invoice sweep: %v", err)
	} else if marked > 0 {
		log.Printf("Overdue invoice sweep completed: %d invoices marked overdue", marked)
	}
}

// runValidationPrune deletes validation audit records past retention
func (r *Runner) runValidationPrune() {
	defer r.wg.Done()

	// Wait for the first interval; retention is measured in days
	for {
		select {
		case <-r.stopCh:
			log.Println("Validation prune stopping...")
			return
		case <-r.pruneTicker.C:
			r.executeValidationPrune()
		}
	}
}

func (r *Runner) executeValidationPrune() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pruned, err := r.orgSvc.PruneValidations(ctx, r.config.ValidationRetentionDays)
	if err != nil {
		log.Printf("Error in validation log prune: %v", err)
	} else if pruned > 0 {
		log.Printf("Validation log prune completed: %d records deleted", pruned)
	}
}

// RunOnce executes both jobs once (for testing/manual trigger)
func (r *Runner) RunOnce(ctx context.Context) error {
	marked, err := r.invoiceSvc.MarkOverdue(ctx)
	if err != nil {
		return err
	}
	log.Printf("Marked %d invoices overdue", marked)

	pruned, err := r.orgSvc.PruneValidations(ctx, r.config.ValidationRetentionDays)
	if err != nil {
		return err
	}
	log.Printf("Pruned %d validation records", pruned)
	return nil
}
