package stagnation

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// runTimeout bounds a single scan so a hung document store cannot stall the
// scheduler forever.
const runTimeout = 10 * time.Minute

// Scheduler runs the scanner on a fixed cron expression, evaluated in UTC.
// A failed run is logged and the process survives to retry on the next tick.
type Scheduler struct {
	scanner *Scanner
	expr    string
	cron    *cron.Cron
}

func NewScheduler(scanner *Scanner, expr string) *Scheduler {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)
	return &Scheduler{scanner: scanner, expr: expr, cron: c}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.expr, s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[info] operation=stagnation_schedule message=scheduled cron=%q tz=UTC", s.expr)
	return nil
}

// Stop stops the ticker and returns a context that is done once any
// in-flight run has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	summary, err := s.scanner.Run(ctx)
	if err != nil {
		log.Printf("[error] operation=stagnation_scan error=%v", err)
		return
	}
	log.Printf("[info] operation=stagnation_scan scanned=%d marked=%d failed=%d",
		summary.Scanned, summary.Marked, summary.Failed)
}
