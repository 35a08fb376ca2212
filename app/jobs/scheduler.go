// Package jobs runs periodic maintenance next to the HTTP server.
package jobs

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// gcDiscardRatio is the share of stale data a value log file needs before
// badger rewrites it.
const gcDiscardRatio = 0.5

// ValueLogGC reclaims space in badger's value log.
type ValueLogGC struct {
	DB *badger.DB
}

// Run implements cron.Job. It keeps collecting until badger reports there
// is nothing left to rewrite.
func (j ValueLogGC) Run() {
	rounds := 0
	for {
		err := j.DB.RunValueLogGC(gcDiscardRatio)
		if err == nil {
			rounds++
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
			log.WithField("err", err).Warn("Value log GC failed")
		}
		break
	}
	log.WithField("rewritten", rounds).Debug("Value log GC done")
}

// Scheduler owns the cron engine.
type Scheduler struct {
	engine *cron.Cron
}

func NewScheduler() *Scheduler {
	return &Scheduler{engine: cron.New()}
}

// Register adds job on spec. An empty spec disables the job.
func (s *Scheduler) Register(spec string, job cron.Job) error {
	if spec == "" {
		return nil
	}
	if _, err := s.engine.AddJob(spec, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(job)); err != nil {
		return err
	}
	return nil
}

// Entries reports how many jobs are scheduled.
func (s *Scheduler) Entries() int {
	return len(s.engine.Entries())
}

func (s *Scheduler) Start() {
	log.Info("Starting scheduler")
	s.engine.Start()
}

// Stop halts the engine and waits for running jobs.
func (s *Scheduler) Stop() {
	log.Info("Stopping scheduler")
	<-s.engine.Stop().Done()
}
