package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"storepilot/src/console"
	"storepilot/src/core/jobtrack"
	"storepilot/src/infrastructure/integrations/storeapi"
	"storepilot/src/log"
)

func newSession(client *storeapi.Client, kind jobtrack.JobKind, handler jobtrack.Handler) *jobtrack.Session {
	poller := jobtrack.NewPoller(client,
		jobtrack.WithInterval(viper.GetDuration("poll.interval")),
		jobtrack.WithMaxDuration(viper.GetDuration("poll.max_duration")),
		jobtrack.WithLogger(log.WithName("poller")),
	)
	return jobtrack.NewSession(
		jobtrack.NewSubmitter(client),
		poller,
		map[jobtrack.JobKind]jobtrack.Handler{kind: handler},
	)
}

// watch starts op and blocks until its job has an outcome. An interrupt
// stops tracking the job; the job itself keeps running on the backend.
func watch(session *jobtrack.Session, tracker *console.Tracker, op jobtrack.Operation) (*jobtrack.PollHandle, error) {
	interrupt, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchUntil(interrupt, session, tracker, op)
}

// watchUntil is watch with the interrupt supplied by the caller. The session
// gets its own context, so an interrupt never aborts a status query that is
// already in flight; its result is dropped by the cancelled handle instead.
func watchUntil(interrupt context.Context, session *jobtrack.Session, tracker *console.Tracker, op jobtrack.Operation) (*jobtrack.PollHandle, error) {
	h, err := session.Start(context.Background(), op)
	if err != nil {
		return nil, err
	}
	log.V(1).Info("Tracking job", "job_id", h.JobID(), "kind", op.Kind)

	select {
	case <-tracker.Done():
		return h, tracker.Err()
	case <-interrupt.Done():
		session.Cancel(op.Kind)
		fmt.Fprintf(os.Stderr, "\nStopped watching job %s. It keeps running; check it with `job-status %s`.\n", h.JobID(), h.JobID())
		return h, nil
	}
}
