package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	jobctrl "storepilot/src/infrastructure/job"
	"storepilot/src/log"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background job worker",
	Long: `The worker consumes the AMQP jobs queue and runs store creation and product
edit jobs, recording progress in PostgreSQL for the serve command to report.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	logger := log.WithName("worker")
	queueLog := queueLogger()

	// The API reads job state from the same store, so it has to be shared
	if store := viper.GetString("jobs.store"); store != "postgres" {
		return fmt.Errorf("worker needs jobs.store=postgres, got %q", store)
	}
	jobRepo, closeRepo, err := openJobRepository()
	if err != nil {
		return err
	}
	defer closeRepo()

	// Initialize AMQP publisher
	amqpPublisher, err := newAMQPPublisher(queueLog)
	if err != nil {
		return err
	}
	defer amqpPublisher.Close()

	// Initialize AMQP subscriber
	amqpSubscriber, err := newAMQPSubscriber(queueLog)
	if err != nil {
		return err
	}
	defer amqpSubscriber.Close()

	jobService := jobctrl.NewJobService(amqpPublisher, jobRepo, queueLog, newExecutors()...)

	router, err := newJobRouter(amqpSubscriber, jobService, queueLog)
	if err != nil {
		return err
	}

	// Run the router
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- router.Run(ctx)
	}()

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-c:
	case err := <-runErr:
		return fmt.Errorf("job router stopped: %w", err)
	}

	logger.Info("Shutting down...")
	cancel()
	if err := <-runErr; err != nil {
		logger.Error(err, "Router stopped with error")
	}
	logger.Info("Router stopped")

	return nil
}
