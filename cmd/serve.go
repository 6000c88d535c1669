/*
Copyright © 2024 Dean
*/
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	httpHdlr "storepilot/handler/http"
	jobctrl "storepilot/src/infrastructure/job"
	"storepilot/src/log"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the store builder job API",
	Long: `The serve command starts an HTTP server that accepts store creation and
product edit jobs and reports their status. With queue.driver=memory the jobs
are also executed in-process; with amqp they are left to the worker command.`,
	RunE: RunServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer(cmd *cobra.Command, args []string) error {
	logger := log.WithName("serve")
	queueLog := queueLogger()

	repo, closeRepo, err := openJobRepository()
	if err != nil {
		return err
	}
	defer closeRepo()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		publisher  message.Publisher
		subscriber message.Subscriber
	)
	switch driver := viper.GetString("queue.driver"); driver {
	case "memory":
		pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, queueLog)
		defer pubSub.Close()
		publisher, subscriber = pubSub, pubSub
	case "amqp":
		amqpPublisher, err := newAMQPPublisher(queueLog)
		if err != nil {
			return fmt.Errorf("failed to initialize amqp publisher: %w", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	default:
		return fmt.Errorf("unknown queue.driver %q", driver)
	}

	jobService := jobctrl.NewJobService(publisher, repo, queueLog, newExecutors()...)

	// In memory mode nobody else consumes the queue, so run the jobs here
	routerDone := make(chan struct{})
	if subscriber != nil {
		router, err := newJobRouter(subscriber, jobService, queueLog)
		if err != nil {
			return err
		}
		go func() {
			defer close(routerDone)
			if err := router.Run(ctx); err != nil {
				logger.Error(err, "Job router stopped")
			}
		}()
		select {
		case <-router.Running():
		case <-routerDone:
			return fmt.Errorf("job router failed to start")
		}
	} else {
		close(routerDone)
	}

	node, err := snowflake.NewNode(viper.GetInt64("server.node_id"))
	if err != nil {
		return fmt.Errorf("failed to create request id node: %w", err)
	}

	// Setup gin router
	r := gin.New()
	r.Use(gin.Recovery(), httpHdlr.RequestLogger(node))

	// Register routes
	httpHdlr.NewJobHandler(jobService, httpHdlr.StoreConfig{
		ShopDomain:  viper.GetString("shopify.shop_domain"),
		AccessToken: viper.GetString("shopify.access_token"),
		Mode:        viper.GetString("store.mode"),
	}).RegisterRoutes(r)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: r,
	}

	// Start server in a goroutine
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", srv.Addr, "queue", viper.GetString("queue.driver"), "jobs_store", viper.GetString("jobs.store"))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Info("Shutting down server...")

	// Parse shutdown timeout
	timeout, err := time.ParseDuration(viper.GetString("server.shutdown_timeout"))
	if err != nil {
		logger.Info("Invalid shutdown timeout, using default 5s", "error", err.Error())
		timeout = 5 * time.Second
	}

	// Create context with timeout for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, "Server forced to shutdown")
	}

	cancel()
	<-routerDone

	logger.Info("Server exited")
	return nil
}
