package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"storepilot/src/infrastructure/integrations/storeapi"
	jobctrl "storepilot/src/infrastructure/job"
	"storepilot/src/log"
)

// openPostgres connects gorm to the configured database. The returned func
// closes the connection pool.
func openPostgres() (*gorm.DB, func(), error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		viper.GetString("postgres.host"),
		viper.GetString("postgres.user"),
		viper.GetString("postgres.password"),
		viper.GetString("postgres.db"),
		viper.GetString("postgres.port"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	// Get underlying *sql.DB for cleanup
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get underlying *sql.DB: %v", err)
	}
	return db, func() { _ = sqlDB.Close() }, nil
}

func openJobRepository() (jobctrl.JobRepository, func(), error) {
	store := viper.GetString("jobs.store")
	log.Info("Opening job store", "store", store)
	switch store {
	case "memory":
		return jobctrl.NewMemoryJobRepository(), func() {}, nil
	case "postgres":
		db, closeDB, err := openPostgres()
		if err != nil {
			return nil, nil, err
		}
		repo, err := jobctrl.NewPostgresJobRepository(db)
		if err != nil {
			closeDB()
			return nil, nil, fmt.Errorf("failed to initialize job repository: %v", err)
		}
		return repo, closeDB, nil
	default:
		return nil, nil, fmt.Errorf("unknown jobs.store %q", store)
	}
}

func newExecutors() []jobctrl.Executor {
	delay := viper.GetDuration("executor.step_delay")
	domain := viper.GetString("shopify.shop_domain")
	configured := viper.GetString("store.mode") != "real" ||
		(domain != "" && viper.GetString("shopify.access_token") != "")

	return []jobctrl.Executor{
		&jobctrl.DemoStoreBuilder{ShopDomain: domain, StepDelay: delay},
		&jobctrl.DemoProductEditor{CredentialsConfigured: configured, StepDelay: delay},
	}
}

func newAMQPPublisher(logger watermill.LoggerAdapter) (message.Publisher, error) {
	return amqp.NewPublisher(amqp.NewDurableQueueConfig(viper.GetString("amqp.url")), logger)
}

func newAMQPSubscriber(logger watermill.LoggerAdapter) (message.Subscriber, error) {
	subscriberConfig := amqp.NewDurableQueueConfig(viper.GetString("amqp.url"))
	subscriberConfig.Consume.NoRequeueOnNack = true
	return amqp.NewSubscriber(subscriberConfig, logger)
}

// newJobRouter consumes the jobs topic and hands every message to the job
// service.
func newJobRouter(sub message.Subscriber, svc *jobctrl.JobService, logger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: time.Second,
			Logger:          logger,
		}.Middleware,
	)

	router.AddNoPublisherHandler(
		"job_processor",
		jobctrl.JobsTopic,
		sub,
		svc.ProcessJobMessage,
	)
	return router, nil
}

func newBackendClient() *storeapi.Client {
	return storeapi.NewClient(
		viper.GetString("backend.url"),
		&http.Client{Timeout: viper.GetDuration("backend.timeout")},
	)
}

func queueLogger() watermill.LoggerAdapter {
	return log.NewWatermillAdapter(log.WithName("queue"))
}
