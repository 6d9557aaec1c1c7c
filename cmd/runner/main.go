package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/zverev/streamrunner/application"
	"github.com/zverev/streamrunner/config"
	"github.com/zverev/streamrunner/config/source/file"
	"github.com/zverev/streamrunner/logger"
	"github.com/zverev/streamrunner/pgrepo"
	"github.com/zverev/streamrunner/resultstore"
	"github.com/zverev/streamrunner/runner"
	"github.com/zverev/streamrunner/streamkafka"
)

// orderEvent is the decoded payload of every value on the configured
// topics.
type orderEvent struct {
	OrderID string  `json:"order_id"`
	Amount  float64 `json:"amount"`
}

func main() {
	log, err := logger.New(
		logger.WithLevel(logger.LevelDebug),
		logger.WithDevelopmentConfig(),
	)
	die(err)

	ctx := context.Background()

	start := time.Now()
	log.Debug(ctx, "start")
	defer func() { log.Debug(ctx, "stop", "in", time.Since(start)) }()

	var cfg struct {
		DB     pgrepo.Config `yaml:"db"`
		Runner struct {
			Brokers []string `yaml:"brokers"`
			GroupID string   `yaml:"group_id"`
			Topics  []string `yaml:"topics"`
		} `yaml:"runner"`
	}
	die(config.New().With(file.YAML("config.yaml")).Scan(&cfg))

	db, err := pgrepo.New(pgrepo.WithLogger(log.New("pgrepo")), pgrepo.WithConfig(cfg.DB))
	die(err)
	die(db.Start(ctx))

	store := resultstore.New(db, log.New("resultstore"))

	broker, err := streamkafka.New(cfg.Runner.Brokers, cfg.Runner.GroupID, runner.Latest, log.New("streamkafka"))
	die(err)

	process := store.Wrap(func(ctx context.Context, records []runner.Record) (runner.ProcessResult, error) {
		for _, rec := range records {
			log.Info(ctx, "processing record",
				"topic", rec.Topic,
				"partition", rec.Partition,
				"offset", rec.Offset,
				"order", rec.DecodedValue,
			)
		}
		return runner.ProcessResult{
			ID:      uuid.NewString(),
			Records: records,
		}, nil
	})

	runCfg := runner.DefaultConfig()
	runCfg.Name = "order-events"
	runCfg.BootstrapServers = cfg.Runner.Brokers
	runCfg.GroupID = cfg.Runner.GroupID
	runCfg.Topics = cfg.Runner.Topics
	runCfg.KeyDeserializer = runner.RawBytesDeserializer()
	runCfg.ValueDeserializer = runner.JSONDeserializer[orderEvent]()

	r, err := runner.New(
		runner.WithLogger(log.New("runner")),
		runner.WithBroker(broker),
		runner.WithProcessor(process),
		runner.WithConfig(runCfg),
	)
	die(err)

	app, err := application.New(
		application.WithLogger(log.New("application")),
		application.WithName("order-events-runner"),
		application.WithComponents(
			application.NewLifecycleComponent("db", db),
			r,
		),
	)
	die(err)

	die(app.Run(ctx))
}

func die(args ...any) {
	if len(args) == 0 {
		return
	}
	if err, ok := args[len(args)-1].(error); ok && err != nil {
		_, file, line, _ := runtime.Caller(1)
		fmt.Printf("%s:%d: %s", file, line, err.Error())
		os.Exit(1)
	}
}
