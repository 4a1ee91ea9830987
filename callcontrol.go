package main

import (
	"context"
	"fmt"
	"log"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/call"
	"bitbucket.org/yellowmessenger/callcontrol-ari/callback"
	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/connections"
	"bitbucket.org/yellowmessenger/callcontrol-ari/enqueuecallworker"
	"bitbucket.org/yellowmessenger/callcontrol-ari/eventhandler"
	"bitbucket.org/yellowmessenger/callcontrol-ari/globals"
	"bitbucket.org/yellowmessenger/callcontrol-ari/housekeeping"
	"bitbucket.org/yellowmessenger/callcontrol-ari/metrics"
	"bitbucket.org/yellowmessenger/callcontrol-ari/models/mysql"
	"bitbucket.org/yellowmessenger/callcontrol-ari/newrelic"
	"bitbucket.org/yellowmessenger/callcontrol-ari/queuemanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/azure"
	"bitbucket.org/yellowmessenger/callcontrol-ari/utils/openaiclient"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	nrecho "github.com/newrelic/go-agent/v3/integrations/nrecho-v3"
	echopprof "github.com/sevenNt/echo-pprof"
)

var (
	host = "0.0.0.0"
	port = "9991"
)

func main() {
	// Initialize new relic app
	if err := newrelic.InitNewRelicApp(); err != nil {
		log.Fatalf("Error while initializing new relic app. Error: [%#v]", err)
	}
	e := echo.New()
	// Set the middlewares
	// Register new relic middleware
	e.Use(nrecho.Middleware(newrelic.App))
	e.Use(middleware.Secure())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1024KB"))
	e.Use(middleware.RemoveTrailingSlash())
	// Set the logging
	loggerConfig := middleware.DefaultLoggerConfig
	e.Debug = true
	e.Use(middleware.LoggerWithConfig(loggerConfig))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Initilize the config
	if err := configmanager.InitConfig("config.json"); err != nil {
		log.Fatalf("Error while initializing the config. Error: [%#v]", err)
	}

	// Initiliaze YM logger
	if err := ymlogger.InitYMLogger(configmanager.ConfStore.LoggerConf); err != nil {
		log.Fatalf("Failed to initialize the logger. Err: [%#v]", err)
	}

	// Initialize MySQL Connection
	if err := mysql.Init(); err != nil {
		log.Fatalf("Failed to initialize MySQL Connection. Error: [%#v]", err)
	}
	// Reconcile call states left behind by a previous run
	if hung, err := mysql.GetHungCalls(); err != nil {
		ymlogger.LogErrorf("Startup", "Failed to list hung calls. Error: [%#v]", err)
	} else {
		for _, state := range hung {
			ymlogger.LogInfof(state.CallID, "Found hung call from a previous run. Status: [%s] Started: [%s]", state.Status, state.StartTime)
		}
	}
	if swept, err := mysql.SweepHungCalls(); err != nil {
		ymlogger.LogErrorf("Startup", "Failed to sweep hung calls. Error: [%#v]", err)
	} else if swept > 0 {
		ymlogger.LogInfof("Startup", "Marked [%d] hung calls as terminated", swept)
	}

	// Initialize Metrics client
	if err := metrics.InitClient(configmanager.ConfStore.MetricsConf); err != nil {
		log.Fatalf("Failed to initialize metrics client")
	}

	// Initialize Azure STT HTTP Client
	azure.InitAzureSTTHTTPClient()

	// Initialize Azure TTS HTTP Client
	azure.InitAzureTTSHTTPClient()

	// Initialize OpenAI Client
	openaiclient.Init()

	// Intialize Call counter
	globals.InitCounter()

	// Start callback workers
	callback.Init(ctx)

	// Connect to ARI
	ariClient, err := connections.ConnectARI(ctx)
	if err != nil {
		ymlogger.LogErrorf("ARIConnect", "Error while connecting to ARI. Error: [%#v]", err)
	}
	// Initialize the event loop
	ymlogger.LogInfo("InitHandler", "Going to start the event loop")
	go eventhandler.InitEventLoop(ctx, ariClient)

	// Initialize RabbitMQ Connection
	ymlogger.LogInfo("InitRabbitMQConn", "Initializing RabbitMQ Connection")
	if err := queuemanager.InitRabbitMQConn(configmanager.ConfStore.QueueConnParams); err != nil {
		log.Fatalf("Failed to initialize Rabbit MQ Connection. Error: [%#v]", err)
	}

	// Start Queueworker
	ymlogger.LogInfo("InitQueueListener", "Initializing RabbitMQ Queue Listener")
	if err := queuemanager.InitQueueListener(
		configmanager.ConfStore.QueueListenerParams,
		&enqueuecallworker.EnqueueCallWorker{},
	); err != nil {
		log.Fatalf("Failed to initialize queue listener. Error: [%#v]", err)
	}

	// Start the periodic sweeps
	housekeeping.Start(ctx)

	// AddingRoutes
	AddRoutes(e)

	// Add pprof
	echopprof.Wrap(e)

	go handleShutdown(ctx, cancel, e)

	ymlogger.LogInfof("HTTPHandler", "Listening for requests on port %s", port)
	if err := e.Start(fmt.Sprintf("%s:%s", host, port)); err != nil {
		ymlogger.LogCritical("HTTPHandler", "Failed to start server!", err)
		os.Exit(1)
	}
}

// handleShutdown terminates the in-flight calls with callbacks before the
// process exits
func handleShutdown(ctx context.Context, cancel context.CancelFunc, e *echo.Echo) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	ymlogger.LogInfof("Shutdown", "Received signal [%s]. Terminating in-flight calls", sig)

	for _, callID := range call.AllCallIDs() {
		eventhandler.TerminateCall(ctx, callID, "shutdown")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		ymlogger.LogErrorf("Shutdown", "Failed to stop the server cleanly. Error: [%#v]", err)
	}
	cancel()
	os.Exit(0)
}
