// Package main is the AWS Lambda entrypoint. It serves the balance router
// behind an API Gateway proxy integration.
package main

import (
	"context"
	"log"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"github.com/phrazzld/balance-proxy/internal/app"
	"github.com/phrazzld/balance-proxy/internal/config"
	"github.com/phrazzld/balance-proxy/internal/platform/lambda"
	"github.com/phrazzld/balance-proxy/internal/platform/logger"
	"github.com/phrazzld/balance-proxy/internal/platform/telemetry"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("failed to set up logger: %v", err)
	}

	// Spans are flushed by the batcher while the execution environment is
	// warm; there is no shutdown hook to call on freeze.
	if _, err := telemetry.Init(context.Background(), cfg.Telemetry, version, l); err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}

	application, err := app.New(cfg, l, app.Options{})
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	lambda.CheckRequestBudget(context.Background(), l, application.RequestBudget())

	awslambda.Start(lambda.NewAdapter(application.Router(), l).Handle)
}
