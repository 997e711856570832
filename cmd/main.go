package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"

	"github.com/spaceman8888/mcdonald-order-app/handler"
	"github.com/spaceman8888/mcdonald-order-app/internal/integrations/openai"
	"github.com/spaceman8888/mcdonald-order-app/internal/integrations/paramstore"
	"github.com/spaceman8888/mcdonald-order-app/internal/repository"
	"github.com/spaceman8888/mcdonald-order-app/internal/usecase"
)

func main() {
	ctx := context.Background()

	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "order-assistant").Logger()
	if level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && level != zerolog.NoLevel {
		logger = logger.Level(level)
	}

	// ---- Configuration (read only here) ----
	catalogTable := mustEnv(logger, "CATALOG_TABLE")
	sessionTable := mustEnv(logger, "SESSION_TABLE")
	orderTable := mustEnv(logger, "ORDER_TABLE")
	paramPrefix := mustEnv(logger, "PARAM_PREFIX")

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load AWS config")
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create SSM client")
	}
	dynamoClient := awsdynamodb.NewFromConfig(cfg)

	catalogStore, err := repository.NewCatalogStore(dynamoClient, catalogTable)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create catalog store")
	}
	sessionStore, err := repository.NewSessionStore(dynamoClient, sessionTable)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session store")
	}
	orderStore, err := repository.NewOrderStore(dynamoClient, orderTable)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create order store")
	}

	openaiClient, err := openai.NewClient(ssmClient, paramPrefix)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create OpenAI client")
	}

	// ---- Orchestrator + handler ----
	manager, err := usecase.NewManager(openaiClient, catalogStore, sessionStore, orderStore, ssmClient, paramPrefix, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session manager")
	}

	h, err := handler.NewHandler(manager)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create handler")
	}

	lambda.Start(h.Handle)
}

func mustEnv(logger zerolog.Logger, key string) string {
	v := os.Getenv(key)
	if v == "" {
		logger.Fatal().Str("key", key).Msg("required environment variable is not set")
	}
	return v
}
