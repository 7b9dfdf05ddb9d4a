package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/services"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/entities"
	"github.com/thismakesmehappy/NewApiTest-sub000/domain/core/valueobjects"
	"github.com/thismakesmehappy/NewApiTest-sub000/infrastructure/config"
	"github.com/thismakesmehappy/NewApiTest-sub000/infrastructure/di"
)

// operator is the acting principal for commands that need ADMIN rights
var operator = entities.NewUser("itemsctl", "itemsctl", "", valueobjects.RoleAdmin)

type env struct {
	cfg        *config.Config
	logger     *zap.Logger
	teams      *services.TeamService
	principals *services.PrincipalService
	keys       *services.DeveloperKeyService
}

func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if cfgFile != "" {
		return config.LoadFile(cfgFile)
	}
	return config.Load()
}

// openEnv wires the services against the configured table
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.UsesMemoryStore() {
		return nil, errors.New("itemsctl needs a DynamoDB table; the memory store lives inside the server process")
	}

	// Operator output goes to stdout; only warnings reach the log.
	cfg.LogLevel = "warn"
	logger, _, err := config.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	awsCfg, err := di.ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client := di.ProvideDynamoDBClient(awsCfg, cfg)
	repos := di.ProvideRepositories(client, cfg, di.ProvideCollector(), logger)
	authz := di.ProvideAuthorizationService()
	publisher := di.ProvideEventPublisher(di.ProvideEventBridgeClient(awsCfg), cfg, logger)

	return &env{
		cfg:        cfg,
		logger:     logger,
		teams:      di.ProvideTeamService(repos, authz, publisher, logger),
		principals: di.ProvidePrincipalService(repos, authz, logger),
		keys:       di.ProvideDeveloperKeyService(repos, logger),
	}, nil
}

func userFor(id string) *entities.User {
	return entities.NewUser(id, id, "", valueobjects.RoleUser)
}
