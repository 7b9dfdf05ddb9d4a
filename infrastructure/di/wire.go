//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideCollector,
	ProvideRepositories,
	ProvideEventPublisher,
	ProvideMetrics,
	ProvideTracer,
	ProvideAuthorizationService,
	ProvideItemQueryResolver,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideTeamService,
	ProvidePrincipalService,
	ProvideDeveloperKeyService,
	ProvideTokenVerifier,
	ProvideRateLimiters,
	ProvideErrorHandler,
	ProvideAuthenticator,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The cleanup flushes
// traces and must run before the process exits.
func InitializeContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
