package di

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/commands"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/commands/bus"
	cmdhandlers "github.com/thismakesmehappy/NewApiTest-sub000/application/commands/handlers"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/ports"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/queries"
	querybus "github.com/thismakesmehappy/NewApiTest-sub000/application/queries/bus"
	qhandlers "github.com/thismakesmehappy/NewApiTest-sub000/application/queries/handlers"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/services"
	domainservices "github.com/thismakesmehappy/NewApiTest-sub000/domain/services"
	"github.com/thismakesmehappy/NewApiTest-sub000/infrastructure/config"
	"github.com/thismakesmehappy/NewApiTest-sub000/infrastructure/messaging/eventbridge"
	"github.com/thismakesmehappy/NewApiTest-sub000/infrastructure/persistence/dynamodb"
	"github.com/thismakesmehappy/NewApiTest-sub000/infrastructure/persistence/memory"
	"github.com/thismakesmehappy/NewApiTest-sub000/interfaces/http/rest"
	"github.com/thismakesmehappy/NewApiTest-sub000/interfaces/http/rest/middleware"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/auth"
	pkgerrors "github.com/thismakesmehappy/NewApiTest-sub000/pkg/errors"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/observability"
)

// ServiceName names the service in traces and metrics
const ServiceName = "items-api"

// Repositories groups the storage ports, backed either by DynamoDB or by the
// in-memory store.
type Repositories struct {
	Items    ports.ItemRepository
	Teams    ports.TeamRepository
	Profiles ports.UserProfileRepository
	Keys     ports.DeveloperKeyRepository
	Health   ports.HealthChecker
}

// RateLimiters holds the per-IP and per-user limiters; both are nil when
// rate limiting is off.
type RateLimiters struct {
	IP   auth.RateLimiter
	User auth.RateLimiter
}

// ProvideAWSConfig creates AWS configuration. With tracing on in Lambda every
// SDK call becomes an X-Ray subsegment.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.EnableTracing && cfg.IsLambda {
		awsv2.AWSV2Instrumentor(&awsCfg.APIOptions)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client, pointed at DYNAMODB_ENDPOINT
// when set (DynamoDB Local)
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideRepositories picks the storage backend from TABLE_NAME
func ProvideRepositories(client *awsdynamodb.Client, cfg *config.Config, collector *observability.Collector, logger *zap.Logger) Repositories {
	if cfg.UsesMemoryStore() {
		logger.Warn("Using the in-memory store; data is lost on restart")
		store := memory.NewStore()
		return Repositories{
			Items:    store,
			Teams:    store.Teams(),
			Profiles: store,
			Keys:     store.Keys(),
			Health:   store,
		}
	}

	tableCfg := dynamodb.Config{TableName: cfg.TableName, IndexName: cfg.TeamIndexName}
	items := dynamodb.NewItemRepository(client, tableCfg, collector, logger)
	return Repositories{
		Items:    items,
		Teams:    dynamodb.NewTeamRepository(client, tableCfg, collector, logger),
		Profiles: dynamodb.NewProfileRepository(client, tableCfg, collector),
		Keys:     dynamodb.NewDeveloperKeyRepository(client, tableCfg, collector),
		Health:   items,
	}
}

// ProvideEventPublisher publishes to EventBridge, or only logs events when no
// bus is configured
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return eventbridge.NewLogPublisher(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("items_api")
}

// ProvideMetrics creates the CloudWatch command metrics. Outside AWS they
// are disabled.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	namespace := fmt.Sprintf("ItemsAPI/%s", cfg.Environment)
	if !cfg.EnableMetrics || cfg.UsesMemoryStore() {
		return observability.NewMetrics(namespace, nil, logger)
	}
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideTracer returns X-Ray in Lambda, OTLP elsewhere and a no-op tracer
// when tracing is off. The cleanup flushes pending spans.
func ProvideTracer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (observability.Tracer, func(), error) {
	switch {
	case !cfg.EnableTracing:
		return observability.NoopTracer{}, func() {}, nil
	case cfg.IsLambda:
		return observability.NewXRayTracer(ServiceName), func() {}, nil
	}

	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp.Tracer(), cleanup, nil
}

// ProvideAuthorizationService creates the access predicates
func ProvideAuthorizationService() *domainservices.AuthorizationService {
	return domainservices.NewAuthorizationService()
}

// ProvideItemQueryResolver creates the resolver with the default lookup chain
func ProvideItemQueryResolver(
	repos Repositories,
	authz *domainservices.AuthorizationService,
	tracer observability.Tracer,
	collector *observability.Collector,
	logger *zap.Logger,
) *services.ItemQueryResolver {
	return services.NewItemQueryResolver(repos.Items, authz, tracer, collector, logger)
}

// ProvideCommandBus creates the command bus with registered handlers
func ProvideCommandBus(
	repos Repositories,
	resolver *services.ItemQueryResolver,
	authz *domainservices.AuthorizationService,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	tracer observability.Tracer,
	collector *observability.Collector,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.TracingMiddleware(tracer),
		bus.LoggingMiddleware(logger),
		bus.MetricsMiddleware(metrics),
	)

	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.CreateItemCommand{}, cmdhandlers.NewCreateItemHandler(repos.Items, authz, publisher, collector, logger)},
		{commands.UpdateItemCommand{}, cmdhandlers.NewUpdateItemHandler(repos.Items, resolver, authz, publisher, collector, logger)},
		{commands.DeleteItemCommand{}, cmdhandlers.NewDeleteItemHandler(repos.Items, resolver, publisher, collector, logger)},
	}
	for _, r := range registrations {
		if err := commandBus.Register(r.cmd, r.handler); err != nil {
			return nil, err
		}
	}
	return commandBus, nil
}

// ProvideQueryBus creates the query bus with registered handlers
func ProvideQueryBus(resolver *services.ItemQueryResolver, tracer observability.Tracer, logger *zap.Logger) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(
		querybus.TracingMiddleware(tracer),
		querybus.LoggingMiddleware(logger),
	)
	if err := queryBus.Register(queries.GetItemQuery{}, qhandlers.NewGetItemHandler(resolver)); err != nil {
		return nil, err
	}
	if err := queryBus.Register(queries.ListItemsQuery{}, qhandlers.NewListItemsHandler(resolver)); err != nil {
		return nil, err
	}
	return queryBus, nil
}

// ProvideTeamService creates the team service
func ProvideTeamService(repos Repositories, authz *domainservices.AuthorizationService, publisher ports.EventPublisher, logger *zap.Logger) *services.TeamService {
	return services.NewTeamService(repos.Teams, authz, publisher, logger)
}

// ProvidePrincipalService creates the principal resolver
func ProvidePrincipalService(repos Repositories, authz *domainservices.AuthorizationService, logger *zap.Logger) *services.PrincipalService {
	return services.NewPrincipalService(authz, repos.Teams, repos.Profiles, logger)
}

// ProvideDeveloperKeyService creates the developer key service
func ProvideDeveloperKeyService(repos Repositories, logger *zap.Logger) *services.DeveloperKeyService {
	return services.NewDeveloperKeyService(repos.Keys, logger)
}

// ProvideTokenVerifier prefers the Cognito JWKS, then the shared secret. With
// neither, bearer tokens are refused; that is the normal Lambda setup, where
// the gateway authorizer has already checked the token.
func ProvideTokenVerifier(ctx context.Context, cfg *config.Config, logger *zap.Logger) (auth.TokenVerifier, error) {
	var audience []string
	if cfg.CognitoClientID != "" {
		audience = []string{cfg.CognitoClientID}
	}

	switch {
	case cfg.CognitoJWKSURL != "":
		// the user pool URL is both the JWKS base and the token issuer
		issuer := strings.TrimSuffix(cfg.CognitoJWKSURL, "/.well-known/jwks.json")
		validator, err := auth.NewJWKSValidator(ctx, cfg.CognitoJWKSURL, issuer, audience, logger)
		if err != nil {
			return nil, err
		}
		return validator, nil
	case cfg.JWTSecret != "":
		validator, err := auth.NewJWTValidator(auth.JWTConfig{
			SigningMethod: "HS256",
			SecretKey:     cfg.JWTSecret,
			Issuer:        cfg.JWTIssuer,
			Audience:      audience,
		})
		if err != nil {
			return nil, err
		}
		return validator, nil
	}

	logger.Info("No token verifier configured; relying on the API Gateway authorizer")
	return nil, nil
}

// ProvideRateLimiters keeps counters in DynamoDB under Lambda, where
// instances come and go, and in process memory otherwise
func ProvideRateLimiters(client *awsdynamodb.Client, cfg *config.Config) RateLimiters {
	perMinute := cfg.RateLimitPerMinute
	if perMinute <= 0 {
		return RateLimiters{}
	}
	if cfg.IsLambda && !cfg.UsesMemoryStore() {
		counters := auth.NewDistributedRateLimiter(client, cfg.TableName, perMinute, time.Minute, "RATELIMIT")
		return RateLimiters{
			IP:   auth.NewPrefixedLimiter(counters, "ip:"),
			User: auth.NewPrefixedLimiter(counters, "user:"),
		}
	}
	return RateLimiters{
		IP:   auth.NewIPRateLimiter(perMinute),
		User: auth.NewUserRateLimiter(perMinute),
	}
}

// ProvideErrorHandler includes stack traces in development responses
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideAuthenticator creates the authentication middleware
func ProvideAuthenticator(
	verifier auth.TokenVerifier,
	keys *services.DeveloperKeyService,
	principals *services.PrincipalService,
	errHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *middleware.Authenticator {
	return middleware.NewAuthenticator(verifier, keys, principals, errHandler, logger)
}

// ProvideRouter assembles the HTTP router
func ProvideRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	teams *services.TeamService,
	keys *services.DeveloperKeyService,
	principals *services.PrincipalService,
	authenticator *middleware.Authenticator,
	errHandler *pkgerrors.ErrorHandler,
	collector *observability.Collector,
	repos Repositories,
	limiters RateLimiters,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(rest.Dependencies{
		CommandBus:    commandBus,
		QueryBus:      queryBus,
		Teams:         teams,
		Keys:          keys,
		Principals:    principals,
		Authenticator: authenticator,
		Errors:        errHandler,
		Collector:     collector,
		Health:        repos.Health,
		IPLimiter:     limiters.IP,
		UserLimiter:   limiters.User,
		Logger:        logger,
	}, rest.Options{
		EnableCORS:         cfg.EnableCORS,
		AllowedOrigins:     cfg.AllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		EnableMetrics:      cfg.EnableMetrics,
	})
}
