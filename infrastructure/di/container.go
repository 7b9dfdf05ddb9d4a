// Package di wires the application together with google/wire
package di

import (
	"go.uber.org/zap"

	"github.com/thismakesmehappy/NewApiTest-sub000/application/commands/bus"
	querybus "github.com/thismakesmehappy/NewApiTest-sub000/application/queries/bus"
	"github.com/thismakesmehappy/NewApiTest-sub000/application/services"
	"github.com/thismakesmehappy/NewApiTest-sub000/infrastructure/config"
	"github.com/thismakesmehappy/NewApiTest-sub000/interfaces/http/rest"
	"github.com/thismakesmehappy/NewApiTest-sub000/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Repositories Repositories
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
	Teams        *services.TeamService
	Principals   *services.PrincipalService
	Keys         *services.DeveloperKeyService
	Collector    *observability.Collector
	Router       *rest.Router
}
