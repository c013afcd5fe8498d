package di

import (
	"warrantboard/application/session"
	"warrantboard/infrastructure/config"
	"warrantboard/infrastructure/observability"
	"warrantboard/interfaces/http/rest"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Manager   *session.Manager
	Router    *rest.Router
	Collector *observability.Collector
	Tracing   *observability.TracerProvider
	Watcher   *config.ContentWatcher
}
