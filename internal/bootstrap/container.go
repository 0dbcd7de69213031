package bootstrap

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aoba-arch/permitdesk/internal/config"
	"github.com/aoba-arch/permitdesk/internal/infra/cache"
	"github.com/aoba-arch/permitdesk/internal/infra/db"
	"github.com/aoba-arch/permitdesk/internal/infra/logger"
	"github.com/aoba-arch/permitdesk/internal/infra/queue"
	"github.com/aoba-arch/permitdesk/internal/modules/handler"
	"github.com/aoba-arch/permitdesk/internal/modules/model"
	"github.com/aoba-arch/permitdesk/internal/modules/repo"
	"github.com/aoba-arch/permitdesk/internal/modules/service"
	"github.com/aoba-arch/permitdesk/internal/pkg/docgen"
)

func BuildContainer() *do.Injector {
	inj := do.New()

	// config
	do.Provide(inj, func(i *do.Injector) (*config.Config, error) {
		return config.Load()
	})

	// logger
	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.Log.Level)
	})

	// DB
	do.Provide(inj, func(i *do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		d, err := db.New(cfg)
		if err != nil {
			return nil, err
		}
		// [optional] auto migrate
		if cfg.Database.AutoMigrate {
			_ = d.AutoMigrate(
				&model.Project{},
				&model.Customer{},
				&model.Site{},
				&model.Building{},
				&model.Financial{},
				&model.Schedule{},
				&model.ApplicationType{},
				&model.Application{},
				&model.AuditTrail{},
			)
		}
		return d, nil
	})

	// Redis
	do.Provide(inj, func(i *do.Injector) (*redis.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return cache.New(cfg), nil
	})

	// RabbitMQ publisher. MQ is optional: without a URL the services run
	// with a nil notifier and skip broadcasting.
	do.Provide(inj, func(i *do.Injector) (*queue.Publisher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		if cfg.RabbitMQ.URL == "" {
			return nil, nil
		}
		conn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			return nil, err
		}
		return queue.NewPublisher(conn, cfg.RabbitMQ.Exchange, log)
	})

	// Document generator
	do.Provide(inj, func(i *do.Injector) (*docgen.Generator, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		return docgen.New(cfg.Docgen.OutputDir, log), nil
	})

	// Repo
	do.Provide(inj, func(i *do.Injector) (repo.AuditRepo, error) {
		return repo.NewAuditRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ProjectRepo, error) {
		return repo.NewProjectRepo(
			do.MustInvoke[*gorm.DB](i),
			do.MustInvoke[repo.AuditRepo](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ApplicationRepo, error) {
		return repo.NewApplicationRepo(
			do.MustInvoke[*gorm.DB](i),
			do.MustInvoke[repo.AuditRepo](i),
		), nil
	})

	// Service
	do.Provide(inj, func(i *do.Injector) (service.ProjectService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return service.NewProjectService(
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[repo.AuditRepo](i),
			do.MustInvoke[*zap.Logger](i),
			notifierFrom(do.MustInvoke[*queue.Publisher](i)),
			do.MustInvoke[*redis.Client](i),
			time.Duration(cfg.Redis.SummaryTTL)*time.Second,
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ApplicationService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return service.NewApplicationService(
			do.MustInvoke[repo.ApplicationRepo](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[repo.AuditRepo](i),
			do.MustInvoke[*zap.Logger](i),
			notifierFrom(do.MustInvoke[*queue.Publisher](i)),
			do.MustInvoke[*docgen.Generator](i),
			do.MustInvoke[*redis.Client](i),
			time.Duration(cfg.Redis.SummaryTTL)*time.Second,
			cfg.Docgen.OutputDir,
		), nil
	})

	// Handler
	do.Provide(inj, func(i *do.Injector) (*handler.ProjectHandler, error) {
		return handler.NewProjectHandler(do.MustInvoke[service.ProjectService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.ApplicationHandler, error) {
		return handler.NewApplicationHandler(do.MustInvoke[service.ApplicationService](i)), nil
	})

	return inj
}

// notifierFrom keeps the typed-nil publisher from sneaking into the Notifier
// interface as non-nil.
func notifierFrom(p *queue.Publisher) service.Notifier {
	if p == nil {
		return nil
	}
	return p
}
