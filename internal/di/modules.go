package di

import (
	"log"
	"time"

	"mongobridge/config"
	"mongobridge/internal/apis/handlers"
	"mongobridge/internal/repositories"
	"mongobridge/internal/services"
	"mongobridge/internal/utils"
	"mongobridge/pkg/redis"

	"go.uber.org/dig"
)

var DiContainer *dig.Container

func Initialize() {
	DiContainer = dig.New()

	// Initialize Redis
	redisClient, err := redis.RedisClient(config.Env.RedisHost, config.Env.RedisPort, config.Env.RedisUsername, config.Env.RedisPassword)
	if err != nil {
		log.Fatalf("Failed to initialize Redis client: %v", err)
	}

	// Initialize services and repositories
	redisRepo := redis.NewRedisRepositories(redisClient)
	jwtService := utils.NewJWTService(
		config.Env.JWTSecret,
		time.Millisecond*time.Duration(config.Env.JWTExpirationMilliseconds),
	)

	// Initialize audit repository; auditing is optional
	var auditRepo repositories.ExecutionLogRepository
	if config.Env.AuditPostgresDSN != "" {
		auditRepo, err = repositories.NewExecutionLogRepository(config.Env.AuditPostgresDSN)
		if err != nil {
			log.Fatalf("Failed to initialize execution log repository: %v", err)
		}
	} else {
		log.Println("Audit logging disabled: AUDIT_POSTGRES_DSN is not set")
	}

	// Provide all dependencies to the container
	if err := DiContainer.Provide(func() redis.IRedisRepositories { return redisRepo }); err != nil {
		log.Fatalf("Failed to provide Redis repositories: %v", err)
	}

	if err := DiContainer.Provide(func() utils.JWTService { return jwtService }); err != nil {
		log.Fatalf("Failed to provide JWT service: %v", err)
	}

	// Provide services
	if err := DiContainer.Provide(func(redisRepo redis.IRedisRepositories) services.ConnectorService {
		return services.NewConnectorService(redisRepo, auditRepo)
	}); err != nil {
		log.Fatalf("Failed to provide connector service: %v", err)
	}

	// Provide handlers
	if err := DiContainer.Provide(func(connectorService services.ConnectorService) *handlers.ConnectorHandler {
		return handlers.NewConnectorHandler(connectorService)
	}); err != nil {
		log.Fatalf("Failed to provide connector handler: %v", err)
	}
}

// GetConnectorHandler retrieves the ConnectorHandler from the DI container
func GetConnectorHandler() (*handlers.ConnectorHandler, error) {
	var handler *handlers.ConnectorHandler
	err := DiContainer.Invoke(func(h *handlers.ConnectorHandler) {
		handler = h
	})
	if err != nil {
		return nil, err
	}
	return handler, nil
}
