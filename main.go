package main

import (
	"log"

	api "github.com/cs-flytbase/support-sync/cmd/api"
	customerdomain "github.com/cs-flytbase/support-sync/internal/customer/domain"
	customerRepo "github.com/cs-flytbase/support-sync/internal/customer/repository"
	embeddingDelivery "github.com/cs-flytbase/support-sync/internal/embedding/delivery"
	embeddingdomain "github.com/cs-flytbase/support-sync/internal/embedding/domain"
	embeddingRepo "github.com/cs-flytbase/support-sync/internal/embedding/repository"
	embeddingUsecase "github.com/cs-flytbase/support-sync/internal/embedding/usecase"
	"github.com/cs-flytbase/support-sync/internal/identity"
	integrationdomain "github.com/cs-flytbase/support-sync/internal/integration/domain"
	integrationRepo "github.com/cs-flytbase/support-sync/internal/integration/repository"
	syncDelivery "github.com/cs-flytbase/support-sync/internal/sync/delivery"
	syncdomain "github.com/cs-flytbase/support-sync/internal/sync/domain"
	syncRepo "github.com/cs-flytbase/support-sync/internal/sync/repository"
	"github.com/cs-flytbase/support-sync/internal/sync/scheduler"
	syncUsecase "github.com/cs-flytbase/support-sync/internal/sync/usecase"
	"github.com/cs-flytbase/support-sync/pkg/apiclient"
	"github.com/cs-flytbase/support-sync/pkg/config"
	"github.com/cs-flytbase/support-sync/pkg/database"
	"github.com/cs-flytbase/support-sync/pkg/embedder"
	"github.com/cs-flytbase/support-sync/pkg/googleapi"
	"github.com/cs-flytbase/support-sync/pkg/hubspot"
	"github.com/cs-flytbase/support-sync/pkg/slackapi"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&integrationdomain.UserIntegration{},
		&customerdomain.Customer{},
		&customerdomain.CustomerContact{},
		&syncdomain.Email{},
		&syncdomain.CalendarEvent{},
		&syncdomain.Company{},
		&syncdomain.Contact{},
		&syncdomain.Deal{},
		&syncdomain.Association{},
		&syncdomain.SlackChannel{},
		&syncdomain.SlackMessage{},
		&syncdomain.SyncRun{},
		&embeddingdomain.QueueItem{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	integrations := integrationRepo.NewIntegrationRepository(db)
	customers := customerRepo.NewCustomerRepository(db)
	emails := syncRepo.NewEmailRepository(db)
	events := syncRepo.NewEventRepository(db)
	crm := syncRepo.NewCRMRepository(db)
	slackStore := syncRepo.NewSlackRepository(db)
	runs := syncRepo.NewSyncRunRepository(db)
	cursors := syncRepo.NewCursorStore(integrations)
	queue := embeddingRepo.NewQueueRepository(db)

	// Shared rate-limited API client
	apiClient := apiclient.NewClient(apiclient.NewWindowLimiter(nil))

	// Provider clients
	googleService := googleapi.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, apiClient)
	hubspotClient := hubspot.NewClient(cfg.HubSpotBaseURL, cfg.HubSpotAPIKey, apiClient)
	slackClient := slackapi.NewClient(cfg.SlackBotToken, apiClient)

	// Embedding pipeline
	openAI := embedder.NewOpenAI(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	processor := embeddingUsecase.NewProcessor(queue, emails, events, slackStore, openAI)
	worker := embeddingUsecase.NewWorkerService(processor, cfg.QueueWorkers)
	worker.Start()
	defer worker.Stop()

	// Sync services
	resolver := identity.NewResolver(customers)
	gmailSync := syncUsecase.NewGmailSyncService(integrations, cursors, emails, resolver, googleService.Gmail, queue, worker)
	calendarSync := syncUsecase.NewCalendarSyncService(integrations, cursors, events, resolver, googleService.Calendar, queue, worker)
	hubspotSync := syncUsecase.NewHubSpotSyncService(integrations, cursors, crm, hubspotClient)
	slackSync := syncUsecase.NewSlackSyncService(integrations, cursors, slackStore, slackClient, queue, worker)

	orchestrator := syncUsecase.NewOrchestrator(runs, integrations, gmailSync, calendarSync, hubspotSync, slackSync)

	// In-process schedule for deployments without external cron
	syncScheduler := scheduler.NewSyncScheduler(orchestrator, processor, cfg.SyncInterval, cfg.QueueRetentionDays)
	syncScheduler.Start()
	defer syncScheduler.Stop()

	// HTTP delivery
	syncHandler := syncDelivery.NewSyncHandler(orchestrator, hubspotSync, integrations)
	embeddingHandler := embeddingDelivery.NewEmbeddingHandler(processor, cfg.QueueRetentionDays)

	handler := api.NewHandler(cfg, syncHandler, embeddingHandler)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
