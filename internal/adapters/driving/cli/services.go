package cli

import (
	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
	"github.com/custodia-labs/askpolicy-cli/internal/core/ports/driven"
	"github.com/custodia-labs/askpolicy-cli/internal/core/ports/driving"
)

// Services used by the commands. Injected by the composition root in
// cmd/askpolicy before Execute.
var (
	answerService driving.AnswerService
	indexService  driving.IndexOrchestrator
	configStore   driven.ConfigStore
	appSettings   *domain.AppSettings
)

// SetAnswerService sets the answer service used by ask, chat, tabular
// and feedback commands.
func SetAnswerService(svc driving.AnswerService) {
	answerService = svc
}

// SetIndexOrchestrator sets the indexing orchestrator used by index,
// rebuild and status commands.
func SetIndexOrchestrator(svc driving.IndexOrchestrator) {
	indexService = svc
}

// SetConfigStore sets the configuration store used by the settings
// command.
func SetConfigStore(store driven.ConfigStore) {
	configStore = store
}

// SetAppSettings sets the resolved application settings.
func SetAppSettings(settings *domain.AppSettings) {
	appSettings = settings
}
