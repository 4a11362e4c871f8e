package appbootstrap

import (
	"database/sql"

	"kestrel-eoc/api"
	"kestrel-eoc/config"
	"kestrel-eoc/core/auth"
	"kestrel-eoc/core/logbook"
	"kestrel-eoc/core/ops"
	"kestrel-eoc/core/radio"
	"kestrel-eoc/core/rbac"
	"kestrel-eoc/core/store"
	"kestrel-eoc/core/utils"
)

type runtimeComposition struct {
	serverDeps api.ServerDeps
	workers    []api.BackgroundWorker
}

func composeRuntime(cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) (*runtimeComposition, error) {
	users := store.NewUsersStore(db)
	sessions := store.NewSessionsStore(db)
	events := store.NewEventsStore(db)
	logs := store.NewLogsStore(db)
	radioStore := store.NewRadioStore(db)
	audits := store.NewAuditStore(db)

	policy, err := rbac.NewPolicy()
	if err != nil {
		return nil, err
	}
	sessionManager := auth.NewSessionManager(sessions, cfg, logger)
	logbookSvc := logbook.NewService(cfg, logs, events, users, audits, logger)
	bridge := radio.NewBridge(cfg, nil, radioStore, logs, logbookSvc, audits, logger)
	scheduler := ops.NewScheduler(cfg, radioStore, sessions, audits, logger)

	return &runtimeComposition{
		serverDeps: api.ServerDeps{
			Cfg:            cfg,
			Users:          users,
			Sessions:       sessions,
			Events:         events,
			Logs:           logs,
			Radio:          radioStore,
			Audits:         audits,
			LogbookSvc:     logbookSvc,
			RadioBridge:    bridge,
			SessionManager: sessionManager,
			Policy:         policy,
			Logger:         logger,
		},
		workers: []api.BackgroundWorker{scheduler},
	}, nil
}
