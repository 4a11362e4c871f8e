package api

import (
	"context"
	"net/http"

	"kestrel-eoc/config"
	"kestrel-eoc/core/auth"
	"kestrel-eoc/core/logbook"
	"kestrel-eoc/core/radio"
	"kestrel-eoc/core/rbac"
	"kestrel-eoc/core/store"
	"kestrel-eoc/core/utils"
)

// BackgroundWorker is anything with a start/stop lifecycle tied to the
// server's run context (currently the maintenance scheduler).
type BackgroundWorker interface {
	StartWithContext(ctx context.Context)
	StopWithContext(ctx context.Context) error
}

type ServerDeps struct {
	Cfg            *config.AppConfig
	Users          store.UsersStore
	Sessions       store.SessionStore
	Events         store.EventsStore
	Logs           store.LogsStore
	Radio          store.RadioStore
	Audits         store.AuditStore
	LogbookSvc     *logbook.Service
	RadioBridge    *radio.Bridge
	SessionManager *auth.SessionManager
	Policy         *rbac.Policy
	Logger         *utils.Logger
}

type Server struct {
	cfg            *config.AppConfig
	users          store.UsersStore
	sessions       store.SessionStore
	events         store.EventsStore
	logs           store.LogsStore
	radio          store.RadioStore
	audits         store.AuditStore
	logbookSvc     *logbook.Service
	radioBridge    *radio.Bridge
	sessionManager *auth.SessionManager
	policy         *rbac.Policy
	logger         *utils.Logger

	activity *sessionActivity
	handler  http.Handler
}

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		cfg:            deps.Cfg,
		users:          deps.Users,
		sessions:       deps.Sessions,
		events:         deps.Events,
		logs:           deps.Logs,
		radio:          deps.Radio,
		audits:         deps.Audits,
		logbookSvc:     deps.LogbookSvc,
		radioBridge:    deps.RadioBridge,
		sessionManager: deps.SessionManager,
		policy:         deps.Policy,
		logger:         deps.Logger,
		activity:       newSessionActivity(),
	}
	s.handler = s.buildRouter()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}
