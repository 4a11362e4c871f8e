package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kestrel-eoc/api/handlers"
	"kestrel-eoc/core/rbac"
)

type routeHandlers struct {
	auth     *handlers.AuthHandler
	accounts *handlers.AccountsHandler
	events   *handlers.EventsHandler
	logs     *handlers.LogsHandler
	radio    *handlers.RadioHandler
	audit    *handlers.AuditHandler
}

func (s *Server) newRouteHandlers() routeHandlers {
	return routeHandlers{
		auth:     handlers.NewAuthHandler(s.cfg, s.users, s.sessionManager, s.audits, s.logger),
		accounts: handlers.NewAccountsHandler(s.users, s.audits, s.logger),
		events:   handlers.NewEventsHandler(s.events, s.users, s.audits, s.logger),
		logs:     handlers.NewLogsHandler(s.logbookSvc, s.logs, s.logger),
		radio:    handlers.NewRadioHandler(s.cfg, s.radio, s.radioBridge, s.logger),
		audit:    handlers.NewAuditHandler(s.audits, s.logger),
	}
}

// sessionPerm wraps a handler in session authentication plus a permission
// check, in that order.
func (s *Server) sessionPerm(perm rbac.Permission, h http.HandlerFunc) http.HandlerFunc {
	return s.withSession(s.requirePermission(perm)(h))
}

func (s *Server) buildRouter() http.Handler {
	h := s.newRouteHandlers()

	r := chi.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(s.loggingMiddleware)

	r.Route("/api", func(apiRouter chi.Router) {
		apiRouter.MethodFunc("POST", "/auth/login", s.rateLimitMiddleware(h.auth.Login))
		apiRouter.MethodFunc("POST", "/auth/logout", s.withSession(h.auth.Logout))
		apiRouter.MethodFunc("GET", "/auth/me", s.withSession(h.auth.Me))

		apiRouter.MethodFunc("POST", "/accounts", s.sessionPerm(rbac.PermAccountsManage, h.accounts.Create))
		apiRouter.MethodFunc("GET", "/audit", s.sessionPerm(rbac.PermAuditView, h.audit.List))

		apiRouter.Route("/events", func(eventsRouter chi.Router) {
			eventsRouter.MethodFunc("GET", "/", s.sessionPerm(rbac.PermLogsView, h.events.List))
			eventsRouter.MethodFunc("POST", "/", s.sessionPerm(rbac.PermEventsManage, h.events.Create))
			eventsRouter.MethodFunc("GET", "/{id:[0-9]+}", s.sessionPerm(rbac.PermLogsView, h.events.Get))
			eventsRouter.MethodFunc("POST", "/{id:[0-9]+}/positions", s.sessionPerm(rbac.PermEventsManage, h.events.AssignPosition))

			eventsRouter.MethodFunc("GET", "/{id:[0-9]+}/logs", s.sessionPerm(rbac.PermLogsView, h.logs.List))
			eventsRouter.MethodFunc("POST", "/{id:[0-9]+}/logs", s.sessionPerm(rbac.PermLogsCreate, h.logs.Create))
			eventsRouter.MethodFunc("GET", "/{id:[0-9]+}/match-state", s.sessionPerm(rbac.PermLogsView, h.logs.MatchState))

			eventsRouter.MethodFunc("GET", "/{id:[0-9]+}/radio-messages", s.sessionPerm(rbac.PermLogsView, h.radio.List))
			eventsRouter.MethodFunc("POST", "/{id:[0-9]+}/radio-messages", s.sessionPerm(rbac.PermRadioProcess, h.radio.Ingest))
		})

		apiRouter.Route("/logs", func(logsRouter chi.Router) {
			logsRouter.MethodFunc("GET", "/{log_id:[0-9]+}", s.sessionPerm(rbac.PermLogsView, h.logs.Get))
			logsRouter.MethodFunc("POST", "/{log_id:[0-9]+}/amend", s.sessionPerm(rbac.PermLogsCreate, h.logs.Amend))
		})

		apiRouter.MethodFunc("POST", "/radio/{message_id:[0-9]+}/process", s.sessionPerm(rbac.PermRadioProcess, h.radio.Process))
	})

	return r
}
