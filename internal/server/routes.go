package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/kestrelhq/kestrel/internal/accounts"
	v1 "github.com/kestrelhq/kestrel/internal/api/v1"
	"github.com/kestrelhq/kestrel/internal/api/ws"
	"github.com/kestrelhq/kestrel/internal/auditquery"
	"github.com/kestrelhq/kestrel/internal/reports"
)

func registerAPIRoutes(api huma.API, orchestrator *auditquery.Orchestrator, reportSvc *reports.Service, accountSvc *accounts.Service, queryDefaults auditquery.Options) {
	v1.RegisterQueryRoutes(api, orchestrator, queryDefaults)
	v1.RegisterReportRoutes(api, reportSvc)
	v1.RegisterAccountRoutes(api, accountSvc)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/queries/{jobID}", hub.ServeQuery)
}
