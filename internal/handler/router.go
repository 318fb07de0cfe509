package handler

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts every endpoint on a chi router. Middleware is the caller's
// concern; main wires the request-ID/logging/recovery stack around this.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)

	r.Route("/trips", func(r chi.Router) {
		r.Post("/", s.CreateTrip)
		r.Get("/", s.ListTrips)
		r.Get("/stats", s.GetTripStats)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Put("/", s.UpdateTrip)
			r.Post("/start", s.StartTrip)
			r.Post("/complete", s.CompleteTrip)
			r.Post("/delay", s.DelayTrip)
			r.Post("/cancel", s.CancelTrip)
			r.Get("/audit", s.GetTripAudit)
			r.Get("/fuel", s.GetTripFuel)

			r.Post("/stops", s.AddStop)
			r.Get("/stops", s.ListStops)
			r.Patch("/stops/{stopId}/departure", s.SetStopDeparture)

			r.Post("/incidents", s.AddIncident)
			r.Get("/incidents", s.ListIncidents)
			r.Post("/incidents/{incidentId}/resolve", s.ResolveIncident)

			r.Post("/tracking", s.AddTracking)
			r.Get("/tracking", s.ListTracking)
		})
	})

	r.Post("/fuel-logs", s.AddFuelLog)
	r.Delete("/fuel-logs/{id}", s.RemoveFuelLog)

	return r
}
