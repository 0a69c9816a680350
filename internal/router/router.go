package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"hub-helio-backend/internal/handlers"
	"hub-helio-backend/internal/middleware"
	"hub-helio-backend/internal/websocket"
)

type Handlers struct {
	Cycle      *handlers.CycleHandler
	Planner    *handlers.PlannerHandler
	Calendar   *handlers.CalendarHandler
	Library    *handlers.LibraryHandler
	Flashcards *handlers.FlashcardHandler
}

func New(
	jwtAuth *middleware.JWTAuth,
	limiter *middleware.RateLimiter,
	h Handlers,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket authenticates with ?token=
		r.Get("/ws", wsHub.HandleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(limiter.Middleware)

			// ──── Study cycle ────
			r.Route("/ciclo", func(r chi.Router) {
				r.Get("/", h.Cycle.List)
				r.Post("/", h.Cycle.Create)
				r.Post("/seed", h.Cycle.Seed)
				r.Put("/ordem", h.Cycle.Reorder)
				r.Post("/bulk-delete", h.Cycle.BulkDelete)
				r.Get("/export", h.Cycle.Export)
				r.Patch("/{id}", h.Cycle.AutoSave)
				r.Delete("/{id}", h.Cycle.Delete)
				r.Put("/{id}/concluida", h.Cycle.ToggleCompletion)
				r.Put("/{id}/finalizada", h.Cycle.ToggleFinalized)
				r.Put("/{id}/datas", h.Cycle.UpdateDate)
			})

			r.Route("/revisoes", func(r chi.Router) {
				r.Get("/", h.Cycle.ListReviews)
				r.Put("/{id}/concluida", h.Cycle.ToggleReview)
			})

			// ──── Planner ────
			r.Route("/lembretes", func(r chi.Router) {
				r.Get("/", h.Planner.ListReminders)
				r.Post("/", h.Planner.CreateReminder)
				r.Put("/{id}", h.Planner.UpdateReminder)
				r.Delete("/{id}", h.Planner.DeleteReminder)
			})

			r.Route("/concursos", func(r chi.Router) {
				r.Get("/", h.Planner.ListConcursos)
				r.Post("/", h.Planner.CreateConcurso)
				r.Put("/{id}", h.Planner.UpdateConcurso)
				r.Delete("/{id}", h.Planner.DeleteConcurso)
			})

			r.Route("/tarefas", func(r chi.Router) {
				r.Get("/", h.Planner.ListTarefas)
				r.Post("/", h.Planner.CreateTarefa)
				r.Put("/ordem", h.Planner.ReorderTarefas)
				r.Put("/{id}", h.Planner.UpdateTarefa)
				r.Put("/{id}/concluida", h.Planner.ToggleTarefa)
				r.Delete("/{id}", h.Planner.DeleteTarefa)
			})

			// ──── Aggregate views ────
			r.Get("/calendario", h.Calendar.Month)
			r.Get("/dashboard", h.Calendar.Dashboard)

			// ──── Nested collections ────
			r.Route("/paginas", func(r chi.Router) {
				r.Get("/tree", h.Library.Paginas.Tree)
				r.Post("/", h.Library.CreatePagina)
				r.Get("/{id}", h.Library.Paginas.Get)
				r.Put("/{id}", h.Library.UpdatePagina)
				r.Put("/{id}/mover", h.Library.Paginas.Move)
				r.Delete("/{id}", h.Library.Paginas.Delete)
			})

			r.Route("/anotacoes", func(r chi.Router) {
				r.Get("/tree", h.Library.Anotacoes.Tree)
				r.Post("/", h.Library.CreateAnotacao)
				r.Get("/{id}", h.Library.Anotacoes.Get)
				r.Get("/{id}/html", h.Library.AnotacaoHTML)
				r.Put("/{id}", h.Library.UpdateAnotacao)
				r.Put("/{id}/mover", h.Library.Anotacoes.Move)
				r.Delete("/{id}", h.Library.Anotacoes.Delete)
			})

			r.Route("/documentos", func(r chi.Router) {
				r.Get("/tree", h.Library.Documentos.Tree)
				r.Post("/", h.Library.CreateDocumento)
				r.Get("/{id}", h.Library.Documentos.Get)
				r.Put("/{id}", h.Library.UpdateDocumento)
				r.Put("/{id}/mover", h.Library.Documentos.Move)
				r.Delete("/{id}", h.Library.Documentos.Delete)
			})

			r.Route("/biblioteca", func(r chi.Router) {
				r.Get("/tree", h.Library.Recursos.Tree)
				r.Post("/", h.Library.CreateRecurso)
				r.Get("/{id}", h.Library.Recursos.Get)
				r.Put("/{id}", h.Library.UpdateRecurso)
				r.Put("/{id}/mover", h.Library.Recursos.Move)
				r.Delete("/{id}", h.Library.Recursos.Delete)
			})

			// ──── Flashcards ────
			r.Route("/flashcards", func(r chi.Router) {
				r.Post("/generate", h.Flashcards.Generate)

				r.Route("/decks", func(r chi.Router) {
					r.Get("/", h.Flashcards.ListDecks)
					r.Get("/{id}", h.Flashcards.GetDeck)
					r.Get("/{id}/stats", h.Flashcards.GetDeckStats)
					r.Delete("/{id}", h.Flashcards.DeleteDeck)
				})

				r.Post("/cards/{id}/rating", h.Flashcards.RateCard)
			})

			r.Get("/jobs/{id}", h.Flashcards.GetJob)
		})
	})

	return r
}
