package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"partymatch/internal/delivery/http/controllers"
	"partymatch/internal/delivery/http/middleware"
	"partymatch/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// Host routes sit behind bearer auth; guest routes are public, since guests
// have no accounts and identify themselves by guest id.
func NewRouter(
	logger *slog.Logger,
	verifier domain.TokenVerifier,
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	guestController *controllers.GuestController,
	questionController *controllers.QuestionController,
	responseController *controllers.ResponseController,
	matchController *controllers.MatchController,
) *http.ServeMux {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/register", authController.Register)
	mux.HandleFunc("POST /auth/login", authController.Login)
	mux.HandleFunc("POST /auth/login-code", authController.RequestLoginCode)
	mux.HandleFunc("POST /auth/login-code/verify", authController.VerifyLoginCode)
	mux.HandleFunc("GET /users/me", requireAuth(authController.GetMe))

	// Events (host)
	mux.HandleFunc("POST /events", requireAuth(eventController.CreateEvent))
	mux.HandleFunc("GET /events/me", requireAuth(eventController.ListMyEvents))
	mux.HandleFunc("PATCH /events/{eventID}", requireAuth(eventController.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", requireAuth(eventController.DeleteEvent))
	mux.HandleFunc("GET /events/{eventID}/status", requireAuth(eventController.GetEventStatus))
	mux.HandleFunc("GET /events/{eventID}/guests", requireAuth(guestController.ListGuests))

	// Events (public)
	mux.HandleFunc("GET /events/{eventID}", eventController.GetEvent)
	mux.HandleFunc("GET /events/code/{code}", eventController.GetEventByCode)

	// Survey
	mux.HandleFunc("POST /events/{eventID}/questions", requireAuth(questionController.AddQuestion))
	mux.HandleFunc("GET /events/{eventID}/questions", questionController.ListQuestions)
	mux.HandleFunc("PATCH /questions/{questionID}", requireAuth(questionController.UpdateQuestion))
	mux.HandleFunc("DELETE /questions/{questionID}", requireAuth(questionController.DeleteQuestion))

	// Guests and answers (public)
	mux.HandleFunc("POST /guests/join", guestController.JoinEvent)
	mux.HandleFunc("GET /guests/{guestID}", guestController.GetGuest)
	mux.HandleFunc("POST /guests/{guestID}/responses", responseController.SubmitAnswers)
	mux.HandleFunc("GET /guests/{guestID}/responses", responseController.ListGuestResponses)

	// Matching
	mux.HandleFunc("POST /events/{eventID}/matches/compute", requireAuth(matchController.ComputeMatches))
	mux.HandleFunc("POST /events/{eventID}/matches/reveal", requireAuth(matchController.RevealMatches))
	mux.HandleFunc("GET /events/{eventID}/matches", requireAuth(matchController.ListMatches))
	mux.HandleFunc("POST /events/{eventID}/matches", requireAuth(matchController.CreateManualMatch))
	mux.HandleFunc("DELETE /events/{eventID}/matches/{matchID}", requireAuth(matchController.DeleteMatch))
	mux.HandleFunc("GET /events/{eventID}/guests/{guestID}/matches", matchController.GuestMatches)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
