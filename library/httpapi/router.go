package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bookdesk/bookdesk/library/app"
)

// Router creates and configures the HTTP router. metrics may be nil.
// Login, the catalog and member registration are open; every other route needs a bearer token.
func Router(library *app.Library, logger *slog.Logger, metrics http.Handler, tokens *Tokens) http.Handler {
	h := &Handler{library: library, logger: logger, tokens: tokens}

	router := mux.NewRouter()
	router.Use(
		LoggingMiddleware(logger),
		RecoveryMiddleware(logger),
	)

	router.HandleFunc("/healthz", requireActor(h.Health)).Methods(http.MethodGet)
	if metrics != nil {
		router.Handle("/metrics", metrics).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api").Subrouter()
	api.Use(AuthMiddleware(tokens))
	api.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/dashboard", requireActor(h.Dashboard)).Methods(http.MethodGet)

	// Books
	api.HandleFunc("/books", h.ListBooks).Methods(http.MethodGet)
	api.HandleFunc("/books", requireActor(h.AddBook)).Methods(http.MethodPost)
	api.HandleFunc("/books/{bookID}", h.GetBook).Methods(http.MethodGet)
	api.HandleFunc("/books/{bookID}", requireActor(h.RemoveBook)).Methods(http.MethodDelete)

	// Members
	api.HandleFunc("/members", requireActor(h.ListMembers)).Methods(http.MethodGet)
	api.HandleFunc("/members", h.RegisterMember).Methods(http.MethodPost)
	api.HandleFunc("/members/{memberID}", requireActor(h.DeleteMember)).Methods(http.MethodDelete)
	api.HandleFunc("/members/{memberID}/loans", requireActor(h.CurrentLoans)).Methods(http.MethodGet)
	api.HandleFunc("/members/{memberID}/history", requireActor(h.History)).Methods(http.MethodGet)

	// Loans
	api.HandleFunc("/loans", requireActor(h.RequestBorrow)).Methods(http.MethodPost)
	api.HandleFunc("/loans/pending-borrows", requireActor(h.PendingBorrowRequests)).Methods(http.MethodGet)
	api.HandleFunc("/loans/pending-returns", requireActor(h.PendingReturnRequests)).Methods(http.MethodGet)
	api.HandleFunc("/loans/overdue", requireActor(h.Overdue)).Methods(http.MethodGet)
	api.HandleFunc("/loans/{recordID}/{transition}", requireActor(h.TransitionLoan)).Methods(http.MethodPost)

	return router
}
