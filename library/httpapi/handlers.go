package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"

	"github.com/bookdesk/bookdesk/library/app"
	"github.com/bookdesk/bookdesk/library/shell"
)

// ErrUnknownTransition is returned for loan transitions the API does not know.
var ErrUnknownTransition = errors.New("unknown loan transition")

// Handler holds the HTTP handlers of the library.
type Handler struct {
	library *app.Library
	logger  *slog.Logger
	tokens  *Tokens
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type borrowRequest struct {
	BookID   string `json:"bookId"`
	RecordID string `json:"recordId"`
}

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

func decode(w http.ResponseWriter, r *http.Request, into any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(body).Decode(into); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, tooLarge.Limit)
		}

		return errors.Join(ErrMalformedBody, err)
	}

	return nil
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	authenticated, err := h.library.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(authenticated.MemberID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLoginView(authenticated, token, expiresAt))
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.library.Dashboard(r.Context(), actor(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toStatsView(stats))
}

// ListBooks returns the catalog, or the books matching ?q= in ?field= when q is given.
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		result, err := h.library.Catalog(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookViews(result.Books))
		return
	}

	books, err := h.library.SearchBooks(r.Context(), term, r.URL.Query().Get("field"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookViews(books))
}

func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.library.Book(r.Context(), mux.Vars(r)["bookID"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookView(book))
}

func (h *Handler) AddBook(w http.ResponseWriter, r *http.Request) {
	var book app.NewBook
	if err := decode(w, r, &book); err != nil {
		writeError(w, err)
		return
	}

	h.writeOutcome(w, r, http.StatusCreated)(h.library.AddBook(r.Context(), actor(r), book))
}

func (h *Handler) RemoveBook(w http.ResponseWriter, r *http.Request) {
	h.writeOutcome(w, r, http.StatusOK)(h.library.RemoveBook(r.Context(), actor(r), mux.Vars(r)["bookID"]))
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	result, err := h.library.Members(r.Context(), actor(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMemberViews(result))
}

func (h *Handler) RegisterMember(w http.ResponseWriter, r *http.Request) {
	var member app.NewMember
	if err := decode(w, r, &member); err != nil {
		writeError(w, err)
		return
	}

	h.writeOutcome(w, r, http.StatusCreated)(h.library.RegisterMember(r.Context(), actor(r), member))
}

func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	h.writeOutcome(w, r, http.StatusOK)(h.library.DeleteMember(r.Context(), actor(r), mux.Vars(r)["memberID"]))
}

func (h *Handler) CurrentLoans(w http.ResponseWriter, r *http.Request) {
	result, err := h.library.CurrentLoans(r.Context(), actor(r), mux.Vars(r)["memberID"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordViews(result.Records()))
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	result, err := h.library.History(r.Context(), actor(r), mux.Vars(r)["memberID"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordViews(result.Records()))
}

func (h *Handler) RequestBorrow(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	h.writeOutcome(w, r, http.StatusCreated)(h.library.RequestBorrow(r.Context(), actor(r), req.BookID, req.RecordID))
}

func (h *Handler) PendingBorrowRequests(w http.ResponseWriter, r *http.Request) {
	result, err := h.library.PendingBorrowRequests(r.Context(), actor(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordViews(result.Records()))
}

func (h *Handler) PendingReturnRequests(w http.ResponseWriter, r *http.Request) {
	result, err := h.library.PendingReturnRequests(r.Context(), actor(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordViews(result.Records()))
}

func (h *Handler) Overdue(w http.ResponseWriter, r *http.Request) {
	records, err := h.library.Overdue(r.Context(), actor(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordViews(records))
}

// TransitionLoan moves a borrow record along: approve, reject, request-return,
// approve-return, reject-return or return.
func (h *Handler) TransitionLoan(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ctx, recordID, member := r.Context(), vars["recordID"], actor(r)

	var transition func() (app.Outcome, error)

	switch vars["transition"] {
	case "approve":
		transition = func() (app.Outcome, error) { return h.library.ApproveBorrow(ctx, member, recordID) }
	case "reject":
		transition = func() (app.Outcome, error) { return h.library.RejectBorrow(ctx, member, recordID) }
	case "request-return":
		transition = func() (app.Outcome, error) { return h.library.RequestReturn(ctx, member, recordID) }
	case "approve-return":
		transition = func() (app.Outcome, error) { return h.library.ApproveReturn(ctx, member, recordID) }
	case "reject-return":
		transition = func() (app.Outcome, error) { return h.library.RejectReturn(ctx, member, recordID) }
	case "return":
		transition = func() (app.Outcome, error) { return h.library.ReturnBook(ctx, member, recordID) }
	default:
		writeError(w, fmt.Errorf("%w %q: %w", ErrUnknownTransition, vars["transition"], shell.ErrInvalidCommand))
		return
	}

	h.writeOutcome(w, r, http.StatusOK)(transition())
}

// writeOutcome writes a command outcome. Idempotent outcomes are always 200.
func (h *Handler) writeOutcome(w http.ResponseWriter, r *http.Request, status int) func(app.Outcome, error) {
	return func(outcome app.Outcome, err error) {
		if err != nil {
			if code, _ := classify(err); code == http.StatusInternalServerError {
				h.logger.ErrorContext(r.Context(), "command failed", "path", r.URL.Path, "error", err)
			}

			writeError(w, err)
			return
		}

		if outcome.Idempotent {
			status = http.StatusOK
		}

		writeJSON(w, status, outcome)
	}
}
