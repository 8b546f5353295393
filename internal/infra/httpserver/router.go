package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appevals "github.com/gembaops/fives-audit/internal/application/evaluations"
	domain "github.com/gembaops/fives-audit/internal/domain/assessment"
	"github.com/gembaops/fives-audit/internal/domain/imaging"
	"github.com/gembaops/fives-audit/internal/middleware"
)

// maxFormMemory bounds the multipart parse buffer; the batch itself is
// capped at 4 files of 10MB each by the normalizer.
const maxFormMemory = 48 << 20

type Router struct {
	evalSvc *appevals.Service
}

func NewRouter(evalSvc *appevals.Service) http.Handler {
	r := &Router{evalSvc: evalSvc}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	mux.Route("/v1/evaluations", func(rt chi.Router) {
		rt.Post("/", r.wrap(r.handleEvaluate))
		rt.Get("/", r.wrap(r.handleList))
		rt.Get("/latest", r.wrap(r.handleLatest))
		rt.Get("/failures", r.wrap(r.handleFailures))
		rt.Get("/{id}", r.wrap(r.handleGet))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequestError marks caller mistakes that should surface as 400.
type badRequestError struct{ err error }

func (e *badRequestError) Error() string { return e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var bad *badRequestError
		if errors.As(err, &bad) || isInputError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		// every internal failure maps to the same caller-visible outcome;
		// the distinctions live in the logs and the failures table
		log.Printf("request_id=%s evaluation error: %v", middleware.RequestID(req.Context()), err)
		http.Error(w, "evaluation failed", http.StatusInternalServerError)
	}
}

func isInputError(err error) bool {
	return errors.Is(err, imaging.ErrEmptyBatch) ||
		errors.Is(err, imaging.ErrTooManyImages) ||
		errors.Is(err, imaging.ErrUnsupportedType) ||
		errors.Is(err, imaging.ErrImageTooLarge)
}

// POST /v1/evaluations
// Multipart form: photos (1-4 files) + location, department, workStation.
func (r *Router) handleEvaluate(w http.ResponseWriter, req *http.Request) error {
	if err := req.ParseMultipartForm(maxFormMemory); err != nil {
		return &badRequestError{err}
	}
	defer req.MultipartForm.RemoveAll()

	cmd := appevals.EvaluateCommand{
		Location:    middleware.SanitizeString(req.FormValue("location")),
		Department:  middleware.SanitizeString(req.FormValue("department")),
		WorkStation: middleware.SanitizeString(req.FormValue("workStation")),
	}
	for name, value := range map[string]string{
		"location":    cmd.Location,
		"department":  cmd.Department,
		"workStation": cmd.WorkStation,
	} {
		if err := middleware.ValidateMetadataField(name, value); err != nil {
			return &badRequestError{err}
		}
	}

	for _, fh := range req.MultipartForm.File["photos"] {
		f, err := fh.Open()
		if err != nil {
			return &badRequestError{err}
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return err
		}
		cmd.Images = append(cmd.Images, imaging.Upload{
			Data:        data,
			ContentType: fh.Header.Get("Content-Type"),
		})
	}

	middleware.IncrementEvaluations()
	result, err := r.evalSvc.Evaluate(req.Context(), cmd)
	if err != nil {
		middleware.IncrementEvaluationsFailed()
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(result)
}

// GET /v1/evaluations?page=&page_size=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.evalSvc.Paginate(req.Context(),
		middleware.ValidatePage(page),
		middleware.ValidatePageSize(size),
	)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/evaluations/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.evalSvc.Latest(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/evaluations/failures?limit=50
func (r *Router) handleFailures(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.evalSvc.RecentFailures(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/evaluations/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		return &badRequestError{err}
	}

	a, err := r.evalSvc.Get(req.Context(), domain.AnalysisID(id))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(a)
}
