package employeeshandler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"staffid/internal/domain/employee"
	"staffid/internal/domain/identifier"
	"staffid/internal/transport/http/api"
	"staffid/internal/transport/http/middleware"
	"staffid/internal/transport/http/shared"
)

const defaultMaxPhotoBytes = 5 << 20

type Handler struct {
	Service       *employee.Service
	MaxPhotoBytes int64
}

func NewHandler(service *employee.Service, maxPhotoBytes int64) *Handler {
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = defaultMaxPhotoBytes
	}
	return &Handler{Service: service, MaxPhotoBytes: maxPhotoBytes}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleRegister)
		r.Route("/{identifier}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdateContact)
			r.Delete("/", h.handleDelete)
			r.Post("/photo", h.handleUploadPhoto)
			r.Get("/qr.png", h.handleProofPNG(employee.ProofQR))
			r.Get("/barcode.png", h.handleProofPNG(employee.ProofBarcode))
			r.Get("/badge.pdf", h.handleBadge)
		})
	})
}

type registerPayload struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Department  string `json:"department"`
	Contact     string `json:"contact"`
	Email       string `json:"email"`
	DateOfBirth string `json:"dateOfBirth"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload registerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "is required")
	v.Required("lastName", payload.LastName, "is required")
	v.Email("email", payload.Email)
	var dob *time.Time
	if strings.TrimSpace(payload.DateOfBirth) != "" {
		if parsed, ok := v.Date("dateOfBirth", payload.DateOfBirth); ok {
			dob = &parsed
		}
	}
	if v.Reject(w, requestID) {
		return
	}

	result, err := h.Service.Register(r.Context(), employee.RegisterInput{
		FirstName:   payload.FirstName,
		LastName:    payload.LastName,
		Department:  payload.Department,
		Contact:     payload.Contact,
		Email:       payload.Email,
		DateOfBirth: dob,
	})
	if err != nil {
		h.failRegister(w, err, requestID)
		return
	}

	data := map[string]any{
		"employee": result.Employee,
		"attempts": result.Attempts,
	}
	if result.ProofError != "" {
		data["warning"] = "identifier issued but proof generation failed; proofs will be regenerated"
	}
	api.Created(w, data, requestID)
}

func (h *Handler) failRegister(w http.ResponseWriter, err error, requestID string) {
	var dup *identifier.DuplicateError
	if errors.As(err, &dup) {
		api.FailWithDetails(
			w,
			http.StatusConflict,
			"duplicate_employee",
			"an employee with matching details already exists",
			map[string]any{"matchedBy": dup.Match},
			requestID,
		)
		return
	}
	if errors.Is(err, identifier.ErrSequenceExhausted) {
		api.Fail(w, http.StatusConflict, "bucket_exhausted", "no serials remain for this department and year", requestID)
		return
	}
	if errors.Is(err, employee.ErrStoreUnavailable) {
		api.Fail(w, http.StatusServiceUnavailable, "store_unavailable", "storage is temporarily unavailable", requestID)
		return
	}
	var alloc *identifier.AllocationError
	if errors.As(err, &alloc) {
		api.Fail(w, http.StatusInternalServerError, "allocation_failed", "identifier allocation failed", requestID)
		return
	}
	api.Fail(w, http.StatusInternalServerError, "registration_failed", "failed to register employee", requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	employees, total, err := h.Service.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		h.failLookup(w, err, requestID, "employee_list_failed", "failed to list employees")
		return
	}
	api.Success(w, map[string]any{
		"employees": employees,
		"total":     total,
		"limit":     page.Limit,
		"offset":    page.Offset,
	}, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	emp, err := h.Service.Get(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		h.failLookup(w, err, requestID, "employee_get_failed", "failed to load employee")
		return
	}
	api.Success(w, emp, requestID)
}

type contactPayload struct {
	Contact string `json:"contact"`
	Email   string `json:"email"`
}

func (h *Handler) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload contactPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Email("email", payload.Email)
	if v.Reject(w, requestID) {
		return
	}

	emp, err := h.Service.UpdateContact(r.Context(), chi.URLParam(r, "identifier"), payload.Contact, payload.Email)
	if err != nil {
		h.failLookup(w, err, requestID, "employee_update_failed", "failed to update employee")
		return
	}
	api.Success(w, emp, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "identifier")); err != nil {
		h.failLookup(w, err, requestID, "employee_delete_failed", "failed to delete employee")
		return
	}
	api.Success(w, map[string]string{"identifier": chi.URLParam(r, "identifier")}, requestID)
}

func (h *Handler) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if err := r.ParseMultipartForm(h.MaxPhotoBytes); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "expected multipart form with a photo file", requestID)
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "photo file is required", requestID)
		return
	}
	defer file.Close()

	ext := strings.ToLower(path.Ext(header.Filename))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		api.Fail(w, http.StatusBadRequest, "unsupported_media", "photo must be a PNG or JPEG", requestID)
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, h.MaxPhotoBytes+1))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "failed to read photo", requestID)
		return
	}
	if int64(len(data)) > h.MaxPhotoBytes {
		api.Fail(w, http.StatusRequestEntityTooLarge, "photo_too_large", "photo exceeds the size limit", requestID)
		return
	}

	location, err := h.Service.SavePhoto(r.Context(), chi.URLParam(r, "identifier"), data, ext)
	if err != nil {
		h.failLookup(w, err, requestID, "photo_upload_failed", "failed to store photo")
		return
	}
	api.Success(w, map[string]string{"photoPath": location}, requestID)
}

func (h *Handler) handleProofPNG(kind employee.ProofKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetRequestID(r.Context())

		data, err := h.Service.ProofImage(r.Context(), chi.URLParam(r, "identifier"), kind)
		if err != nil {
			h.failLookup(w, err, requestID, "proof_unavailable", "failed to load proof image")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "private, max-age=3600")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			return
		}
	}
}

func (h *Handler) handleBadge(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	ident := chi.URLParam(r, "identifier")
	data, err := h.Service.BadgePDF(r.Context(), ident)
	if err != nil {
		h.failLookup(w, err, requestID, "badge_unavailable", "failed to render badge")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ident+`-badge.pdf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		return
	}
}

func (h *Handler) failLookup(w http.ResponseWriter, err error, requestID, code, message string) {
	switch {
	case errors.Is(err, employee.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
	case errors.Is(err, employee.ErrStoreUnavailable):
		api.Fail(w, http.StatusServiceUnavailable, "store_unavailable", "storage is temporarily unavailable", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
