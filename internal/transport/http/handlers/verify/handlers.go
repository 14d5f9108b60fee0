package verifyhandler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"staffid/internal/domain/employee"
	"staffid/internal/domain/identifier"
	"staffid/internal/transport/http/api"
	"staffid/internal/transport/http/middleware"
)

const (
	ReasonMalformed  = "malformed_identifier"
	ReasonChecksum   = "checksum_mismatch"
	ReasonUnknown    = "unknown_identifier"
	SignedLinkValid  = "valid"
	SignedLinkBad    = "invalid"
	SignedLinkAbsent = "absent"
)

type Handler struct {
	Service *employee.Service
}

func NewHandler(service *employee.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterAPIRoutes(r chi.Router) {
	r.Get("/verify/{identifier}", h.handleVerifyJSON)
}

func (h *Handler) RegisterPageRoutes(r chi.Router) {
	r.Get("/verify/{identifier}", h.handleVerifyPage)
}

// Result is what a scanned code resolves to. Only name, department and
// issue date are disclosed; contact details never appear here.
type Result struct {
	Identifier string `json:"identifier"`
	Valid      bool   `json:"valid"`
	Reason     string `json:"reason,omitempty"`
	FullName   string `json:"fullName,omitempty"`
	Department string `json:"department,omitempty"`
	IssuedAt   string `json:"issuedAt,omitempty"`
	SignedLink string `json:"signedLink"`
}

func (h *Handler) resolve(r *http.Request) (Result, error) {
	ident := chi.URLParam(r, "identifier")
	result := Result{Identifier: ident, SignedLink: SignedLinkAbsent}

	if token := r.URL.Query().Get("t"); token != "" {
		result.SignedLink = SignedLinkValid
		if err := h.Service.CheckLinkToken(ident, token); err != nil {
			result.SignedLink = SignedLinkBad
		}
	}

	emp, err := h.Service.Verify(r.Context(), ident)
	switch {
	case errors.Is(err, identifier.ErrChecksumMismatch):
		result.Reason = ReasonChecksum
	case errors.Is(err, identifier.ErrMalformed):
		result.Reason = ReasonMalformed
	case errors.Is(err, employee.ErrNotFound):
		result.Reason = ReasonUnknown
	case err != nil:
		return result, err
	default:
		result.Valid = true
		result.FullName = emp.FullName()
		result.Department = emp.Department
		result.IssuedAt = emp.CreatedAt.UTC().Format(time.RFC3339)
	}
	return result, nil
}

func (h *Handler) handleVerifyJSON(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	result, err := h.resolve(r)
	if err != nil {
		api.Fail(w, http.StatusServiceUnavailable, "store_unavailable", "verification is temporarily unavailable", requestID)
		return
	}
	api.Success(w, result, requestID)
}

var pageTemplate = template.Must(template.New("verify").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Identifier verification</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 28rem; padding: 0 1rem; }
.card { border: 1px solid #ccc; border-radius: 8px; padding: 1.5rem; }
.ok { color: #1a7f37; }
.bad { color: #b42318; }
dt { font-weight: 600; margin-top: .75rem; }
dd { margin: 0; }
.note { margin-top: 1rem; font-size: .85rem; color: #555; }
</style>
</head>
<body>
<div class="card">
<h1>Identifier verification</h1>
<p><code>{{.Identifier}}</code></p>
{{if .Valid}}
<p class="ok">This identifier is valid and registered.</p>
<dl>
<dt>Name</dt><dd>{{.FullName}}</dd>
<dt>Department</dt><dd>{{.Department}}</dd>
<dt>Issued</dt><dd>{{.IssuedAt}}</dd>
</dl>
{{else}}
<p class="bad">This identifier could not be verified ({{.Reason}}).</p>
{{end}}
{{if eq .SignedLink "valid"}}
<p class="note">Opened from a signed link.</p>
{{else if eq .SignedLink "invalid"}}
<p class="note bad">The link signature did not verify; treat this result with caution.</p>
{{end}}
</div>
</body>
</html>
`))

func (h *Handler) handleVerifyPage(w http.ResponseWriter, r *http.Request) {
	result, err := h.resolve(r)
	if err != nil {
		http.Error(w, "verification is temporarily unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	status := http.StatusOK
	if !result.Valid {
		status = http.StatusNotFound
	}
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, result); err != nil {
		slog.Warn("verify page render failed", "identifier", result.Identifier, "err", err)
	}
}
