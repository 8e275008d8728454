package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

// Problem type URIs. They are relative to the API root and never resolve.
const (
	TypeValidation       = "/errors/validation"
	TypeInvalidRequest   = "/errors/invalid-request"
	TypeNotFound         = "/errors/not-found"
	TypeMethodNotAllowed = "/errors/method-not-allowed"
	TypeRateLimit        = "/errors/rate-limit"
	TypeInternal         = "/errors/internal"
	TypeServiceDown      = "/errors/service-unavailable"
	TypeTimeout          = "/errors/timeout"
	TypeConflict         = "/errors/conflict"

	TypeSchemaMismatch   = "/errors/ingestion/schema-mismatch"
	TypeIngestionRunning = "/errors/ingestion/already-running"
	TypeExtractInvalid   = "/errors/ingestion/extract-invalid"
	TypeStorage          = "/errors/storage"
	TypeConfig           = "/errors/config"
)

var problemTitles = map[string]string{
	TypeValidation:       "Validation Failed",
	TypeInvalidRequest:   "Invalid Request",
	TypeNotFound:         "Resource Not Found",
	TypeMethodNotAllowed: "Method Not Allowed",
	TypeRateLimit:        "Too Many Requests",
	TypeServiceDown:      "Service Unavailable",
	TypeTimeout:          "Request Timeout",
	TypeConflict:         "Conflict",
	TypeSchemaMismatch:   "Schema Mismatch",
	TypeIngestionRunning: "Ingestion Already Running",
	TypeExtractInvalid:   "Extract Invalid",
}

// ProblemDetails is an RFC 7807 problem. Extensions are flattened into the
// top-level JSON object.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]interface{} `json:"-"`
}

// Render implements render.Renderer.
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{}, len(pd.Extensions)+5)
	for k, v := range pd.Extensions {
		data[k] = v
	}
	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status
	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}
	return json.Marshal(data)
}

// NewProblemDetails creates a problem with an explicit title.
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// newProblem titles the problem from its type, falling back to the status
// text.
func newProblem(status int, problemType, detail, instance string) *ProblemDetails {
	title, ok := problemTitles[problemType]
	if !ok {
		title = http.StatusText(status)
	}
	return NewProblemDetails(status, problemType, title, detail, instance)
}

// WithExtension sets one extension member and returns pd.
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}
