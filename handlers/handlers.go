package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/services"
	"github.com/upb/task-tracker/utils"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// errInvalidBody is reported for bodies that are not a JSON object
var errInvalidBody = services.NewValidationError("Invalid request body.")

// IndexResponse is the body of GET /
type IndexResponse struct {
	Message string `json:"message"`
}

// Index handles GET /
func Index(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, IndexResponse{Message: "Task Tracker API is running!"})
}

// NotFound answers unmatched routes with the JSON error shape
func NotFound(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteNotFound(w, "The requested URL was not found on the server.")
}

// MethodNotAllowed answers known routes hit with the wrong method
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed",
		"The method is not allowed for the requested URL.", nil)
}

// decodeJSON decodes the request body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errInvalidBody.WithDetail("reason", "empty body")
		}
		return errInvalidBody.Wrap(err)
	}
	return nil
}

// decodeFields decodes a JSON object keeping raw values, so handlers can tell an
// absent key from an explicit null
func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := decodeJSON(w, r, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errInvalidBody
	}
	return fields, nil
}

// pathID parses the {id} route parameter. A non-numeric id matches no record.
func pathID(r *http.Request, notFound *services.DomainError) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, notFound
	}
	return id, nil
}

// keys returns the payload keys in sorted order
func keys(fields map[string]json.RawMessage) []string {
	out := make([]string, 0, len(fields))
	for k := range fields {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

func stringField(fields map[string]json.RawMessage, key string) (services.Field[string], error) {
	raw, ok := fields[key]
	if !ok {
		return services.Field[string]{}, nil
	}
	if isNull(raw) {
		return services.SetNull[string](), nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return services.Field[string]{}, services.NewValidationError(fmt.Sprintf("%s must be a string.", key))
	}
	return services.SetTo(v), nil
}

func intField(fields map[string]json.RawMessage, key string) (services.Field[int64], error) {
	raw, ok := fields[key]
	if !ok {
		return services.Field[int64]{}, nil
	}
	if isNull(raw) {
		return services.SetNull[int64](), nil
	}
	var v int64
	if err := json.Unmarshal(raw, &v); err != nil {
		return services.Field[int64]{}, services.NewValidationError(fmt.Sprintf("%s must be an integer.", key))
	}
	return services.SetTo(v), nil
}

func dateField(fields map[string]json.RawMessage, key string) (services.Field[models.Date], error) {
	raw, ok := fields[key]
	if !ok {
		return services.Field[models.Date]{}, nil
	}
	if isNull(raw) {
		return services.SetNull[models.Date](), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return services.Field[models.Date]{}, invalidDate(key)
	}
	// an empty string clears the date, as on create
	if s == "" {
		return services.SetNull[models.Date](), nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return services.Field[models.Date]{}, invalidDate(key)
	}
	return services.SetTo(d), nil
}

// optionalDate parses a create-time date; nil and "" mean no date
func optionalDate(key string, value *string) (*models.Date, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	d, err := models.ParseDate(*value)
	if err != nil {
		return nil, invalidDate(key)
	}
	return &d, nil
}

func invalidDate(key string) error {
	return services.NewValidationError(fmt.Sprintf("Invalid %s format. Please use YYYY-MM-DD.", key)).
		WithDetail("field", key)
}

// validateRequest runs struct validation and converts failures into a domain validation error
func validateRequest(req interface{}) error {
	if err := utils.ValidateStruct(req); err != nil {
		var verr *utils.ValidationError
		if errors.As(err, &verr) {
			domainErr := services.NewValidationError(verr.Message)
			for field, msg := range verr.Fields {
				domainErr = domainErr.WithDetail(field, msg)
			}
			return domainErr
		}
		return services.NewValidationError(err.Error())
	}
	return nil
}

// writeMessage writes {"message": message} and logs write failures
func writeMessage(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	if err := utils.WriteMessage(w, status, message); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}

// writeCreated writes the 201 body {"message": ..., idKey: id}
func writeCreated(w http.ResponseWriter, logger *zap.Logger, message, idKey string, id int64) {
	if err := utils.WriteCreated(w, map[string]interface{}{
		"message": message,
		idKey:     id,
	}); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}

func writeOK(w http.ResponseWriter, logger *zap.Logger, body interface{}) {
	if err := utils.WriteOK(w, body); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}
