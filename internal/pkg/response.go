package pkg

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/vendorpay/internal/domain"
	"github.com/simp-lee/vendorpay/internal/query"
)

// Response is the JSON envelope for successful responses.
type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is the JSON envelope for failed responses. RequestID is set
// for internal errors; Detail only while gin runs in debug mode.
type ErrorResponse struct {
	Error     string              `json:"error"`
	Message   string              `json:"message"`
	Details   []domain.FieldError `json:"details,omitempty"`
	Detail    string              `json:"detail,omitempty"`
	RequestID string              `json:"requestId,omitempty"`
}

const requestIDKey = "request_id"

// SetRequestID records the id assigned to the current request.
func SetRequestID(c *gin.Context, id string) {
	c.Set(requestIDKey, id)
}

// RequestID returns the id assigned to the current request, or "" when none
// was assigned.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// ListResponse is the JSON envelope for paginated list results.
type ListResponse struct {
	Message    string           `json:"message"`
	Data       any              `json:"data"`
	Summary    any              `json:"summary"`
	Pagination query.Pagination `json:"pagination"`
}

// Summary is the default list summary: the size of the filtered set.
type Summary struct {
	TotalCount int64 `json:"totalCount"`
}

// Success sends a 200 JSON response with the given data.
func Success(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Message: message, Data: data})
}

// Created sends a 201 JSON response with the created resource.
func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Response{Message: message, Data: data})
}

// NewListResponse builds the list envelope for page. When summary is nil the
// default Summary is rendered from the page's total count.
func NewListResponse[T any](message string, page *query.Page[T], summary any) ListResponse {
	if summary == nil {
		summary = Summary{TotalCount: page.Pagination.TotalCount}
	}
	return ListResponse{
		Message:    message,
		Data:       page.Items,
		Summary:    summary,
		Pagination: page.Pagination,
	}
}

// List sends a 200 JSON response for a page of results.
func List[T any](c *gin.Context, message string, page *query.Page[T], summary any) {
	c.JSON(http.StatusOK, NewListResponse(message, page, summary))
}

// Error sends a JSON error response. If err is a *domain.AppError, its code is
// mapped to the appropriate HTTP status; otherwise 500 is returned. Server
// errors are logged with the request context.
func Error(c *gin.Context, err error) {
	status := domain.HTTPStatusCode(err)

	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		appErr = domain.NewAppError(domain.CodeInternal, domain.ErrInternal.Message, err)
	}

	body := ErrorResponse{
		Error:   appErr.Label,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", err),
		)
		body.RequestID = RequestID(c)
		if gin.Mode() == gin.DebugMode && appErr.Err != nil {
			body.Detail = appErr.Err.Error()
		}
	}

	c.JSON(status, body)
}

// Abort sends the error response and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// BindAndValidate binds the JSON request body to obj and validates it.
// On failure it sends the error response and returns false. Every offending
// field is reported, named by its JSON tag.
//
//	if !pkg.BindAndValidate(c, &req) { return }
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		Error(c, BindError(err, obj))
		return false
	}
	return true
}

// BindError converts a binding failure into an AppError. Validator failures
// become a validation error listing every field; anything else is reported
// as a malformed body.
func BindError(err error, obj any) *domain.AppError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return domain.NewLabeledError(domain.CodeBadRequest, "Invalid request body",
			"Request body must be valid JSON")
	}

	jsonTags := buildJSONTagMap(obj)
	details := make([]domain.FieldError, 0, len(ve))
	for _, fe := range ve {
		name, ok := jsonTags[fe.StructField()]
		if !ok {
			name = strings.ToLower(fe.Field())
		}
		details = append(details, domain.FieldError{
			Field:   name,
			Value:   fieldValue(fe),
			Message: fieldMessage(fe),
		})
	}
	return domain.NewValidationError(details)
}

func fieldValue(fe validator.FieldError) string {
	v := fe.Value()
	if v == nil {
		return ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		v = rv.Elem().Interface()
	}
	return fmt.Sprint(v)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be a valid phone number"
	case "uuid", "uuid4":
		return "must be a valid identifier"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		if fe.Param() != "" {
			return "failed " + fe.Tag() + "=" + fe.Param()
		}
		return "failed " + fe.Tag()
	}
}

// buildJSONTagMap returns a map from struct field name to its JSON tag name.
// If obj is nil or not a struct (pointer), it returns nil.
func buildJSONTagMap(obj any) map[string]string {
	if obj == nil {
		return nil
	}
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	m := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if name := parseJSONTagName(f.Tag.Get("json")); name != "" {
			m[f.Name] = name
		}
	}
	return m
}

// parseJSONTagName extracts the field name from a JSON struct tag value.
func parseJSONTagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

var (
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators installs the custom binding tags on gin's validator.
// Safe to call more than once.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("pkg: gin validator engine is not go-playground/validator")
			return
		}
		registerErr = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
	})
	return registerErr
}
