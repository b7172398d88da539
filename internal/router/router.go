package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/patric-chuzhbe/usrinfo/internal/gzippedhttp"
	"github.com/patric-chuzhbe/usrinfo/internal/logger"
	"github.com/patric-chuzhbe/usrinfo/internal/models"
	"github.com/patric-chuzhbe/usrinfo/internal/validation"
)

type userService interface {
	ListUsers(ctx context.Context) ([]models.UserWithAdditional, error)

	CreateUser(ctx context.Context, newUser models.NewUser) (*models.UserWithAdditional, error)

	GetUser(ctx context.Context, email string) (*models.UserWithAdditional, error)

	ListAdditionals(ctx context.Context) ([]models.Additional, error)

	UpdateUser(ctx context.Context, email string, patch models.UserPatch) (*models.UserWithAdditional, error)

	DeleteUser(ctx context.Context, email string) error

	Ping(ctx context.Context) error

	GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error)
}

type requestValidator interface {
	Check(request any) []models.ValidationError
}

type trustedSubnetGuard interface {
	TrustedOnly(h http.Handler) http.Handler
}

type metricsExporter interface {
	IncrementValidationFailures(route string)
	Handler() http.Handler
}

// DeletedMessage is the confirmation sent by DELETE /user/{email}.
const DeletedMessage = "El usuario y su información adicional fue borrada exitosamente"

type Router struct {
	service   userService
	validator requestValidator
	metrics   metricsExporter
}

type initOptions struct {
	metrics            metricsExporter
	corsAllowedOrigins []string
}

type InitOption func(*initOptions)

// WithMetrics counts validation failures and mounts GET /metrics.
func WithMetrics(metrics metricsExporter) InitOption {
	return func(options *initOptions) {
		options.metrics = metrics
	}
}

func WithCORSAllowedOrigins(origins []string) InitOption {
	return func(options *initOptions) {
		options.corsAllowedOrigins = origins
	}
}

func New(
	svc userService,
	validator requestValidator,
	ipChecker trustedSubnetGuard,
	optionsProto ...InitOption,
) *chi.Mux {
	options := &initOptions{
		corsAllowedOrigins: []string{"*"},
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	myRouter := Router{
		service:   svc,
		validator: validator,
		metrics:   options.metrics,
	}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: options.corsAllowedOrigins,
			AllowedMethods: []string{
				http.MethodGet,
				http.MethodPost,
				http.MethodPut,
				http.MethodDelete,
				http.MethodOptions,
			},
			AllowedHeaders: []string{"Accept", "Accept-Encoding", "Content-Encoding", "Content-Type", "Origin"},
		}),
	)

	router.Group(func(api chi.Router) {
		api.Use(gzippedhttp.UngzipRequest, gzippedhttp.GzipResponse)

		api.Get(`/users`, myRouter.GetUsers)
		api.Post(`/user`, myRouter.PostUser)
		api.Get(`/user/`, myRouter.GetUserbyemail)
		api.Get(`/user/{email}`, myRouter.GetUserbyemail)
		api.Put(`/user/`, myRouter.PutUserbyemail)
		api.Put(`/user/{email}`, myRouter.PutUserbyemail)
		api.Delete(`/user/`, myRouter.DeleteUserbyemail)
		api.Delete(`/user/{email}`, myRouter.DeleteUserbyemail)
		api.Get(`/aditionals`, myRouter.GetAditionals)
	})

	router.Get(`/ping`, myRouter.GetPing)
	router.With(ipChecker.TrustedOnly).Get(`/api/internal/stats`, myRouter.GetApiinternalstats)
	if options.metrics != nil {
		router.Method(http.MethodGet, `/metrics`, options.metrics.Handler())
	}

	return router
}

// emailParam returns the {email} path segment, unescaped. It is empty for /user/.
func emailParam(req *http.Request) string {
	raw := chi.URLParam(req, "email")
	email, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return email
}

// decodeBody fills dst from a JSON or an application/x-www-form-urlencoded body.
// An empty body leaves dst untouched.
func decodeBody(req *http.Request, dst any) error {
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))

	if mediaType == "application/x-www-form-urlencoded" {
		if err := req.ParseForm(); err != nil {
			return err
		}
		fields := make(map[string]string, len(req.PostForm))
		for key := range req.PostForm {
			fields[key] = req.PostForm.Get(key)
		}
		raw, err := json.Marshal(fields)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dst)
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	return json.Unmarshal(body, dst)
}

// validate decodes and checks the body. It writes the 400 response itself and
// returns false when the request must not go any further.
func (router *Router) validate(res http.ResponseWriter, req *http.Request, route string, dst any) bool {
	var validationErrors []models.ValidationError
	if err := decodeBody(req, dst); err != nil {
		validationErrors = validation.MalformedBody(err)
	} else {
		validationErrors = router.validator.Check(dst)
	}

	if len(validationErrors) == 0 {
		return true
	}

	if router.metrics != nil {
		router.metrics.IncrementValidationFailures(route)
	}
	logger.Log.Debugw("request rejected by the validator", "route", route, "errors", validationErrors)
	writeValidationErrors(res, validationErrors)

	return false
}

// GetUsers lists every user with the additional record embedded.
func (router *Router) GetUsers(res http.ResponseWriter, req *http.Request) {
	users, err := router.service.ListUsers(req.Context())
	if err != nil {
		writeError(res, req, err)
		return
	}

	writeData(res, users)
}

// PostUser registers a user together with a new additional record.
func (router *Router) PostUser(res http.ResponseWriter, req *http.Request) {
	var request models.CreateUserRequest
	if !router.validate(res, req, "POST /user", &request) {
		return
	}

	created, err := router.service.CreateUser(req.Context(), request.ToNewUser())
	if err != nil {
		writeError(res, req, err)
		return
	}

	writeData(res, created)
}

func (router *Router) GetUserbyemail(res http.ResponseWriter, req *http.Request) {
	usr, err := router.service.GetUser(req.Context(), emailParam(req))
	if err != nil {
		writeError(res, req, err)
		return
	}

	writeData(res, usr)
}

func (router *Router) GetAditionals(res http.ResponseWriter, req *http.Request) {
	additionals, err := router.service.ListAdditionals(req.Context())
	if err != nil {
		writeError(res, req, err)
		return
	}

	writeData(res, additionals)
}

// PutUserbyemail overwrites the fields sent with a non-empty value.
func (router *Router) PutUserbyemail(res http.ResponseWriter, req *http.Request) {
	var request models.UpdateUserRequest
	if !router.validate(res, req, "PUT /user/{email}", &request) {
		return
	}

	updated, err := router.service.UpdateUser(req.Context(), emailParam(req), request.ToPatch())
	if err != nil {
		writeError(res, req, err)
		return
	}

	writeData(res, updated)
}

// DeleteUserbyemail removes the user and its additional record.
func (router *Router) DeleteUserbyemail(res http.ResponseWriter, req *http.Request) {
	if err := router.service.DeleteUser(req.Context(), emailParam(req)); err != nil {
		writeError(res, req, err)
		return
	}

	writeMessage(res, DeletedMessage)
}

func (router *Router) GetPing(res http.ResponseWriter, req *http.Request) {
	if err := router.service.Ping(req.Context()); err != nil {
		logger.Log.Errorw("storage ping failed", "error", err)
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}

	res.WriteHeader(http.StatusOK)
}

// GetApiinternalstats returns the number of users and additional records.
func (router *Router) GetApiinternalstats(res http.ResponseWriter, req *http.Request) {
	stats, err := router.service.GetInternalStats(req.Context())
	if err != nil {
		logger.Log.Errorw("error while collecting the stats", "error", err)
		http.Error(res, fmt.Sprintf("cannot collect the stats: %s", err), http.StatusInternalServerError)
		return
	}

	writeJSON(res, http.StatusOK, stats)
}
