// Package apigateway assembles the services of one todo process over a
// shared database and mounts their HTTP transports under /api/v1.
package apigateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/gorilla/mux"
	"github.com/ichigozero/todokit/authsvc/pkg/authendpoint"
	"github.com/ichigozero/todokit/authsvc/pkg/authservice"
	"github.com/ichigozero/todokit/authsvc/pkg/authtransport"
	taggorm "github.com/ichigozero/todokit/tagsvc/db/gorm"
	"github.com/ichigozero/todokit/tagsvc/pkg/tagendpoint"
	"github.com/ichigozero/todokit/tagsvc/pkg/tagservice"
	"github.com/ichigozero/todokit/tagsvc/pkg/tagtransport"
	taskgorm "github.com/ichigozero/todokit/tasksvc/db/gorm"
	"github.com/ichigozero/todokit/tasksvc/pkg/taskendpoint"
	"github.com/ichigozero/todokit/tasksvc/pkg/taskservice"
	"github.com/ichigozero/todokit/tasksvc/pkg/tasktransport"
	usergorm "github.com/ichigozero/todokit/usersvc/db/gorm"
	"github.com/ichigozero/todokit/usersvc/pkg/userservice"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"
	libgorm "gorm.io/gorm"
)

const APIVersion = "v1"

type Config struct {
	AccessSecret []byte
	AccessTTL    time.Duration

	// RateLimit is the number of register and login requests admitted per
	// second. Zero disables limiting.
	RateLimit int

	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Instruments are shared by every service. Both must carry the labels
// "service" and "method". Nil instruments discard their observations.
type Instruments struct {
	RequestCount   metrics.Counter
	RequestLatency metrics.Histogram
}

// New returns the handler serving the whole API.
func New(db *libgorm.DB, cfg Config, in Instruments, logger log.Logger) http.Handler {
	if in.RequestCount == nil {
		in.RequestCount = discard.NewCounter()
	}
	if in.RequestLatency == nil {
		in.RequestLatency = discard.NewHistogram()
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = authservice.AccessTokenExpiry()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	instrument := func(service string) (metrics.Counter, metrics.Histogram) {
		return in.RequestCount.With("service", service), in.RequestLatency.With("service", service)
	}

	var userService userservice.Service
	{
		logger := log.With(logger, "service", "user")
		userService = userservice.New(usergorm.NewUserRepository(db), cfg.BcryptCost, logger)
		userService = userservice.InstrumentingMiddleware(instrument("user"))(userService)
	}

	var authService authservice.Service
	{
		logger := log.With(logger, "service", "auth")
		tokenizer := authservice.NewTokenizer(cfg.AccessSecret, cfg.AccessTTL)
		authService = authservice.New(tokenizer, userService, logger)
		authService = authservice.InstrumentingMiddleware(instrument("auth"))(authService)
	}

	var tagService tagservice.Service
	{
		logger := log.With(logger, "service", "tag")
		tagService = tagservice.New(taggorm.NewTagRepository(db), logger)
		tagService = tagservice.InstrumentingMiddleware(instrument("tag"))(tagService)
	}

	var taskService taskservice.Service
	{
		logger := log.With(logger, "service", "task")
		taskService = taskservice.New(taskgorm.NewStore(db), logger, taskservice.WithClock(cfg.Clock))
		taskService = taskservice.InstrumentingMiddleware(instrument("task"))(taskService)
	}

	authenticate := authendpoint.NewAuthenticator(authService)

	r := mux.NewRouter()
	{
		endpoints := authendpoint.New(authService, cfg.RateLimit, logger)
		authHTTPHandler := authtransport.NewHTTPHandler(endpoints, logger)
		r.PathPrefix("/api/" + APIVersion + "/auth/").Handler(http.StripPrefix("/api/"+APIVersion, authHTTPHandler))
	}
	{
		endpoints := tagendpoint.New(tagService, authenticate, logger)
		tagHTTPHandler := tagtransport.NewHTTPHandler(endpoints, logger)
		r.PathPrefix("/api/" + APIVersion + "/tags").Handler(http.StripPrefix("/api/"+APIVersion, tagHTTPHandler))
	}
	{
		endpoints := taskendpoint.New(taskService, authenticate, logger)
		taskHTTPHandler := tasktransport.NewHTTPHandler(endpoints, logger)
		r.PathPrefix("/api/" + APIVersion + "/todos").Handler(http.StripPrefix("/api/"+APIVersion, taskHTTPHandler))
	}

	r.Methods("GET").Path("/health").HandlerFunc(health)
	r.Methods("GET").Path("/metrics").Handler(promhttp.Handler())

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": APIVersion})
}
