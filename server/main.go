package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitbucket.org/insurance/payments/config"
	"bitbucket.org/insurance/payments/db"
	"bitbucket.org/insurance/payments/middlewares"
	"bitbucket.org/insurance/payments/service"
	"github.com/gorilla/mux"
	joonix "github.com/joonix/log"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/negroni"
)

func recoveryHandler(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	defer func() {
		if err := recover(); err != nil {
			rw := middlewares.NewResponseWriter(w, r)
			rw.Logger.WithField("panic", err).Error("recovered from panic")

			if nw, ok := w.(negroni.ResponseWriter); ok && nw.Written() {
				return
			}
			rw.Error(http.StatusInternalServerError, "internal server error", middlewares.WithErrorScope("server"))
		}
	}()
	next(w, r)
}

type AppHandlerFunc func(*config.AppContext, *middlewares.ResponseWriter, *http.Request)

type AppHandler struct {
	Context     *config.AppContext
	HandlerFunc AppHandlerFunc
}

func (a *AppHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.HandlerFunc(a.Context, middlewares.NewResponseWriter(w, r), r)
}

type Route struct {
	Path    string
	Handler AppHandlerFunc
	Methods []string
}

func NewRouter(ctx *config.AppContext, routes []*Route) *mux.Router {
	router := mux.NewRouter()
	for _, r := range routes {
		handler := &AppHandler{Context: ctx, HandlerFunc: r.Handler}
		router.Handle(r.Path, handler).Methods(r.Methods...)
	}
	return router
}

func GetAppContext() *ContextWrapper {
	log.SetFormatter(joonix.NewFormatter())
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	level, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		log.WithField("log_level", conf.LogLevel).Warn("unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	context := &config.AppContext{
		Config: conf,
	}

	contextWrapper := ContextWrapper{
		Context: context,
	}

	return &contextWrapper
}

type ContextWrapper struct {
	Context *config.AppContext

	storage *db.DB
}

func (wrapper *ContextWrapper) CreateSQLConnection() {
	conn, err := config.CreateConnectionSQL(wrapper.Context.Config.SQL)
	if err != nil {
		log.Fatal(err)
	}
	conn.SetConnMaxLifetime(time.Minute * 5)
	wrapper.Context.SQLConn = conn
	wrapper.storage, err = db.New(conn)
	if err != nil {
		log.WithFields(log.Fields{
			"error":  err,
			"driver": wrapper.Context.Config.SQL.Driver,
		}).Fatal("failed to connect")
	}
	wrapper.Context.DB = wrapper.storage
}

// MigrateSchema creates the payment table if it is missing.
func (wrapper *ContextWrapper) MigrateSchema(ctx context.Context) error {
	if wrapper.storage == nil {
		return errors.New("no database connection")
	}
	return wrapper.storage.Migrate(ctx)
}

func (wrapper *ContextWrapper) CreatePolicyIntegration() {
	client, err := config.CreatePolicyClient(wrapper.Context.Config.PolicyService)
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to create policy service integration"))
	}
	wrapper.Context.Policies = client
}

func (wrapper *ContextWrapper) CreatePaymentService() {
	if wrapper.Context.DB == nil || wrapper.Context.Policies == nil {
		log.Fatal(errors.Errorf("payment service needs a database and a policy integration"))
	}
	wrapper.Context.Payments = service.NewPaymentService(wrapper.Context.DB, wrapper.Context.Policies)
}

func UpServer(routes []*Route, wrapper *ContextWrapper) {
	server, err := createServer(wrapper.Context, routes)
	if err != nil {
		log.Fatal(err)
	}

	if wrapper.Context.SQLConn != nil {
		defer wrapper.Context.SQLConn.Close()
	}

	log.Info("Environment " + wrapper.Context.Config.Environment)
	log.Info("Listening on " + server.Addr)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(wrapper.Context.Config.Timeout)*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithField("error", err).Error("failed to shut down server")
	}
	log.Info("server stopped")
}

// NewHandler builds the middleware chain around the routes.
func NewHandler(context *config.AppContext, routes []*Route) http.Handler {
	n := negroni.New()
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "HEAD"},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Accept-Language", middlewares.RequestIDHeader},
		ExposedHeaders: []string{middlewares.RequestIDHeader},
	})
	n.Use(c)
	n.Use(negroni.HandlerFunc(middlewares.LoggerRequest))
	n.UseFunc(recoveryHandler)
	n.UseHandler(NewRouter(context, routes))
	return n
}

func createServer(context *config.AppContext, routes []*Route) (*http.Server, error) {
	if context.Payments == nil {
		return nil, errors.New("payment service is not configured")
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", context.Config.Port),
		ReadTimeout:  time.Duration(context.Config.Timeout) * time.Second,
		WriteTimeout: time.Duration(context.Config.Timeout) * time.Second,
		Handler:      NewHandler(context, routes),
	}, nil
}
