package launcher

import (
	"context"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"os"
	"sync"
	"time"

	"github.com/influxdata/userd"
	"github.com/influxdata/userd/bolt"
	"github.com/influxdata/userd/http"
	"github.com/influxdata/userd/inmem"
	"github.com/influxdata/userd/internal/fs"
	"github.com/influxdata/userd/kit/cli"
	"github.com/influxdata/userd/kit/prom"
	"github.com/influxdata/userd/kit/signals"
	"github.com/influxdata/userd/kit/tracing"
	"github.com/influxdata/userd/kv"
	"github.com/influxdata/userd/logger"
	"github.com/influxdata/userd/sqlite"
	"github.com/influxdata/userd/users"
	"github.com/opentracing/opentracing-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	jaegerconfig "github.com/uber/jaeger-client-go/config"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// BoltStore stores all REST resources in boltdb.
	BoltStore = "bolt"
	// SqliteStore stores all REST resources in a sqlite database.
	SqliteStore = "sqlite"
	// MemoryStore stores all REST resources in memory (useful for testing).
	MemoryStore = "memory"

	// JaegerTracing enables tracing via the Jaeger client library
	JaegerTracing = "jaeger"
)

// NewCommand returns the userd root command. It starts the server and
// blocks until SIGINT or SIGTERM, then shuts down within the configured
// timeout. The same behaviour is available as the run subcommand.
func NewCommand(ctx context.Context, v *viper.Viper) (*cobra.Command, error) {
	l := NewLauncher()

	prog := cli.Program{
		Name: "userd",
		Run: func() error {
			return l.runUntilSignal(ctx)
		},
		Opts: l.options(true),
	}

	cmd, err := cli.NewCommand(v, &prog)
	if err != nil {
		return nil, err
	}
	cmd.Short = "Start the userd server"
	cmd.SilenceUsage = true

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Start the userd server (default)",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return prog.Run()
		},
	})

	return cmd, nil
}

// Launcher represents the main program execution.
type Launcher struct {
	wg      sync.WaitGroup
	cancel  func()
	running bool

	storeType       string
	boltPath        string
	sqlitePath      string
	httpBindAddress string
	logLevel        zapcore.Level
	logFormat       string
	tracingType     string
	shutdownTimeout time.Duration

	kvStore  kv.SchemaStore
	closers  []labeledCloser
	userSvc  userd.UserService
	httpPort int

	httpServer *nethttp.Server

	jaegerTracerCloser io.Closer
	log                *zap.Logger
	reg                *prom.Registry

	Stdout io.Writer
	Stderr io.Writer
}

type labeledCloser struct {
	label  string
	closer func(context.Context) error
}

// NewLauncher returns a new instance of Launcher connected to standard out/err.
func NewLauncher() *Launcher {
	return &Launcher{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		log:    zap.NewNop(),
	}
}

func (m *Launcher) options(persistent bool) []cli.Opt {
	return []cli.Opt{
		{
			DestP:      &m.logLevel,
			Flag:       "log-level",
			Default:    zapcore.InfoLevel,
			Desc:       "supported log levels are debug, info, warn and error",
			Persistent: persistent,
		},
		{
			DestP:      &m.logFormat,
			Flag:       "log-format",
			Default:    "auto",
			Desc:       "supported log formats are auto, logfmt, json and console",
			Persistent: persistent,
		},
		{
			DestP:      &m.tracingType,
			Flag:       "tracing-type",
			Default:    "",
			Desc:       fmt.Sprintf("supported tracing types are %s", JaegerTracing),
			Persistent: persistent,
		},
		{
			DestP:      &m.httpBindAddress,
			Flag:       "http-bind-address",
			Default:    ":3000",
			Desc:       "bind address for the REST HTTP API",
			Persistent: persistent,
		},
		{
			DestP:      &m.storeType,
			Flag:       "store",
			Default:    BoltStore,
			Desc:       fmt.Sprintf("backing store for REST resources (%s, %s or %s)", BoltStore, SqliteStore, MemoryStore),
			Persistent: persistent,
		},
		{
			DestP:      &m.boltPath,
			Flag:       "bolt-path",
			Default:    fs.DefaultPath(fs.DefaultBoltFilename),
			Desc:       "path to boltdb database",
			Persistent: persistent,
		},
		{
			DestP:      &m.sqlitePath,
			Flag:       "sqlite-path",
			Default:    fs.DefaultPath(fs.DefaultSqliteFilename),
			Desc:       fmt.Sprintf("path to sqlite database, or %s", sqlite.InmemPath),
			Persistent: persistent,
		},
		{
			DestP:      &m.shutdownTimeout,
			Flag:       "shutdown-timeout",
			Default:    10 * time.Second,
			Desc:       "how long to wait for in-flight requests on shutdown",
			Persistent: persistent,
		},
	}
}

// Running returns true if the main Launcher has started running.
func (m *Launcher) Running() bool {
	return m.running
}

// Registry returns the prometheus metrics registry.
func (m *Launcher) Registry() *prom.Registry {
	return m.reg
}

// Logger returns the launchers logger.
func (m *Launcher) Logger() *zap.Logger {
	return m.log
}

// UserService returns the decorated user service the HTTP API uses.
func (m *Launcher) UserService() userd.UserService {
	return m.userSvc
}

// URL returns the URL to connect to the HTTP server.
func (m *Launcher) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", m.httpPort)
}

// Run parses args and starts the server. It returns once the server is
// listening; Shutdown stops it.
func (m *Launcher) Run(ctx context.Context, args ...string) error {
	prog := cli.Program{
		Name: "userd",
		Run: func() error {
			return m.run(ctx)
		},
		Opts: m.options(false),
	}

	cmd, err := cli.NewCommand(viper.New(), &prog)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs(append([]string{}, args...))
	return cmd.Execute()
}

func (m *Launcher) runUntilSignal(ctx context.Context) error {
	ctx = signals.WithStandardSignals(ctx)

	if err := m.run(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	// Attempt clean shutdown.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), m.shutdownTimeout)
	defer cancel()
	return m.Shutdown(shutdownCtx)
}

func (m *Launcher) run(ctx context.Context) (err error) {
	span, ctx := tracing.StartSpanFromContext(ctx)
	defer span.Finish()

	m.running = true
	ctx, m.cancel = context.WithCancel(ctx)

	// Create top level logger
	logconf := &logger.Config{
		Format: m.logFormat,
		Level:  m.logLevel,
	}
	m.log, err = logconf.New(m.Stdout)
	if err != nil {
		return err
	}

	info := userd.GetBuildInfo()
	m.log.Info("Welcome to userd",
		zap.String("version", info.Version),
		zap.String("commit", info.Commit),
		zap.String("build_date", info.Date),
	)

	switch m.tracingType {
	case "":
	case JaegerTracing:
		m.log.Info("tracing via Jaeger")
		cfg, err := jaegerconfig.FromEnv()
		if err != nil {
			m.log.Error("failed to get Jaeger client config from environment variables", zap.Error(err))
			break
		}
		tracer, closer, err := cfg.NewTracer()
		if err != nil {
			m.log.Error("failed to instantiate Jaeger tracer", zap.Error(err))
			break
		}
		opentracing.SetGlobalTracer(tracer)
		m.jaegerTracerCloser = closer
	default:
		return fmt.Errorf("unknown tracing type %q; expected %q", m.tracingType, JaegerTracing)
	}

	m.reg = prom.NewRegistry(m.log.With(zap.String("service", "prom_registry"))).WithRuntimeCollectors()

	if err := m.openStore(ctx); err != nil {
		m.log.Error("Failed opening store", zap.String("store", m.storeType), zap.Error(err))
		return multierr.Append(err, m.closeStores(ctx))
	}

	userStore, err := users.NewStore(ctx, m.kvStore)
	if err != nil {
		m.log.Error("Failed creating user store", zap.Error(err))
		return multierr.Append(err, m.closeStores(ctx))
	}

	var userSvc userd.UserService = users.NewService(userStore)
	userSvc = users.NewUserLogger(m.log.With(zap.String("service", "user")), userSvc)
	userSvc = users.NewUserMetrics(m.reg, userSvc)
	m.userSvc = userSvc

	httpLogger := m.log.With(zap.String("service", "http"))
	userHandler := users.NewHTTPUserHandler(httpLogger.With(zap.String("handler", "user")), userSvc)
	apiHandler := http.NewAPIHandler(httpLogger, http.WithResourceHandler(userHandler))

	m.httpServer = &nethttp.Server{
		Addr: m.httpBindAddress,
		Handler: http.NewHandlerFromRegistry(
			"userd",
			m.reg,
			http.WithLog(httpLogger),
			http.WithAPIHandler(apiHandler),
		),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(httpLogger),
	}

	ln, err := net.Listen("tcp", m.httpBindAddress)
	if err != nil {
		httpLogger.Error("failed http listener", zap.Error(err))
		httpLogger.Info("Stopping")
		return multierr.Append(err, m.closeStores(ctx))
	}

	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		m.httpPort = addr.Port
	}

	m.wg.Add(1)
	go func(log *zap.Logger) {
		defer m.wg.Done()
		log.Info("Listening", zap.String("transport", "http"), zap.String("addr", m.httpBindAddress), zap.Int("port", m.httpPort))

		if err := m.httpServer.Serve(ln); err != nethttp.ErrServerClosed {
			log.Error("failed http service", zap.Error(err))
		}
		log.Info("Stopping")
	}(httpLogger)

	return nil
}

// openStore opens the engine named by the store flag and records how to
// release it.
func (m *Launcher) openStore(ctx context.Context) error {
	switch m.storeType {
	case BoltStore:
		s := bolt.NewKVStore(m.log.With(zap.String("service", "bolt")), m.boltPath)
		if err := s.Open(ctx); err != nil {
			return err
		}
		m.kvStore = s
		m.reg.MustRegister(s)
		m.closers = append(m.closers, labeledCloser{
			label:  "bolt",
			closer: func(context.Context) error { return s.Close() },
		})

	case SqliteStore:
		sqlStore, err := sqlite.NewSqlStore(m.sqlitePath, m.log.With(zap.String("service", "sqlite")))
		if err != nil {
			return err
		}
		m.closers = append(m.closers, labeledCloser{
			label:  "sqlite",
			closer: func(context.Context) error { return sqlStore.Close() },
		})

		s, err := sqlite.NewKVStore(ctx, sqlStore)
		if err != nil {
			return err
		}
		m.kvStore = s

	case MemoryStore:
		m.kvStore = inmem.NewKVStore()

	default:
		return fmt.Errorf("unknown store type %s; expected %s, %s or %s", m.storeType, BoltStore, SqliteStore, MemoryStore)
	}

	return nil
}

func (m *Launcher) closeStores(ctx context.Context) error {
	var err error
	for i := len(m.closers) - 1; i >= 0; i-- {
		c := m.closers[i]
		m.log.Info("Stopping", zap.String("service", c.label))
		if cerr := c.closer(ctx); cerr != nil {
			m.log.Error("Failed to stop service", zap.String("service", c.label), zap.Error(cerr))
			err = multierr.Append(err, cerr)
		}
	}
	m.closers = nil
	return err
}

// Shutdown shuts down the HTTP server, waits for in-flight requests and
// then releases the store.
func (m *Launcher) Shutdown(ctx context.Context) error {
	var err error

	if m.httpServer != nil {
		m.log.Info("Stopping", zap.String("service", "http"))
		if serr := m.httpServer.Shutdown(ctx); serr != nil {
			err = multierr.Append(err, serr)
		}
	}
	m.wg.Wait()

	err = multierr.Append(err, m.closeStores(ctx))

	if m.jaegerTracerCloser != nil {
		if cerr := m.jaegerTracerCloser.Close(); cerr != nil {
			m.log.Warn("failed to closer Jaeger tracer", zap.Error(cerr))
		}
	}

	if m.cancel != nil {
		m.cancel()
	}

	_ = m.log.Sync()
	return err
}
