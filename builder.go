package mongoleaf

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gobuffalo/envy"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readconcern"
)

// EnvURI is the environment variable consulted for the connection string
// when none is set on the Builder.
const EnvURI = "MONGODB_URI"

const (
	defaultMaxPoolSize    = 10
	defaultAcquireTimeout = 30 * time.Second
	defaultConnectTimeout = 10 * time.Second
	defaultDialRetries    = 3
	defaultDatabaseName   = "test"
)

// Builder gathers configuration and produces a Pool. Setters mutate the
// builder and return it, so calls chain:
//
//	pool, err := mongoleaf.New().
//		URI("mongodb://localhost:27017/app").
//		MaxPoolSize(4).
//		Connect(ctx)
type Builder struct {
	uri                 string
	maxPoolSize         int
	acquireTimeout      time.Duration
	connectTimeout      time.Duration
	defaultDatabase     string
	readConcernMajority bool
	tlsConfig           *tls.Config
	dialRetries         int
	retryWrites         bool
	appName             string
	logger              zerolog.Logger
}

// New returns a Builder with default configuration: pool size 10, 30s
// acquire timeout, 10s connect timeout, retryable writes on, no logging.
func New() *Builder {
	return &Builder{
		maxPoolSize:    defaultMaxPoolSize,
		acquireTimeout: defaultAcquireTimeout,
		connectTimeout: defaultConnectTimeout,
		dialRetries:    defaultDialRetries,
		retryWrites:    true,
		logger:         zerolog.Nop(),
	}
}

// URI sets the connection string. When unset, Connect falls back to the
// MONGODB_URI environment variable.
func (b *Builder) URI(uri string) *Builder {
	b.uri = uri
	return b
}

// MaxPoolSize bounds the number of simultaneously live connections.
func (b *Builder) MaxPoolSize(n int) *Builder {
	b.maxPoolSize = n
	return b
}

// AcquireTimeout bounds how long Pool.Pop blocks waiting for a free
// connection before failing with ErrPoolExhausted.
func (b *Builder) AcquireTimeout(d time.Duration) *Builder {
	b.acquireTimeout = d
	return b
}

// ConnectTimeout bounds the handshake of each new connection.
func (b *Builder) ConnectTimeout(d time.Duration) *Builder {
	b.connectTimeout = d
	return b
}

// DefaultDatabase sets the database name Client.DefaultDatabase resolves
// to, overriding any database present in the URI path.
func (b *Builder) DefaultDatabase(name string) *Builder {
	b.defaultDatabase = name
	return b
}

// ReadConcernMajority enables majority read concern on every connection,
// for replica-set deployments.
func (b *Builder) ReadConcernMajority() *Builder {
	b.readConcernMajority = true
	return b
}

// TLSConfig sets the TLS configuration passed through to the transport.
func (b *Builder) TLSConfig(cfg *tls.Config) *Builder {
	b.tlsConfig = cfg
	return b
}

// DialRetries sets how many times opening a connection is retried (with
// exponential backoff) before the failure surfaces.
func (b *Builder) DialRetries(n int) *Builder {
	b.dialRetries = n
	return b
}

// RetryWrites toggles the driver's idempotent write retry policy.
func (b *Builder) RetryWrites(enabled bool) *Builder {
	b.retryWrites = enabled
	return b
}

// AppName sets the application name reported in the handshake.
func (b *Builder) AppName(name string) *Builder {
	b.appName = name
	return b
}

// Logger sets the logger used for connection lifecycle events. The
// default discards everything.
func (b *Builder) Logger(log zerolog.Logger) *Builder {
	b.logger = log
	return b
}

// Connect validates the configuration, opens and pings one connection to
// surface configuration problems early, and returns a Pool seeded with
// that connection. It fails with ErrConfiguration when no connection
// string is set (neither on the builder nor in MONGODB_URI) or the
// configuration is invalid, and with ErrConnection when the initial
// handshake fails after the configured retries.
func (b *Builder) Connect(ctx context.Context) (*Pool, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	uri := b.uri
	if uri == "" {
		uri = envy.Get(EnvURI, "")
	}
	if uri == "" {
		return nil, configErr(fmt.Errorf("no connection string: call URI or export %s", EnvURI))
	}
	if !strings.HasPrefix(uri, "mongodb://") && !strings.HasPrefix(uri, "mongodb+srv://") {
		return nil, configErr(fmt.Errorf("connection string %q must start with mongodb:// or mongodb+srv://", uri))
	}
	if b.maxPoolSize < 1 {
		return nil, configErr(fmt.Errorf("max pool size must be at least 1, got %d", b.maxPoolSize))
	}
	if b.dialRetries < 0 {
		return nil, configErr(fmt.Errorf("dial retries must not be negative, got %d", b.dialRetries))
	}
	if b.acquireTimeout <= 0 {
		return nil, configErr(fmt.Errorf("acquire timeout must be positive, got %s", b.acquireTimeout))
	}
	if b.connectTimeout <= 0 {
		return nil, configErr(fmt.Errorf("connect timeout must be positive, got %s", b.connectTimeout))
	}

	defaultDB := b.defaultDatabase
	if defaultDB == "" {
		defaultDB = databaseFromURI(uri)
	}
	if defaultDB == "" {
		defaultDB = defaultDatabaseName
	}

	cfg := *b // freeze the configuration; later builder mutation is inert
	optsFn := func() *options.ClientOptions {
		// Each pooled Connection is one session: the driver-side pool
		// under it is pinned to a single socket.
		opts := options.Client().
			ApplyURI(uri).
			SetMaxPoolSize(1).
			SetConnectTimeout(cfg.connectTimeout).
			SetServerSelectionTimeout(cfg.connectTimeout).
			SetRetryWrites(cfg.retryWrites)
		if cfg.readConcernMajority {
			opts = opts.SetReadConcern(readconcern.Majority())
		}
		if cfg.tlsConfig != nil {
			opts = opts.SetTLSConfig(cfg.tlsConfig)
		}
		if cfg.appName != "" {
			opts = opts.SetAppName(cfg.appName)
		}
		return opts
	}

	dial := newDialer(optsFn, cfg.connectTimeout, cfg.dialRetries, cfg.logger)

	// Validate connectivity now rather than on first use.
	probe, err := dial(ctx)
	if err != nil {
		return nil, err
	}

	pool := newPool(dial, cfg.maxPoolSize, cfg.acquireTimeout, defaultDB, cfg.logger)
	pool.idle = append(pool.idle, probe)
	return pool, nil
}

// ConnectRandomDatabase behaves like Connect but points the default
// database at a freshly generated, collision-free name. It exists for
// integration tests that need an isolated namespace to destroy afterwards.
func (b *Builder) ConnectRandomDatabase(ctx context.Context) (*Pool, error) {
	clone := *b
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	clone.defaultDatabase = "mongoleaf_testing_" + suffix
	return clone.Connect(ctx)
}

// databaseFromURI extracts the auth-database path component from a
// connection string. net/url cannot parse multi-host mongodb URIs, so
// this walks the string directly.
func databaseFromURI(uri string) string {
	rest := uri
	if idx := strings.Index(rest, "://"); idx != -1 {
		rest = rest[idx+3:]
	}
	slash := strings.IndexByte(rest, '/')
	if slash == -1 {
		return ""
	}
	db := rest[slash+1:]
	if q := strings.IndexByte(db, '?'); q != -1 {
		db = db[:q]
	}
	return db
}

// TLSConfigFromPEM builds a TLS configuration whose root CA pool holds
// the certificates in the given PEM bundle.
func TLSConfigFromPEM(pem []byte) (*tls.Config, error) {
	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(pem) {
		return nil, configErr(errors.New("no certificates parsed from PEM bundle"))
	}
	return &tls.Config{RootCAs: roots}, nil
}
