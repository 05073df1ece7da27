package auth

import (
	"errors"
	"net/http"

	"github.com/rhuss/stackauth/pkg/debug"
	"github.com/rhuss/stackauth/pkg/observability"
	"github.com/rhuss/stackauth/pkg/transport"
)

// ErrAuthenticateRequired is returned when a gate is configured without an
// authenticate strategy.
var ErrAuthenticateRequired = errors.New("auth: the authenticate strategy is required")

// Decision paths, used as log values and metric labels.
const (
	pathToken        = "token"
	pathAuthenticate = "authenticate"
	pathAnonymous    = "anonymous"
	pathRejected     = "rejected"
)

// Config holds the strategies of an Authenticator. Only Authenticate is
// required.
type Config struct {
	// Challenge shapes 401 responses. Default: IdentityChallenge.
	Challenge ChallengeStrategy

	// Check decides whether to attempt authentication.
	// Default: HasAuthorizationHeader.
	Check CheckStrategy

	// Authenticate verifies credentials and produces the response.
	Authenticate AuthenticateStrategy

	// Anonymous lets unauthenticated requests through to the application.
	Anonymous bool
}

// applyDefaults fills in unset optional strategies.
func (c *Config) applyDefaults() {
	if c.Challenge == nil {
		c.Challenge = IdentityChallenge
	}
	if c.Check == nil {
		c.Check = HasAuthorizationHeader
	}
}

// Validate reports a configuration that cannot build a gate.
func (c Config) Validate() error {
	if c.Authenticate == nil {
		return ErrAuthenticateRequired
	}
	return nil
}

// Authenticator is the authentication gate in front of an application.
// It holds no per-request state and is safe for concurrent use.
type Authenticator struct {
	app          transport.Handler
	challenge    ChallengeStrategy
	check        CheckStrategy
	authenticate AuthenticateStrategy
	anonymous    bool
}

// New creates a gate in front of app. It fails with
// ErrAuthenticateRequired when cfg.Authenticate is nil.
func New(app transport.Handler, cfg Config) (*Authenticator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &Authenticator{
		app:          app,
		challenge:    cfg.Challenge,
		check:        cfg.Check,
		authenticate: cfg.Authenticate,
		anonymous:    cfg.Anonymous,
	}, nil
}

// Handle decides how req proceeds. See the package documentation for the
// order of evaluation.
func (a *Authenticator) Handle(req *transport.Request) (*transport.Response, error) {
	if HasToken(req) {
		a.record(req, pathToken)
		return NewChallengeRelay(a.app, a.challenge).Handle(req)
	}

	if a.check.Check(req) {
		a.record(req, pathAuthenticate)
		return a.authenticate.Authenticate(req, a.app, a.anonymous)
	}

	if a.anonymous {
		a.record(req, pathAnonymous)
		return NewChallengeRelay(a.app, a.challenge).Handle(req)
	}

	a.record(req, pathRejected)
	observability.ChallengesTotal.WithLabelValues("gate").Inc()
	return a.challenge.Challenge(transport.NewResponse(http.StatusUnauthorized)), nil
}

func (a *Authenticator) record(req *transport.Request, path string) {
	observability.AuthDecisionsTotal.WithLabelValues(path).Inc()
	debug.Log(debug.CategoryAuth, "authentication decision",
		"path", path,
		"url", req.HTTP.URL.Path,
		"anonymous", a.anonymous,
		"request_id", transport.RequestIDFromContext(req.Context()),
	)
}

// Middleware returns cfg as a transport.Middleware. The configuration is
// validated immediately, so a missing authenticate strategy is reported
// before any handler is wrapped.
func Middleware(cfg Config) (transport.Middleware, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return func(next transport.Handler) transport.Handler {
		a, _ := New(next, cfg)
		return a
	}, nil
}
