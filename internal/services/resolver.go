package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clicktrail/internal/ingress"
	"clicktrail/internal/metrics"
	"clicktrail/internal/models"
	"clicktrail/pkg/utils"
)

var (
	ErrMissingCode      = errors.New("short code is required")
	ErrNotFound         = errors.New("link not found")
	ErrLinkInactive     = errors.New("link is inactive")
	ErrLinkExpired      = errors.New("link has expired")
	ErrPasswordRequired = errors.New("password required")
	ErrPasswordInvalid  = errors.New("incorrect password")
)

type LinkFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Link, error)
}

type ResolverConfig struct {
	Now func() time.Time
}

type ResolveRequest struct {
	Code     string
	Password string
	Client   ingress.ClientContext
}

type Resolution struct {
	Link        *models.Link
	Destination string
	Mode        models.RedirectMode
	Tracked     bool
}

// RedirectResolver decides whether a short code may be followed. Lookup,
// validation and the password gate run in that order and short-circuit
// before anything is handed to the click sink.
type RedirectResolver struct {
	links  LinkFinder
	sink   ClickSink
	now    func() time.Time
	logger *slog.Logger
}

func NewRedirectResolver(links LinkFinder, sink ClickSink, cfg ResolverConfig, logger *slog.Logger) *RedirectResolver {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &RedirectResolver{
		links:  links,
		sink:   sink,
		now:    now,
		logger: logger,
	}
}

func (r *RedirectResolver) Resolve(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	start := time.Now()
	res, err := r.resolve(ctx, req)
	metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	metrics.Resolutions.WithLabelValues(Outcome(err)).Inc()
	return res, err
}

func (r *RedirectResolver) resolve(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	if req.Code == "" {
		return nil, ErrMissingCode
	}

	link, err := r.links.FindByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrNotFound
	}

	now := r.now().UTC()
	switch {
	case link.Status == models.LinkStatusExpired:
		return nil, ErrLinkExpired
	case !link.IsActive():
		return nil, ErrLinkInactive
	case link.IsExpiredAt(now):
		return nil, ErrLinkExpired
	}

	if link.HasPassword() {
		if req.Password == "" {
			return nil, ErrPasswordRequired
		}
		if !utils.VerifyLinkPassword(req.Password, link.PasswordHash) {
			return nil, ErrPasswordInvalid
		}
	}

	res := &Resolution{
		Link:        link,
		Destination: link.DestinationURL,
		// masked and splash are not implemented and redirect directly
		Mode: link.Mode(),
	}

	if link.AnalyticsEnabled && r.sink != nil {
		r.sink.Submit(ctx, ClickDraft{LinkID: link.ID, Client: req.Client, ClickedAt: now})
		res.Tracked = true
	}

	return res, nil
}

// Outcome names a resolution result for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "redirect"
	case errors.Is(err, ErrMissingCode):
		return "missing_code"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrLinkInactive):
		return "inactive"
	case errors.Is(err, ErrLinkExpired):
		return "expired"
	case errors.Is(err, ErrPasswordRequired):
		return "password_required"
	case errors.Is(err, ErrPasswordInvalid):
		return "password_invalid"
	default:
		return "error"
	}
}
