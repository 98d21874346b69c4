package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"clicktrail/internal/models"
	"clicktrail/internal/repository"
	"clicktrail/pkg/utils"
)

var (
	ErrCodeTaken      = errors.New("custom code already taken")
	ErrInvalidURL     = errors.New("destination must be an absolute http(s) URL")
	ErrInvalidMode    = errors.New("unknown redirect mode")
	ErrInvalidCode    = errors.New("custom code may only contain letters, digits, '-' and '_'")
	errCodeExhausted  = errors.New("could not generate a unique short code")
	maxCodeGenRetries = 10
)

const defaultCodeLength = 6

type ShortenDTO struct {
	DestinationURL   string
	CustomCode       string
	ExpiryHours      *int
	Password         string
	Domain           string
	RedirectMode     models.RedirectMode
	AnalyticsEnabled *bool
	IPAddress        string // For Audit Log
}

type UpdateDTO struct {
	DestinationURL *string
	Password       *string // "" removes the password
	ExpiresAt      *time.Time
	ClearExpiry    bool
	Status         *models.LinkStatus
	RedirectMode   *models.RedirectMode
	Archived       *bool
	IPAddress      string
}

type LinkStats struct {
	Link         *models.Link         `json:"link"`
	TotalClicks  int64                `json:"total_clicks"`
	UniqueClicks int64                `json:"unique_clicks"`
	Daily        []models.DailyRollup `json:"daily"`
	RecentClicks []models.Click       `json:"recent_clicks"`
}

// ShortenerService owns every link mutation so the resolver cache is always
// invalidated alongside the write.
type ShortenerService struct {
	links          *repository.LinkStore
	clicks         *repository.ClickStore
	rollups        *repository.RollupStore
	cache          *LinkCache
	auditService   *AuditService
	passwordScheme string
	codeGenerator  func(int) string
}

func NewShortenerService(links *repository.LinkStore, clicks *repository.ClickStore, rollups *repository.RollupStore, cache *LinkCache, auditService *AuditService, passwordScheme string) *ShortenerService {
	return &ShortenerService{
		links:          links,
		clicks:         clicks,
		rollups:        rollups,
		cache:          cache,
		auditService:   auditService,
		passwordScheme: passwordScheme,
		codeGenerator:  utils.GenerateShortCode,
	}
}

func validateDestination(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

func (s *ShortenerService) CreateLink(ctx context.Context, dto ShortenDTO) (*models.Link, error) {
	if err := validateDestination(dto.DestinationURL); err != nil {
		return nil, err
	}
	mode := dto.RedirectMode
	if mode == "" {
		mode = models.RedirectDirect
	}
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}

	// 1. Determine Short Code
	var shortCode string
	if dto.CustomCode != "" {
		if !utils.ValidShortCode(dto.CustomCode) {
			return nil, ErrInvalidCode
		}
		exists, err := s.links.CodeExists(ctx, dto.CustomCode)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrCodeTaken
		}
		shortCode = dto.CustomCode
	} else {
		for i := 0; ; i++ {
			if i == maxCodeGenRetries {
				return nil, errCodeExhausted
			}
			shortCode = s.codeGenerator(defaultCodeLength)
			exists, err := s.links.CodeExists(ctx, shortCode)
			if err != nil {
				return nil, err
			}
			if !exists {
				break
			}
		}
	}

	// 2. Prepare Data
	var passwordHash string
	if dto.Password != "" {
		hash, err := utils.HashWithScheme(s.passwordScheme, dto.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		passwordHash = hash
	}

	var expiresAt *time.Time
	if dto.ExpiryHours != nil && *dto.ExpiryHours > 0 {
		t := time.Now().UTC().Add(time.Duration(*dto.ExpiryHours) * time.Hour)
		expiresAt = &t
	}

	analytics := true
	if dto.AnalyticsEnabled != nil {
		analytics = *dto.AnalyticsEnabled
	}

	link := &models.Link{
		ShortCode:        shortCode,
		DestinationURL:   dto.DestinationURL,
		Status:           models.LinkStatusActive,
		ExpiresAt:        expiresAt,
		PasswordHash:     passwordHash,
		Domain:           dto.Domain,
		RedirectMode:     mode,
		AnalyticsEnabled: analytics,
	}

	if err := s.links.Create(ctx, link); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, link.ShortCode)

	s.auditService.LogAction("admin", "CREATE_LINK", link.ShortCode, map[string]interface{}{
		"destination_url": link.DestinationURL,
	}, dto.IPAddress)

	return link, nil
}

// GetLink reads straight from the store, bypassing the resolver cache.
func (s *ShortenerService) GetLink(ctx context.Context, code string) (*models.Link, error) {
	return s.findLink(ctx, code)
}

func (s *ShortenerService) findLink(ctx context.Context, code string) (*models.Link, error) {
	link, err := s.links.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrNotFound
	}
	return link, nil
}

func (s *ShortenerService) UpdateLink(ctx context.Context, code string, dto UpdateDTO) (*models.Link, error) {
	link, err := s.findLink(ctx, code)
	if err != nil {
		return nil, err
	}

	if dto.DestinationURL != nil {
		if err := validateDestination(*dto.DestinationURL); err != nil {
			return nil, err
		}
		link.DestinationURL = *dto.DestinationURL
	}
	if dto.Password != nil {
		link.PasswordHash = ""
		if *dto.Password != "" {
			hash, err := utils.HashWithScheme(s.passwordScheme, *dto.Password)
			if err != nil {
				return nil, fmt.Errorf("hash password: %w", err)
			}
			link.PasswordHash = hash
		}
	}
	if dto.ClearExpiry {
		link.ExpiresAt = nil
	} else if dto.ExpiresAt != nil {
		t := dto.ExpiresAt.UTC()
		link.ExpiresAt = &t
	}
	if dto.Status != nil {
		link.Status = *dto.Status
	}
	if dto.RedirectMode != nil {
		if !dto.RedirectMode.Valid() {
			return nil, ErrInvalidMode
		}
		link.RedirectMode = *dto.RedirectMode
	}
	if dto.Archived != nil {
		link.Archived = *dto.Archived
	}

	if err := s.links.Save(ctx, link); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, link.ShortCode)

	s.auditService.LogAction("admin", "UPDATE_LINK", link.ShortCode, nil, dto.IPAddress)
	return link, nil
}

func (s *ShortenerService) DeleteLink(ctx context.Context, code, ip string) error {
	link, err := s.findLink(ctx, code)
	if err != nil {
		return err
	}
	if err := s.links.Delete(ctx, link.ID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, code)

	s.auditService.LogAction("admin", "DELETE_LINK", code, nil, ip)
	return nil
}

func (s *ShortenerService) ResetStats(ctx context.Context, code, ip string) error {
	link, err := s.findLink(ctx, code)
	if err != nil {
		return err
	}
	if err := s.clicks.ResetStats(ctx, link.ID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, code)

	s.auditService.LogAction("admin", "RESET_STATS", code, nil, ip)
	return nil
}

// Stats summarises the last days of rollups plus the most recent clicks.
func (s *ShortenerService) Stats(ctx context.Context, code string, days int) (*LinkStats, error) {
	link, err := s.findLink(ctx, code)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 30
	}

	from := models.RollupDate(time.Now().UTC().AddDate(0, 0, -(days - 1)))
	daily, err := s.rollups.ListSince(ctx, link.ID, from)
	if err != nil {
		return nil, err
	}
	recent, err := s.clicks.ListRecent(ctx, link.ID, 50)
	if err != nil {
		return nil, err
	}

	stats := &LinkStats{Link: link, Daily: daily, RecentClicks: recent}
	for _, d := range daily {
		stats.TotalClicks += d.TotalClicks
		stats.UniqueClicks += d.UniqueClicks
	}
	return stats, nil
}
