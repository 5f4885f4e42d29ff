package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/linklytics/linklytics/internal/app/model"
	"github.com/linklytics/linklytics/internal/app/repository"
)

// maxAliasAttempts caps the collision-retry loop on generated aliases.
// The hash space makes repeated collisions effectively impossible, so
// exhaustion points at a store problem rather than bad luck.
const maxAliasAttempts = 5

// ErrAliasExhausted signals that alias generation kept colliding until the
// retry budget ran out.
var ErrAliasExhausted = errors.New("alias generation exhausted retries")

// LinkService defines behaviour-level operations on links.
type LinkService interface {
	Shorten(ctx context.Context, input ShortenInput) (*model.Link, error)
}

// ShortenInput captures data required to create a short link.
type ShortenInput struct {
	LongURL     string
	CustomAlias string
	Topic       string
	AccountID   uint
}

type linkService struct {
	repo repository.LinkRepository
	now  func() time.Time
}

// NewLinkService returns a service implementation backed by the given repository.
func NewLinkService(repo repository.LinkRepository) LinkService {
	return &linkService{repo: repo, now: time.Now}
}

func (s *linkService) Shorten(ctx context.Context, input ShortenInput) (*model.Link, error) {
	link := &model.Link{
		LongURL:   input.LongURL,
		Topic:     strings.ToLower(input.Topic),
		AccountID: input.AccountID,
	}

	if input.CustomAlias != "" {
		return s.createCustom(ctx, link, input.CustomAlias)
	}
	return s.createGenerated(ctx, link)
}

func (s *linkService) createCustom(ctx context.Context, link *model.Link, alias string) (*model.Link, error) {
	taken, err := s.repo.Exists(ctx, alias)
	if err != nil {
		return nil, fmt.Errorf("check alias: %w", err)
	}
	if taken {
		return nil, repository.ErrAliasTaken
	}

	// The pre-check races with concurrent creates; the primary-key
	// constraint is the final arbiter.
	link.ShortCode = alias
	if err := s.repo.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrAliasTaken) {
			return nil, repository.ErrAliasTaken
		}
		return nil, fmt.Errorf("create link: %w", err)
	}
	return link, nil
}

func (s *linkService) createGenerated(ctx context.Context, link *model.Link) (*model.Link, error) {
	salt := ""
	for attempt := 0; attempt < maxAliasAttempts; attempt++ {
		link.ShortCode = GenerateAlias(link.LongURL, salt)

		err := s.repo.Create(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, repository.ErrAliasTaken) {
			return nil, fmt.Errorf("create link: %w", err)
		}

		// Re-derive with a time salt, as many times as the budget allows.
		salt = strconv.FormatInt(s.now().UnixNano(), 10)
	}

	return nil, ErrAliasExhausted
}
