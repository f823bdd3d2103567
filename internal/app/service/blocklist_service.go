package service

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/repository"
	"github.com/ikkim/campus-backend/internal/cache"
	"github.com/ikkim/campus-backend/pkg/logger"
)

var (
	ErrInvalidIP              = errors.New("invalid ip address")
	ErrBlocklistEntryNotFound = errors.New("blocklist entry not found")
)

type BlocklistService interface {
	List() ([]model.Blocklist, error)
	Create(ctx context.Context, actor Actor, ip, reason string) (*model.Blocklist, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	IsBlocked(ctx context.Context, ip string) bool
}

type blocklistService struct {
	repo        repository.BlocklistRepository
	audit       AuditService
	cache       cache.Store
	invalidator *cache.Invalidator
}

func NewBlocklistService(repo repository.BlocklistRepository, audit AuditService, invalidator *cache.Invalidator) BlocklistService {
	return &blocklistService{
		repo:        repo,
		audit:       audit,
		cache:       invalidator.Store(),
		invalidator: invalidator,
	}
}

func (s *blocklistService) List() ([]model.Blocklist, error) {
	return s.repo.FindAll()
}

func (s *blocklistService) Create(ctx context.Context, actor Actor, ip, reason string) (*model.Blocklist, error) {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return nil, ErrInvalidIP
	}
	entry := &model.Blocklist{IPAddr: parsed.String(), Reason: strings.TrimSpace(reason)}
	if err := s.repo.Create(entry); err != nil {
		if isDuplicate(err) {
			return nil, &FieldConflictError{Fields: []string{"ip_addr"}}
		}
		return nil, err
	}

	s.audit.Record(actor, model.AuditCreate, "blocklist", entry.ID, []string{"ip_addr", "reason"})
	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.BlocklistChanged})
	return entry, nil
}

func (s *blocklistService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := s.repo.Delete(id); err != nil {
		return notFoundOr(err, ErrBlocklistEntryNotFound)
	}
	s.audit.Record(actor, model.AuditDelete, "blocklist", id, nil)
	s.invalidator.Apply(ctx, cache.Mutation{Kind: cache.BlocklistChanged})
	return nil
}

// IsBlocked fails open: a lookup error lets the request through.
func (s *blocklistService) IsBlocked(ctx context.Context, ip string) bool {
	ips, err := cache.Remember(ctx, s.cache, cache.KeyBlocklist, cache.TTLBlocklist, s.repo.IPs)
	if err != nil {
		logger.Warn("Blocklist lookup failed", map[string]interface{}{
			"ip":    ip,
			"error": err.Error(),
		})
		return false
	}
	if parsed := net.ParseIP(ip); parsed != nil {
		ip = parsed.String()
	}
	for _, blocked := range ips {
		if blocked == ip {
			return true
		}
	}
	return false
}
