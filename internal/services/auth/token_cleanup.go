package auth

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/leadplay/campaign-services-backend/internal/database/repository"
)

// TokenCleanupService periodically purges expired and revoked refresh tokens
type TokenCleanupService struct {
	refreshTokenRepo *repository.RefreshTokenRepository
	interval         time.Duration
	stopChan         chan struct{}
}

func NewTokenCleanupService(db *gorm.DB) *TokenCleanupService {
	return &TokenCleanupService{
		refreshTokenRepo: repository.NewRefreshTokenRepository(db),
		interval:         1 * time.Hour,
		stopChan:         make(chan struct{}),
	}
}

// Start runs the cleanup loop until Stop is called
func (s *TokenCleanupService) Start() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		// Run once at startup so restarts do not accumulate stale rows
		s.cleanup()

		for {
			select {
			case <-ticker.C:
				s.cleanup()
			case <-s.stopChan:
				return
			}
		}
	}()
	logrus.Info("Token cleanup service started")
}

// Stop stops the cleanup loop
func (s *TokenCleanupService) Stop() {
	close(s.stopChan)
	logrus.Info("Token cleanup service stopped")
}

func (s *TokenCleanupService) cleanup() {
	deleted, err := s.refreshTokenRepo.CleanupTokens()
	if err != nil {
		logrus.Errorf("Failed to cleanup refresh tokens: %v", err)
		return
	}
	if deleted > 0 {
		logrus.Infof("Cleaned up %d expired/revoked refresh tokens", deleted)
	}
}
