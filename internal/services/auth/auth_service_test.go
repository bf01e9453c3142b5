package auth

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/leadplay/campaign-services-backend/internal/models"
)

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(&models.Organization{}, &models.User{}, &models.RefreshToken{})
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestAuthService(t *testing.T, db *gorm.DB) *AuthService {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	return NewAuthService(db)
}

func registerTestUser(t *testing.T, service *AuthService) *models.AuthResponse {
	t.Helper()
	resp, err := service.Register(&models.RegisterRequest{
		Email:            "owner@example.com",
		Password:         "s3cretpass",
		FirstName:        "Claire",
		OrganizationName: "Acme Promo",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	return resp
}

func TestRegisterBootstrapsOrganization(t *testing.T) {
	db := setupAuthTestDB(t)
	service := newTestAuthService(t, db)

	resp := registerTestUser(t, service)
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected tokens to be issued on registration")
	}
	if resp.TokenType != "Bearer" {
		t.Fatalf("expected Bearer token type, got %q", resp.TokenType)
	}
	if !resp.User.IsAdmin {
		t.Fatal("expected first user to own the organization")
	}

	var org models.Organization
	if err := db.First(&org, "id = ?", resp.User.OrganizationID).Error; err != nil {
		t.Fatalf("failed to load organization: %v", err)
	}
	if org.Name != "Acme Promo" {
		t.Fatalf("unexpected organization name %q", org.Name)
	}
	if org.Slug == "" {
		t.Fatal("expected organization slug to be derived")
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := setupAuthTestDB(t)
	service := newTestAuthService(t, db)
	registerTestUser(t, service)

	_, err := service.Register(&models.RegisterRequest{
		Email:            "owner@example.com",
		Password:         "otherpass",
		OrganizationName: "Other Org",
	})
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected duplicate email rejection, got %v", err)
	}
}

func TestLoginVerifiesPassword(t *testing.T) {
	db := setupAuthTestDB(t)
	service := newTestAuthService(t, db)
	registerTestUser(t, service)

	if _, err := service.Login(&models.LoginRequest{Email: "owner@example.com", Password: "wrong"}); err == nil {
		t.Fatal("expected wrong password to be rejected")
	}

	resp, err := service.Login(&models.LoginRequest{Email: "owner@example.com", Password: "s3cretpass"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	info, err := service.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if info.UserID != resp.User.ID || info.OrganizationID != resp.User.OrganizationID {
		t.Fatalf("token claims do not match user: %+v", info)
	}
}

func TestRefreshTokenRotates(t *testing.T) {
	db := setupAuthTestDB(t)
	service := newTestAuthService(t, db)
	first := registerTestUser(t, service)

	second, err := service.RefreshToken(first.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken returned error: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("expected refresh to rotate the token")
	}

	// The used token is revoked and cannot be replayed.
	if _, err := service.RefreshToken(first.RefreshToken); err == nil {
		t.Fatal("expected replayed refresh token to be rejected")
	}
	if _, err := service.ValidateToken(second.AccessToken); err != nil {
		t.Fatalf("rotated access token should validate: %v", err)
	}
}

func TestLogoutEverywhereInvalidatesAccessTokens(t *testing.T) {
	db := setupAuthTestDB(t)
	service := newTestAuthService(t, db)
	resp := registerTestUser(t, service)

	if err := service.Logout("", resp.User.ID); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}

	if _, err := service.ValidateToken(resp.AccessToken); err == nil {
		t.Fatal("expected access token to be invalidated after logout everywhere")
	}
	if _, err := service.RefreshToken(resp.RefreshToken); err == nil {
		t.Fatal("expected refresh token to be revoked after logout everywhere")
	}
}

func TestChangePasswordInvalidatesSessions(t *testing.T) {
	db := setupAuthTestDB(t)
	service := newTestAuthService(t, db)
	resp := registerTestUser(t, service)

	err := service.ChangePassword(resp.User.ID, &models.ChangePasswordRequest{
		CurrentPassword: "nope",
		NewPassword:     "newpassword",
	})
	if err == nil || !strings.Contains(err.Error(), "current password is incorrect") {
		t.Fatalf("expected current password check, got %v", err)
	}

	err = service.ChangePassword(resp.User.ID, &models.ChangePasswordRequest{
		CurrentPassword: "s3cretpass",
		NewPassword:     "newpassword",
	})
	if err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}

	if _, err := service.ValidateToken(resp.AccessToken); err == nil {
		t.Fatal("expected old access token to be invalidated")
	}
	if _, err := service.Login(&models.LoginRequest{Email: "owner@example.com", Password: "s3cretpass"}); err == nil {
		t.Fatal("expected old password to stop working")
	}
	if _, err := service.Login(&models.LoginRequest{Email: "owner@example.com", Password: "newpassword"}); err != nil {
		t.Fatalf("login with new password returned error: %v", err)
	}
}
