package service

import (
	"errors"
	"testing"
	"time"

	"github.com/fitlog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAuthTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func testTokenConfig() TokenConfig {
	return TokenConfig{Secret: []byte("test-secret"), TTL: time.Hour}
}

func TestAuthRegister(t *testing.T) {
	cleanup := setupAuthTestDB(t)
	defer cleanup()

	svc := NewAuthService(db.DB, testTokenConfig())

	user, err := svc.Register("  Alice@Example.COM ", "secret123")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}
	if user.PasswordHash == "secret123" {
		t.Fatal("password must not be stored in plaintext")
	}

	// 重复邮箱
	if _, err := svc.Register("alice@example.com", "another123"); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	// 密码过短
	if _, err := svc.Register("bob@example.com", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	// 非法邮箱
	if _, err := svc.Register("not-an-email", "secret123"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAuthAuthenticate(t *testing.T) {
	cleanup := setupAuthTestDB(t)
	defer cleanup()

	svc := NewAuthService(db.DB, testTokenConfig())
	if _, err := svc.Register("alice@example.com", "secret123"); err != nil {
		t.Fatalf("failed to register user: %v", err)
	}

	user, err := svc.Authenticate("ALICE@example.com", "secret123")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("unexpected email: %s", user.Email)
	}

	// 未知邮箱与密码错误必须返回同一个错误
	_, errUnknown := svc.Authenticate("nobody@example.com", "secret123")
	_, errWrongPass := svc.Authenticate("alice@example.com", "wrong-pass")
	if !errors.Is(errUnknown, ErrInvalidCredentials) || !errors.Is(errWrongPass, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both cases, got %v / %v", errUnknown, errWrongPass)
	}
}

func TestAuthTokenRoundTrip(t *testing.T) {
	cleanup := setupAuthTestDB(t)
	defer cleanup()

	svc := NewAuthService(db.DB, testTokenConfig())

	token, err := svc.IssueToken(42)
	if err != nil {
		t.Fatalf("IssueToken returned error: %v", err)
	}

	userID, err := svc.ResolveToken(token)
	if err != nil {
		t.Fatalf("ResolveToken returned error: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected user 42, got %d", userID)
	}

	// 篡改后的令牌
	if _, err := svc.ResolveToken(token + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}

	// 其他密钥签发的令牌
	other := NewAuthService(db.DB, TokenConfig{Secret: []byte("other-secret"), TTL: time.Hour})
	foreign, err := other.IssueToken(42)
	if err != nil {
		t.Fatalf("failed to issue foreign token: %v", err)
	}
	if _, err := svc.ResolveToken(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign token, got %v", err)
	}
}

func TestAuthTokenExpiry(t *testing.T) {
	cleanup := setupAuthTestDB(t)
	defer cleanup()

	svc := NewAuthService(db.DB, TokenConfig{Secret: []byte("test-secret"), TTL: time.Nanosecond})

	token, err := svc.IssueToken(7)
	if err != nil {
		t.Fatalf("IssueToken returned error: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if _, err := svc.ResolveToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}
