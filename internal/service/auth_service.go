package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fitlog/internal/db"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateEmail 在注册邮箱已存在时返回
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrWeakPassword 在密码不满足最小长度时返回
	ErrWeakPassword = errors.New("password too weak")
	// ErrInvalidCredentials 在邮箱不存在或密码不匹配时返回，两种情况共用同一错误
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken 在令牌签名无效或已过期时返回
	ErrInvalidToken = errors.New("invalid or expired token")
)

const minPasswordLength = 6

// TokenConfig 描述签发令牌所需的密钥与有效期，进程启动时注入
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

// AuthService 负责账号注册、口令校验与会话令牌的签发/解析。
// 令牌只携带用户 ID，传输方式（Cookie）由 handler 层决定
type AuthService struct {
	db    *gorm.DB
	token TokenConfig
}

// NewAuthService 构造 AuthService
func NewAuthService(gdb *gorm.DB, token TokenConfig) *AuthService {
	if token.TTL <= 0 {
		token.TTL = 12 * time.Hour
	}
	return &AuthService{db: gdb, token: token}
}

// TokenTTL 返回令牌有效期，供 handler 设置 Cookie MaxAge
func (s *AuthService) TokenTTL() time.Duration {
	return s.token.TTL
}

// NormalizeEmail 统一邮箱形式：去空格、转小写
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register 创建新用户。明文口令只存在于本次调用栈，落库前经 bcrypt 哈希
func (s *AuthService) Register(email, password string) (*db.User, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" || !strings.Contains(normalized, "@") {
		return nil, invalidf("a valid email is required")
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, minPasswordLength)
	}

	var existing db.User
	err := s.db.Where("email = ?", normalized).First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateEmail
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.User{Email: normalized, PasswordHash: string(hashed)}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate 校验邮箱与口令。未知邮箱与密码错误返回同一个错误，防止枚举
func (s *AuthService) Authenticate(email, password string) (*db.User, error) {
	normalized := NormalizeEmail(email)

	var user db.User
	if err := s.db.Where("email = ?", normalized).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// GetUser 按 ID 读取用户，令牌解析后用于确认账号仍存在
func (s *AuthService) GetUser(userID uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "load user")
	}
	return &user, nil
}

// IssueToken 签发携带用户 ID 的 HS256 令牌，含签发与过期时间
func (s *AuthService) IssueToken(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.token.TTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.token.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ResolveToken 校验令牌签名与有效期并取出用户 ID
func (s *AuthService) ResolveToken(tokenString string) (uint, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.token.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return 0, ErrInvalidToken
	}
	return uint(userID), nil
}
