package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"yihuitong/internal/domain"
	"yihuitong/internal/metrics"
	"yihuitong/internal/repository"
)

// AuthConfig 是 AuthService 的可调参数。
type AuthConfig struct {
	JWTSecret  string
	SessionTTL time.Duration // 会话与 token 的有效期
	LoginDelay time.Duration // 模拟的认证耗时
}

// AuthService 负责登录、会话身份与退出登录。
type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	clock       clock.Clock
	metrics     *metrics.Metrics
	jwtSecret   []byte
	sessionTTL  time.Duration
	loginDelay  time.Duration
}

// SessionClaims 是会话 token 中携带的声明。
type SessionClaims struct {
	SessionID string `json:"session_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	jwt.RegisteredClaims
}

// LoginResult 是登录或写入身份后的结果。
type LoginResult struct {
	Token   string
	Session *domain.Session
}

// NewAuthService 创建 AuthService 实例。
func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, clk clock.Clock, m *metrics.Metrics, cfg AuthConfig) (*AuthService, error) {
	if userRepo == nil {
		panic("UserRepository cannot be nil for AuthService")
	}
	if sessionRepo == nil {
		panic("SessionRepository cannot be nil for AuthService")
	}
	if clk == nil {
		clk = clock.New()
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret key cannot be empty")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		clock:       clk,
		metrics:     m,
		jwtSecret:   []byte(cfg.JWTSecret),
		sessionTTL:  cfg.SessionTTL,
		loginDelay:  cfg.LoginDelay,
	}, nil
}

// Login 校验表单，模拟认证耗时后写入用户与会话。
// 校验失败返回 *ValidationError，包含全部不合法的字段；
// 校验通过后的任何存储错误统一返回 ErrLoginFailed。
func (s *AuthService) Login(ctx context.Context, form domain.LoginForm) (*LoginResult, error) {
	form = form.Normalize()
	logCtx := logrus.WithFields(logrus.Fields{"email": form.Email, "operation": "login"})

	if errs := form.Validate(); !errs.Empty() {
		s.metrics.RecordLogin("invalid")
		logCtx.WithField("fields", errs).Debug("Login form rejected")
		return nil, &ValidationError{Fields: errs}
	}

	if err := simulateLatency(ctx, s.clock, s.loginDelay); err != nil {
		logCtx.WithError(err).Info("Login cancelled during authentication")
		return nil, err
	}

	identity := form.Identity()
	user := &domain.User{
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		LastLoginAt: s.clock.Now(),
	}
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		s.metrics.RecordLogin("failed")
		logCtx.WithError(err).Error("Failed to upsert user during login")
		return nil, ErrLoginFailed
	}

	result, err := s.issue(ctx, uuid.NewString(), identity)
	if err != nil {
		s.metrics.RecordLogin("failed")
		logCtx.WithError(err).Error("Failed to create session during login")
		return nil, ErrLoginFailed
	}

	s.metrics.RecordLogin("success")
	logCtx.WithFields(logrus.Fields{"user_id": user.ID, "session_id": result.Session.ID}).Info("User logged in successfully")
	return result, nil
}

// Adopt 把 URL 中传入的身份写入会话。sessionID 为空时创建新会话。
func (s *AuthService) Adopt(ctx context.Context, sessionID string, identity domain.Identity) (*LoginResult, error) {
	if identity.IsZero() {
		return nil, ErrUnauthenticated
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	result, err := s.issue(ctx, sessionID, identity)
	if err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to persist identity from query")
		return nil, ErrInternalServer
	}
	return result, nil
}

// Identify 校验 token 并读取会话。token 无效或会话已被删除时返回 ErrUnauthenticated。
func (s *AuthService) Identify(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.ParseToken(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	session, err := s.sessionRepo.Find(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrUnauthenticated
		}
		logrus.WithError(err).WithField("session_id", claims.SessionID).Error("Failed to load session")
		return nil, ErrInternalServer
	}
	return session, nil
}

// Logout 删除会话。会话已不存在时同样视为成功。
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to delete session")
		return ErrInternalServer
	}
	logrus.WithField("session_id", sessionID).Info("User logged out")
	return nil
}

// ParseToken 校验签名与有效期并返回声明。
func (s *AuthService) ParseToken(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid || claims.SessionID == "" {
		return nil, errors.New("invalid token or claims")
	}
	return claims, nil
}

// issue 保存会话并签发对应 token
func (s *AuthService) issue(ctx context.Context, sessionID string, identity domain.Identity) (*LoginResult, error) {
	session := &domain.Session{ID: sessionID, Identity: identity, CreatedAt: s.clock.Now()}
	if err := s.sessionRepo.Save(ctx, session, s.sessionTTL); err != nil {
		return nil, err
	}
	token, err := s.generateJWT(session)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Session: session}, nil
}

// generateJWT 为会话签发 token。token 的时间戳使用墙上时间，与校验端一致。
func (s *AuthService) generateJWT(session *domain.Session) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		SessionID: session.ID,
		Email:     session.Identity.Email,
		Name:      session.Identity.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   session.Identity.Email,
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
