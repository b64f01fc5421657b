package service

import (
	"context"
	"log"
	"strings"
	"time"

	"google.golang.org/api/idtoken"

	"github.com/roamplan/roamplan-backend/internal/domain"
	"github.com/roamplan/roamplan-backend/internal/repository/ports"
	"github.com/roamplan/roamplan-backend/internal/util"
)

// ResetMailer delivers a password-reset code to a user.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, email, otp string) error
}

// GoogleVerifier validates a Google ID token and returns the asserted
// profile. Split out so tests can stub token verification.
type GoogleVerifier func(ctx context.Context, idToken, audience string) (email string, fullName, imageURL *string, err error)

type AuthService struct {
	users    ports.UserRepository
	sessions ports.SessionRepository
	resets   ports.PasswordResetRepository
	mailer   ResetMailer
	jwt      *util.JWTManager

	googleAudience string
	verifyGoogle   GoogleVerifier

	sessionTTL time.Duration
	resetTTL   time.Duration
	otpDigits  int
}

type AuthServiceConfig struct {
	GoogleAudience string
	SessionTTL     time.Duration
	ResetTTL       time.Duration
	OTPDigits      int
}

func NewAuthService(users ports.UserRepository, sessions ports.SessionRepository, resets ports.PasswordResetRepository, mailer ResetMailer, jwtManager *util.JWTManager, cfg AuthServiceConfig) *AuthService {
	svc := &AuthService{
		users:          users,
		sessions:       sessions,
		resets:         resets,
		mailer:         mailer,
		jwt:            jwtManager,
		googleAudience: cfg.GoogleAudience,
		verifyGoogle:   verifyGoogleIDToken,
		sessionTTL:     cfg.SessionTTL,
		resetTTL:       cfg.ResetTTL,
		otpDigits:      cfg.OTPDigits,
	}
	if svc.sessionTTL <= 0 {
		svc.sessionTTL = 24 * time.Hour
	}
	if svc.resetTTL <= 0 {
		svc.resetTTL = 15 * time.Minute
	}
	if svc.otpDigits <= 0 {
		svc.otpDigits = 6
	}
	return svc
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = normalizeEmail(email)
	if err := util.ValidatePassword(password); err != nil {
		return nil, "", err
	}

	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.CreateEmailUser(ctx, email, hash, salt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !util.VerifyPassword(password, user.PasswordSalt, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, idTok string) (*domain.User, string, error) {
	email, fullName, imageURL, err := s.verifyGoogle(ctx, idTok, s.googleAudience)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.users.UpsertGoogleUser(ctx, normalizeEmail(email), fullName, imageURL)
	if err != nil {
		return nil, "", err
	}

	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeactivateSession(ctx, token)
}

// Authenticate resolves a bearer token to its user: valid signature, an
// active session row, and an existing account.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if _, err := s.sessions.FindActiveSession(ctx, token); err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// RequestPasswordReset emails a one-time code. Unknown addresses are
// silently accepted so the endpoint does not leak which emails exist.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}

	otp, err := util.GenerateNumericOTP(s.otpDigits)
	if err != nil {
		return err
	}
	otpHash, otpSalt, err := util.DerivePassword(otp)
	if err != nil {
		return err
	}

	if err := s.resets.ConsumeByUser(ctx, user.ID); err != nil {
		return err
	}
	if _, err := s.resets.Create(ctx, user.ID, otpHash, otpSalt, time.Now().Add(s.resetTTL)); err != nil {
		return err
	}

	if s.mailer == nil {
		log.Printf("auth: no mailer configured, dropping reset code for %s", user.Email)
		return nil
	}
	return s.mailer.SendPasswordReset(ctx, user.Email, otp)
}

func (s *AuthService) ConfirmPasswordReset(ctx context.Context, email, otp, newPassword string) error {
	if err := util.ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return ErrInvalidResetCode
		}
		return err
	}

	reset, err := s.resets.FindActiveByUser(ctx, user.ID, time.Now())
	if err != nil {
		if isNotFound(err) {
			return ErrInvalidResetCode
		}
		return err
	}
	if !util.VerifyPassword(otp, reset.OTPSalt, reset.OTPHash) {
		return ErrInvalidResetCode
	}

	hash, salt, err := util.DerivePassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, salt); err != nil {
		return err
	}
	return s.resets.MarkConsumed(ctx, reset.ID)
}

func (s *AuthService) issueSession(ctx context.Context, user *domain.User) (string, error) {
	token, expiresAt, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		return "", err
	}
	if _, err := s.sessions.CreateSession(ctx, user.ID, token, expiresAt); err != nil {
		return "", err
	}
	return token, nil
}

func verifyGoogleIDToken(ctx context.Context, idTok, audience string) (string, *string, *string, error) {
	payload, err := idtoken.Validate(ctx, idTok, audience)
	if err != nil {
		return "", nil, nil, err
	}
	email, _ := payload.Claims["email"].(string)
	var fullName, imageURL *string
	if name, ok := payload.Claims["name"].(string); ok && name != "" {
		fullName = &name
	}
	if picture, ok := payload.Claims["picture"].(string); ok && picture != "" {
		imageURL = &picture
	}
	return email, fullName, imageURL, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
