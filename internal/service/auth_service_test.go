package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/roamplan/roamplan-backend/internal/domain"
	"github.com/roamplan/roamplan-backend/internal/util"
)

type fakeUserRepo struct {
	createEmailEmail  string
	createEmailResult *domain.User
	createEmailErr    error

	upsertGoogleEmail  string
	upsertGoogleResult *domain.User
	upsertGoogleErr    error

	findByEmailInput  string
	findByEmailResult *domain.User
	findByEmailErr    error

	findByIDResult *domain.User
	findByIDErr    error

	updatePasswordID   uuid.UUID
	updatePasswordHash []byte
	updatePasswordSalt []byte
	updatePasswordErr  error
}

func (f *fakeUserRepo) CreateEmailUser(ctx context.Context, email string, passwordHash, passwordSalt []byte) (*domain.User, error) {
	f.createEmailEmail = email
	return f.createEmailResult, f.createEmailErr
}

func (f *fakeUserRepo) UpsertGoogleUser(ctx context.Context, email string, fullName *string, imageURL *string) (*domain.User, error) {
	f.upsertGoogleEmail = email
	return f.upsertGoogleResult, f.upsertGoogleErr
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.findByEmailInput = email
	return f.findByEmailResult, f.findByEmailErr
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return f.findByIDResult, f.findByIDErr
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error {
	f.updatePasswordID = id
	f.updatePasswordHash = append([]byte(nil), passwordHash...)
	f.updatePasswordSalt = append([]byte(nil), passwordSalt...)
	return f.updatePasswordErr
}

type fakeSessionRepo struct {
	createdTokens []string
	deactivated   []string
	findErr       error
}

func (f *fakeSessionRepo) CreateSession(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*domain.Session, error) {
	f.createdTokens = append(f.createdTokens, token)
	return &domain.Session{UserID: userID, Token: token, ExpiresAt: expiresAt, IsActive: true}, nil
}

func (f *fakeSessionRepo) DeactivateSession(ctx context.Context, token string) error {
	f.deactivated = append(f.deactivated, token)
	return nil
}

func (f *fakeSessionRepo) FindActiveSession(ctx context.Context, token string) (*domain.Session, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return &domain.Session{Token: token, IsActive: true}, nil
}

type fakeResetRepo struct {
	created       *domain.PasswordReset
	findResult    *domain.PasswordReset
	findErr       error
	consumedIDs   []int64
	consumedUsers []uuid.UUID
}

func (f *fakeResetRepo) Create(ctx context.Context, userID uuid.UUID, otpHash, otpSalt []byte, expiresAt time.Time) (*domain.PasswordReset, error) {
	f.created = &domain.PasswordReset{
		ID:        1,
		UserID:    userID,
		OTPHash:   append([]byte(nil), otpHash...),
		OTPSalt:   append([]byte(nil), otpSalt...),
		ExpiresAt: expiresAt,
	}
	return f.created, nil
}

func (f *fakeResetRepo) FindActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.PasswordReset, error) {
	return f.findResult, f.findErr
}

func (f *fakeResetRepo) MarkConsumed(ctx context.Context, id int64) error {
	f.consumedIDs = append(f.consumedIDs, id)
	return nil
}

func (f *fakeResetRepo) ConsumeByUser(ctx context.Context, userID uuid.UUID) error {
	f.consumedUsers = append(f.consumedUsers, userID)
	return nil
}

type fakeMailer struct {
	emails []string
	otps   []string
	err    error
}

func (f *fakeMailer) SendPasswordReset(ctx context.Context, email, otp string) error {
	f.emails = append(f.emails, email)
	f.otps = append(f.otps, otp)
	return f.err
}

const strongPassword = "Sup3r-Secret-Pass!"

func newTestAuthService(users *fakeUserRepo, sessions *fakeSessionRepo, resets *fakeResetRepo, mailer *fakeMailer) *AuthService {
	return NewAuthService(users, sessions, resets, mailer, util.NewJWTManager("test-secret", time.Hour), AuthServiceConfig{})
}

func TestRegisterIssuesSession(t *testing.T) {
	created := &domain.User{ID: uuid.New(), Email: "traveler@example.com"}
	users := &fakeUserRepo{createEmailResult: created}
	sessions := &fakeSessionRepo{}
	svc := newTestAuthService(users, sessions, &fakeResetRepo{}, &fakeMailer{})

	user, token, err := svc.Register(context.Background(), "  Traveler@Example.com ", strongPassword)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if users.createEmailEmail != "traveler@example.com" {
		t.Fatalf("email not normalized: %q", users.createEmailEmail)
	}
	if user != created {
		t.Fatalf("user = %+v", user)
	}
	if token == "" || len(sessions.createdTokens) != 1 || sessions.createdTokens[0] != token {
		t.Fatalf("session token not recorded: %q / %v", token, sessions.createdTokens)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc := newTestAuthService(&fakeUserRepo{}, &fakeSessionRepo{}, &fakeResetRepo{}, &fakeMailer{})
	if _, _, err := svc.Register(context.Background(), "a@b.com", "short"); !errors.Is(err, util.ErrWeakPassword) {
		t.Fatalf("err = %v, want ErrWeakPassword", err)
	}
}

func TestRegisterMapsUniqueViolation(t *testing.T) {
	users := &fakeUserRepo{createEmailErr: &pgconn.PgError{Code: "23505"}}
	svc := newTestAuthService(users, &fakeSessionRepo{}, &fakeResetRepo{}, &fakeMailer{})

	if _, _, err := svc.Register(context.Background(), "dup@example.com", strongPassword); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestLoginVerifiesPassword(t *testing.T) {
	hash, salt, err := util.DerivePassword(strongPassword)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	stored := &domain.User{ID: uuid.New(), Email: "traveler@example.com", PasswordHash: hash, PasswordSalt: salt}
	users := &fakeUserRepo{findByEmailResult: stored}
	svc := newTestAuthService(users, &fakeSessionRepo{}, &fakeResetRepo{}, &fakeMailer{})

	if _, _, err := svc.Login(context.Background(), "traveler@example.com", strongPassword); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "traveler@example.com", "Wrong-Passw0rd!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v, want ErrInvalidCredentials", err)
	}

	users.findByEmailResult = nil
	users.findByEmailErr = sql.ErrNoRows
	if _, _, err := svc.Login(context.Background(), "ghost@example.com", strongPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginWithGoogleUpserts(t *testing.T) {
	stored := &domain.User{ID: uuid.New(), Email: "g@example.com"}
	users := &fakeUserRepo{upsertGoogleResult: stored}
	svc := newTestAuthService(users, &fakeSessionRepo{}, &fakeResetRepo{}, &fakeMailer{})

	name := "G Traveler"
	svc.verifyGoogle = func(ctx context.Context, idToken, audience string) (string, *string, *string, error) {
		if idToken != "good-token" {
			return "", nil, nil, errors.New("bad token")
		}
		return "G@Example.com", &name, nil, nil
	}

	user, token, err := svc.LoginWithGoogle(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("LoginWithGoogle: %v", err)
	}
	if user != stored || token == "" {
		t.Fatalf("user = %+v token = %q", user, token)
	}
	if users.upsertGoogleEmail != "g@example.com" {
		t.Fatalf("email not normalized: %q", users.upsertGoogleEmail)
	}

	if _, _, err := svc.LoginWithGoogle(context.Background(), "bad-token"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bad token: %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthenticateRequiresActiveSession(t *testing.T) {
	stored := &domain.User{ID: uuid.New(), Email: "traveler@example.com"}
	users := &fakeUserRepo{createEmailResult: stored, findByIDResult: stored}
	sessions := &fakeSessionRepo{}
	svc := newTestAuthService(users, sessions, &fakeResetRepo{}, &fakeMailer{})

	_, token, err := svc.Register(context.Background(), stored.Email, strongPassword)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	user, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.ID != stored.ID {
		t.Fatalf("user = %+v", user)
	}

	sessions.findErr = sql.ErrNoRows
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("revoked session: %v, want ErrInvalidCredentials", err)
	}

	if _, err := svc.Authenticate(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("garbage token: %v, want ErrInvalidCredentials", err)
	}
}

func TestPasswordResetRoundTrip(t *testing.T) {
	stored := &domain.User{ID: uuid.New(), Email: "traveler@example.com"}
	users := &fakeUserRepo{findByEmailResult: stored}
	resets := &fakeResetRepo{}
	mailer := &fakeMailer{}
	svc := newTestAuthService(users, &fakeSessionRepo{}, resets, mailer)

	if err := svc.RequestPasswordReset(context.Background(), stored.Email); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if len(mailer.otps) != 1 || len(mailer.otps[0]) != 6 {
		t.Fatalf("mailed otps = %v", mailer.otps)
	}
	if len(resets.consumedUsers) != 1 {
		t.Fatalf("previous codes not invalidated: %v", resets.consumedUsers)
	}

	resets.findResult = resets.created
	newPassword := "An0ther-Secret!!"
	if err := svc.ConfirmPasswordReset(context.Background(), stored.Email, mailer.otps[0], newPassword); err != nil {
		t.Fatalf("ConfirmPasswordReset: %v", err)
	}
	if users.updatePasswordID != stored.ID {
		t.Fatalf("password updated for %s, want %s", users.updatePasswordID, stored.ID)
	}
	if !util.VerifyPassword(newPassword, users.updatePasswordSalt, users.updatePasswordHash) {
		t.Fatal("stored hash does not match the new password")
	}
	if len(resets.consumedIDs) != 1 || resets.consumedIDs[0] != resets.created.ID {
		t.Fatalf("reset not consumed: %v", resets.consumedIDs)
	}
}

func TestConfirmPasswordResetRejectsWrongCode(t *testing.T) {
	stored := &domain.User{ID: uuid.New(), Email: "traveler@example.com"}
	users := &fakeUserRepo{findByEmailResult: stored}
	resets := &fakeResetRepo{}
	mailer := &fakeMailer{}
	svc := newTestAuthService(users, &fakeSessionRepo{}, resets, mailer)

	if err := svc.RequestPasswordReset(context.Background(), stored.Email); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	resets.findResult = resets.created

	wrong := "000000"
	if mailer.otps[0] == wrong {
		wrong = "111111"
	}

	err := svc.ConfirmPasswordReset(context.Background(), stored.Email, wrong, "An0ther-Secret!!")
	if !errors.Is(err, ErrInvalidResetCode) {
		t.Fatalf("err = %v, want ErrInvalidResetCode", err)
	}
}

func TestRequestPasswordResetHidesUnknownEmails(t *testing.T) {
	users := &fakeUserRepo{findByEmailErr: sql.ErrNoRows}
	mailer := &fakeMailer{}
	svc := newTestAuthService(users, &fakeSessionRepo{}, &fakeResetRepo{}, mailer)

	if err := svc.RequestPasswordReset(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if len(mailer.emails) != 0 {
		t.Fatalf("mail sent for unknown email: %v", mailer.emails)
	}
}

func TestLogoutDeactivatesSession(t *testing.T) {
	sessions := &fakeSessionRepo{}
	svc := newTestAuthService(&fakeUserRepo{}, sessions, &fakeResetRepo{}, &fakeMailer{})

	if err := svc.Logout(context.Background(), "some-token"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(sessions.deactivated) != 1 || sessions.deactivated[0] != "some-token" {
		t.Fatalf("deactivated = %v", sessions.deactivated)
	}
}
