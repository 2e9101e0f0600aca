package gatekey

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/panyam/gatekey/oauth2"
	"github.com/panyam/gatekey/otp"
)

// AuthService is the top-level use-case layer. It owns all account
// mutations, composing the account store, OTP store, token issuer, and OTP
// sender. It holds no locks and no cross-request state of its own; shared
// state lives in the injected collaborators.
type AuthService struct {
	accounts AccountStore
	otp      *otp.Store
	issuer   *TokenIssuer
	sender   OTPSender

	accessTokenTTL time.Duration
	logger         zerolog.Logger
}

// NewAuthService wires the orchestrator. accessTokenTTL bounds the lifetime
// of tokens minted by Login and LoginWithOAuth.
func NewAuthService(
	accounts AccountStore,
	otpStore *otp.Store,
	issuer *TokenIssuer,
	sender OTPSender,
	accessTokenTTL time.Duration,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		accounts:       accounts,
		otp:            otpStore,
		issuer:         issuer,
		sender:         sender,
		accessTokenTTL: accessTokenTTL,
		logger:         logger,
	}
}

func (s *AuthService) getByEmail(ctx context.Context, email string) (*Account, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, WrapError(KindUnavailable, "account store unavailable", err)
	}
	return account, nil
}

// issueAndDeliver mints a fresh OTP for the email and attempts delivery. On
// delivery failure the just-issued code is invalidated so it cannot linger
// valid but undelivered.
func (s *AuthService) issueAndDeliver(ctx context.Context, email string) error {
	code, err := s.otp.Issue(ctx, email)
	if err != nil {
		return WrapError(KindUnavailable, "failed to issue verification code", err)
	}

	delivered, detail := s.sender.Send(ctx, email, code)
	if !delivered {
		if invErr := s.otp.Invalidate(ctx, email); invErr != nil {
			s.logger.Error().Err(invErr).Str("email", email).
				Msg("failed to invalidate otp after delivery failure")
		}
		s.logger.Warn().Str("email", email).Str("detail", detail).
			Msg("verification code delivery failed")
		return NewAuthError(KindDeliveryFailed, "failed to send verification code")
	}
	return nil
}

// Register creates an inactive, unverified local account and sends an OTP to
// the email. The account row survives a delivery failure; ResendOTP is the
// recovery path.
func (s *AuthService) Register(ctx context.Context, email, password string) (*Account, error) {
	existing, err := s.getByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewAuthError(KindConflict, "an account with this email already exists")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.Create(ctx, &Account{
		Email:        email,
		PasswordHash: hash,
		AuthProvider: ProviderLocal,
		IsActive:     false,
		IsVerified:   false,
	})
	if err != nil {
		// A concurrent Register may win between the pre-check and the
		// insert; the store's uniqueness constraint closes that race and is
		// reported the same way as a pre-check hit.
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, NewAuthError(KindConflict, "an account with this email already exists")
		}
		return nil, WrapError(KindUnavailable, "failed to create account", err)
	}

	if err := s.issueAndDeliver(ctx, account.Email); err != nil {
		return nil, err
	}

	s.logger.Info().Str("email", account.Email).Uint("id", account.ID).
		Msg("account registered, verification code sent")
	return account, nil
}

// VerifyOTP consumes a submitted code and flips the account to
// verified and active. Validation is atomically consuming, so only one
// concurrent caller can observe success for a given code.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*Account, error) {
	account, err := s.getByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, NewAuthError(KindNotFound, "account not found")
	}

	valid, err := s.otp.Validate(ctx, email, code)
	if err != nil {
		return nil, WrapError(KindUnavailable, "verification store unavailable", err)
	}
	if !valid {
		return nil, NewAuthError(KindInvalidOrExpiredCode, "invalid or expired verification code")
	}

	account.IsVerified = true
	account.IsActive = true
	saved, err := s.accounts.Save(ctx, account)
	if err != nil {
		return nil, WrapError(KindUnavailable, "failed to save account", err)
	}

	s.logger.Info().Str("email", saved.Email).Msg("account verified")
	return saved, nil
}

// ResendOTP repeats the issue-and-deliver-or-rollback behavior of Register
// for an existing account. The new code supersedes any live one.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	account, err := s.getByEmail(ctx, email)
	if err != nil {
		return err
	}
	if account == nil {
		return NewAuthError(KindNotFound, "account not found")
	}
	return s.issueAndDeliver(ctx, email)
}

// Login authenticates a verified local account and mints an access token.
// Missing account, non-local provider, and wrong password all fail with the
// same coarse error so the endpoint cannot be used to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	account, err := s.getByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if account == nil || !account.IsLocal() || !VerifyPassword(password, account.PasswordHash) {
		return "", NewAuthError(KindInvalidCredential, "incorrect email or password")
	}
	if !account.IsVerified {
		return "", NewAuthError(KindInvalidCredential, "email not verified")
	}

	token, err := s.issuer.Mint(account.Email, s.accessTokenTTL)
	if err != nil {
		return "", err
	}
	s.logger.Info().Str("email", account.Email).Msg("login succeeded")
	return token, nil
}

// LoginWithOAuth creates or updates an account from a provider profile and
// mints an access token. A new federated account is born verified and
// active. An existing account must already belong to the profile's provider
// with a matching (or absent) stored subject id; accounts are never silently
// merged across providers.
func (s *AuthService) LoginWithOAuth(ctx context.Context, profile *oauth2.Profile) (string, error) {
	if profile.Email == "" {
		return "", NewAuthError(KindProviderExchangeFailed, "email address not provided by oauth provider")
	}

	account, err := s.getByEmail(ctx, profile.Email)
	if err != nil {
		return "", err
	}

	if account != nil {
		if account.AuthProvider != profile.Provider {
			return "", NewAuthError(KindInvalidCredential, "account exists with a different sign-in method")
		}
		if account.ProviderID != "" && account.ProviderID != profile.ProviderID {
			return "", NewAuthError(KindInvalidCredential, "oauth provider id mismatch for this account")
		}
		if account.ProviderID == "" {
			account.ProviderID = profile.ProviderID
		}
		account.IsVerified = true
		account.IsActive = true
		if account, err = s.accounts.Save(ctx, account); err != nil {
			return "", WrapError(KindUnavailable, "failed to save account", err)
		}
	} else {
		account, err = s.accounts.Create(ctx, &Account{
			Email:        profile.Email,
			AuthProvider: profile.Provider,
			ProviderID:   profile.ProviderID,
			IsActive:     true,
			IsVerified:   true,
		})
		if err != nil {
			if errors.Is(err, ErrDuplicateEmail) {
				return "", NewAuthError(KindConflict, "an account with this email already exists")
			}
			return "", WrapError(KindUnavailable, "failed to create account", err)
		}
		s.logger.Info().Str("email", account.Email).Str("provider", profile.Provider).
			Msg("federated account created")
	}

	return s.issuer.Mint(account.Email, s.accessTokenTTL)
}

// Admin operations are direct store pass-throughs. Authorization is gated by
// the caller; these carry no OTP or OAuth logic.

func (s *AuthService) AdminListAccounts(ctx context.Context) ([]*Account, error) {
	accounts, err := s.accounts.ListAll(ctx)
	if err != nil {
		return nil, WrapError(KindUnavailable, "account store unavailable", err)
	}
	return accounts, nil
}

func (s *AuthService) AdminCreateAccount(ctx context.Context, account *Account) (*Account, error) {
	if account.AuthProvider == "" {
		account.AuthProvider = ProviderLocal
	}
	created, err := s.accounts.Create(ctx, account)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, NewAuthError(KindConflict, "an account with this email already exists")
		}
		return nil, WrapError(KindUnavailable, "failed to create account", err)
	}
	return created, nil
}

func (s *AuthService) AdminUpdateAccount(ctx context.Context, account *Account) (*Account, error) {
	saved, err := s.accounts.Save(ctx, account)
	if err != nil {
		return nil, WrapError(KindUnavailable, "failed to save account", err)
	}
	return saved, nil
}

func (s *AuthService) AdminDeleteAccount(ctx context.Context, id uint) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		return WrapError(KindUnavailable, "failed to delete account", err)
	}
	return nil
}
