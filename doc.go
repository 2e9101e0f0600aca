// Package gatekey issues and verifies short-lived credentials for account
// access: password registration gated by a one-time emailed code, bearer
// token login, and federated login through Google or GitHub.
//
// # Architecture
//
// Account: the identity record. A local account holds a bcrypt password
// hash; a federated account holds the provider's subject id instead. An
// account becomes active and verified either by confirming an OTP or by a
// successful federated login.
//
// AuthService: the use-case layer owning all account transitions. It
// composes an AccountStore (relational via stores/gorm, Cloud Datastore via
// stores/gae, or in-memory via stores), the otp.Store (Redis-backed
// single-use codes), a TokenIssuer (HS256 JWTs), and an OTPSender (SMTP via
// the mailer package).
//
// The oauth2 subpackage handles the authorization-redirect round trip:
// HMAC-signed anti-CSRF state tokens and per-provider code-for-profile
// exchange strategies.
//
// # Basic Usage
//
//	cfg, err := gatekey.LoadConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	redis, err := otp.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer redis.Close()
//
//	otpStore := otp.NewStore(otp.NewRedisKV(redis), cfg.OTPLength, cfg.OTPTTL)
//	issuer := gatekey.NewTokenIssuer(cfg.SecretKey, cfg.Issuer)
//	sender, err := mailer.NewMailerFromEnv(cfg.OTPTTL, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	accounts := gormstore.NewAccountStore(db)
//	service := gatekey.NewAuthService(accounts, otpStore, issuer, sender, cfg.AccessTokenTTL, logger)
//
// Expose the operations over HTTP:
//
//	exchanger := oauth2.NewExchanger(
//	    oauth2.NewStateGuard(cfg.SecretKey, cfg.OAuthStateTTL),
//	    oauth2.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI),
//	    oauth2.NewGithubProvider(cfg.GithubClientID, cfg.GithubClientSecret, cfg.GithubRedirectURI),
//	)
//	api := &gatekey.API{Service: service, Exchanger: exchanger, Logger: logger}
//	http.ListenAndServe(":8080", api.Handler())
//
// Errors surfaced by the service are AuthError values classified by a small
// closed kind set (Conflict, NotFound, InvalidCredential, ...), with
// infrastructure failures kept distinct from business rule violations so
// callers can choose status codes and retry policy.
package gatekey
