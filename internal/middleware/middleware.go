package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shamsfin/shamsi/internal/cache"
	"github.com/shamsfin/shamsi/internal/config"
	"github.com/shamsfin/shamsi/internal/context"
	"github.com/shamsfin/shamsi/internal/errHandler"
	"github.com/shamsfin/shamsi/internal/models"
	"github.com/shamsfin/shamsi/internal/repository"
	"github.com/shamsfin/shamsi/internal/response"

	"github.com/pascaldekloe/jwt"
	"github.com/tomasen/realip"
)

type Middleware struct {
	errHandler *errHandler.ErrorRepository
	logger     *slog.Logger
	UserRepo   repository.UserRepository
	config     *config.Config
	cache      *cache.Cache
}

func New(errHandler *errHandler.ErrorRepository, logger *slog.Logger, userRepo repository.UserRepository, config *config.Config, cache *cache.Cache) *Middleware {
	return &Middleware{
		errHandler: errHandler,
		logger:     logger,
		UserRepo:   userRepo,
		config:     config,
		cache:      cache,
	}
}

func (mid *Middleware) RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err != nil {
				mid.errHandler.ServerError(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (mid *Middleware) LogAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mw := response.NewMetricsResponseWriter(w)
		next.ServeHTTP(mw, r)

		var (
			ip     = realip.FromRequest(r)
			method = r.Method
			url    = r.URL.String()
			proto  = r.Proto
		)

		userAttrs := slog.Group("user", "ip", ip)
		requestAttrs := slog.Group("request", "method", method, "url", url, "proto", proto)
		responseAttrs := slog.Group("response", "status", mw.StatusCode, "size", mw.BytesCount)

		mid.logger.Info("access", userAttrs, requestAttrs, responseAttrs)
	})
}

// RateLimit applies a fixed one-minute window per client IP, counted in
// redis so every instance of the API shares the same budget. When redis is
// down requests pass through; losing rate limiting is better than losing
// the API.
func (mid *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := mid.config.RateLimit.RequestsPerMinute
		if limit <= 0 || mid.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		window := time.Minute
		key := "ratelimit:" + realip.FromRequest(r)

		count, err := mid.cache.Increment(key, window)
		if err != nil {
			mid.logger.Warn("rate limiter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if count > int64(limit) {
			mid.errHandler.RateLimitExceeded(w, r, strconv.Itoa(int(window.Seconds())))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (mid *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authorizationHeader := r.Header.Get("Authorization")

		if authorizationHeader != "" {
			headerParts := strings.Split(authorizationHeader, " ")

			if len(headerParts) == 2 && headerParts[0] == "Bearer" {
				token := headerParts[1]

				claims, err := jwt.HMACCheck([]byte(token), []byte(mid.config.Jwt.SecretKey))
				if err != nil {
					mid.errHandler.InvalidAuthenticationToken(w, r)
					return
				}

				if !claims.Valid(time.Now()) {
					mid.errHandler.InvalidAuthenticationToken(w, r)
					return
				}

				if claims.Issuer != mid.config.BaseURL {
					mid.errHandler.InvalidAuthenticationToken(w, r)
					return
				}

				if !claims.AcceptAudience(mid.config.BaseURL) {
					mid.errHandler.InvalidAuthenticationToken(w, r)
					return
				}

				userID := claims.Subject

				user, found, err := mid.UserRepo.GetOne(userID)
				if err != nil {
					mid.errHandler.ServerError(w, r, err)
					return
				}

				if found {
					r = context.ContextSetAuthenticatedUser(r, user)
				}
			}
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAuthenticatedUser guards protected routes. An account with an
// unverified email is treated as unauthenticated on protected routes.
func (mid *Middleware) RequireAuthenticatedUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authenticatedUser := context.ContextGetAuthenticatedUser(r)

		if authenticatedUser == nil {
			mid.errHandler.AuthenticationRequired(w, r)
			return
		}

		if !authenticatedUser.EmailVerifiedAt.Valid {
			mid.errHandler.AuthenticationRequired(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (mid *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return mid.RequireAuthenticatedUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authenticatedUser := context.ContextGetAuthenticatedUser(r)

		if authenticatedUser.Role != models.UserRoleAdmin {
			mid.errHandler.AccessDenied(w, r)
			return
		}

		next.ServeHTTP(w, r)
	}))
}
