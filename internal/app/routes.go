package app

import (
	"net/http"

	"github.com/shamsfin/shamsi/internal/handler"
	"github.com/shamsfin/shamsi/internal/middleware"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	mid := middleware.New(app.errorHandler, app.Logger, app.DB.User(), &app.Config, app.Cache)

	healthHandler := handler.NewHealthCheckHandler(app.errorHandler)

	authHandler := handler.NewAuthHandler(&handler.AuthHandler{
		DB:          app.DB,
		UserRepo:    app.DB.User(),
		SessionRepo: app.DB.Session(),
		TokenRepo:   app.DB.VerificationToken(),
		AuditRepo:   app.DB.Audit(),
		Helper:      app.Helper,
		Mailer:      app.Mailer,
		Config:      &app.Config,
		ErrHandler:  app.errorHandler,
	})

	userHandler := handler.NewUserHandler(&handler.UserHandler{
		UserRepo:   app.DB.User(),
		DocRepo:    app.DB.KycDocument(),
		ReqRepo:    app.DB.Requirement(),
		Kafka:      app.Kafka,
		Helper:     app.Helper,
		ErrHandler: app.errorHandler,
	})

	kycHandler := handler.NewKycHandler(&handler.KycHandler{
		DB:         app.DB,
		UserRepo:   app.DB.User(),
		DocRepo:    app.DB.KycDocument(),
		ReqRepo:    app.DB.Requirement(),
		Uploader:   app.FileUploader,
		Kafka:      app.Kafka,
		ErrHandler: app.errorHandler,
	})

	contractorHandler := handler.NewContractorHandler(&handler.ContractorHandler{
		DB:             app.DB,
		UserRepo:       app.DB.User(),
		ContractorRepo: app.DB.Contractor(),
		Kafka:          app.Kafka,
		ErrHandler:     app.errorHandler,
	})

	productHandler := handler.NewProductHandler(&handler.ProductHandler{
		ProductRepo: app.DB.Product(),
		Cache:       app.TieredCache,
		Kafka:       app.Kafka,
		ErrHandler:  app.errorHandler,
	})

	quoteHandler := handler.NewQuoteHandler(&handler.QuoteHandler{
		QuoteRepo:      app.DB.Quote(),
		ProductRepo:    app.DB.Product(),
		ContractorRepo: app.DB.Contractor(),
		Kafka:          app.Kafka,
		Mailer:         app.Mailer,
		Helper:         app.Helper,
		ErrHandler:     app.errorHandler,
	})

	adminHandler := handler.NewAdminHandler(&handler.AdminHandler{
		UserRepo:       app.DB.User(),
		ContractorRepo: app.DB.Contractor(),
		QuoteRepo:      app.DB.Quote(),
		DocRepo:        app.DB.KycDocument(),
		AuditRepo:      app.DB.Audit(),
		Cache:          app.TieredCache,
		ErrHandler:     app.errorHandler,
	})

	mux.HandleFunc("GET /status", healthHandler.HandleHealthCheck)

	// auth
	mux.HandleFunc("POST /api/auth/register", authHandler.HandleAuthRegister)
	mux.HandleFunc("POST /api/auth/verify-email", authHandler.HandleVerifyEmail)
	mux.HandleFunc("POST /api/auth/login", authHandler.HandleAuthLogin)
	mux.HandleFunc("POST /api/auth/refresh", authHandler.HandleAuthRefresh)
	mux.HandleFunc("POST /api/auth/logout", authHandler.HandleAuthLogout)
	mux.HandleFunc("POST /api/auth/forgot-password", authHandler.HandleForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", authHandler.HandleResetPassword)
	mux.HandleFunc("POST /api/admin/auth/login", authHandler.HandleAdminAuthLogin)

	// public marketplace catalog
	mux.HandleFunc("GET /api/products", productHandler.HandleListProducts)
	mux.HandleFunc("GET /api/products/{id}", productHandler.HandleSingleProduct)
	mux.HandleFunc("GET /api/contractors", contractorHandler.HandleContractorDirectory)
	mux.HandleFunc("GET /api/contractors/{id}", contractorHandler.HandleSingleContractor)

	// profile
	mux.Handle("GET /api/users/me", mid.RequireAuthenticatedUser(http.HandlerFunc(userHandler.HandleUserProfile)))
	mux.Handle("PUT /api/users/me", mid.RequireAuthenticatedUser(http.HandlerFunc(userHandler.HandleUpdateProfile)))

	// kyc
	mux.Handle("GET /api/kyc/requirements", mid.RequireAuthenticatedUser(http.HandlerFunc(kycHandler.HandleListRequirements)))
	mux.Handle("POST /api/kyc/documents", mid.RequireAuthenticatedUser(http.HandlerFunc(kycHandler.HandleUploadDocument)))
	mux.Handle("GET /api/kyc/documents", mid.RequireAuthenticatedUser(http.HandlerFunc(kycHandler.HandleListOwnDocuments)))

	// contractors
	mux.Handle("POST /api/contractors", mid.RequireAuthenticatedUser(http.HandlerFunc(contractorHandler.HandleRegisterContractor)))
	mux.Handle("GET /api/contractors/me", mid.RequireAuthenticatedUser(http.HandlerFunc(contractorHandler.HandleContractorProfile)))

	// quotes
	mux.Handle("POST /api/quotes", mid.RequireAuthenticatedUser(http.HandlerFunc(quoteHandler.HandleCreateQuote)))
	mux.Handle("GET /api/quotes", mid.RequireAuthenticatedUser(http.HandlerFunc(quoteHandler.HandleListOwnQuotes)))
	mux.Handle("GET /api/quotes/{id}", mid.RequireAuthenticatedUser(http.HandlerFunc(quoteHandler.HandleSingleQuote)))
	mux.Handle("PUT /api/quotes/{id}/offer", mid.RequireAuthenticatedUser(http.HandlerFunc(quoteHandler.HandleOfferQuote)))
	mux.Handle("PUT /api/quotes/{id}/accept", mid.RequireAuthenticatedUser(http.HandlerFunc(quoteHandler.HandleAcceptQuote)))
	mux.Handle("PUT /api/quotes/{id}/cancel", mid.RequireAuthenticatedUser(http.HandlerFunc(quoteHandler.HandleCancelQuote)))

	// back office
	mux.Handle("GET /api/admin/dashboard", mid.RequireAdmin(http.HandlerFunc(adminHandler.HandleDashboardOverview)))
	mux.Handle("GET /api/admin/audit-logs", mid.RequireAdmin(http.HandlerFunc(adminHandler.HandleListAuditLogs)))
	mux.Handle("GET /api/admin/kyc/documents", mid.RequireAdmin(http.HandlerFunc(kycHandler.HandlePendingDocuments)))
	mux.Handle("PATCH /api/admin/kyc/documents/{id}", mid.RequireAdmin(http.HandlerFunc(kycHandler.HandleReviewDocument)))
	mux.Handle("GET /api/admin/contractors", mid.RequireAdmin(http.HandlerFunc(contractorHandler.HandleListContractors)))
	mux.Handle("PATCH /api/admin/contractors/{id}/status", mid.RequireAdmin(http.HandlerFunc(contractorHandler.HandleUpdateContractorStatus)))
	mux.Handle("POST /api/admin/products", mid.RequireAdmin(http.HandlerFunc(productHandler.HandleCreateProduct)))
	mux.Handle("PUT /api/admin/products/{id}", mid.RequireAdmin(http.HandlerFunc(productHandler.HandleUpdateProduct)))

	return mid.LogAccess(mid.RecoverPanic(mid.RateLimit(mid.Authenticate(mux))))
}
