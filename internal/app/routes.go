package app

import (
	"net/http"

	"github.com/homevest/backoffice/internal/handler"
	"github.com/homevest/backoffice/internal/middleware"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	middlewareRepo := middleware.New(app.errorHandler, app.Logger, app.DB.User(), &app.Config)

	healthHandler := handler.NewHealthCheckHandler(app.errorHandler)

	authHandler := handler.NewAuthHandler(&handler.AuthHandler{
		UserRepo:     app.DB.User(),
		ActivityRepo: app.DB.Activity(),
		Helper:       app.helper,
		ErrHandler:   app.errorHandler,
		Config:       &app.Config,
	})

	bankAccountHandler := handler.NewBankAccountHandler(&handler.BankAccountHandler{
		Manager:      app.Accounts,
		ActivityRepo: app.DB.Activity(),
		Helper:       app.helper,
		ErrHandler:   app.errorHandler,
	})

	kycHandler := handler.NewKycHandler(&handler.KycHandler{
		Engine:       app.Verification,
		ActivityRepo: app.DB.Activity(),
		Helper:       app.helper,
		ErrHandler:   app.errorHandler,
	})

	ticketHandler := handler.NewTicketHandler(&handler.TicketHandler{
		Engine:       app.Tickets,
		ActivityRepo: app.DB.Activity(),
		Helper:       app.helper,
		ErrHandler:   app.errorHandler,
	})

	uploadHandler := handler.NewUploadHandler(&handler.UploadHandler{
		Uploader:   app.FileUploader,
		ErrHandler: app.errorHandler,
	})

	mux.HandleFunc("GET /health", healthHandler.HandleHealthCheck)
	mux.HandleFunc("POST /auth/login", authHandler.HandleAuthLogin)

	authenticated := middlewareRepo.RequireAuthenticatedUser
	adminOnly := middlewareRepo.RequireAdminUser

	mux.Handle("POST /bank-accounts", authenticated(http.HandlerFunc(bankAccountHandler.HandleAddAccount)))
	mux.Handle("GET /bank-accounts", authenticated(http.HandlerFunc(bankAccountHandler.HandleListAccounts)))
	mux.Handle("PATCH /bank-accounts/{id}", authenticated(http.HandlerFunc(bankAccountHandler.HandleUpdateAccount)))
	mux.Handle("DELETE /bank-accounts/{id}", authenticated(http.HandlerFunc(bankAccountHandler.HandleDeleteAccount)))
	mux.Handle("PUT /bank-accounts/{id}/default", authenticated(http.HandlerFunc(bankAccountHandler.HandleSetDefaultAccount)))

	mux.Handle("POST /kyc", authenticated(http.HandlerFunc(kycHandler.HandleSubmitKyc)))
	mux.Handle("GET /kyc", authenticated(http.HandlerFunc(kycHandler.HandleKycStatus)))
	mux.Handle("GET /admin/kyc/{id}", adminOnly(http.HandlerFunc(kycHandler.HandleKycDetails)))
	mux.Handle("PATCH /admin/kyc/{id}/approve", adminOnly(http.HandlerFunc(kycHandler.HandleApproveKyc)))
	mux.Handle("PATCH /admin/kyc/{id}/reject", adminOnly(http.HandlerFunc(kycHandler.HandleRejectKyc)))

	mux.Handle("POST /tickets", authenticated(http.HandlerFunc(ticketHandler.HandleCreateTicket)))
	mux.Handle("GET /tickets", authenticated(http.HandlerFunc(ticketHandler.HandleListTickets)))
	mux.Handle("GET /tickets/{id}", authenticated(http.HandlerFunc(ticketHandler.HandleTicketDetails)))
	mux.Handle("POST /tickets/{id}/replies", authenticated(http.HandlerFunc(ticketHandler.HandleAppendReply)))
	mux.Handle("PATCH /admin/tickets/{id}/status", adminOnly(http.HandlerFunc(ticketHandler.HandleSetTicketStatus)))
	mux.Handle("PATCH /admin/tickets/{id}/assign", adminOnly(http.HandlerFunc(ticketHandler.HandleAssignTicket)))

	mux.Handle("POST /uploads", authenticated(http.HandlerFunc(uploadHandler.HandleUploadFile)))

	return middlewareRepo.LogAccess(middlewareRepo.RecoverPanic(middlewareRepo.Authenticate(mux)))
}
