package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/homevest/backoffice/internal/context"
	"github.com/homevest/backoffice/internal/errHandler"
	"github.com/homevest/backoffice/internal/helper"
	"github.com/homevest/backoffice/internal/models"
	"github.com/homevest/backoffice/internal/repository"
	"github.com/homevest/backoffice/internal/request"
	"github.com/homevest/backoffice/internal/response"
	"github.com/homevest/backoffice/internal/validator"
	"github.com/homevest/backoffice/internal/workflow"
)

const (
	BankAccountActivityLogAddedDescription      = "Added bank account"
	BankAccountActivityLogUpdatedDescription    = "Updated bank account"
	BankAccountActivityLogDeletedDescription    = "Deleted bank account"
	BankAccountActivityLogSetDefaultDescription = "Changed default bank account"
)

type BankAccountResponseData struct {
	ID            string    `json:"id"`
	AccountName   string    `json:"account_name"`
	AccountNumber string    `json:"account_number"`
	BankName      string    `json:"bank_name"`
	RoutingNumber string    `json:"routing_number,omitempty"`
	SwiftCode     string    `json:"swift_code,omitempty"`
	IsDefault     bool      `json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
}

func newBankAccountResponse(account *models.BankAccount) *BankAccountResponseData {
	return &BankAccountResponseData{
		ID:            account.ID,
		AccountName:   account.AccountName,
		AccountNumber: account.AccountNumber,
		BankName:      account.BankName,
		RoutingNumber: account.RoutingNumber,
		SwiftCode:     account.SwiftCode,
		IsDefault:     account.IsDefault,
		CreatedAt:     account.CreatedAt,
	}
}

type BankAccountHandler struct {
	Manager      *workflow.AccountManager
	ActivityRepo repository.ActivityRepository
	Helper       helper.Helper
	ErrHandler   *errHandler.ErrorHandler
}

func NewBankAccountHandler(handler *BankAccountHandler) *BankAccountHandler {
	return &BankAccountHandler{
		Manager:      handler.Manager,
		ActivityRepo: handler.ActivityRepo,
		Helper:       handler.Helper,
		ErrHandler:   handler.ErrHandler,
	}
}

func (h *BankAccountHandler) HandleAddAccount(w http.ResponseWriter, r *http.Request) {
	var input struct {
		AccountName   string              `json:"account_name"`
		AccountNumber string              `json:"account_number"`
		BankName      string              `json:"bank_name"`
		RoutingNumber string              `json:"routing_number"`
		SwiftCode     string              `json:"swift_code"`
		IsDefault     bool                `json:"is_default"`
		Validator     validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.AccountName), "Account name is required")
	input.Validator.Check(validator.NotBlank(input.AccountNumber), "Account number is required")
	input.Validator.Check(validator.NotBlank(input.BankName), "Bank name is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	account, err := h.Manager.AddAccount(user.ID, &workflow.AddAccountInput{
		AccountName:   input.AccountName,
		AccountNumber: input.AccountNumber,
		BankName:      input.BankName,
		RoutingNumber: input.RoutingNumber,
		SwiftCode:     input.SwiftCode,
		MakeDefault:   input.IsDefault,
	})
	if err != nil {
		respondWorkflowError(h.ErrHandler, w, r, err)
		return
	}

	h.logActivity(r, user.ID, account.ID, BankAccountActivityLogAddedDescription)

	message := "Bank account added successfully"
	err = response.JSONCreatedResponse(w, newBankAccountResponse(account), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *BankAccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	accounts, err := h.Manager.ListAccounts(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := make([]*BankAccountResponseData, len(accounts))
	for i := range accounts {
		data[i] = newBankAccountResponse(&accounts[i])
	}

	message := "Bank accounts retrieved successfully"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *BankAccountHandler) HandleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var input struct {
		AccountName   *string             `json:"account_name"`
		AccountNumber *string             `json:"account_number"`
		BankName      *string             `json:"bank_name"`
		RoutingNumber *string             `json:"routing_number"`
		SwiftCode     *string             `json:"swift_code"`
		IsDefault     *bool               `json:"is_default"`
		Validator     validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	if input.AccountName != nil {
		input.Validator.Check(validator.NotBlank(*input.AccountName), "Account name cannot be blank")
	}
	if input.AccountNumber != nil {
		input.Validator.Check(validator.NotBlank(*input.AccountNumber), "Account number cannot be blank")
	}
	if input.BankName != nil {
		input.Validator.Check(validator.NotBlank(*input.BankName), "Bank name cannot be blank")
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)
	accountID := r.PathValue("id")

	fields := &models.BankAccountFields{
		AccountName:   input.AccountName,
		AccountNumber: input.AccountNumber,
		BankName:      input.BankName,
		RoutingNumber: input.RoutingNumber,
		SwiftCode:     input.SwiftCode,
	}

	account, err := h.Manager.UpdateAccount(user.ID, accountID, fields, input.IsDefault)
	if err != nil {
		respondWorkflowError(h.ErrHandler, w, r, err)
		return
	}

	h.logActivity(r, user.ID, account.ID, BankAccountActivityLogUpdatedDescription)

	message := "Bank account updated successfully"
	err = response.JSONOkResponse(w, newBankAccountResponse(account), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *BankAccountHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	accountID := r.PathValue("id")

	err := h.Manager.DeleteAccount(user.ID, accountID)
	if err != nil {
		respondWorkflowError(h.ErrHandler, w, r, err)
		return
	}

	h.logActivity(r, user.ID, accountID, BankAccountActivityLogDeletedDescription)

	message := "Bank account deleted successfully"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *BankAccountHandler) HandleSetDefaultAccount(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	accountID := r.PathValue("id")

	err := h.Manager.SetDefault(user.ID, accountID)
	if err != nil {
		respondWorkflowError(h.ErrHandler, w, r, err)
		return
	}

	h.logActivity(r, user.ID, accountID, BankAccountActivityLogSetDefaultDescription)

	message := "Default bank account updated successfully"
	err = response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *BankAccountHandler) logActivity(r *http.Request, userID, accountID, description string) {
	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&models.ActivityLog{
			UserID:      userID,
			Entity:      repository.ActivityLogBankAccountEntity,
			EntityId:    accountID,
			Description: description,
		})

		if err != nil {
			log.Printf("Error logging bank account action: %v", err)
			return err
		}

		return nil
	})
}
