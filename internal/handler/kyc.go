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
	"github.com/homevest/backoffice/internal/workflow"
)

const (
	KycActivityLogSubmittedDescription = "Submitted KYC documents"
	KycActivityLogApprovedDescription  = "Approved KYC submission"
	KycActivityLogRejectedDescription  = "Rejected KYC submission"
)

type KycSubmissionResponseData struct {
	ID               string     `json:"id"`
	IDType           string     `json:"id_type"`
	IDNumber         string     `json:"id_number"`
	AddressProofType string     `json:"address_proof_type"`
	Status           string     `json:"status"`
	RejectionReason  string     `json:"rejection_reason,omitempty"`
	VerifiedBy       string     `json:"verified_by,omitempty"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
	SubmittedAt      time.Time  `json:"submitted_at"`
}

func newKycSubmissionResponse(submission *models.KYCSubmission) *KycSubmissionResponseData {
	data := &KycSubmissionResponseData{
		ID:               submission.ID,
		IDType:           submission.IDType,
		IDNumber:         submission.IDNumber,
		AddressProofType: submission.AddressProofType,
		Status:           submission.Status,
		SubmittedAt:      submission.SubmittedAt,
	}

	if submission.RejectionReason.Valid {
		data.RejectionReason = submission.RejectionReason.String
	}
	if submission.VerifiedBy.Valid {
		data.VerifiedBy = submission.VerifiedBy.String
	}
	if submission.VerifiedAt.Valid {
		verifiedAt := submission.VerifiedAt.Time
		data.VerifiedAt = &verifiedAt
	}

	return data
}

type KycHandler struct {
	Engine       *workflow.VerificationEngine
	ActivityRepo repository.ActivityRepository
	Helper       helper.Helper
	ErrHandler   *errHandler.ErrorHandler
}

func NewKycHandler(handler *KycHandler) *KycHandler {
	return &KycHandler{
		Engine:       handler.Engine,
		ActivityRepo: handler.ActivityRepo,
		Helper:       handler.Helper,
		ErrHandler:   handler.ErrHandler,
	}
}

func (h *KycHandler) HandleSubmitKyc(w http.ResponseWriter, r *http.Request) {
	var input struct {
		IDType            string `json:"id_type"`
		IDNumber          string `json:"id_number"`
		IDImage           string `json:"id_image"`
		SelfieImage       string `json:"selfie_image"`
		AddressProofType  string `json:"address_proof_type"`
		AddressProofImage string `json:"address_proof_image"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user := context.ContextGetAuthenticatedUser(r)

	submission, err := h.Engine.Submit(user.ID, &workflow.SubmitInput{
		IDType:            input.IDType,
		IDNumber:          input.IDNumber,
		IDImage:           input.IDImage,
		SelfieImage:       input.SelfieImage,
		AddressProofType:  input.AddressProofType,
		AddressProofImage: input.AddressProofImage,
	})
	if err != nil {
		respondWorkflowError(h.ErrHandler, w, r, err)
		return
	}

	h.logActivity(r, user.ID, submission.ID, KycActivityLogSubmittedDescription)

	message := "KYC documents submitted successfully"
	err = response.JSONCreatedResponse(w, newKycSubmissionResponse(submission), message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *KycHandler) HandleKycStatus(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	submission, err := h.Engine.GetStatus(user.ID)
	if err != nil {
		respondWorkflowError(h.ErrHandler, w, r, err)
		return
	}

	message := "KYC status retrieved successfully"
	err = response.JSONOkResponse(w, newKycSubmissionResponse(submission), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *KycHandler) HandleKycDetails(w http.ResponseWriter, r *http.Request) {
	submissionID := r.PathValue("id")

	submission, err := h.Engine.GetSubmission(submissionID)
	if err != nil {
		respondWorkflowError(h.ErrHandler, w, r, err)
		return
	}

	message := "KYC submission retrieved successfully"
	err = response.JSONOkResponse(w, newKycSubmissionResponse(submission), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *KycHandler) HandleApproveKyc(w http.ResponseWriter, r *http.Request) {
	reviewer := context.ContextGetAuthenticatedUser(r)
	submissionID := r.PathValue("id")

	submission, err := h.Engine.Approve(reviewer.ID, submissionID)
	if err != nil {
		respondWorkflowError(h.ErrHandler, w, r, err)
		return
	}

	h.logActivity(r, reviewer.ID, submission.ID, KycActivityLogApprovedDescription)

	message := "KYC submission approved"
	err = response.JSONOkResponse(w, newKycSubmissionResponse(submission), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *KycHandler) HandleRejectKyc(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Reason string `json:"reason"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	reviewer := context.ContextGetAuthenticatedUser(r)
	submissionID := r.PathValue("id")

	submission, err := h.Engine.Reject(reviewer.ID, submissionID, input.Reason)
	if err != nil {
		respondWorkflowError(h.ErrHandler, w, r, err)
		return
	}

	h.logActivity(r, reviewer.ID, submission.ID, KycActivityLogRejectedDescription)

	message := "KYC submission rejected"
	err = response.JSONOkResponse(w, newKycSubmissionResponse(submission), message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *KycHandler) logActivity(r *http.Request, userID, submissionID, description string) {
	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&models.ActivityLog{
			UserID:      userID,
			Entity:      repository.ActivityLogKycEntity,
			EntityId:    submissionID,
			Description: description,
		})

		if err != nil {
			log.Printf("Error logging kyc action: %v", err)
			return err
		}

		return nil
	})
}
