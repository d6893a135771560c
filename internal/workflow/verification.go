package workflow

import (
	"errors"
	"log/slog"

	"github.com/homevest/backoffice/internal/models"
	"github.com/homevest/backoffice/internal/repository"
	"github.com/homevest/backoffice/internal/validator"
	"github.com/lib/pq"
)

// VerificationEngine owns the KYC submission state machine:
//
//	none -> pending -> {approved, rejected}
//	rejected -> pending   (resubmission, same record)
//
// approved is terminal. At most one submission exists per owner, enforced
// by the unique user_id constraint; status preconditions ride inside the
// store updates themselves, so a decision that lost a race fails cleanly
// with no effect.
type VerificationEngine struct {
	Submissions repository.KycSubmissionRepository
	Users       repository.UserRepository
	Stream      EventStream
	Cache       StatusCache
	Logger      *slog.Logger
}

func NewVerificationEngine(engine *VerificationEngine) *VerificationEngine {
	return &VerificationEngine{
		Submissions: engine.Submissions,
		Users:       engine.Users,
		Stream:      engine.Stream,
		Cache:       engine.Cache,
		Logger:      engine.Logger,
	}
}

type SubmitInput struct {
	IDType            string
	IDNumber          string
	IDImage           string
	SelfieImage       string
	AddressProofType  string
	AddressProofImage string
}

func (in *SubmitInput) validate() error {
	var v validator.Validator

	v.Check(validator.In(in.IDType, models.KycIDTypes()...), "Id type must be one of: passport, nationalId, driverLicense")
	v.Check(validator.NotBlank(in.IDNumber), "Id number is required")
	v.Check(validator.NotBlank(in.IDImage), "Id image is required")
	v.Check(validator.NotBlank(in.SelfieImage), "Selfie image is required")
	v.Check(validator.In(in.AddressProofType, models.AddressProofTypes()...), "Address proof type must be one of: utilityBill, bankStatement, rentalAgreement")
	v.Check(validator.NotBlank(in.AddressProofImage), "Address proof image is required")

	if v.HasErrors() {
		return NewValidationError(v.Errors...)
	}

	return nil
}

func (e *VerificationEngine) Submit(ownerID string, input *SubmitInput) (*models.KYCSubmission, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	submission := &models.KYCSubmission{
		UserID:            ownerID,
		IDType:            input.IDType,
		IDNumber:          input.IDNumber,
		IDImage:           input.IDImage,
		SelfieImage:       input.SelfieImage,
		AddressProofType:  input.AddressProofType,
		AddressProofImage: input.AddressProofImage,
	}

	existing, found, err := e.Submissions.GetByOwner(ownerID)
	if err != nil {
		return nil, err
	}

	if found {
		if existing.Status != models.KycStatusRejected {
			return nil, ErrAlreadyInProgress
		}

		// A rejected submission is superseded in place: same record id,
		// status reset to pending, reviewer fields cleared.
		ok, err := e.Submissions.Resubmit(existing.ID, submission)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrAlreadyInProgress
		}
	} else {
		_, err := e.Submissions.Insert(submission)
		if err != nil {
			var pqErr *pq.Error
			// unique_violation on user_id: a concurrent submit won
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				return nil, ErrAlreadyInProgress
			}
			return nil, err
		}
	}

	if err := e.Users.SetVerificationStatus(ownerID, models.VerificationStatusPending); err != nil {
		return nil, err
	}
	e.cacheStatus(ownerID, models.VerificationStatusPending)

	saved, _, err := e.Submissions.GetByOwner(ownerID)
	if err != nil {
		return nil, err
	}

	return saved, nil
}

func (e *VerificationEngine) Approve(reviewerID, submissionID string) (*models.KYCSubmission, error) {
	return e.decide(reviewerID, submissionID, models.KycStatusApproved, "")
}

func (e *VerificationEngine) Reject(reviewerID, submissionID, reason string) (*models.KYCSubmission, error) {
	if !validator.NotBlank(reason) {
		return nil, NewValidationError("Rejection reason is required")
	}

	return e.decide(reviewerID, submissionID, models.KycStatusRejected, reason)
}

// GetSubmission is the reviewer-side read, keyed by submission id rather
// than owner.
func (e *VerificationEngine) GetSubmission(submissionID string) (*models.KYCSubmission, error) {
	submission, found, err := e.Submissions.GetOne(submissionID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	return submission, nil
}

func (e *VerificationEngine) GetStatus(ownerID string) (*models.KYCSubmission, error) {
	submission, found, err := e.Submissions.GetByOwner(ownerID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	return submission, nil
}

func (e *VerificationEngine) decide(reviewerID, submissionID, status, reason string) (*models.KYCSubmission, error) {
	submission, found, err := e.Submissions.GetOne(submissionID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	ok, err := e.Submissions.Decide(submissionID, status, reviewerID, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyProcessed
	}

	profileStatus := models.VerificationStatusVerified
	if status == models.KycStatusRejected {
		profileStatus = models.VerificationStatusRejected
	}

	if err := e.Users.SetVerificationStatus(submission.UserID, profileStatus); err != nil {
		return nil, err
	}
	e.cacheStatus(submission.UserID, profileStatus)

	owner, found, err := e.Users.GetOne(submission.UserID)
	if err != nil || !found {
		e.Logger.Error("could not load owner for kyc decision notification", "owner_id", submission.UserID, "error", err)
	} else {
		emitEvent(e.Stream, e.Logger, KycDecidedTopic, &KycDecidedEvent{
			SubmissionID: submissionID,
			OwnerID:      owner.ID,
			OwnerName:    owner.FullName(),
			OwnerEmail:   owner.Email,
			Status:       status,
			Reason:       reason,
		})
	}

	decided, _, err := e.Submissions.GetOne(submissionID)
	if err != nil {
		return nil, err
	}

	return decided, nil
}

func (e *VerificationEngine) cacheStatus(ownerID, status string) {
	if e.Cache == nil {
		return
	}

	err := e.Cache.Set(VerificationStatusCacheKey(ownerID), status, verificationStatusCacheTTL)
	if err != nil {
		e.Logger.Error("failed to cache verification status", "owner_id", ownerID, "error", err)
	}
}
