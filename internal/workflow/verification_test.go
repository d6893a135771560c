package workflow

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/homevest/backoffice/internal/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKycRepo implements KycSubmissionRepository but only mocks the needed methods.
type MockKycRepo struct {
	mock.Mock
}

func (m *MockKycRepo) GetOne(id string) (*models.KYCSubmission, bool, error) {
	args := m.Called(id)
	return args.Get(0).(*models.KYCSubmission), args.Bool(1), args.Error(2)
}

func (m *MockKycRepo) GetByOwner(ownerID string) (*models.KYCSubmission, bool, error) {
	args := m.Called(ownerID)
	return args.Get(0).(*models.KYCSubmission), args.Bool(1), args.Error(2)
}

func (m *MockKycRepo) Insert(submission *models.KYCSubmission) (string, error) {
	args := m.Called(submission)
	return args.String(0), args.Error(1)
}

func (m *MockKycRepo) Resubmit(id string, submission *models.KYCSubmission) (bool, error) {
	args := m.Called(id, submission)
	return args.Bool(0), args.Error(1)
}

func (m *MockKycRepo) Decide(id, status, reviewerID, rejectionReason string) (bool, error) {
	args := m.Called(id, status, reviewerID, rejectionReason)
	return args.Bool(0), args.Error(1)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetOne(id string) (*models.User, bool, error) {
	args := m.Called(id)
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

func (m *MockUserRepo) GetByEmail(email string) (*models.User, bool, error) {
	return nil, false, nil
}

func (m *MockUserRepo) SetVerificationStatus(id, status string) error {
	args := m.Called(id, status)
	return args.Error(0)
}

func (m *MockUserRepo) Lock(id string) error {
	return nil
}

type producedEvent struct {
	Topic   string
	Message string
}

// fakeStream records produced events instead of talking to kafka.
type fakeStream struct {
	mu     sync.Mutex
	events []producedEvent
}

func (s *fakeStream) ProduceMessage(topic, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, producedEvent{Topic: topic, Message: message})
	return nil
}

func (s *fakeStream) produced() []producedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]producedEvent(nil), s.events...)
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func (c *fakeCache) Set(key string, value string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]string)
	}
	c.entries[key] = value
	return nil
}

func (c *fakeCache) get(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validSubmitInput() *SubmitInput {
	return &SubmitInput{
		IDType:            models.KycIDTypePassport,
		IDNumber:          "A01234567",
		IDImage:           "https://cdn.example.com/id.jpg",
		SelfieImage:       "https://cdn.example.com/selfie.jpg",
		AddressProofType:  models.AddressProofUtilityBill,
		AddressProofImage: "https://cdn.example.com/bill.jpg",
	}
}

func newVerificationEngine(submissions *MockKycRepo, users *MockUserRepo, stream *fakeStream, cache *fakeCache) *VerificationEngine {
	return NewVerificationEngine(&VerificationEngine{
		Submissions: submissions,
		Users:       users,
		Stream:      stream,
		Cache:       cache,
		Logger:      discardLogger(),
	})
}

func TestSubmit_InvalidInput(t *testing.T) {
	engine := newVerificationEngine(new(MockKycRepo), new(MockUserRepo), &fakeStream{}, &fakeCache{})

	input := validSubmitInput()
	input.IDType = "votersCard"
	input.SelfieImage = ""

	_, err := engine.Submit("owner-1", input)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Messages, 2)
}

func TestSubmit_NewSubmission(t *testing.T) {
	mockKycRepo := new(MockKycRepo)
	mockUserRepo := new(MockUserRepo)
	cache := &fakeCache{}
	engine := newVerificationEngine(mockKycRepo, mockUserRepo, &fakeStream{}, cache)

	saved := &models.KYCSubmission{ID: "sub-1", UserID: "owner-1", Status: models.KycStatusPending}

	mockKycRepo.On("GetByOwner", "owner-1").Return((*models.KYCSubmission)(nil), false, nil).Once()
	mockKycRepo.On("Insert", mock.Anything).Return("sub-1", nil)
	mockKycRepo.On("GetByOwner", "owner-1").Return(saved, true, nil)
	mockUserRepo.On("SetVerificationStatus", "owner-1", models.VerificationStatusPending).Return(nil)

	submission, err := engine.Submit("owner-1", validSubmitInput())
	require.NoError(t, err)
	require.Equal(t, "sub-1", submission.ID)
	require.Equal(t, models.KycStatusPending, submission.Status)
	require.Equal(t, models.VerificationStatusPending, cache.get(VerificationStatusCacheKey("owner-1")))

	mockKycRepo.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
}

func TestSubmit_PendingOrApprovedBlocksResubmission(t *testing.T) {
	for _, status := range []string{models.KycStatusPending, models.KycStatusApproved} {
		mockKycRepo := new(MockKycRepo)
		engine := newVerificationEngine(mockKycRepo, new(MockUserRepo), &fakeStream{}, &fakeCache{})

		existing := &models.KYCSubmission{ID: "sub-1", UserID: "owner-1", Status: status}
		mockKycRepo.On("GetByOwner", "owner-1").Return(existing, true, nil)

		_, err := engine.Submit("owner-1", validSubmitInput())
		require.ErrorIs(t, err, ErrAlreadyInProgress, "status %q must block a new submission", status)

		mockKycRepo.AssertNotCalled(t, "Insert", mock.Anything)
		mockKycRepo.AssertNotCalled(t, "Resubmit", mock.Anything, mock.Anything)
	}
}

func TestSubmit_RejectedIsResubmittedInPlace(t *testing.T) {
	mockKycRepo := new(MockKycRepo)
	mockUserRepo := new(MockUserRepo)
	engine := newVerificationEngine(mockKycRepo, mockUserRepo, &fakeStream{}, &fakeCache{})

	rejected := &models.KYCSubmission{ID: "sub-1", UserID: "owner-1", Status: models.KycStatusRejected}
	reset := &models.KYCSubmission{ID: "sub-1", UserID: "owner-1", Status: models.KycStatusPending}

	mockKycRepo.On("GetByOwner", "owner-1").Return(rejected, true, nil).Once()
	mockKycRepo.On("Resubmit", "sub-1", mock.Anything).Return(true, nil)
	mockKycRepo.On("GetByOwner", "owner-1").Return(reset, true, nil)
	mockUserRepo.On("SetVerificationStatus", "owner-1", models.VerificationStatusPending).Return(nil)

	submission, err := engine.Submit("owner-1", validSubmitInput())
	require.NoError(t, err)
	require.Equal(t, "sub-1", submission.ID, "resubmission must reuse the record")
	require.Equal(t, models.KycStatusPending, submission.Status)

	mockKycRepo.AssertNotCalled(t, "Insert", mock.Anything)
	mockKycRepo.AssertExpectations(t)
}

func TestSubmit_ConcurrentInsertLosesCleanly(t *testing.T) {
	mockKycRepo := new(MockKycRepo)
	engine := newVerificationEngine(mockKycRepo, new(MockUserRepo), &fakeStream{}, &fakeCache{})

	mockKycRepo.On("GetByOwner", "owner-1").Return((*models.KYCSubmission)(nil), false, nil)
	mockKycRepo.On("Insert", mock.Anything).Return("", &pq.Error{Code: "23505"})

	_, err := engine.Submit("owner-1", validSubmitInput())
	require.ErrorIs(t, err, ErrAlreadyInProgress)
}

func TestApprove_EmitsDecisionEvent(t *testing.T) {
	mockKycRepo := new(MockKycRepo)
	mockUserRepo := new(MockUserRepo)
	stream := &fakeStream{}
	cache := &fakeCache{}
	engine := newVerificationEngine(mockKycRepo, mockUserRepo, stream, cache)

	pending := &models.KYCSubmission{ID: "sub-1", UserID: "owner-1", Status: models.KycStatusPending}
	approved := &models.KYCSubmission{ID: "sub-1", UserID: "owner-1", Status: models.KycStatusApproved}
	owner := &models.User{ID: "owner-1", FirstName: "Ada", LastName: "Obi", Email: "ada@example.com"}

	mockKycRepo.On("GetOne", "sub-1").Return(pending, true, nil).Once()
	mockKycRepo.On("Decide", "sub-1", models.KycStatusApproved, "admin-1", "").Return(true, nil)
	mockKycRepo.On("GetOne", "sub-1").Return(approved, true, nil)
	mockUserRepo.On("SetVerificationStatus", "owner-1", models.VerificationStatusVerified).Return(nil)
	mockUserRepo.On("GetOne", "owner-1").Return(owner, true, nil)

	submission, err := engine.Approve("admin-1", "sub-1")
	require.NoError(t, err)
	require.Equal(t, models.KycStatusApproved, submission.Status)
	require.Equal(t, models.VerificationStatusVerified, cache.get(VerificationStatusCacheKey("owner-1")))

	events := stream.produced()
	require.Len(t, events, 1)
	require.Equal(t, KycDecidedTopic, events[0].Topic)

	var event KycDecidedEvent
	require.NoError(t, json.Unmarshal([]byte(events[0].Message), &event))
	require.Equal(t, "sub-1", event.SubmissionID)
	require.Equal(t, "ada@example.com", event.OwnerEmail)
	require.Equal(t, models.KycStatusApproved, event.Status)
	require.Empty(t, event.Reason)

	mockKycRepo.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
}

func TestReject_RequiresReason(t *testing.T) {
	engine := newVerificationEngine(new(MockKycRepo), new(MockUserRepo), &fakeStream{}, &fakeCache{})

	_, err := engine.Reject("admin-1", "sub-1", "  ")

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestReject_CarriesReasonIntoEvent(t *testing.T) {
	mockKycRepo := new(MockKycRepo)
	mockUserRepo := new(MockUserRepo)
	stream := &fakeStream{}
	engine := newVerificationEngine(mockKycRepo, mockUserRepo, stream, &fakeCache{})

	pending := &models.KYCSubmission{ID: "sub-1", UserID: "owner-1", Status: models.KycStatusPending}
	rejected := &models.KYCSubmission{ID: "sub-1", UserID: "owner-1", Status: models.KycStatusRejected}
	owner := &models.User{ID: "owner-1", FirstName: "Ada", LastName: "Obi", Email: "ada@example.com"}

	mockKycRepo.On("GetOne", "sub-1").Return(pending, true, nil).Once()
	mockKycRepo.On("Decide", "sub-1", models.KycStatusRejected, "admin-1", "ID photo is blurry").Return(true, nil)
	mockKycRepo.On("GetOne", "sub-1").Return(rejected, true, nil)
	mockUserRepo.On("SetVerificationStatus", "owner-1", models.VerificationStatusRejected).Return(nil)
	mockUserRepo.On("GetOne", "owner-1").Return(owner, true, nil)

	_, err := engine.Reject("admin-1", "sub-1", "ID photo is blurry")
	require.NoError(t, err)

	events := stream.produced()
	require.Len(t, events, 1)

	var event KycDecidedEvent
	require.NoError(t, json.Unmarshal([]byte(events[0].Message), &event))
	require.Equal(t, models.KycStatusRejected, event.Status)
	require.Equal(t, "ID photo is blurry", event.Reason)
}

func TestDecide_AlreadyProcessed(t *testing.T) {
	mockKycRepo := new(MockKycRepo)
	mockUserRepo := new(MockUserRepo)
	stream := &fakeStream{}
	engine := newVerificationEngine(mockKycRepo, mockUserRepo, stream, &fakeCache{})

	approved := &models.KYCSubmission{ID: "sub-1", UserID: "owner-1", Status: models.KycStatusApproved}

	mockKycRepo.On("GetOne", "sub-1").Return(approved, true, nil)
	mockKycRepo.On("Decide", "sub-1", models.KycStatusRejected, "admin-1", "too late").Return(false, nil)

	_, err := engine.Reject("admin-1", "sub-1", "too late")
	require.ErrorIs(t, err, ErrAlreadyProcessed)

	// A lost race must leave the profile and the stream untouched.
	mockUserRepo.AssertNotCalled(t, "SetVerificationStatus", mock.Anything, mock.Anything)
	require.Empty(t, stream.produced())
}

func TestDecide_NotFound(t *testing.T) {
	mockKycRepo := new(MockKycRepo)
	engine := newVerificationEngine(mockKycRepo, new(MockUserRepo), &fakeStream{}, &fakeCache{})

	mockKycRepo.On("GetOne", "missing").Return((*models.KYCSubmission)(nil), false, nil)

	_, err := engine.Approve("admin-1", "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetStatus(t *testing.T) {
	mockKycRepo := new(MockKycRepo)
	engine := newVerificationEngine(mockKycRepo, new(MockUserRepo), &fakeStream{}, &fakeCache{})

	pending := &models.KYCSubmission{ID: "sub-1", UserID: "owner-1", Status: models.KycStatusPending}
	mockKycRepo.On("GetByOwner", "owner-1").Return(pending, true, nil)
	mockKycRepo.On("GetByOwner", "owner-2").Return((*models.KYCSubmission)(nil), false, nil)

	submission, err := engine.GetStatus("owner-1")
	require.NoError(t, err)
	require.Equal(t, models.KycStatusPending, submission.Status)

	_, err = engine.GetStatus("owner-2")
	require.ErrorIs(t, err, ErrNotFound)
}
