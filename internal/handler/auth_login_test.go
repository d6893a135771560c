package handler

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/homevest/backoffice/internal/config"
	"github.com/homevest/backoffice/internal/helper"
	"github.com/homevest/backoffice/internal/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepo implements UserRepository but only mocks the needed methods.
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetOne(id string) (*models.User, bool, error) {
	return nil, false, nil
}

func (m *MockUserRepo) GetByEmail(email string) (*models.User, bool, error) {
	args := m.Called(email)
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

func (m *MockUserRepo) SetVerificationStatus(id, status string) error {
	return nil
}

func (m *MockUserRepo) Lock(id string) error {
	return nil
}

type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) CountConsecutiveFailedLoginAttempts(userID, actionDesc string) int {
	return 0
}

func (m *MockActivityRepo) Insert(log *models.ActivityLog) (*models.ActivityLog, error) {
	args := m.Called(log)
	return args.Get(0).(*models.ActivityLog), args.Error(1)
}

type MockHelper struct{}

func (m *MockHelper) NewEmailData() map[string]any {
	return map[string]any{}
}

func (m *MockHelper) BackgroundTask(r *http.Request, fn func() error) {
	go func() {
		err := fn()
		if err != nil {
			log.Printf("Background task error: %v", err)
		}
	}()
}

func TestHandleAuthLogin_ValidCredentials(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepo)
	mockActivityRepo := new(MockActivityRepo)

	var baseURL string = "http://localhost"
	var wg sync.WaitGroup
	mockHelper := helper.New(&baseURL, "Homevest", &wg, nil)

	testUser := &models.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: "$2a$10$oiIYEECpY/GRNs9Fi7Yh1.o4Dw2fTD26eu5z48KYgXkMuOiWlSvqG",
		Status:         models.UserAccountActiveStatus,
	}

	mockUserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)
	mockActivityRepo.On("Insert", mock.Anything).Return(&models.ActivityLog{}, nil)

	mockConfig := &config.Config{
		BaseURL:      "http://localhost",
		PlatformName: "Homevest",
		HttpPort:     8080,
		Db: struct {
			Dsn         string
			Automigrate bool
		}{
			Dsn:         "mock_dsn",
			Automigrate: false,
		},
		RedisServer: "localhost:6379",
		Jwt: struct {
			SecretKey string
		}{
			SecretKey: "test_secret",
		},
		Notifications: struct {
			Email string
		}{
			Email: "no-reply@example.com",
		},
		Smtp: struct {
			Host     string
			Port     int
			Username string
			Password string
			From     string
		}{
			Host:     "smtp.example.com",
			Port:     587,
			Username: "user@example.com",
			Password: "password",
			From:     "no-reply@example.com",
		},
		KafkaServers: "localhost:9092",
	}

	authHandler := &AuthHandler{
		UserRepo:     mockUserRepo,
		ActivityRepo: mockActivityRepo,
		Helper:       mockHelper,
		Config:       mockConfig,
	}

	requestBody, _ := json.Marshal(map[string]string{
		"email":    "test@example.com",
		"password": "correctpassword",
	})

	req, err := http.NewRequest("POST", "/auth/login", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()

	// Act
	authHandler.HandleAuthLogin(rr, req)

	// Wait for background tasks (e.g. activity logging) to finish before asserting.
	wg.Wait()

	// Assert
	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]interface{}
	err = json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	require.Contains(t, response, "data")

	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "Expected response['data'] to be a map")

	require.Contains(t, data, "auth_token")
	require.Contains(t, data, "token_expiry")
	require.NotEmpty(t, data["auth_token"])

	mockUserRepo.AssertExpectations(t)
	mockActivityRepo.AssertExpectations(t)
}
