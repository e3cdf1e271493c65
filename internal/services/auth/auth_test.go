package services_test

import (
	"context"
	"errors"
	"testing"

	customjwt "github.com/carwasher/carwash-dashboard/internal/lib/jwt"
	"github.com/carwasher/carwash-dashboard/internal/lib/password"
	"github.com/carwasher/carwash-dashboard/internal/models"
	services "github.com/carwasher/carwash-dashboard/internal/services/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Мок для StaffRepository
type StaffRepoMock struct {
	mock.Mock
}

func (m *StaffRepoMock) FindActiveStaffByPhone(ctx context.Context, phone string) (*models.StaffMember, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StaffMember), args.Error(1)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(staffName, role string) (string, error) {
	args := m.Called(staffName, role)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.CustomClaims), args.Error(1)
}

func TestAuthService_Login(t *testing.T) {
	hash, err := password.GetHash("1234")
	assert.NoError(t, err)

	tests := []struct {
		name        string
		phone       string
		pin         string
		setupMocks  func(r *StaffRepoMock, j *JwtMakerMock)
		wantToken   string
		wantErr     error
	}{
		{
			name:  "успешный вход",
			phone: "0501234567",
			pin:   "1234",
			setupMocks: func(r *StaffRepoMock, j *JwtMakerMock) {
				r.On("FindActiveStaffByPhone", mock.Anything, "0501234567").
					Return(&models.StaffMember{FullName: "Dana", Role: "admin", PINHash: hash}, nil)
				j.On("GenerateToken", "Dana", "admin").Return("token123", nil)
			},
			wantToken: "token123",
		},
		{
			name:  "сотрудник не найден",
			phone: "0500000000",
			pin:   "1234",
			setupMocks: func(r *StaffRepoMock, _ *JwtMakerMock) {
				r.On("FindActiveStaffByPhone", mock.Anything, "0500000000").
					Return(nil, errors.New("not found"))
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:  "неверный PIN",
			phone: "0501234567",
			pin:   "9999",
			setupMocks: func(r *StaffRepoMock, _ *JwtMakerMock) {
				r.On("FindActiveStaffByPhone", mock.Anything, "0501234567").
					Return(&models.StaffMember{FullName: "Dana", Role: "admin", PINHash: hash}, nil)
			},
			wantErr: services.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(StaffRepoMock)
			maker := new(JwtMakerMock)
			tt.setupMocks(repo, maker)

			svc := services.NewAuthService(repo, maker)
			token, staff, err := svc.Login(context.Background(), tt.phone, tt.pin)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, staff)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
				assert.NotNil(t, staff)
			}
			repo.AssertExpectations(t)
			maker.AssertExpectations(t)
		})
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	maker := new(JwtMakerMock)
	maker.On("ParseToken", "good").Return(&customjwt.CustomClaims{StaffName: "Dana", Role: "admin"}, nil)
	maker.On("ParseToken", "bad").Return(nil, errors.New("token is invalid"))

	svc := services.NewAuthService(new(StaffRepoMock), maker)

	name, role, err := svc.ValidateToken("good")
	assert.NoError(t, err)
	assert.Equal(t, "Dana", name)
	assert.Equal(t, "admin", role)

	_, _, err = svc.ValidateToken("bad")
	assert.Error(t, err)
}
