// Package services содержит логику входа сотрудников по телефону и PIN-коду.
package services

import (
	"context"
	"errors"

	"github.com/carwasher/carwash-dashboard/internal/lib/jwt"
	"github.com/carwasher/carwash-dashboard/internal/lib/password"
	"github.com/carwasher/carwash-dashboard/internal/models"
)

// ErrInvalidCredentials возвращается при неверной паре телефон/PIN.
// Наружу не раскрывается, что именно не совпало.
var ErrInvalidCredentials = errors.New("invalid credentials")

// StaffRepository описывает контракт поиска сотрудников в хранилище.
type StaffRepository interface {
	// FindActiveStaffByPhone возвращает активного сотрудника по телефону.
	FindActiveStaffByPhone(ctx context.Context, phone string) (*models.StaffMember, error)
}

// AuthService отвечает за вход сотрудников и валидацию JWT.
type AuthService struct {
	staff    StaffRepository
	jwtMaker jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(staff StaffRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		staff:    staff,
		jwtMaker: jwtMaker,
	}
}

// Login проверяет PIN сотрудника и генерирует JWT.
// Любая причина отказа схлопывается в ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, phone, pin string) (token string, staff *models.StaffMember, err error) {
	member, err := s.staff.FindActiveStaffByPhone(ctx, phone)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := password.CompareHash(member.PINHash, pin); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err = s.jwtMaker.GenerateToken(member.FullName, member.Role)
	if err != nil {
		return "", nil, err
	}
	return token, member, nil
}

// ValidateToken проверяет JWT и возвращает имя сотрудника и роль.
func (s *AuthService) ValidateToken(token string) (staffName, role string, err error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return "", "", err
	}
	return claims.StaffName, claims.Role, nil
}
