package accounts

import "github.com/freshoils/freshoils-backend/pkg/db/models"

// UserDTO is the public representation of an account.
type UserDTO struct {
	ID                uint    `json:"id"`
	PhoneNumber       string  `json:"phone_number"`
	Name              string  `json:"name"`
	Address           *string `json:"address"`
	IsProfileComplete bool    `json:"is_profile_complete"`
	IsStaff           bool    `json:"is_staff"`
}

// FromModel maps a persisted user onto the public DTO.
func FromModel(user *models.User) *UserDTO {
	if user == nil {
		return nil
	}
	return &UserDTO{
		ID:                user.ID,
		PhoneNumber:       user.PhoneNumber,
		Name:              user.Name,
		Address:           user.Address,
		IsProfileComplete: user.IsProfileComplete,
		IsStaff:           user.IsStaff,
	}
}

// UpdateProfileRequest carries the editable profile fields.
type UpdateProfileRequest struct {
	Name    string  `json:"name" validate:"required,max=120"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

// ChangePasswordRequest carries the credential rotation payload.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}
