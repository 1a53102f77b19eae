package auth

type registerRequest struct {
	FullName     string  `json:"fullName" validate:"required,min=2,max=120"`
	MobileNumber string  `json:"mobileNumber" validate:"required,min=10,max=20"`
	Username     string  `json:"username" validate:"omitempty,min=3,max=40"`
	Password     string  `json:"password" validate:"required,min=6,max=128"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Gender       *string `json:"gender" validate:"omitempty,max=20"`
	AgeOrDOB     *string `json:"ageOrDob" validate:"omitempty,max=20"`
	City         *string `json:"city" validate:"omitempty,max=80"`
}

type loginRequest struct {
	MobileNumber string `json:"mobileNumber" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

type csrfResponse struct {
	CSRFToken string `json:"csrfToken"`
}
