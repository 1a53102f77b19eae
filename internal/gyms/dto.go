package gyms

type createGymRequest struct {
	Name            string           `json:"name" validate:"required,min=2,max=120"`
	Address         string           `json:"address" validate:"required,max=300"`
	City            string           `json:"city" validate:"required,max=80"`
	ContactNumber   string           `json:"contactNumber" validate:"required,min=6,max=20"`
	GymImages       []string         `json:"gymImages" validate:"max=10,dive,max=500"`
	GpayQR          *string          `json:"gpayQr" validate:"omitempty,max=500"`
	PhonepeQR       *string          `json:"phonepeQr" validate:"omitempty,max=500"`
	Facilities      []string         `json:"facilities" validate:"max=50,dive,max=80"`
	Services        []string         `json:"services" validate:"max=50,dive,max=80"`
	MembershipPlans []MembershipPlan `json:"membershipPlans" validate:"max=20,dive"`
}

type updateGymRequest struct {
	Name            *string           `json:"name" validate:"omitempty,min=2,max=120"`
	Address         *string           `json:"address" validate:"omitempty,max=300"`
	City            *string           `json:"city" validate:"omitempty,max=80"`
	ContactNumber   *string           `json:"contactNumber" validate:"omitempty,min=6,max=20"`
	GymImages       *[]string         `json:"gymImages" validate:"omitempty,max=10,dive,max=500"`
	GpayQR          *string           `json:"gpayQr" validate:"omitempty,max=500"`
	PhonepeQR       *string           `json:"phonepeQr" validate:"omitempty,max=500"`
	Facilities      *[]string         `json:"facilities" validate:"omitempty,max=50,dive,max=80"`
	Services        *[]string         `json:"services" validate:"omitempty,max=50,dive,max=80"`
	MembershipPlans *[]MembershipPlan `json:"membershipPlans" validate:"omitempty,max=20,dive"`
	IsActive        *bool             `json:"isActive"`
}

func (r updateGymRequest) patch() Patch {
	return Patch{
		Name:            r.Name,
		Address:         r.Address,
		City:            r.City,
		ContactNumber:   r.ContactNumber,
		GymImages:       r.GymImages,
		GpayQR:          r.GpayQR,
		PhonepeQR:       r.PhonepeQR,
		Facilities:      r.Facilities,
		Services:        r.Services,
		MembershipPlans: r.MembershipPlans,
		IsActive:        r.IsActive,
	}
}

type addTrainerRequest struct {
	MobileNumber   string  `json:"mobileNumber" validate:"required,min=10,max=20"`
	FullName       string  `json:"fullName" validate:"required,min=2,max=120"`
	Specialization *string `json:"specialization" validate:"omitempty,max=120"`
}
