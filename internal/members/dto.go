package members

import (
	"time"
)

type enrollRequest struct {
	GymID          int64          `json:"gymId" validate:"required,gt=0"`
	MobileNumber   string         `json:"mobileNumber" validate:"required,min=10,max=20"`
	FullName       string         `json:"fullName" validate:"required,min=2,max=120"`
	Email          *string        `json:"email" validate:"omitempty,email"`
	Gender         *string        `json:"gender" validate:"omitempty,max=20"`
	AgeOrDOB       *string        `json:"ageOrDob" validate:"omitempty,max=20"`
	Address        *string        `json:"address" validate:"omitempty,max=300"`
	City           *string        `json:"city" validate:"omitempty,max=80"`
	MembershipType MembershipType `json:"membershipType" validate:"required,oneof=FREE PAID PERSONAL"`
	MembershipPlan string         `json:"membershipPlan" validate:"required,max=80"`
	Goals          []string       `json:"goals" validate:"max=20,dive,max=80"`
	StartDate      string         `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate        string         `json:"endDate" validate:"required,datetime=2006-01-02"`
}

func (r enrollRequest) input() EnrollInput {
	// Both dates passed the datetime check.
	start, _ := time.Parse(DateLayout, r.StartDate)
	end, _ := time.Parse(DateLayout, r.EndDate)
	return EnrollInput{
		GymID:          r.GymID,
		MobileNumber:   r.MobileNumber,
		FullName:       r.FullName,
		Email:          r.Email,
		Gender:         r.Gender,
		AgeOrDOB:       r.AgeOrDOB,
		Address:        r.Address,
		City:           r.City,
		MembershipType: r.MembershipType,
		MembershipPlan: r.MembershipPlan,
		Goals:          r.Goals,
		StartDate:      start,
		EndDate:        end,
	}
}

type attendanceRequest struct {
	Method AttendanceMethod `json:"method" validate:"required,oneof=QR MANUAL"`
	Date   *time.Time       `json:"date"`
}

type paymentRequest struct {
	Amount float64       `json:"amount" validate:"gt=0"`
	Method string        `json:"method" validate:"required,max=40"`
	Status PaymentStatus `json:"status" validate:"omitempty,oneof=SUCCESS PENDING FAILED"`
	Date   *time.Time    `json:"date"`
}
