// Package members handles gym memberships and the records kept per member:
// attendance, payments and owner statistics.
package members

import (
	"errors"
	"time"

	"github.com/gymcore/gymcore/internal/gyms"
	"github.com/gymcore/gymcore/internal/users"
)

var (
	ErrNotFound  = errors.New("member not found")
	ErrDuplicate = errors.New("user is already a member of this gym")
	ErrForbidden = errors.New("not allowed to access this member")
)

// DateLayout is the wire format of membership dates.
const DateLayout = "2006-01-02"

// MembershipType classifies a membership.
type MembershipType string

const (
	MembershipFree     MembershipType = "FREE"
	MembershipPaid     MembershipType = "PAID"
	MembershipPersonal MembershipType = "PERSONAL"
)

// Status of a membership.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// Member is a user's membership of one gym.
type Member struct {
	ID             int64          `json:"id"`
	GymID          int64          `json:"gymId"`
	UserID         int64          `json:"userId"`
	MembershipType MembershipType `json:"membershipType"`
	MembershipPlan string         `json:"membershipPlan"`
	Goals          []string       `json:"goals"`
	Address        *string        `json:"address"`
	StartDate      time.Time      `json:"startDate"`
	EndDate        time.Time      `json:"endDate"`
	Status         Status         `json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
	User           *users.User    `json:"user,omitempty"`
	Gym            *gyms.Gym      `json:"gym,omitempty"`
}

// ActiveOn reports whether the membership counts as active on day.
func (m *Member) ActiveOn(day time.Time) bool {
	return m.Status == StatusActive && !m.EndDate.Before(truncateDay(day))
}

// NewMember carries the fields to insert a membership.
type NewMember struct {
	GymID          int64
	UserID         int64
	MembershipType MembershipType
	MembershipPlan string
	Goals          []string
	Address        *string
	StartDate      time.Time
	EndDate        time.Time
}

// AttendanceMethod is how a visit was recorded.
type AttendanceMethod string

const (
	AttendanceQR     AttendanceMethod = "QR"
	AttendanceManual AttendanceMethod = "MANUAL"
)

// Attendance is one recorded visit.
type Attendance struct {
	ID       int64            `json:"id"`
	MemberID int64            `json:"memberId"`
	Date     time.Time        `json:"date"`
	Method   AttendanceMethod `json:"method"`
	Status   string           `json:"status"`
}

// PaymentStatus of a payment.
type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentPending PaymentStatus = "PENDING"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Payment is money received from a member.
type Payment struct {
	ID       int64         `json:"id"`
	MemberID int64         `json:"memberId"`
	Amount   float64       `json:"amount"`
	Method   string        `json:"method"`
	Status   PaymentStatus `json:"status"`
	Date     time.Time     `json:"date"`
}

// OwnerStats summarises the gyms of one owner.
type OwnerStats struct {
	TotalRevenue  float64 `json:"totalRevenue"`
	ActiveMembers int     `json:"activeMembers"`
}

// Permission selects who may touch a member's records.
type Permission int

const (
	// OwnerOnly admits the owner of the member's gym.
	OwnerOnly Permission = iota
	// OwnerOrSelf also admits the member.
	OwnerOrSelf
	// Staff admits the owner and trainers of the gym.
	Staff
	// StaffOrSelf admits staff and the member.
	StaffOrSelf
)

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
