// Package classes schedules gym classes and takes bookings for them.
package classes

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("class not found")
	ErrForbidden       = errors.New("not allowed to manage this class")
	ErrNotGymTrainer   = errors.New("trainer does not work at this gym")
	ErrClassStarted    = errors.New("class has already started")
	ErrClassFull       = errors.New("class is full")
	ErrAlreadyBooked   = errors.New("class already booked")
	ErrBookingNotFound = errors.New("booking not found")
	ErrNotBookingOwner = errors.New("booking belongs to another user")
)

// Class is a scheduled session at a gym.
type Class struct {
	ID          int64     `json:"id"`
	GymID       int64     `json:"gymId"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	TrainerID   *int64    `json:"trainerId"`
	Capacity    int       `json:"capacity"`
	Schedule    time.Time `json:"schedule"`
	Duration    int       `json:"duration"`
	CreatedAt   time.Time `json:"createdAt"`
	BookedCount int       `json:"bookedCount"`
}

// Full reports whether every spot is taken.
func (c *Class) Full() bool {
	return c.BookedCount >= c.Capacity
}

// BookingStatus of a booking.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is a user's spot in a class.
type Booking struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"userId"`
	ClassID   int64         `json:"classId"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	Class     *Class        `json:"class,omitempty"`
}
