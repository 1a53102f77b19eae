package classes

import "time"

type createClassRequest struct {
	GymID       int64     `json:"gymId" validate:"required,gt=0"`
	Name        string    `json:"name" validate:"required,min=2,max=120"`
	Description *string   `json:"description" validate:"omitempty,max=1000"`
	TrainerID   *int64    `json:"trainerId" validate:"omitempty,gt=0"`
	Capacity    int       `json:"capacity" validate:"gt=0,lte=500"`
	Schedule    time.Time `json:"schedule" validate:"required"`
	Duration    int       `json:"duration" validate:"gt=0,lte=600"`
}

type bookRequest struct {
	ClassID int64 `json:"classId" validate:"required,gt=0"`
}
