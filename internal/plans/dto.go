package plans

type workoutRequest struct {
	MemberID  int64      `json:"memberId" validate:"required,gt=0"`
	Title     string     `json:"title" validate:"required,max=120"`
	Notes     string     `json:"notes" validate:"max=5000"`
	Exercises []Exercise `json:"exercises" validate:"max=100,dive"`
}

type dietRequest struct {
	MemberID int64  `json:"memberId" validate:"required,gt=0"`
	Title    string `json:"title" validate:"required,max=120"`
	Notes    string `json:"notes" validate:"max=5000"`
	Meals    []Meal `json:"meals" validate:"max=50,dive"`
}
