// Package plans stores workout and diet plans written for gym members.
package plans

import (
	"bytes"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// Exercise is one entry of a workout plan.
type Exercise struct {
	Name   string   `json:"name" validate:"required,max=120"`
	Sets   int      `json:"sets" validate:"gte=0,lte=100"`
	Reps   int      `json:"reps" validate:"gte=0,lte=1000"`
	Weight *float64 `json:"weight,omitempty" validate:"omitempty,gte=0"`
	Notes  string   `json:"notes,omitempty" validate:"max=500"`
}

// Meal is one entry of a diet plan.
type Meal struct {
	Name     string   `json:"name" validate:"required,max=120"`
	Time     string   `json:"time,omitempty" validate:"max=40"`
	Items    []string `json:"items" validate:"max=50,dive,max=200"`
	Calories *int     `json:"calories,omitempty" validate:"omitempty,gte=0"`
}

// WorkoutPlan is a list of exercises for a member.
type WorkoutPlan struct {
	ID        int64      `json:"id"`
	MemberID  int64      `json:"memberId"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes"`
	NotesHTML string     `json:"notesHtml"`
	Exercises []Exercise `json:"exercises"`
	CreatedBy *int64     `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
}

// DietPlan is a list of meals for a member.
type DietPlan struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"memberId"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes"`
	NotesHTML string    `json:"notesHtml"`
	Meals     []Meal    `json:"meals"`
	CreatedBy *int64    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// Raw HTML in notes is dropped because WithUnsafe is not set.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderNotes converts markdown notes to HTML.
func RenderNotes(src string) string {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return ""
	}
	return buf.String()
}
