package models

// Course represents a catalog entry. A course fetched twice under the same
// ID is a full replacement, never a merge.
type Course struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	ShortDescription string   `json:"short_description"`
	Description      string   `json:"description"`
	Instructor       string   `json:"instructor"`
	Category         string   `json:"category"`
	DurationHours    int      `json:"duration_hours"`
	Rating           *float64 `json:"rating,omitempty"`
	ImageURL         *string  `json:"image_url,omitempty"`
	Modules          []Module `json:"modules,omitempty"`
	Enrolled         *bool    `json:"enrolled,omitempty"`
}

// Module is an ordered sub-unit of a course. Slice order is curriculum
// order and must be preserved.
type Module struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	DurationMinutes int      `json:"duration_minutes"`
	Lessons         []Lesson `json:"lessons"`
}

// Lesson is an atomic content unit inside a module.
type Lesson struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	VideoURL        *string `json:"video_url,omitempty"`
	MaterialURL     *string `json:"material_url,omitempty"`
	Completed       *bool   `json:"completed,omitempty"`
}
