package domain

import "time"

// MentorFeedback is one feedback entry a mentor has given to a team.
type MentorFeedback struct {
	TeamName string    `msgpack:"team_name"`
	Content  string    `msgpack:"content"`
	At       time.Time `msgpack:"at"`
}

// Mentor is keyed by ID in the mentor registry. Names are not unique.
type Mentor struct {
	ID            string           `msgpack:"id"`
	Name          string           `msgpack:"name" validate:"required"`
	Specialty     string           `msgpack:"specialty"`
	FeedbackGiven []MentorFeedback `msgpack:"feedback_given"`
}

// NewMentor builds a Mentor with a fresh id and no feedback history.
func NewMentor(name, specialty string) Mentor {
	return Mentor{
		ID:        NewID(),
		Name:      name,
		Specialty: specialty,
	}
}
