package domain

import "time"

// Participant is a hackathon team member. Email is unique within the
// owning Team.
type Participant struct {
	Name  string `msgpack:"name" validate:"required"`
	Email string `msgpack:"email" validate:"required,email"`
}

// Team is keyed by Name in the team registry. Participants are stored
// newest-first: the most recently added participant is at index 0.
type Team struct {
	ID           string        `msgpack:"id"`
	Name         string        `msgpack:"name" validate:"required"`
	Topic        string        `msgpack:"topic"`
	Participants []Participant `msgpack:"participants"`
	CreatedAt    time.Time     `msgpack:"created_at"`
}

// NewTeam builds a Team with a fresh id and no participants.
func NewTeam(name, topic string) Team {
	return Team{
		ID:        NewID(),
		Name:      name,
		Topic:     topic,
		CreatedAt: time.Now().UTC(),
	}
}

// HasEmail reports whether a participant with the given email already
// exists in the team.
func (t Team) HasEmail(email string) bool {
	for _, p := range t.Participants {
		if p.Email == email {
			return true
		}
	}
	return false
}
