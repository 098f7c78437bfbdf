package models

import "time"

type VideoNote struct {
	ID         string    `json:"id"`
	UserID     int       `json:"user_id"`
	FileName   string    `json:"file_name"`
	Transcript string    `json:"transcript"`
	Summary    string    `json:"summary"`
	Topic      string    `json:"topic"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
