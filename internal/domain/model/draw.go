package model

import "time"

// DrawRecord is persisted on a completed round so the draw can be verified later.
type DrawRecord struct {
	WinningNumber     int       `json:"winningNumber"`
	AlgorithmVersion  string    `json:"algorithmVersion"`
	Seed              string    `json:"seed"`
	ParticipationHash string    `json:"participationHash"`
	ParticipantCount  int       `json:"participantCount"`
	Timestamp         time.Time `json:"timestamp"`
	Entropy           string    `json:"entropy"`
	TotalShares       int       `json:"totalShares"`
	NumberOffset      int       `json:"numberOffset"`
}
