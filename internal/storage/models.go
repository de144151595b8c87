package storage

import "time"

// Session is one connection to a lobby server, from dial to teardown.
type Session struct {
	ID            string `gorm:"primaryKey;type:uuid"`
	ServerURL     string
	HostID        uint32
	ServerVersion uint32
	StartedAt     time.Time
	AcceptedAt    *time.Time
	EndedAt       *time.Time
	EndReason     string
	Races         []RaceResult `gorm:"constraint:OnDelete:CASCADE"`
}

type RaceResult struct {
	ID              uint   `gorm:"primaryKey"`
	SessionID       string `gorm:"type:uuid;index"`
	Track           string
	Laps            uint8
	Reverse         bool
	FastestLapTicks uint32
	FastestKart     string
	FinishedAt      time.Time
}
