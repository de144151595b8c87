package engine

// Difficulty is the race difficulty the server runs with.
type Difficulty uint8

const (
	DifficultyNovice Difficulty = iota
	DifficultyIntermediate
	DifficultyExpert
	DifficultySuperTux
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyNovice:
		return "Novice"
	case DifficultyIntermediate:
		return "Intermediate"
	case DifficultyExpert:
		return "Expert"
	case DifficultySuperTux:
		return "SuperTux"
	}
	return "Unknown"
}

// GameMode is the server game mode byte.
type GameMode uint8

const (
	ModeNormalRaceGrandPrix GameMode = 0
	ModeTimeTrialGrandPrix  GameMode = 1
	ModeNormalRace          GameMode = 3
	ModeTimeTrial           GameMode = 4
	ModeSoccer              GameMode = 6
	ModeFreeForAll          GameMode = 7
	ModeCaptureTheFlag      GameMode = 8
)

func (m GameMode) String() string {
	switch m {
	case ModeNormalRaceGrandPrix:
		return "Normal Race (Grand Prix)"
	case ModeTimeTrialGrandPrix:
		return "Time Trial (Grand Prix)"
	case ModeNormalRace:
		return "Normal Race"
	case ModeTimeTrial:
		return "Time Trial"
	case ModeSoccer:
		return "Soccer"
	case ModeFreeForAll:
		return "Free-For-All"
	case ModeCaptureTheFlag:
		return "Capture The Flag"
	}
	return "Unknown"
}

func (m GameMode) HasLaps() bool {
	switch m {
	case ModeNormalRaceGrandPrix, ModeTimeTrialGrandPrix, ModeNormalRace, ModeTimeTrial:
		return true
	}
	return false
}

func (m GameMode) IsBattle() bool {
	return m == ModeFreeForAll || m == ModeCaptureTheFlag
}

func (m GameMode) TeamEnabled() bool {
	return m == ModeSoccer || m == ModeCaptureTheFlag
}

// SupportsLiveJoining is true for modes without a fixed finish line.
func (m GameMode) SupportsLiveJoining() bool {
	return m == ModeSoccer || m.IsBattle()
}
