package model

// Mode selects which fixed pipeline the dispatcher executes
type Mode string

const (
	// ModeCOVIDx downloads the source datasets and combines them into COVIDx
	ModeCOVIDx Mode = "covidx"
)

// IsSupported checks if the mode is one the dispatcher knows how to run
func (m Mode) IsSupported() bool {
	switch m {
	case ModeCOVIDx:
		return true
	default:
		return false
	}
}
