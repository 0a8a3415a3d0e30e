package models

// Cue is one subtitle entry. Start and End are offsets in seconds.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}
