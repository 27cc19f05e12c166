package dashboard

// Tone is the visual classification of a reading.
type Tone int

const (
	ToneOK Tone = iota
	ToneWarning
	ToneCritical
)

const (
	warningThreshold  = 60.0
	criticalThreshold = 85.0
)

func (t Tone) String() string {
	switch t {
	case ToneOK:
		return "ok"
	case ToneWarning:
		return "warning"
	default:
		return "critical"
	}
}

// Classify maps a utilization percentage to a tone. The classification is
// closed: zero, negative, NaN and anything from 85 up are critical.
func Classify(value float64) Tone {
	switch {
	case value > 0 && value < warningThreshold:
		return ToneOK
	case value >= warningThreshold && value < criticalThreshold:
		return ToneWarning
	default:
		return ToneCritical
	}
}
