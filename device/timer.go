package device

// WaveformMode is the closed set of counting modes a timer can run.
// Encoded as a tagged variant per spec.md §9's design note, not a raw
// integer, so a missing case is a compile-time switch warning rather
// than silent fallthrough.
type WaveformMode uint8

const (
	WGMNormal WaveformMode = iota
	WGMCTC
	WGMFastPWM
	WGMPhaseCorrectPWM
	WGMPhaseFreqCorrectPWM
)

// TopSource names where a timer's TOP value comes from in a given mode.
type TopSource uint8

const (
	TopFixedMax TopSource = iota // 0xFF or 0xFFFF depending on Width
	TopOCRA
	TopICR
)

// OCRUpdatePoint is the closed set of points in the count cycle at which
// the double-buffered OCR "pending" value is copied into "visible".
type OCRUpdatePoint uint8

const (
	UpdateImmediate OCRUpdatePoint = iota
	UpdateAtBOTTOM
	UpdateAtTOP
	UpdateAtMAX
	UpdateAtCompareMatch
)

// CountDirection distinguishes the up-counting-only modes from the
// up-then-down phase-correct modes.
type CountDirection uint8

const (
	CountUp CountDirection = iota
	CountDown
)

// CompareAction is the closed set of pin actions the COMnx bits can
// select at a compare match.
type CompareAction uint8

const (
	ComDisconnected CompareAction = iota
	ComToggle
	ComClear
	ComSet
	// PWM-specific dual actions: clear going up / set going down, and the
	// reverse, selected by COM bits in the PWM modes.
	ComClearUpSetDown
	ComSetUpClearDown
)

// ChannelConfig is one output-compare channel (A or B) of a timer.
type ChannelConfig struct {
	Name string // "A" or "B"

	OCRAddr   uint16 // low byte; OCRAddr+1 is the high byte for 16-bit timers
	OCRWidth  int    // 1 or 2 bytes

	COM SplitField // 2-bit compare output mode field

	CompareFlag  Bit // OCFnx in TIFR
	CompareEnable Bit // OCIEnx in TIMSK
	Vector       string

	PinDDR  Bit // data-direction bit gating the physical pin drive
	PinPort Bit // the actual pin output bit toggled/set/cleared
}

// TimerConfig is the complete static wiring of one 8- or 16-bit
// timer/counter peripheral.
type TimerConfig struct {
	Name  string
	Width int // 1 (8-bit) or 2 (16-bit) bytes for TCNT/ICR/OCR

	CounterAddr uint16 // low byte; CounterAddr+1 is high byte for 16-bit timers

	CS SplitField // clock-select bits (CSn2:0)

	WGM SplitField // waveform-generation mode bits, possibly split across two registers

	ICRAddr uint16 // input-capture register, 16-bit timers only

	OverflowFlag   Bit
	OverflowEnable Bit
	OverflowVector string

	CaptureFlag   Bit
	CaptureEnable Bit
	CaptureVector string
	CapturePin    Bit // ICPn pin sampled for edge detection
	CaptureEdgeRising Bit // ICESn: true = capture on rising edge

	ExternalClockPin Bit // Tn pin, sampled when CS selects external clock

	Channels []ChannelConfig

	// ModeTable maps each WaveformMode to its TOP source, OCR update point
	// and TOV-set point and count direction. Built once at profile
	// construction per spec.md §9 ("static function-table... build it at
	// device-profile construction, not at each timer tick").
	ModeTable map[WaveformMode]ModeBehavior
}

// ModeBehavior is one row of the per-timer WGM action table.
type ModeBehavior struct {
	Top       TopSource
	Update    OCRUpdatePoint
	Direction CountDirection
	// TOVAtTop: if true TOV is raised when the counter reaches TOP (CTC/
	// Fast-PWM style); if false it is raised at BOTTOM (phase-correct
	// style) or at the Normal mode's MAX->0 wraparound, which is handled
	// as TOVAtTop=true with Top=TopFixedMax.
	TOVAtTop bool
}

// ClockSelect decodes the CSn[2:0] encoding of spec.md §4.2.
type ClockSelect uint8

const (
	ClockStopped ClockSelect = 0
	ClockDiv1    ClockSelect = 1
	ClockDiv8    ClockSelect = 2
	ClockDiv64   ClockSelect = 3
	ClockDiv256  ClockSelect = 4
	ClockDiv1024 ClockSelect = 5
	ClockExtFall ClockSelect = 6
	ClockExtRise ClockSelect = 7
)

// Prescaler returns the divisor for an internal clock select, or 0 for
// stopped/external sources.
func (c ClockSelect) Prescaler() int {
	switch c {
	case ClockDiv1:
		return 1
	case ClockDiv8:
		return 8
	case ClockDiv64:
		return 64
	case ClockDiv256:
		return 256
	case ClockDiv1024:
		return 1024
	default:
		return 0
	}
}

func (c ClockSelect) IsExternal() bool {
	return c == ClockExtFall || c == ClockExtRise
}
