package device

// Registry mirrors the teacher's flat deviceTypes map of constructors
// (see hardware.go's deviceTypes), keyed by the device name recognized
// in the `mcu` configuration line.
var Registry = map[string]func() *Profile{
	"atmega328p": NewATmega328P,
	"atmega2560": NewATmega2560,
}

// Lookup returns the named profile, or nil if the device is unknown —
// that's a configuration-class error at the caller.
func Lookup(name string) *Profile {
	if ctor, ok := Registry[name]; ok {
		return ctor()
	}
	return nil
}

// sfr is a tiny helper for building I/O-space addresses: the SFR window
// starts right after the 32 general-purpose registers.
const sfrBase = 0x20

func sfr(off uint16) uint16 { return sfrBase + off }

func ext(off uint16) uint16 { return 0x60 + off }

func modeTable8(ocra, max TopSource) map[WaveformMode]ModeBehavior {
	return map[WaveformMode]ModeBehavior{
		WGMNormal:              {Top: max, Update: UpdateImmediate, Direction: CountUp, TOVAtTop: true},
		WGMCTC:                 {Top: ocra, Update: UpdateImmediate, Direction: CountUp, TOVAtTop: true},
		WGMFastPWM:             {Top: max, Update: UpdateAtBOTTOM, Direction: CountUp, TOVAtTop: true},
		WGMPhaseCorrectPWM:     {Top: max, Update: UpdateAtTOP, Direction: CountDown, TOVAtTop: false},
		WGMPhaseFreqCorrectPWM: {Top: ocra, Update: UpdateAtBOTTOM, Direction: CountDown, TOVAtTop: false},
	}
}

// NewATmega328P builds the profile for the classic 8-bit, 16-bit-PC,
// three-timer ATmega328P: Timer0 and Timer2 are 8-bit, Timer1 is 16-bit
// with an input-capture channel. Register addresses follow the
// datasheet's memory map.
func NewATmega328P() *Profile {
	p := &Profile{
		Name:        "atmega328p",
		Signature:   [3]byte{0x1E, 0x95, 0x0F},
		FlashSize:   32 * 1024,
		FlashStart:  0,
		FlashEnd:    32*1024 - 1,
		SPMPageSize: 128,
		SPMCSRAddr:  sfr(0x37),
		DMSize:      0x900,
		IOStart:     0x20,
		IOEnd:       0xFF,
		RAMStart:    0x100,
		RAMEnd:      0x8FF,
		PCWidth:     PC16,
		ReducedCore: false,
		HasRAMPZ:    false,
		HasEIND:     false,
		SREGAddr:    sfr(0x3F),
		SPLAddr:     sfr(0x3D),
		SPHAddr:     sfr(0x3E),
		IVTBase:     0,
		EntryStride: 4,
		ResetVector: 0,
		ValidCKSEL:  []uint8{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07},
	}

	tifr0 := sfr(0x15)
	timsk0 := ext(0x0E)
	tccr0a := ext(0x04)
	tccr0b := ext(0x05)

	tifr1 := sfr(0x16)
	timsk1 := ext(0x0F)
	tccr1a := ext(0x60)
	tccr1b := ext(0x61)

	tifr2 := sfr(0x17)
	timsk2 := ext(0x10)
	tccr2a := ext(0x70)
	tccr2b := ext(0x71)

	ddrb := sfr(0x04)
	portb := sfr(0x05)
	ddrd := sfr(0x0A)
	portd := sfr(0x0B)

	t0 := TimerConfig{
		Name:        "Timer0",
		Width:       1,
		CounterAddr: ext(0x06),
		CS:          SplitField{Parts: []Field{{Addr: tccr0b, Shift: 0, Mask: 0x07}}},
		WGM: SplitField{Parts: []Field{
			{Addr: tccr0a, Shift: 0, Mask: 0x03},
			{Addr: tccr0b, Shift: 3, Mask: 0x08},
		}},
		OverflowFlag:     Bit{Addr: tifr0, Mask: 0x01},
		OverflowEnable:   Bit{Addr: timsk0, Mask: 0x01},
		OverflowVector:   "TIMER0_OVF",
		ExternalClockPin: Bit{Addr: portd, Mask: 1 << 4}, // T0 = PD4
		Channels: []ChannelConfig{
			{
				Name:          "A",
				OCRAddr:       ext(0x07),
				OCRWidth:      1,
				COM:           SplitField{Parts: []Field{{Addr: tccr0a, Shift: 6, Mask: 0xC0}}},
				CompareFlag:   Bit{Addr: tifr0, Mask: 0x02},
				CompareEnable: Bit{Addr: timsk0, Mask: 0x02},
				Vector:        "TIMER0_COMPA",
				PinDDR:        Bit{Addr: ddrd, Mask: 1 << 6},
				PinPort:       Bit{Addr: portd, Mask: 1 << 6},
			},
			{
				Name:          "B",
				OCRAddr:       ext(0x08),
				OCRWidth:      1,
				COM:           SplitField{Parts: []Field{{Addr: tccr0a, Shift: 4, Mask: 0x30}}},
				CompareFlag:   Bit{Addr: tifr0, Mask: 0x04},
				CompareEnable: Bit{Addr: timsk0, Mask: 0x04},
				Vector:        "TIMER0_COMPB",
				PinDDR:        Bit{Addr: ddrd, Mask: 1 << 5},
				PinPort:       Bit{Addr: portd, Mask: 1 << 5},
			},
		},
		ModeTable: modeTable8(TopOCRA, TopFixedMax),
	}

	t2 := t0
	t2.Name = "Timer2"
	t2.CounterAddr = ext(0x72)
	t2.CS = SplitField{Parts: []Field{{Addr: tccr2b, Shift: 0, Mask: 0x07}}}
	t2.WGM = SplitField{Parts: []Field{
		{Addr: tccr2a, Shift: 0, Mask: 0x03},
		{Addr: tccr2b, Shift: 3, Mask: 0x08},
	}}
	t2.OverflowFlag = Bit{Addr: tifr2, Mask: 0x01}
	t2.OverflowEnable = Bit{Addr: timsk2, Mask: 0x01}
	t2.OverflowVector = "TIMER2_OVF"
	t2.ExternalClockPin = Bit{} // Timer2 has no external clock input on this device
	t2.Channels = []ChannelConfig{
		{
			Name: "A", OCRAddr: ext(0x73), OCRWidth: 1,
			COM:           SplitField{Parts: []Field{{Addr: tccr2a, Shift: 6, Mask: 0xC0}}},
			CompareFlag:   Bit{Addr: tifr2, Mask: 0x02},
			CompareEnable: Bit{Addr: timsk2, Mask: 0x02},
			Vector:        "TIMER2_COMPA",
			PinDDR:        Bit{Addr: ddrb, Mask: 1 << 3},
			PinPort:       Bit{Addr: portb, Mask: 1 << 3},
		},
		{
			Name: "B", OCRAddr: ext(0x74), OCRWidth: 1,
			COM:           SplitField{Parts: []Field{{Addr: tccr2a, Shift: 4, Mask: 0x30}}},
			CompareFlag:   Bit{Addr: tifr2, Mask: 0x04},
			CompareEnable: Bit{Addr: timsk2, Mask: 0x04},
			Vector:        "TIMER2_COMPB",
			PinDDR:        Bit{Addr: ddrd, Mask: 1 << 3},
			PinPort:       Bit{Addr: portd, Mask: 1 << 3},
		},
	}
	t2.ModeTable = modeTable8(TopOCRA, TopFixedMax)

	t1 := TimerConfig{
		Name:        "Timer1",
		Width:       2,
		CounterAddr: ext(0x64),
		ICRAddr:     ext(0x66),
		CS:          SplitField{Parts: []Field{{Addr: tccr1b, Shift: 0, Mask: 0x07}}},
		WGM: SplitField{Parts: []Field{
			{Addr: tccr1a, Shift: 0, Mask: 0x03},
			{Addr: tccr1b, Shift: 3, Mask: 0x18},
		}},
		OverflowFlag:      Bit{Addr: tifr1, Mask: 0x01},
		OverflowEnable:    Bit{Addr: timsk1, Mask: 0x01},
		OverflowVector:    "TIMER1_OVF",
		CaptureFlag:       Bit{Addr: tifr1, Mask: 0x20},
		CaptureEnable:     Bit{Addr: timsk1, Mask: 0x20},
		CaptureVector:     "TIMER1_CAPT",
		CapturePin:        Bit{Addr: portb, Mask: 1 << 0}, // ICP1 = PB0
		CaptureEdgeRising: Bit{Addr: tccr1b, Mask: 1 << 6}, // ICES1
		ExternalClockPin:  Bit{Addr: portd, Mask: 1 << 5},  // T1 = PD5
		Channels: []ChannelConfig{
			{
				Name: "A", OCRAddr: ext(0x68), OCRWidth: 2,
				COM:           SplitField{Parts: []Field{{Addr: tccr1a, Shift: 6, Mask: 0xC0}}},
				CompareFlag:   Bit{Addr: tifr1, Mask: 0x02},
				CompareEnable: Bit{Addr: timsk1, Mask: 0x02},
				Vector:        "TIMER1_COMPA",
				PinDDR:        Bit{Addr: ddrb, Mask: 1 << 1},
				PinPort:       Bit{Addr: portb, Mask: 1 << 1},
			},
			{
				Name: "B", OCRAddr: ext(0x6A), OCRWidth: 2,
				COM:           SplitField{Parts: []Field{{Addr: tccr1a, Shift: 4, Mask: 0x30}}},
				CompareFlag:   Bit{Addr: tifr1, Mask: 0x04},
				CompareEnable: Bit{Addr: timsk1, Mask: 0x04},
				Vector:        "TIMER1_COMPB",
				PinDDR:        Bit{Addr: ddrb, Mask: 1 << 2},
				PinPort:       Bit{Addr: portb, Mask: 1 << 2},
			},
		},
		ModeTable: map[WaveformMode]ModeBehavior{
			WGMNormal:              {Top: TopFixedMax, Update: UpdateImmediate, Direction: CountUp, TOVAtTop: true},
			WGMCTC:                 {Top: TopOCRA, Update: UpdateImmediate, Direction: CountUp, TOVAtTop: true},
			WGMFastPWM:             {Top: TopICR, Update: UpdateAtBOTTOM, Direction: CountUp, TOVAtTop: true},
			WGMPhaseCorrectPWM:     {Top: TopICR, Update: UpdateAtTOP, Direction: CountDown, TOVAtTop: false},
			WGMPhaseFreqCorrectPWM: {Top: TopICR, Update: UpdateAtBOTTOM, Direction: CountDown, TOVAtTop: false},
		},
	}

	p.Timers = []TimerConfig{t0, t1, t2}
	p.Vectors = standardVectors328(p, tifr0, tifr1, tifr2, timsk0, timsk1, timsk2)
	return p
}

func standardVectors328(p *Profile, tifr0, tifr1, tifr2, timsk0, timsk1, timsk2 uint16) []VectorSlot {
	mk := func(name string, idx uint32, raised, enable Bit) VectorSlot {
		return VectorSlot{Name: name, Offset: idx, RaisedBit: raised, EnableBit: enable}
	}
	return []VectorSlot{
		mk("RESET", 0, Bit{}, Bit{}),
		mk("INT0", 1, Bit{}, Bit{}),
		mk("INT1", 2, Bit{}, Bit{}),
		mk("TIMER2_COMPA", 3, Bit{Addr: tifr2, Mask: 0x02}, Bit{Addr: timsk2, Mask: 0x02}),
		mk("TIMER2_COMPB", 4, Bit{Addr: tifr2, Mask: 0x04}, Bit{Addr: timsk2, Mask: 0x04}),
		mk("TIMER2_OVF", 5, Bit{Addr: tifr2, Mask: 0x01}, Bit{Addr: timsk2, Mask: 0x01}),
		mk("TIMER1_CAPT", 6, Bit{Addr: tifr1, Mask: 0x20}, Bit{Addr: timsk1, Mask: 0x20}),
		mk("TIMER1_COMPA", 7, Bit{Addr: tifr1, Mask: 0x02}, Bit{Addr: timsk1, Mask: 0x02}),
		mk("TIMER1_COMPB", 8, Bit{Addr: tifr1, Mask: 0x04}, Bit{Addr: timsk1, Mask: 0x04}),
		mk("TIMER1_OVF", 9, Bit{Addr: tifr1, Mask: 0x01}, Bit{Addr: timsk1, Mask: 0x01}),
		mk("TIMER0_COMPA", 10, Bit{Addr: tifr0, Mask: 0x02}, Bit{Addr: timsk0, Mask: 0x02}),
		mk("TIMER0_COMPB", 11, Bit{Addr: tifr0, Mask: 0x04}, Bit{Addr: timsk0, Mask: 0x04}),
		mk("TIMER0_OVF", 12, Bit{Addr: tifr0, Mask: 0x01}, Bit{Addr: timsk0, Mask: 0x01}),
		mk("SPI_STC", 13, Bit{}, Bit{}),
		mk("USART_RX", 14, Bit{}, Bit{}),
		mk("USART_UDRE", 15, Bit{}, Bit{}),
		mk("USART_TX", 16, Bit{}, Bit{}),
		mk("ADC", 17, Bit{}, Bit{}),
		mk("EE_READY", 18, Bit{}, Bit{}),
		mk("ANALOG_COMP", 19, Bit{}, Bit{}),
		mk("TWI", 20, Bit{}, Bit{}),
		mk("SPM_READY", 21, Bit{}, Bit{}),
	}
}

// NewATmega2560 builds a large-flash profile: 22-bit PC, RAMPZ+EIND
// present, SPM post-increment behavior, exercising the extension-register
// code paths that ATmega328P never touches. The three timers and the
// vector table are the 328P's, reused for brevity; what matters for this
// profile is the PC width and extension registers.
func NewATmega2560() *Profile {
	base := NewATmega328P()
	p := &Profile{
		Name:             "atmega2560",
		Signature:        [3]byte{0x1E, 0x98, 0x01},
		FlashSize:        256 * 1024,
		FlashStart:        0,
		FlashEnd:          256*1024 - 1,
		SPMPageSize:       256,
		SPMPostIncrement:  true,
		SPMCSRAddr:        sfr(0x37),
		DMSize:            0x2200,
		IOStart:           0x20,
		IOEnd:             0x1FF,
		RAMStart:          0x200,
		RAMEnd:            0x21FF,
		PCWidth:           PC22,
		ReducedCore:       false,
		HasRAMPZ:          true,
		HasEIND:           true,
		RAMPZAddr:         sfr(0x3B),
		EINDAddr:          sfr(0x3C),
		SREGAddr:          sfr(0x3F),
		SPLAddr:           sfr(0x3D),
		SPHAddr:           sfr(0x3E),
		IVTBase:           0,
		EntryStride:       4,
		ResetVector:       0,
		ValidCKSEL:        base.ValidCKSEL,
		Timers:            base.Timers,
		Vectors:           base.Vectors,
	}
	return p
}
