package xgdata

import (
	"fmt"

	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

// reverbTime is the reverb time table in seconds, raw 0-69.
var reverbTime = func() []float64 {
	out := make([]float64, 0, 70)
	for i := 0; i < 48; i++ { // 0.3 - 5.0 by 0.1
		out = append(out, float64(3+i)/10)
	}
	for i := 1; i <= 10; i++ { // 5.5 - 10.0 by 0.5
		out = append(out, 5+float64(i)/2)
	}
	for i := 11; i <= 20; i++ { // 11 - 20 by 1
		out = append(out, float64(i))
	}
	return append(out, 25, 30)
}()

// eqFrequency is the EQ and filter frequency table in Hz, raw 0-60.
var eqFrequency = []float64{
	20, 22, 25, 28, 32, 36, 40, 45, 50, 56,
	63, 70, 80, 90, 100, 110, 125, 140, 160, 180,
	200, 225, 250, 280, 315, 355, 400, 450, 500, 560,
	630, 700, 800, 900, 1000, 1100, 1200, 1400, 1600, 1800,
	2000, 2200, 2500, 2800, 3200, 3600, 4000, 4500, 5000, 5600,
	6300, 7000, 8000, 9000, 10000, 11000, 12000, 14000, 16000, 18000,
	20000,
}

// Converters shared by many descriptors.
var (
	convReverbTime  = xgparam.Lookup{Values: reverbTime}
	convFrequency   = xgparam.Lookup{Values: eqFrequency}
	convCenter64    = xgparam.Centered(64)
	convInitDelay   = xgparam.Linear{Scale: 1.575, Offset: 0.1}
	convDelayTenths = xgparam.Linear{Scale: 0.1}
	convLFO         = xgparam.Linear{Scale: 0.315}
	convWidth       = xgparam.Linear{Scale: 0.1}
	convMasterTune  = xgparam.Linear{Scale: 0.1, Offset: -102.4}
	convDetune      = xgparam.Linear{Scale: 0.1, Offset: -12.8}
	convProgram     = xgparam.Linear{Scale: 1, Offset: 1}
)

// Enumerators shared by many descriptors.
var (
	enumOffOn      = xgparam.Labels{Names: []string{"Off", "On"}}
	enumPan        = xgparam.EnumFunc(panLabel)
	enumRandomPan  = xgparam.EnumFunc(randomPanLabel)
	enumDryWet     = xgparam.EnumFunc(dryWetLabel)
	enumBalance    = xgparam.EnumFunc(balanceLabel)
	enumChannel    = xgparam.EnumFunc(channelLabel)
	enumMonoPoly   = xgparam.Labels{Names: []string{"Mono", "Poly"}}
	enumKeyAssign  = xgparam.Labels{Names: []string{"Single", "Multi", "Inst"}}
	enumDrumAssign = xgparam.Labels{Names: []string{"Single", "Multi"}}
	enumPartMode   = xgparam.Labels{Names: []string{"Normal", "Drum", "DrumS1", "DrumS2", "DrumS3", "DrumS4"}}
	enumConnection = xgparam.Labels{Names: []string{"Insertion", "System"}}
	enumInputMode  = xgparam.Labels{Names: []string{"Mono", "Stereo"}}
	enumInput      = xgparam.Labels{Names: []string{"L", "R", "L&R"}}
	enumPart       = xgparam.EnumFunc(partLabel)
)

func panLabel(u uint32) (string, bool) {
	switch {
	case u < 64:
		return fmt.Sprintf("L%d", 64-u), true
	case u == 64:
		return "C", true
	default:
		return fmt.Sprintf("R%d", u-64), true
	}
}

func randomPanLabel(u uint32) (string, bool) {
	if u == 0 {
		return "Random", true
	}
	return panLabel(u)
}

func dryWetLabel(u uint32) (string, bool) {
	switch {
	case u < 64:
		return fmt.Sprintf("D%d>W", 64-u), true
	case u == 64:
		return "D=W", true
	default:
		return fmt.Sprintf("D<W%d", u-64), true
	}
}

func balanceLabel(u uint32) (string, bool) {
	switch {
	case u < 64:
		return fmt.Sprintf("E%d>R", 64-u), true
	case u == 64:
		return "E=R", true
	default:
		return fmt.Sprintf("E<R%d", u-64), true
	}
}

func channelLabel(u uint32) (string, bool) {
	if u < 16 {
		return fmt.Sprintf("Ch%d", u+1), true
	}
	if u == 0x7F {
		return "Off", true
	}
	return "", false
}

func partLabel(u uint32) (string, bool) {
	if u < 16 {
		return fmt.Sprintf("Part %d", u+1), true
	}
	if u == 0x7F {
		return "Off", true
	}
	return "", false
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName renders a MIDI note number the Yamaha way, where note 60 is C3.
func NoteName(note uint8) string {
	return fmt.Sprintf("%s%d", noteNames[note%12], int(note)/12-2)
}
