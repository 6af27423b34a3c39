package protocol

import (
	"strconv"
	"strings"
)

// Fixed commands without parameters.
const (
	PauseAI        = "EXPS+++++0"
	ResumeAI       = "EXPS+++++1"
	RebootAIModule = "EXRS++++++"

	LEDOn     = "CHON"
	LEDOff    = "CHOFF"
	BuzzerOn  = "CBON"
	BuzzerOff = "CBOFF"

	QueryBattery     = "CTINFO"
	QueryVoltage     = "CVINFO"
	QuerySonar       = "CUINFO"
	QueryLineSensors = "CLINFO"

	// WifiWaitEnter and WifiWaitExit are written without line terminator.
	WifiWaitEnter = "TCON"
	WifiWaitExit  = "TCOFF"
)

// Command tags.
const (
	TagMotor    = "CM"
	TagRGB      = "CR"
	TagMode     = "EXMO+++++"
	TagColor    = "EXCO+++++"
	TagWifiJoin = "AT+CWJAP_DEF="
)

// FieldWidth is the width of numeric fields, MaxFieldSize the largest
// value fitting in it.
const (
	FieldWidth   = 3
	MaxFieldSize = 999
)

var modeFrames = [NumCarModes]string{
	Manual:       PauseAI,
	AIDrive:      TagMode + "0",
	BallTracking: TagMode + "1",
	PersonDetect: TagMode + "2",
	FaceDetect:   TagMode + "3",
}

// ZeroPad3 renders n as at least 3 decimal digits.
// Values above MaxFieldSize keep their natural width.
func ZeroPad3(n uint) string {
	s := strconv.FormatUint(uint64(n), 10)
	if pad := FieldWidth - len(s); pad > 0 {
		return strings.Repeat("0", pad) + s
	}
	return s
}

func directionBit(d Direction) byte {
	if d == Negative {
		return '0'
	}
	return '1'
}

// EncodeMotor encodes a motor command. Speeds are not range checked.
func EncodeMotor(leftSpeed uint, leftDir Direction, rightSpeed uint, rightDir Direction) string {
	var b strings.Builder
	b.Grow(len(TagMotor) + 2 + FieldWidth*2)
	b.WriteString(TagMotor)
	b.WriteByte(directionBit(leftDir))
	b.WriteByte(directionBit(rightDir))
	b.WriteString(ZeroPad3(leftSpeed))
	b.WriteString(ZeroPad3(rightSpeed))
	return b.String()
}

// EncodeStop encodes a motor command with both wheels stopped.
func EncodeStop() string {
	return EncodeMotor(0, Positive, 0, Positive)
}

// EncodeModeSwitch encodes the command switching the AI behavior.
// Manual pauses the AI model.
func EncodeModeSwitch(mode CarMode) (string, error) {
	if !mode.IsValid() {
		return "", ErrUnknownMode
	}
	return modeFrames[mode], nil
}

// EncodeColorChange encodes the command setting the AI color filter.
func EncodeColorChange(color ColorFilter) (string, error) {
	if !color.IsValid() {
		return "", ErrUnknownColor
	}
	return TagColor + strconv.Itoa(int(color)), nil
}

// RGB is a color of one light.
type RGB struct {
	R, G, B uint8
}

// RGBFromUint32 splits a packed 0xRRGGBB value.
func RGBFromUint32(v uint32) RGB {
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// Uint32 packs the color as 0xRRGGBB.
func (c RGB) Uint32() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// EncodeRGB encodes the command setting both RGB lights, left first.
func EncodeRGB(left, right RGB) string {
	var b strings.Builder
	b.Grow(len(TagRGB) + FieldWidth*6)
	b.WriteString(TagRGB)
	for _, c := range []uint8{left.R, left.G, left.B, right.R, right.G, right.B} {
		b.WriteString(ZeroPad3(uint(c)))
	}
	return b.String()
}

var atQuoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `,`, `\,`)

// EncodeWifiConnect encodes the AT command joining a Wi-Fi network.
// The result must be written without line terminator.
// Backslash, double quote and comma are escaped as the AT firmware expects.
func EncodeWifiConnect(ssid, password string) string {
	return TagWifiJoin + `"` + atQuoter.Replace(ssid) + `","` + atQuoter.Replace(password) + `"`
}
