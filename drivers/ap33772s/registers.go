// Package ap33772s provides constants for command registers and bitfields used
// in the operation of the AP33772S USB PD 3.1 sink controller.
package ap33772s

const (
	// 7-bit I2C address.
	AddressDefault = 0x52

	// Source profile table layout.
	NumSlots    = 13
	NumSPRSlots = 7
	pdoBytes    = 2
	pdoBlockLen = NumSlots * pdoBytes

	// --- Command registers ---

	// Status / control
	regStatus = 0x01 // R, clears on read
	regMask   = 0x02 // R/W
	regSystem = 0x06 // W, output switch

	// NTC table (16-bit, ohms)
	regTR25  = 0x0C // W
	regTR50  = 0x0D // W
	regTR75  = 0x0E // W
	regTR100 = 0x0F // W

	// Readouts
	regVoltage = 0x11 // R, 16-bit
	regCurrent = 0x12 // R
	regTemp    = 0x13 // R
	regVReq    = 0x14 // R
	regIReq    = 0x15 // R

	// Protection / selection thresholds
	regVSelMin = 0x16 // R/W
	regUVPThr  = 0x17 // R/W, enumerated
	regOVPThr  = 0x18 // R/W
	regOCPThr  = 0x19 // R/W
	regOTPThr  = 0x1A // R/W
	regDRThr   = 0x1B // R/W

	// PD messaging
	regSrcPDO   = 0x20 // R, 26 bytes
	regPDReqMsg = 0x31 // W, 16-bit RDO
)

// LSB weights for scaled registers.
const (
	voltageLSB_mV = 80
	currentLSB_mA = 24
	tempLSB_C     = 1
	vreqLSB_mV    = 50
	ireqLSB_mA    = 10
	vselMinLSB_mV = 200
	ovpLSB_mV     = 80
	ocpLSB_mA     = 50
	otpLSB_C      = 1
	drLSB_C       = 1
)

// SYSTEM register output switch patterns.
const (
	systemOutputOff = 0b0001_0001
	systemOutputOn  = 0b0001_0010
)

// Status holds STATUS/MASK register bits.
type Status uint8

const (
	StatusStarted Status = 1 << 0
	StatusReady   Status = 1 << 1
	StatusNewPDO  Status = 1 << 2
	StatusUVP     Status = 1 << 3
	StatusOVP     Status = 1 << 4
	StatusOCP     Status = 1 << 5
	StatusOTP     Status = 1 << 6
)

func (s Status) Has(flag Status) bool { return s&flag != 0 }

// StatusNames lists the status bits in register order.
var StatusNames = [...]struct {
	Bit  Status
	Name string
}{
	{StatusStarted, "started"},
	{StatusReady, "ready"},
	{StatusNewPDO, "new_pdo"},
	{StatusUVP, "uvp"},
	{StatusOVP, "ovp"},
	{StatusOCP, "ocp"},
	{StatusOTP, "otp"},
}
