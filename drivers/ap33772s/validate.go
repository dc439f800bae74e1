package ap33772s

import "errors"

var (
	// Request validation results. A request that fails any check writes
	// nothing to the device.
	ErrInvalidInput         = errors.New("ap33772s: invalid input")
	ErrSlotOutOfRange       = errors.New("ap33772s: pdo slot out of range")
	ErrInvalidKind          = errors.New("ap33772s: profile kind does not match request")
	ErrCurrentOutOfRange    = errors.New("ap33772s: current out of range")
	ErrVoltageOutOfRange    = errors.New("ap33772s: voltage out of range")
	ErrVoltageFloorReserved = errors.New("ap33772s: profile voltage floor is reserved")

	// Register read-back that does not decode.
	ErrInvalidCode = errors.New("ap33772s: unrecognised register code")

	ErrNotConfigured = errors.New("ap33772s: profiles not read yet")
)

// checkCurrent validates mA against a profile's current ceiling and returns
// the code to request.
func checkCurrent(p PDO, mA int) (uint8, error) {
	code, ok := CurrentCode(mA)
	if !ok || code > p.CurrentMaxCode() {
		return 0, ErrCurrentOutOfRange
	}
	return code, nil
}

// checkVoltage validates target mV against a programmable profile's window.
func checkVoltage(p PDO, mV int) error {
	floor, ok := p.VoltageMin_mV()
	if !ok {
		return ErrVoltageFloorReserved
	}
	if mV < floor || mV > p.VoltageMax_mV() {
		return ErrVoltageOutOfRange
	}
	return nil
}
