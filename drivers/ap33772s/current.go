package ap33772s

const (
	currentCodeMax_mA  = 5000
	currentCodeBase_mA = 1250
	currentCodeStep_mA = 250
	currentCodeTop     = 15
)

// CurrentCode maps a current in mA onto the 4-bit code used by both PDO
// current_max fields and RDO current_sel. ok is false for inputs outside
// [0, 5000] mA.
//
//	mA < 1250 → 0
//	otherwise → (mA-1250)/250 + 1, capped at 15
func CurrentCode(mA int) (code uint8, ok bool) {
	if mA < 0 || mA > currentCodeMax_mA {
		return 0, false
	}
	if mA < currentCodeBase_mA {
		return 0, true
	}
	c := (mA-currentCodeBase_mA)/currentCodeStep_mA + 1
	if c > currentCodeTop {
		c = currentCodeTop
	}
	return uint8(c), true
}

// CurrentRange returns the inclusive mA band a code stands for. The top code
// ends at 5000 mA; codes above 15 are treated as 15.
func CurrentRange(code uint8) (lo, hi int) {
	if code == 0 {
		return 0, currentCodeBase_mA - 1
	}
	if code > currentCodeTop {
		code = currentCodeTop
	}
	lo = currentCodeBase_mA + int(code-1)*currentCodeStep_mA
	if code == currentCodeTop {
		return lo, currentCodeMax_mA
	}
	return lo, lo + currentCodeStep_mA - 1
}
