//go:build !linux

package hosti2c

func openI2CDev(string) (BusCloser, error) { return nil, ErrUnsupported }
