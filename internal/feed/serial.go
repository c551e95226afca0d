package feed

import (
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaudRate is used when no baud rate is configured
const DefaultBaudRate = 115200

// OpenSerial opens the serial port the telemetry gateway writes to, 8N1
func OpenSerial(path string, baudRate int) (serial.Port, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("opening serial port '%s': %w", path, err)
	}
	return port, nil
}
