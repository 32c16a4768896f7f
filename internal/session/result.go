package session

import "net/http"

// ConnectResult is the outcome of Connect. Device-side rejections are
// expected operational results, not errors.
type ConnectResult int

const (
	Success ConnectResult = iota
	AlreadyConnected
	WrongPassword
	DeviceAlreadyInUse
	Timeout
	NoDeviceFound
	SocketFailure
)

func (r ConnectResult) String() string {
	switch r {
	case Success:
		return "SUCCESS"
	case AlreadyConnected:
		return "ALREADY_CONNECTED"
	case WrongPassword:
		return "WRONG_UDP_PASSWORD"
	case DeviceAlreadyInUse:
		return "DEVICE_ALREADY_IN_USE"
	case Timeout:
		return "TIMEOUT"
	case NoDeviceFound:
		return "NO_COMPATIBLE_DEVICE_FOUND"
	case SocketFailure:
		return "SOCKET_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// Message is a human readable description of the outcome
func (r ConnectResult) Message() string {
	switch r {
	case Success:
		return "Connection successful."
	case AlreadyConnected:
		return "Already connected to the device."
	case WrongPassword:
		return "Connection failed: Incorrect UDP password."
	case DeviceAlreadyInUse:
		return "Device is already in use by another client."
	case Timeout:
		return "Connection attempt timed out."
	case NoDeviceFound:
		return "No compatible SystaComfort device found."
	case SocketFailure:
		return "Failed to open the UDP socket."
	default:
		return "Unknown connection error state."
	}
}

// HTTPStatus maps the outcome to the status code the REST front-end returns
func (r ConnectResult) HTTPStatus() int {
	switch r {
	case Success:
		return http.StatusOK
	case AlreadyConnected, DeviceAlreadyInUse:
		return http.StatusConflict
	case WrongPassword:
		return http.StatusUnauthorized
	case Timeout:
		return http.StatusRequestTimeout
	case NoDeviceFound:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// State is the externally visible connection state
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// MarshalText renders states by name in JSON
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
