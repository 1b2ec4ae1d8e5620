/**
 * Structured error types for the feed scanner.
 *
 * Errors carry a code, the device serial they occurred on, and an
 * optional cause. Most of them are contained at the loop boundary and
 * only ever surface in logs.
 */

package errors

import (
	"fmt"
	"time"
)

// ErrorCode classifies scanner failures.
type ErrorCode string

const (
	// Transient UI/timing errors (logged, caller degrades)
	ErrorUITimeout    ErrorCode = "UI_TIMEOUT"
	ErrorNodeNotFound ErrorCode = "NODE_NOT_FOUND"

	// OCR and classification errors (treated as "no match")
	ErrorOCRFailed      ErrorCode = "OCR_FAILED"
	ErrorClassifyFailed ErrorCode = "CLASSIFY_FAILED"

	// Configuration errors
	ErrorConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Persistence errors
	ErrorStorageFailed ErrorCode = "STORAGE_FAILED"

	// Device/worker-fatal errors
	ErrorDeviceFailed ErrorCode = "DEVICE_FAILED"
)

// ScanError is a structured scanner error.
type ScanError struct {
	Code      ErrorCode
	Message   string
	Serial    string
	Timestamp time.Time
	Cause     error
}

func (e *ScanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScanError) Unwrap() error {
	return e.Cause
}

// Factory functions for common errors

func NewUITimeoutError(serial, element string, cause error) *ScanError {
	return &ScanError{
		Code:      ErrorUITimeout,
		Message:   fmt.Sprintf("timed out waiting for element: %s", element),
		Serial:    serial,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewOCRFailedError(serial string, cause error) *ScanError {
	return &ScanError{
		Code:      ErrorOCRFailed,
		Message:   "text recognition failed",
		Serial:    serial,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewClassifyFailedError(serial string, cause error) *ScanError {
	return &ScanError{
		Code:      ErrorClassifyFailed,
		Message:   "ad classification failed",
		Serial:    serial,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewConfigInvalidError(detail string) *ScanError {
	return &ScanError{
		Code:      ErrorConfigInvalid,
		Message:   detail,
		Timestamp: time.Now(),
	}
}

func NewStorageFailedError(serial string, cause error) *ScanError {
	return &ScanError{
		Code:      ErrorStorageFailed,
		Message:   "failed to store artifact",
		Serial:    serial,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewDeviceFailedError(serial string, cause error) *ScanError {
	return &ScanError{
		Code:      ErrorDeviceFailed,
		Message:   "device interaction failed",
		Serial:    serial,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}
