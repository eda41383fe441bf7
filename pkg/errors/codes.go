package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every module.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeNotImplemented     ErrorCode = "COMMON_015"
)

// Extraction module error codes.
const (
	ErrCodeExtractionFailed ErrorCode = "EXT_001"
	ErrCodeModelUnavailable ErrorCode = "EXT_002"
	ErrCodeModelInference   ErrorCode = "EXT_003"
	ErrCodeOCRFailed        ErrorCode = "EXT_004"
	ErrCodeInvalidInput     ErrorCode = "EXT_005"
)

// Prescription / medication module error codes.
const (
	ErrCodePatientNotFound      ErrorCode = "RX_001"
	ErrCodePatientAlreadyExists ErrorCode = "RX_002"
	ErrCodePrescriptionNotFound ErrorCode = "RX_003"
	ErrCodeMedicationNotFound   ErrorCode = "RX_004"
	ErrCodeInvalidIntakeStatus  ErrorCode = "RX_005"
	ErrCodeInvalidTransition    ErrorCode = "RX_006"
)

// Annotation session error codes.
const (
	ErrCodeSessionStorage   ErrorCode = "ANN_001"
	ErrCodeSessionInput     ErrorCode = "ANN_002"
	ErrCodeExportFailed     ErrorCode = "ANN_003"
	ErrCodeSourceDirMissing ErrorCode = "ANN_004"
)

// Aliases kept short for the most frequent call sites.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
)

// HTTPStatus maps an ErrorCode to the HTTP status the interfaces layer should
// respond with. Unknown codes map to 500.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeInvalidInput,
		ErrCodeInvalidIntakeStatus, ErrCodeInvalidTransition:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound, ErrCodePatientNotFound, ErrCodePrescriptionNotFound,
		ErrCodeMedicationNotFound:
		return http.StatusNotFound
	case ErrCodeConflict, ErrCodePatientAlreadyExists:
		return http.StatusConflict
	case ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	case ErrCodeServiceUnavailable, ErrCodeModelUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
