package parsererror

// Code is a stable, client-visible error code reported per uploaded file.
type Code string

const (
	CodeNoFiles         Code = "NO_FILES"
	CodeInvalidFileType Code = "INVALID_FILE_TYPE"
	CodeFileTooLarge    Code = "FILE_TOO_LARGE"
	CodeEmptyFile       Code = "EMPTY_FILE"
	CodeUnknownBankType Code = "UNKNOWN_BANK_TYPE"
	CodeMissingColumns  Code = "MISSING_COLUMNS"
	CodeTransformError  Code = "TRANSFORM_ERROR"
	CodeProcessingError Code = "PROCESSING_ERROR"
)
