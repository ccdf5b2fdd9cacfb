package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// Configuration codes.
const (
	CodeConfigRead      = "X100"
	CodeConfigParse     = "X101"
	CodeInvalidAddr     = "X102"
	CodeInvalidLimit    = "X103"
	CodeInvalidStorage  = "X104"
	CodeMissingBucket   = "X105"
	CodeInvalidDuration = "X106"
	CodeInvalidLogging  = "X107"
	CodeInvalidMetrics  = "X108"
)

// Storage and database codes.
const (
	CodeArchiveDir      = "X200"
	CodeS3Config        = "X201"
	CodeArchiveCleanup  = "X202"
	CodeArchiveNotFound = "X203"
	CodeArchiveDisabled = "X204"
	CodeDatabase        = "X300"
)

// Command codes.
const (
	CodeFileNotFound = "X400"
	CodeIngestFailed = "X401"
	CodeServeFailed  = "X402"
	CodeUnknownCode  = "X403"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (X100-X199)
	// ============================================

	CodeConfigRead: {
		Category:   CategoryConfig,
		Message:    "Cannot read configuration file",
		Detail:     "The configuration file exists but could not be read.",
		Suggestion: "Check the file permissions, or pass --config with another path",
	},
	CodeConfigParse: {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Detail:     "The configuration file is not valid JSON or has fields of the wrong type.",
		Suggestion: "Check that xcel.json is valid JSON",
	},
	CodeInvalidAddr: {
		Category:   CategoryConfig,
		Message:    "Invalid listen address",
		Detail:     "The server address must be host:port with a port between 0 and 65535.",
		Suggestion: "Set XCEL_ADDR to a value like :8080 or 127.0.0.1:8080",
	},
	CodeInvalidLimit: {
		Category:   CategoryConfig,
		Message:    "Invalid maximum file size",
		Detail:     "The maximum upload size must be a positive number of megabytes.",
		Suggestion: "Set MAX_FILE_SIZE_MB to a positive integer, or unset it to use 25",
	},
	CodeInvalidStorage: {
		Category:   CategoryConfig,
		Message:    "Unknown storage backend",
		Detail:     "The archive storage backend must be one of disk, s3 or none.",
		Suggestion: "Set XCEL_STORAGE to disk, s3 or none",
	},
	CodeMissingBucket: {
		Category:   CategoryConfig,
		Message:    "S3 bucket not configured",
		Detail:     "The s3 storage backend needs a bucket name.",
		Suggestion: "Set XCEL_S3_BUCKET, or choose another storage backend",
	},
	CodeInvalidDuration: {
		Category: CategoryConfig,
		Message:  "Invalid duration",
		Detail:   "Durations use Go syntax, such as 72h or 30m, and must not be negative.",
	},
	CodeInvalidLogging: {
		Category: CategoryConfig,
		Message:  "Invalid logging configuration",
		Detail:   "The log level must be debug, info, warn or error, and the format text or json.",
	},
	CodeInvalidMetrics: {
		Category:   CategoryConfig,
		Message:    "Invalid metrics configuration",
		Detail:     "Metric namespaces, subsystems and label names use letters, digits and underscores, and histogram buckets must increase.",
		Suggestion: "Check the metrics section of xcel.json",
	},

	// ============================================
	// Storage Errors (X200-X299)
	// ============================================

	CodeArchiveDir: {
		Category:   CategoryStorage,
		Message:    "Archive directory unavailable",
		Detail:     "The upload archive directory could not be created.",
		Suggestion: "Check XCEL_STORAGE_DIR and its permissions",
	},
	CodeS3Config: {
		Category:   CategoryStorage,
		Message:    "Cannot configure S3 client",
		Detail:     "AWS credentials or region could not be loaded.",
		Suggestion: "Check AWS_REGION and the AWS credential chain",
	},
	CodeArchiveCleanup: {
		Category: CategoryStorage,
		Message:  "Archive cleanup failed",
		Detail:   "Some archived uploads older than the retention period could not be removed.",
	},
	CodeArchiveNotFound: {
		Category:   CategoryStorage,
		Message:    "Archived upload not found",
		Detail:     "No archived upload has this ID. It may have been removed by retention.",
		Suggestion: "Archive IDs are printed by xcel ingest and returned as archive_id by the upload endpoint",
	},
	CodeArchiveDisabled: {
		Category:   CategoryStorage,
		Message:    "Archiving is disabled",
		Detail:     "The storage backend is none, so there is no archive to read from.",
		Suggestion: "Set XCEL_STORAGE to disk or s3",
	},

	// ============================================
	// Database Errors (X300-X399)
	// ============================================

	CodeDatabase: {
		Category:   CategoryDatabase,
		Message:    "Database unavailable",
		Detail:     "Could not connect to Postgres or prepare the row table.",
		Suggestion: "Check DATABASE_URL, or unset it to skip row storage",
	},

	// ============================================
	// Command Errors (X400-X499)
	// ============================================

	CodeFileNotFound: {
		Category: CategoryCLI,
		Message:  "Workbook not found",
		Detail:   "The file given to the ingest command does not exist.",
	},
	CodeIngestFailed: {
		Category: CategoryIngest,
		Message:  "Ingestion failed",
		Detail:   "The workbook could not be processed.",
	},
	CodeServeFailed: {
		Category: CategoryCLI,
		Message:  "Server stopped unexpectedly",
	},
	CodeUnknownCode: {
		Category:   CategoryCLI,
		Message:    "Unknown error code",
		Suggestion: "Run xcel explain without arguments to list every code",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
