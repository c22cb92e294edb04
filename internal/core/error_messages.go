package core

// error_messages.go maps technical errors to messages that are safe to show
// to API clients, each with a code for support reference.
//
// # Error Codes Reference
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - No records: The file contained no usable sales rows
//	         Action: Check the header row and that rows carry Customer ID and Product ID
//	         Patterns: "no valid records"
//
//	IMP002 - Empty batch: The import request contained no records
//	         Action: Send at least one record
//	         Patterns: "empty batch"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid record: A submitted record failed validation
//	         Action: Fix the listed fields and resubmit the whole batch
//	         Patterns: "invalid record"
//
//	VAL002 - Invalid query: Query parameters could not be used
//	         Action: Check page and pageSize
//	         Patterns: "invalid criteria"
//
//	VAL003 - Invalid JSON: The request body is not a JSON array of records
//	         Action: Send a JSON array
//	         Patterns: "invalid json"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the upload size limit
//	          Action: Split the file into smaller chunks
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Invalid upload: The request is not a multipart upload
//	          Action: Send the CSV as multipart form field "file"
//	          Patterns: "invalid upload"
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a CSV file to upload
//	          Patterns: "no file provided"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many imports in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent imports"
//
//	UPL004 - Request cancelled: Request was cancelled
//	         Patterns: "context canceled"
//
//	UPL005 - Request timeout: Request timed out
//	         Patterns: "context deadline exceeded"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Store and engine failures land here on
// purpose; the technical message travels separately as the response detail.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Import
	{
		pattern: "no valid records",
		msg: UserMessage{
			Message: "No valid sales records were found in the file",
			Action:  "Check the header row and that rows carry Customer ID and Product ID",
			Code:    "IMP001",
		},
	},
	{
		pattern: "empty batch",
		msg: UserMessage{
			Message: "The import contained no records",
			Action:  "Send at least one record",
			Code:    "IMP002",
		},
	},

	// Validation
	{
		pattern: "invalid record",
		msg: UserMessage{
			Message: "One or more records failed validation",
			Action:  "Fix the listed fields and resubmit the whole batch",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid criteria",
		msg: UserMessage{
			Message: "The query parameters are not valid",
			Action:  "Check page and pageSize",
			Code:    "VAL002",
		},
	},
	{
		pattern: "invalid json",
		msg: UserMessage{
			Message: "The request body is not valid JSON",
			Action:  "Send a JSON array of sales records",
			Code:    "VAL003",
		},
	},

	// File
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the upload size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the upload size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid upload",
		msg: UserMessage{
			Message: "The request is not a valid file upload",
			Action:  `Send the CSV as multipart form field "file"`,
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},

	// Upload
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// Database
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Remove duplicate rows and try again",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the generic ERR000 message is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// IsUserFacing reports whether err matches a known pattern rather than
// falling through to ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
