package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound        = errors.New("resource not found") // General not found
	ErrProjectNotFound = errors.New("project not found")

	// Version Graph Errors
	ErrInvalidParent            = errors.New("parent version does not exist")
	ErrCyclicLineage            = errors.New("cyclic lineage detected")
	ErrVersionNumberConflict    = errors.New("version number already taken in lineage")
	ErrBranchNameRequired       = errors.New("branch version requires a branch name")
	ErrInvalidVersionType       = errors.New("invalid version type")
	ErrInvalidVersionStatus     = errors.New("invalid version status")
	ErrInvalidStatusTransition  = errors.New("generation status cannot move backward")
	ErrGenerationRecordNotFound = errors.New("generation record not found")
	ErrStaleRefresh             = errors.New("refresh superseded by a newer request")

	// Session & Lock Errors
	ErrInvalidCredentials = errors.New("invalid passphrase")
	ErrLockNotConfigured  = errors.New("workspace lock is not configured")
	ErrUnauthorized       = errors.New("unauthorized") // Authentication required or failed

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// Backup Errors
	ErrBackupSchemaUnsupported = errors.New("backup schema version is not supported")
	ErrBackupProjectMismatch   = errors.New("backup payload references a different project")

	// Text Generation Errors
	ErrTextGenerationFailed = errors.New("text generation failed")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
)
