// Package ismerr defines the closed set of fault kinds the scheduler can
// raise. Each is a distinct sentinel so callers can use errors.Is/errors.As
// instead of matching on message text.
package ismerr

import "fmt"

// Kind identifies one of the scheduler's closed set of fault kinds.
type Kind string

const (
	KindRDBMSNotRecognised           Kind = "RDBMSNotRecognised"
	KindTimestampFormatNotRecognised Kind = "TimestampFormatNotRecognised"
	KindPropertyKeyNotRecognised     Kind = "PropertyKeyNotRecognised"
	KindExecutionPhaseUnrecognised   Kind = "ExecutionPhaseUnrecognised"
	KindExecutionPhaseNotFound       Kind = "ExecutionPhaseNotFound"
	KindDuplicateDataInControlDB     Kind = "DuplicateDataInControlDatabase"
	KindMissingDataInControlDB       Kind = "MissingDataInControlDatabase"
	KindUnrecognisedParamChar        Kind = "UnrecognisedParameterisationCharacter"
	KindMalformedActionPack          Kind = "MalformedActionPack"
	KindOrphanedSemaphoreFile        Kind = "OrphanedSemaphoreFile"
)

// Error is the concrete type every fault kind is raised as.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is lets errors.Is(err, ismerr.RDBMSNotRecognised) match regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Sentinels usable directly with errors.Is (their Message is empty; Is only
// compares Kind).
var (
	RDBMSNotRecognised           = &Error{Kind: KindRDBMSNotRecognised}
	TimestampFormatNotRecognised = &Error{Kind: KindTimestampFormatNotRecognised}
	PropertyKeyNotRecognised     = &Error{Kind: KindPropertyKeyNotRecognised}
	ExecutionPhaseUnrecognised   = &Error{Kind: KindExecutionPhaseUnrecognised}
	ExecutionPhaseNotFound       = &Error{Kind: KindExecutionPhaseNotFound}
	DuplicateDataInControlDB     = &Error{Kind: KindDuplicateDataInControlDB}
	MissingDataInControlDB       = &Error{Kind: KindMissingDataInControlDB}
	UnrecognisedParamChar        = &Error{Kind: KindUnrecognisedParamChar}
	MalformedActionPack          = &Error{Kind: KindMalformedActionPack}
	OrphanedSemaphoreFile        = &Error{Kind: KindOrphanedSemaphoreFile}
)

// Constructors producing a message-carrying instance of each kind.

func NewRDBMSNotRecognised(rdbms string) error {
	return newf(KindRDBMSNotRecognised, "RDBMS %q not recognised / supported", rdbms)
}

func NewTimestampFormatNotRecognised(format string) error {
	return newf(KindTimestampFormatNotRecognised, "timestamp format %q not recognised", format)
}

func NewPropertyKeyNotRecognised(key string) error {
	return newf(KindPropertyKeyNotRecognised, "mandatory property key %q missing", key)
}

func NewExecutionPhaseUnrecognised(phase string) error {
	return newf(KindExecutionPhaseUnrecognised, "unrecognised execution_phase (%s)", phase)
}

func NewExecutionPhaseNotFound() error {
	return newf(KindExecutionPhaseNotFound, "current execution_phase not found in control database")
}

func NewDuplicateDataInControlDB(action string) error {
	return newf(KindDuplicateDataInControlDB, "duplicate records for action %s found", action)
}

func NewMissingDataInControlDB(action string) error {
	return newf(KindMissingDataInControlDB, "missing record for action %s", action)
}

func NewUnrecognisedParamChar(sql string) error {
	return newf(KindUnrecognisedParamChar, "sql %q mixes or omits recognised parameter markers (?, %%s)", sql)
}

func NewMalformedActionPack(packID, reason string) error {
	return newf(KindMalformedActionPack, "pack %q malformed: %s", packID, reason)
}

func NewOrphanedSemaphoreFile(name string) error {
	return newf(KindOrphanedSemaphoreFile, "semaphore file (%s) without associated message file", name)
}
