package models

import "fmt"

// ConfigurationError reports a missing or invalid required setting
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("configuration error: %s not set", e.Field)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// StorageUnavailableError reports that buckets could not be enumerated
type StorageUnavailableError struct {
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable: %v", e.Err)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Err }

// BucketAccessError reports a failed operation on a single bucket
type BucketAccessError struct {
	Bucket string
	Op     string
	Err    error
}

func (e *BucketAccessError) Error() string {
	return fmt.Sprintf("bucket %s: %s: %v", e.Bucket, e.Op, e.Err)
}

func (e *BucketAccessError) Unwrap() error { return e.Err }

// TransportError reports a failed email or webhook dispatch
type TransportError struct {
	Channel string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport: %v", e.Channel, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TemplateNotFoundError reports a missing email template
type TemplateNotFoundError struct {
	Path string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template not found: %s", e.Path)
}
