package modelstore

import "errors"

// Artifact loading errors.
var (
	// ErrArtifactNotFound indicates the artifact file does not exist.
	ErrArtifactNotFound = errors.New("model artifact not found")

	// ErrInvalidArtifact indicates the artifact could not be parsed or is
	// structurally unusable.
	ErrInvalidArtifact = errors.New("invalid model artifact")

	// ErrFeatureMismatch indicates the artifact was trained against a
	// different feature contract than the encoder produces.
	ErrFeatureMismatch = errors.New("artifact feature names do not match encoder")
)
