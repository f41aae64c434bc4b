package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidKeyFormat      = errors.New("invalid key format")
	ErrInvalidInput          = errors.New("invalid attestation input")
	ErrMissingArtifact       = errors.New("missing artifact")
	ErrProofGenerationFailed = errors.New("proof generation failed")
	ErrEncodingFailed        = errors.New("encoding failed")
	ErrFileWriteFailed       = errors.New("file write failed")
	ErrVerificationFailed    = errors.New("verification failed")
)

type Stage string

const (
	StageLoad    Stage = "load"
	StageBuild   Stage = "build"
	StageProve   Stage = "prove"
	StageEncode  Stage = "encode"
	StagePresent Stage = "present"
)

// StageError tags an error with the pipeline stage it came from.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func AtStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// Kind returns the taxonomy sentinel wrapped by err, or nil.
func Kind(err error) error {
	for _, k := range []error{
		ErrInvalidKeyFormat,
		ErrMissingArtifact,
		ErrInvalidInput,
		ErrProofGenerationFailed,
		ErrEncodingFailed,
		ErrFileWriteFailed,
		ErrVerificationFailed,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
