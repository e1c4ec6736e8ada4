package usecase

import (
	"errors"
	"fmt"
)

const (
	CodeValidation = "VALIDATION"
	CodeNotFound   = "NOT_FOUND"
	CodeConflict   = "CONFLICT"
	CodePersist    = "PERSISTENCE"
)

// DomainError é erro de regra de negócio (4xx na borda HTTP).
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError é falha de infraestrutura (banco, fila). Vira 5xx.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *TechnicalError) Unwrap() error { return e.Err }

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func persistenceError(msg string, err error) error {
	return &TechnicalError{Code: CodePersist, Message: msg, Err: err}
}

// RemoteSyncError marca em qual passo a sincronização com o Chatwoot parou.
type RemoteSyncError struct {
	Step string
	Err  error
}

func (e *RemoteSyncError) Error() string {
	return fmt.Sprintf("reverse sync (%s): %v", e.Step, e.Err)
}

func (e *RemoteSyncError) Unwrap() error { return e.Err }
