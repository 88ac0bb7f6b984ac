package shared

import "fmt"

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// ForbiddenError indicates the permission guard denied the operation
type ForbiddenError struct {
	*DomainError
	Operation string
}

func NewForbiddenError(operation, subjectID string) *ForbiddenError {
	return &ForbiddenError{
		DomainError: &DomainError{Message: fmt.Sprintf("actor %s is not permitted to perform %s", subjectID, operation)},
		Operation:   operation,
	}
}

// NotFoundError indicates a referenced entity is absent
type NotFoundError struct {
	*DomainError
	Entity string
	ID     string
}

func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		DomainError: &DomainError{Message: fmt.Sprintf("%s %s not found", entity, id)},
		Entity:      entity,
		ID:          id,
	}
}

// InvalidTransitionError indicates a state machine edge that is not allowed
type InvalidTransitionError struct {
	*DomainError
	From string
	To   string
}

func NewInvalidTransitionError(entity, from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{
		DomainError: &DomainError{Message: fmt.Sprintf("%s cannot transition from %s to %s", entity, from, to)},
		From:        from,
		To:          to,
	}
}

// InvalidOperationError indicates a precondition violation
type InvalidOperationError struct {
	*DomainError
}

func NewInvalidOperationError(message string) *InvalidOperationError {
	return &InvalidOperationError{DomainError: &DomainError{Message: message}}
}

// InsufficientStockError indicates demand could not be satisfied from on-hand stock
type InsufficientStockError struct {
	*DomainError
	ProductID string
	Requested int
	Available int
}

func NewInsufficientStockError(productID string, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{
		DomainError: &DomainError{Message: fmt.Sprintf("insufficient stock for product %s: need %d, have %d", productID, requested, available)},
		ProductID:   productID,
		Requested:   requested,
		Available:   available,
	}
}

// ExpiredBatchOnlyError indicates stock exists but every batch is past expiry
type ExpiredBatchOnlyError struct {
	*DomainError
	ProductID string
}

func NewExpiredBatchOnlyError(productID string) *ExpiredBatchOnlyError {
	return &ExpiredBatchOnlyError{
		DomainError: &DomainError{Message: fmt.Sprintf("all stock for product %s is past expiry", productID)},
		ProductID:   productID,
	}
}

// ConcurrencyConflictError indicates a row_version mismatch on an optimistic write
type ConcurrencyConflictError struct {
	*DomainError
	Entity string
	ID     string
}

func NewConcurrencyConflictError(entity, id string) *ConcurrencyConflictError {
	return &ConcurrencyConflictError{
		DomainError: &DomainError{Message: fmt.Sprintf("%s %s was modified concurrently", entity, id)},
		Entity:      entity,
		ID:          id,
	}
}

// IdempotencyViolationError indicates a duplicate proposal generation for the same encounter
type IdempotencyViolationError struct {
	*DomainError
	EncounterID string
}

func NewIdempotencyViolationError(encounterID string) *IdempotencyViolationError {
	return &IdempotencyViolationError{
		DomainError: &DomainError{Message: fmt.Sprintf("a charge proposal already exists for encounter %s", encounterID)},
		EncounterID: encounterID,
	}
}

// AlreadyConvertedError indicates a conversion attempt on an already converted proposal
type AlreadyConvertedError struct {
	*DomainError
	ProposalID string
	SaleID     string
}

func NewAlreadyConvertedError(proposalID, saleID string) *AlreadyConvertedError {
	return &AlreadyConvertedError{
		DomainError: &DomainError{Message: fmt.Sprintf("charge proposal %s was already converted to sale %s", proposalID, saleID)},
		ProposalID:  proposalID,
		SaleID:      saleID,
	}
}

// ConfigurationError indicates required configuration is missing or inconsistent
type ConfigurationError struct {
	*DomainError
}

func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{DomainError: &DomainError{Message: message}}
}

// ValidationError indicates a field-level constraint violation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
