package service

import (
	"errors"
	"fmt"

	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/internal/repository"
)

// Error classes. Every error returned by a service either matches one of
// these with errors.Is or is an internal failure.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation error")
)

var (
	ErrProposalClosed   = fmt.Errorf("%w: proposal is not open", ErrInvalidState)
	ErrAlreadyConfirmed = fmt.Errorf("%w: proposal is already confirmed", ErrInvalidState)
	ErrGuestsNotAllowed = fmt.Errorf("%w: guests are not allowed on this proposal", ErrForbidden)
	ErrNameRequired     = fmt.Errorf("%w: name is required", ErrValidation)
	ErrNotMember        = fmt.Errorf("%w: not a member of this space", ErrForbidden)
	ErrNotOwner         = fmt.Errorf("%w: only the owner can do this", ErrForbidden)
)

// errRetriesExhausted means every freshly drawn token or invite code
// collided. It is an internal failure, not a client error.
var errRetriesExhausted = errors.New("no unique value after retries")

// maxCreateAttempts bounds the redraws on a token or invite code collision.
const maxCreateAttempts = 5

// classified keeps the message of the underlying error while matching its
// class as well.
type classified struct {
	class error
	err   error
}

func (e *classified) Error() string {
	return e.err.Error()
}

func (e *classified) Unwrap() []error {
	return []error{e.class, e.err}
}

func classify(class, err error) error {
	return &classified{class: class, err: err}
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// translate maps repository and domain errors onto the service classes.
// Errors that already carry a class, and unknown errors, pass through.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrForbidden), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidState), errors.Is(err, ErrValidation):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return classify(ErrNotFound, err)
	case errors.Is(err, repository.ErrMemberExists):
		return classify(ErrInvalidState, err)
	case errors.Is(err, domain.ErrVotingClosed):
		return ErrProposalClosed
	case errors.Is(err, domain.ErrNotConfirmable):
		return ErrAlreadyConfirmed
	case errors.Is(err, domain.ErrNotParticipant):
		return classify(ErrForbidden, err)
	case errors.Is(err, domain.ErrUnknownCandidate),
		errors.Is(err, domain.ErrInvalidChoice),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidAvailability),
		errors.Is(err, domain.ErrInvalidVisibility),
		errors.Is(err, domain.ErrInvalidRSVP),
		errors.Is(err, domain.ErrInvalidRange):
		return classify(ErrValidation, err)
	}
	return err
}
