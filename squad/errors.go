package squad

import "errors"

var (
	// ErrInvalidSquadSize indicates max members is outside [MinMembers, MaxMembers].
	ErrInvalidSquadSize = errors.New("squad: squad size must be between 2 and 8 members")

	// ErrNameTooLong indicates the squad name exceeds MaxNameLen bytes.
	ErrNameTooLong = errors.New("squad: name is too long")

	// ErrSquadFull indicates the squad has reached its member capacity.
	ErrSquadFull = errors.New("squad: squad is full")

	// ErrInvalidAmount indicates a zero stake or unstake amount.
	ErrInvalidAmount = errors.New("squad: invalid amount")

	// ErrInsufficientStake indicates an unstake larger than the member's stake.
	ErrInsufficientStake = errors.New("squad: insufficient stake")

	// ErrUnauthorizedOracle indicates an activity update from a non-designated identity.
	ErrUnauthorizedOracle = errors.New("squad: unauthorized oracle")

	// ErrNoMembers indicates a distribution on a squad without members.
	ErrNoMembers = errors.New("squad: no members in squad")

	// ErrNoRewards indicates the rewards vault is empty.
	ErrNoRewards = errors.New("squad: no rewards to distribute")

	// ErrZeroTotalWeight indicates every member weighs zero.
	ErrZeroTotalWeight = errors.New("squad: zero total weight")

	// ErrOverflow indicates an arithmetic overflow.
	ErrOverflow = errors.New("squad: math overflow")

	// ErrUnderflow indicates an arithmetic underflow.
	ErrUnderflow = errors.New("squad: math underflow")

	// ErrDivisionByZero indicates a division by a zero divisor.
	ErrDivisionByZero = errors.New("squad: division by zero")

	// ErrMissingSignature indicates the required identity did not sign the call.
	ErrMissingSignature = errors.New("squad: missing required signature")

	// ErrSquadNotFound indicates no squad record exists at the address.
	ErrSquadNotFound = errors.New("squad: squad not found")

	// ErrMemberNotFound indicates no member record exists at the address.
	ErrMemberNotFound = errors.New("squad: member not found")

	// ErrAccountNotFound indicates no token account exists at the address.
	ErrAccountNotFound = errors.New("squad: token account not found")

	// ErrAccountExists indicates a record or token account already exists at the address.
	ErrAccountExists = errors.New("squad: account already exists")

	// ErrInsufficientFunds indicates the source token account balance is too low.
	ErrInsufficientFunds = errors.New("squad: insufficient funds")

	// ErrTransferUnauthorized indicates the transfer authority does not own the source account.
	ErrTransferUnauthorized = errors.New("squad: transfer authority does not own source account")

	// ErrInvalidPayouts indicates a malformed distribution payout list.
	ErrInvalidPayouts = errors.New("squad: invalid payout list")

	// ErrDestinationMismatch indicates a payout destination not owned by the member.
	ErrDestinationMismatch = errors.New("squad: destination not owned by member")

	// ErrInvalidRecord indicates a stored record fails to decode.
	ErrInvalidRecord = errors.New("squad: invalid record data")

	// ErrReadOnlyTxn indicates a write attempted inside Store.View.
	ErrReadOnlyTxn = errors.New("squad: write in read-only transaction")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("squad: required parameter is nil")
)
