package result

import "strconv"

// Code identifies an error (negative) or warning (positive) entry.
type Code int

// Error codes.
const (
	ExpectedArgument   Code = -1
	NotImplemented     Code = -2
	UnexpectedError    Code = -3
	InvalidCredentials Code = -4
	BadArgument        Code = -5
	CannotInsertRecord Code = -6
	PermsNotSet        Code = -7
	PermsInsufficient  Code = -8
	InternalError      Code = -9
)

// Warning codes.
const (
	ProductNotExists Code = 1
	OrderNotExists   Code = 2
)

var codeNames = map[Code]string{
	ExpectedArgument:   "EXPECTED_ARGUMENT",
	NotImplemented:     "NOT_IMPLEMENTED",
	UnexpectedError:    "UNEXPECTED_ERROR",
	InvalidCredentials: "INVALID_CREDENTIALS",
	BadArgument:        "BAD_ARGUMENT",
	CannotInsertRecord: "CANNOT_INSERT_RECORD",
	PermsNotSet:        "PERMSNOTSET",
	PermsInsufficient:  "PERMSINSUFF",
	InternalError:      "INTERNAL_ERROR",
	ProductNotExists:   "PRODUCT_NOT_EXISTS",
	OrderNotExists:     "ORDER_NOT_EXISTS",
}

// String returns the symbolic name of the code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "CODE(" + strconv.Itoa(int(c)) + ")"
}

// IsError reports whether c belongs to the error range.
func (c Code) IsError() bool { return c < 0 }

// IsWarning reports whether c belongs to the warning range.
func (c Code) IsWarning() bool { return c > 0 }

// Retryable reports whether a caller may retry a request that failed with c.
// Only collaborator failures are transient.
func (c Code) Retryable() bool {
	return c == InternalError
}
