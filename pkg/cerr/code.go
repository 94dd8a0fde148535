package cerr

//go:generate go tool stringer -type=Code -output=code_string.go code.go
type Code int

const (
	OK              = Code(0)
	Canceled        = Code(1)
	Unknown         = Code(2)
	InvalidArgument = Code(3)
	Unauthorized    = Code(4)
	NotFound        = Code(5)
	AlreadyDone     = Code(6)
	InvalidState    = Code(7)
	LimitExceeded   = Code(8)
	NotInitialized  = Code(9)
	Internal        = Code(10)
	Unavailable     = Code(11)
)

// IsServerFault reports whether the code represents a failure of the system
// itself rather than a rejected request.
func (c Code) IsServerFault() bool {
	switch c {
	case Unknown, Internal, Unavailable:
		return true
	}
	return false
}
