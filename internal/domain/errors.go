package domain

// basic error that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrNotAuthenticated Error = "not authenticated"
	ErrSessionExpired   Error = "session expired, please log in again"
	ErrNoCursor         Error = "no more history"
	ErrLoadInProgress   Error = "load already in progress"
	ErrChannelClosed    Error = "channel torn down"
)
