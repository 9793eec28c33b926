package convert

import "fmt"

// EncodeError reports a conversion attempt that ran to completion but failed,
// almost always because the input was not valid audio. Handlers translate it
// to a bad-request response with a generic message; the captured stderr stays
// server-side.
type EncodeError struct {
	ExitCode int
	Stderr   string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoder exited with code %d", e.ExitCode)
}
