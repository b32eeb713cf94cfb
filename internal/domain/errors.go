package domain

import "fmt"

// FetchFailure covers transport errors, non-2xx responses and undecodable
// bodies alike. Status is zero when no response was received.
type FetchFailure struct {
	URL    string
	Status int
	Err    error
}

func (f *FetchFailure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", f.URL, f.Status, f.Err)
	}
	return fmt.Sprintf("fetch %s: %v", f.URL, f.Err)
}

func (f *FetchFailure) Unwrap() error {
	return f.Err
}
