package picker

import "fmt"

// StatusKind tags a Status.
type StatusKind int

const (
	StatusInProgress StatusKind = iota
	StatusUploaded
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusInProgress:
		return "in_progress"
	case StatusUploaded:
		return "uploaded"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("StatusKind(%d)", int(k))
	}
}

// Status is one point of an adapter's upload stream.
type Status struct {
	Kind     StatusKind
	Progress int // 0–100, StatusInProgress only
	Body     any // StatusUploaded and StatusError
}

func InProgress(progress int) Status {
	return Status{Kind: StatusInProgress, Progress: progress}
}

func Uploaded(body any) Status {
	return Status{Kind: StatusUploaded, Body: body}
}

func Failed(body any) Status {
	return Status{Kind: StatusError, Body: body}
}

// Terminal reports whether s ends an upload attempt.
func (s Status) Terminal() bool {
	return s.Kind == StatusUploaded || s.Kind == StatusError
}

// Update is one element delivered by an adapter. A non-nil Err is a
// transport failure and ends the stream; otherwise Status is meaningful.
type Update struct {
	Status Status
	Err    error
}
