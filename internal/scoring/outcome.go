package scoring

// Status is the result of processing one item in a batch.
type Status string

// Status constants.
const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome records what happened to one item (a submission, a user, a badge grant).
type Outcome struct {
	Subject string `json:"subject"`
	ID      uint   `json:"id"`
	UserID  uint   `json:"user_id,omitempty"`
	Status  Status `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Err     error  `json:"-"`
}

// OK builds a successful outcome.
func OK(subject string, id, userID uint) Outcome {
	return Outcome{Subject: subject, ID: id, UserID: userID, Status: StatusOK}
}

// Skipped builds an outcome for an item that needed no work.
func Skipped(subject string, id, userID uint, reason string) Outcome {
	return Outcome{Subject: subject, ID: id, UserID: userID, Status: StatusSkipped, Reason: reason}
}

// Failed builds an outcome for an item that could not be processed.
func Failed(subject string, id, userID uint, err error) Outcome {
	return Outcome{Subject: subject, ID: id, UserID: userID, Status: StatusFailed, Reason: err.Error(), Err: err}
}

// Outcomes is a batch of per-item results.
type Outcomes []Outcome

// Count returns how many outcomes have the given status.
func (o Outcomes) Count(s Status) int {
	n := 0
	for _, item := range o {
		if item.Status == s {
			n++
		}
	}
	return n
}

// Errors returns the reasons of every failed outcome.
func (o Outcomes) Errors() []string {
	var errs []string
	for _, item := range o {
		if item.Status == StatusFailed {
			errs = append(errs, item.Reason)
		}
	}
	return errs
}
