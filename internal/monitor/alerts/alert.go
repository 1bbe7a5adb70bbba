package alerts

// Alert statuses. Fresh alerts start unread and flip to read when the
// user acknowledges them.
const (
	StatusUnread = "unread"
	StatusRead   = "read"
)

// DocumentNA fills the document column for alerts that span documents,
// such as context-switch bursts.
const DocumentNA = "not applicable"

// TimeLayout is the display format for alert timestamps.
const TimeLayout = "15:04:05 02-01-2006"

// Alert is one detected behavioral pattern, displayed to the user as a
// row of the alert feed.
type Alert struct {
	Time        string `json:"time"`
	User        string `json:"user"`
	Document    string `json:"document"`
	Description string `json:"description"`
	Indication  string `json:"indication"`
	Status      string `json:"status"`
}

// Table is the full set of alerts produced by one detection pass.
type Table []Alert

// Clone returns an independent copy of the table.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	copy(out, t)
	return out
}

// AcknowledgeAll marks every alert read. Calling it again is a no-op.
func (t Table) AcknowledgeAll() {
	for i := range t {
		t[i].Status = StatusRead
	}
}

// UnreadCount reports how many alerts are still unread.
func (t Table) UnreadCount() int {
	n := 0
	for _, a := range t {
		if a.Status == StatusUnread {
			n++
		}
	}
	return n
}
