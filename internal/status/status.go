package status

// Status is the display status attached to every pipeline item.
type Status string

const (
	Success    Status = "SUCCESS"
	Succeeded  Status = "SUCCEEDED"
	Failed     Status = "FAILED"
	Aborted    Status = "ABORTED"
	Error      Status = "ERROR"
	Rejected   Status = "REJECTED"
	Running    Status = "RUNNING"
	Paused     Status = "PAUSED"
	Pausing    Status = "PAUSING"
	Waiting    Status = "WAITING"
	Aborting   Status = "ABORTING"
	NotStarted Status = "NOT_STARTED"
	Expired    Status = "EXPIRED"
	Queued     Status = "QUEUED"
	Suspended  Status = "SUSPENDED"
	Skipped    Status = "SKIPPED"
	Undefined  Status = "UNDEFINED"
)

// executionStatus maps the backend's execution status enum onto display
// statuses. Display strings map onto themselves so already-normalized input
// passes through.
var executionStatus = map[string]Status{
	"Running":             Running,
	"AsyncWaiting":        Running,
	"TaskWaiting":         Running,
	"TimedWaiting":        Running,
	"Failed":              Failed,
	"Errored":             Failed,
	"IgnoreFailed":        Success,
	"NotStarted":          NotStarted,
	"Expired":             Expired,
	"Aborted":             Aborted,
	"Discontinuing":       Aborted,
	"Queued":              Queued,
	"Paused":              Paused,
	"ResourceWaiting":     Waiting,
	"InterventionWaiting": Waiting,
	"ApprovalWaiting":     Waiting,
	"Success":             Success,
	"Suspended":           Suspended,
	"Skipped":             Skipped,
	"Pausing":             Pausing,
	"ApprovalRejected":    Rejected,
	"Waiting":             Waiting,
	"Aborting":            Aborting,

	string(Success):    Success,
	string(Succeeded):  Succeeded,
	string(Failed):     Failed,
	string(Aborted):    Aborted,
	string(Error):      Error,
	string(Rejected):   Rejected,
	string(Running):    Running,
	string(Paused):     Paused,
	string(Pausing):    Pausing,
	string(Waiting):    Waiting,
	string(Aborting):   Aborting,
	string(NotStarted): NotStarted,
	string(Expired):    Expired,
	string(Queued):     Queued,
	string(Suspended):  Suspended,
	string(Skipped):    Skipped,
}

// FromString maps a raw status string. Unknown strings map to Undefined.
func FromString(s string) Status {
	if st, ok := executionStatus[s]; ok {
		return st
	}
	return Undefined
}

// GeneralStatus is one of the four roll-up buckets.
type GeneralStatus string

const (
	GeneralSuccess   GeneralStatus = "SUCCESS"
	GeneralRunning   GeneralStatus = "RUNNING"
	GeneralError     GeneralStatus = "ERROR"
	GeneralUndefined GeneralStatus = "UNDEFINED"
)

// General buckets a display status. The function is total.
func General(s Status) GeneralStatus {
	switch s {
	case Success, Succeeded:
		return GeneralSuccess
	case Failed, Aborted, Error, Rejected:
		return GeneralError
	case Running, Paused, Pausing, Waiting, Aborting:
		return GeneralRunning
	default:
		return GeneralUndefined
	}
}
