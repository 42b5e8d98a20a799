package supervisor

// Status describes the observed state of a supervised process.
type Status string

const (
	StatusOnline  Status = "online"
	StatusStopped Status = "stopped"
	StatusErrored Status = "errored"
	StatusMissing Status = "missing"
)

// ProcessSpec describes a process to start.
type ProcessSpec struct {
	Name       string
	Entrypoint string
	WorkDir    string
	Interpreter string
	Env        map[string]string
}

// ProcessInfo is the supervisor's view of one process.
type ProcessInfo struct {
	Name      string
	Status    Status
	PID       int
	StartedAt int64 // unix seconds, 0 if never started
}
