package kernel

type CandidateID string

func NewCandidateID(id string) CandidateID { return CandidateID(id) }
func (c CandidateID) String() string       { return string(c) }
func (c CandidateID) IsEmpty() bool        { return string(c) == "" }

type JobID string

func NewJobID(id string) JobID { return JobID(id) }
func (j JobID) String() string { return string(j) }
func (j JobID) IsEmpty() bool  { return string(j) == "" }

// SyncJobID identifies a queued embedding sync job, not a job posting.
type SyncJobID string

func NewSyncJobID(id string) SyncJobID { return SyncJobID(id) }
func (s SyncJobID) String() string     { return string(s) }
func (s SyncJobID) IsEmpty() bool      { return string(s) == "" }
