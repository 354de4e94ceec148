package domain

import "time"

// JobStatus represents the lifecycle state of a repair job.
type JobStatus string

const (
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
)

// IsValid checks if the status is a known job status.
func (s JobStatus) IsValid() bool {
	return s == JobInProgress || s == JobCompleted
}

// IsTerminal returns true if the status is final. A terminal job never holds a camera.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted
}

// Job is a tracked vehicle-service session, optionally bound to one camera.
type Job struct {
	ID                       int64      `json:"id"`
	BranchID                 int64      `json:"branch_id"`
	CameraID                 *int64     `json:"camera_id"`
	Status                   JobStatus  `json:"status"`
	CustomerName             string     `json:"customer_name"`
	CustomerPhoneCountryCode string     `json:"customer_phone_country_code"`
	CustomerPhoneNumber      string     `json:"customer_phone_number"`
	CarModel                 string     `json:"car_model"`
	CarYear                  string     `json:"car_year"`
	IssueDescription         string     `json:"issue_description"`
	EnteredAt                time.Time  `json:"entered_at"`
	CompletedAt              *time.Time `json:"completed_at"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// HoldsCamera reports whether the job currently confers exclusivity on a camera.
func (j *Job) HoldsCamera() bool {
	return j.CameraID != nil && !j.Status.IsTerminal()
}

// CreateJobRequest is the payload for POST /jobs.
type CreateJobRequest struct {
	BranchID                 int64      `json:"branch_id"`
	CameraID                 *int64     `json:"camera_id"`
	Status                   JobStatus  `json:"status"`
	CustomerName             string     `json:"customer_name"`
	CustomerPhoneCountryCode string     `json:"customer_phone_country_code"`
	CustomerPhoneNumber      string     `json:"customer_phone_number"`
	CarModel                 string     `json:"car_model"`
	CarYear                  string     `json:"car_year"`
	IssueDescription         string     `json:"issue_description"`
	EnteredAt                *time.Time `json:"entered_at"`
}

// JobPatch is a partial update for PUT /jobs/:id. Nil fields are left untouched.
type JobPatch struct {
	Status                   *JobStatus `json:"status"`
	CustomerName             *string    `json:"customer_name"`
	CustomerPhoneCountryCode *string    `json:"customer_phone_country_code"`
	CustomerPhoneNumber      *string    `json:"customer_phone_number"`
	CarModel                 *string    `json:"car_model"`
	CarYear                  *string    `json:"car_year"`
	IssueDescription         *string    `json:"issue_description"`
	EnteredAt                *time.Time `json:"entered_at"`
	CompletedAt              *time.Time `json:"-"`
	ClearCompletedAt         bool       `json:"-"`
}

// Apply copies the non-nil patch fields onto job.
func (p *JobPatch) Apply(job *Job) {
	if p.Status != nil {
		job.Status = *p.Status
	}
	if p.CustomerName != nil {
		job.CustomerName = *p.CustomerName
	}
	if p.CustomerPhoneCountryCode != nil {
		job.CustomerPhoneCountryCode = *p.CustomerPhoneCountryCode
	}
	if p.CustomerPhoneNumber != nil {
		job.CustomerPhoneNumber = *p.CustomerPhoneNumber
	}
	if p.CarModel != nil {
		job.CarModel = *p.CarModel
	}
	if p.CarYear != nil {
		job.CarYear = *p.CarYear
	}
	if p.IssueDescription != nil {
		job.IssueDescription = *p.IssueDescription
	}
	if p.EnteredAt != nil {
		job.EnteredAt = *p.EnteredAt
	}
	if p.CompletedAt != nil {
		completedAt := *p.CompletedAt
		job.CompletedAt = &completedAt
	}
	if p.ClearCompletedAt {
		job.CompletedAt = nil
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p *JobPatch) IsEmpty() bool {
	return p.Status == nil && p.CustomerName == nil && p.CustomerPhoneCountryCode == nil &&
		p.CustomerPhoneNumber == nil && p.CarModel == nil && p.CarYear == nil &&
		p.IssueDescription == nil && p.EnteredAt == nil && p.CompletedAt == nil && !p.ClearCompletedAt
}

// JobEventType names a committed job lifecycle transition.
type JobEventType string

const (
	EventJobCreated   JobEventType = "job.created"
	EventJobUpdated   JobEventType = "job.updated"
	EventJobCompleted JobEventType = "job.completed"
	EventJobReleased  JobEventType = "job.released"
)

// JobEvent is published after a job transition commits.
type JobEvent struct {
	Type       JobEventType `json:"type"`
	JobID      int64        `json:"job_id"`
	BranchID   int64        `json:"branch_id"`
	CameraID   *int64       `json:"camera_id,omitempty"`
	Status     JobStatus    `json:"status"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// ShareGrant binds a public viewing token to one job and camera.
type ShareGrant struct {
	Token     string    `json:"token"`
	JobID     int64     `json:"job_id"`
	CameraID  int64     `json:"camera_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Path      string    `json:"path"`
}

// PublicJobView is the minimal job metadata exposed to customers.
type PublicJobView struct {
	ID       int64     `json:"id"`
	CarModel string    `json:"car_model"`
	CarYear  string    `json:"car_year"`
	Status   JobStatus `json:"status"`
}

// PublicCameraView is the minimal camera metadata exposed to customers.
type PublicCameraView struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// PublicStreamResponse is returned by the public stream endpoint.
type PublicStreamResponse struct {
	StreamURL string           `json:"streamUrl"`
	Job       PublicJobView    `json:"job"`
	Camera    PublicCameraView `json:"camera"`
}

// PublicStatusUpdate is pushed over the public websocket feed.
type PublicStatusUpdate struct {
	JobID        int64     `json:"job_id"`
	Status       JobStatus `json:"status"`
	StreamActive bool      `json:"stream_active"`
}
