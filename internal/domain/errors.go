package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found by ID.
	ErrJobNotFound = errors.New("job not found")

	// ErrCameraNotFound is returned when a camera cannot be found by ID.
	ErrCameraNotFound = errors.New("camera not found")

	// ErrCameraInUse is returned when a camera is already bound to a non-completed job.
	ErrCameraInUse = errors.New("camera is already assigned to another active job")

	// ErrInvalidJobState is returned when a transition is not allowed from the job's current status.
	ErrInvalidJobState = errors.New("job is not in progress")

	// ErrInvalidStatus is returned for an unknown job status value.
	ErrInvalidStatus = errors.New("invalid job status")

	// ErrNoCameraAssigned is returned when releasing a job that holds no camera.
	ErrNoCameraAssigned = errors.New("job does not have a camera assigned")

	// ErrMissingBranch is returned when a job or camera is submitted without a branch.
	ErrMissingBranch = errors.New("branch_id is required")

	// ErrInvalidCamera is returned when a camera definition fails validation.
	ErrInvalidCamera = errors.New("invalid camera definition")

	// ErrJobCompleted is returned by the public gateway for jobs that are already completed.
	ErrJobCompleted = errors.New("job is completed")

	// ErrCameraBranchMismatch is returned when a camera does not belong to the job's branch.
	ErrCameraBranchMismatch = errors.New("camera not accessible for this job")

	// ErrInvalidAccessToken is returned when a public viewing token is malformed or not granted.
	ErrInvalidAccessToken = errors.New("invalid access token")

	// ErrStreamStartTimeout is returned when the transcoder produced no manifest within the start timeout.
	ErrStreamStartTimeout = errors.New("timed out waiting for stream manifest")

	// ErrStreamUnavailable is returned when the transcoder could not be launched or exited early.
	ErrStreamUnavailable = errors.New("camera stream unavailable")
)
