package testbets

import "time"

// HTTP status code constants.
const (
	StatusOK       = 200
	StatusNotFound = 404
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	maxReportedIssues    = 20
	progressInterval     = time.Second
)
