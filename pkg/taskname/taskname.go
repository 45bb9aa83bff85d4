package taskname

const (
	// Boost tasks
	BoostExpirySweep = "boost:expiry:sweep"
)
