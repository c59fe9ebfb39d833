package constants

import "time"

// Access codes
const (
	AccessCodeTTL              = 24 * time.Hour
	AgentAccessCodePrefix      = "CRM"
	SupervisorAccessCodePrefix = "SUP"
	AccessCodeDigitsMin        = 1000
	AccessCodeDigitsMax        = 9999
	AccessCodeRotationBudget   = 30 * time.Second // per scheduled run
)

// Live event stream
const (
	EventStreamBuffer     = 16
	EventStreamKeepAlive  = 25 * time.Second
	EventStreamRetryDelay = 3 * time.Second // client reconnect hint
)
