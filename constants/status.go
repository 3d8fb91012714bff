package constants

// DocumentStatus is the lifecycle status stored in documents.status.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	DocumentStatusUploaded DocumentStatus = "UPLOADED" // stored, not analysed yet
	DocumentStatusQueued   DocumentStatus = "QUEUED"   // waiting for a worker
	DocumentStatusRunning  DocumentStatus = "RUNNING"
	DocumentStatusAnalyzed DocumentStatus = "ANALYZED" // record saved
	DocumentStatusFailed   DocumentStatus = "FAILED"   // terminal failure
)

// ComplianceStatus is the verdict of the compliance checker.
type ComplianceStatus string

const (
	CompliancePass    ComplianceStatus = "Pass"
	ComplianceWarning ComplianceStatus = "Warning"
	ComplianceFail    ComplianceStatus = "Fail"
	ComplianceError   ComplianceStatus = "Error"
)
