package store

import "time"

// SupporterStatus is the lifecycle of a supporter record. Records are never
// hard-deleted; removed and duplicate statuses exclude them from counts while
// preserving history.
type SupporterStatus string

const (
	SupporterActive    SupporterStatus = "active"
	SupporterRemoved   SupporterStatus = "removed"
	SupporterDuplicate SupporterStatus = "duplicate"
)

// VerificationStatus is the outcome of voter-registry reconciliation.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationVerified   VerificationStatus = "verified"
	VerificationFlagged    VerificationStatus = "flagged"
)

// Source records how a supporter entered the system.
type Source string

const (
	SourceStaff  Source = "staff"
	SourceScan   Source = "scan"
	SourceSignup Source = "signup"
	SourceImport Source = "import"
)

// RegistryStatus tracks whether a registry record was present in the newest
// snapshot. Absent records move to removed rather than being deleted.
type RegistryStatus string

const (
	RegistryActive  RegistryStatus = "active"
	RegistryRemoved RegistryStatus = "removed"
)

// BatchStatus is the lifecycle of a registry import run.
type BatchStatus string

const (
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
)

// Village is a municipality supporters and precincts belong to.
type Village struct {
	ID   int64
	Name string
}

// Precinct belongs to a village and covers an alphabetic surname sub-range.
type Precinct struct {
	ID               int64
	VillageID        int64
	Number           string
	RegisteredVoters int
	AlphaRange       string
}

// Supporter is a person captured by the campaign.
type Supporter struct {
	ID                    int64
	FirstName             string
	LastName              string
	DisplayName           string
	Phone                 string
	NormalizedPhone       string
	Email                 string
	Address               string
	BirthDate             *time.Time
	BirthDateAmbiguous    bool
	VillageID             *int64
	PrecinctID            *int64
	Status                SupporterStatus
	VerificationStatus    VerificationStatus
	RegisteredVoter       *bool
	ReferredFromVillageID *int64
	WantsToVolunteer      *bool
	WantsYardSign         *bool
	PotentialDuplicate    bool
	DuplicateOfID         *int64
	DuplicateNotes        string
	DuplicateReviewedAt   *time.Time
	VerifiedAt            *time.Time
	Source                Source
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// RegistryRecord is one row of the authoritative voter roll.
type RegistryRecord struct {
	ID                 int64
	FirstName          string
	LastName           string
	BirthDate          *time.Time
	BirthDateAmbiguous bool
	VillageName        string
	RegistrationNumber string
	SnapshotDate       string
	Status             RegistryStatus
}

// ImportBatch records one registry import run. Immutable after completion
// except for the terminal status transition.
type ImportBatch struct {
	ID             int64
	Token          string
	SourceFile     string
	SnapshotDate   string
	Status         BatchStatus
	NewCount       int
	UpdatedCount   int
	AmbiguousCount int
	SkippedCount   int
	ErrorMessage   string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// EventRSVP is one supporter's reply to one event.
type EventRSVP struct {
	ID          int64
	SupporterID int64
	EventName   string
	Attended    bool
	CreatedAt   time.Time
}

// ContactAttempt is one outreach touch logged against a supporter.
type ContactAttempt struct {
	ID          int64
	SupporterID int64
	Method      string
	Note        string
	AttemptedAt time.Time
}
