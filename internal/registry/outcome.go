// Package registry defines the contract between the reconciliation engine
// and the external student-registry system: the adapter interfaces the UI
// layer implements, and the closed set of outcomes an import attempt can
// produce.
package registry

// Outcome classifies the result of one import attempt against the external
// registry. The set is closed; the controller's routing is total over it.
type Outcome string

const (
	// Imported means the registry accepted the student and the detail
	// submission completed.
	Imported Outcome = "imported"

	// AlreadyActiveSameLocation means the student is already active at the
	// caller's own school. Terminal success.
	AlreadyActiveSameLocation Outcome = "already_active_same_location"

	// AlreadyActiveElsewhere means the student is active at another school
	// and must be routed to the release-request batch.
	AlreadyActiveElsewhere Outcome = "already_active_elsewhere"

	// DobMismatch means every available DOB was rejected.
	DobMismatch Outcome = "dob_mismatch"

	// AlternateDobUnavailable means the primary DOB was rejected and no
	// alternate DOB exists to retry with.
	AlternateDobUnavailable Outcome = "alternate_dob_unavailable"

	// DobRetrySkippedIdentical means the alternate DOB equals the primary
	// DOB already tried, so the retry was skipped.
	DobRetrySkippedIdentical Outcome = "dob_retry_skipped_identical"

	// IdentityInvalid means the PEN failed structural validation or the
	// identity search could not confirm it.
	IdentityInvalid Outcome = "identity_invalid"

	// ClassMismatch means the declared class differed from the class the
	// registry had selected; the submission was aborted before any write.
	ClassMismatch Outcome = "class_mismatch"

	// UnknownError covers adapter-level failures such as timeouts or
	// unexpected response shapes. Not retried automatically.
	UnknownError Outcome = "unknown_error"
)

// Success reports whether the outcome counts as a completed import for the
// terminal Yes/No flag.
func (o Outcome) Success() bool {
	return o == Imported || o == AlreadyActiveSameLocation
}

func (o Outcome) String() string { return string(o) }
