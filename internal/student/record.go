// Package student holds the batch data model: one Record per student keyed
// by PEN (Permanent Education Number), and the Data aggregate that collects
// per-student annotations for the final report.
package student

import "strings"

// Attribute keys as they appear in parsed input rows (snake_case column
// labels produced by parse.CleanLabel).
const (
	FieldClass         = "class"
	FieldSection       = "section"
	FieldAdmissionDate = "admission_date"
	FieldName          = "student_name"
	FieldFatherName    = "father_name"
	FieldMotherName    = "mother_name"
	FieldDOB           = "dob"
	FieldAadhaarNumber = "aadhaar_number"
	FieldAadhaarName   = "aadhaar_name"
	FieldAadhaarDOB    = "aadhaar_dob"
)

// Record is one student's known attributes plus the search state derived
// during a reconciliation pass. The PEN never mutates after construction;
// ResolvedPEN, ConfirmedDOB and CurrentSchool are write-once per pass.
type Record struct {
	pen   string
	attrs map[string]string

	resolvedPEN   string
	confirmedDOB  string
	currentSchool string
}

// NewRecord builds a Record from the raw attribute bag of one input row.
func NewRecord(pen string, attrs map[string]string) *Record {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return &Record{pen: pen, attrs: attrs}
}

// PEN returns the immutable natural key the record was loaded under.
func (r *Record) PEN() string { return r.pen }

// EffectivePEN returns the resolved PEN when a fallback search has supplied
// one, otherwise the original PEN. All external calls use this value.
func (r *Record) EffectivePEN() string {
	if r.resolvedPEN != "" {
		return r.resolvedPEN
	}
	return r.pen
}

// EffectiveDOB returns the confirmed DOB when one has been established,
// otherwise the declared DOB.
func (r *Record) EffectiveDOB() string {
	if r.confirmedDOB != "" {
		return r.confirmedDOB
	}
	return r.DOB()
}

func (r *Record) field(key string) string {
	v := strings.TrimSpace(r.attrs[key])
	if IsPlaceholder(v) {
		return ""
	}
	return v
}

func (r *Record) dateField(key string) string {
	normalized, err := NormalizeDate(r.attrs[key])
	if err != nil {
		return ""
	}
	return normalized
}

// Class returns the declared class level, e.g. "9".
func (r *Record) Class() string { return r.field(FieldClass) }

// Section returns the declared section, e.g. "A".
func (r *Record) Section() string { return r.field(FieldSection) }

// Name returns the student's name.
func (r *Record) Name() string { return r.field(FieldName) }

// FatherName returns the father's name.
func (r *Record) FatherName() string { return r.field(FieldFatherName) }

// MotherName returns the mother's name.
func (r *Record) MotherName() string { return r.field(FieldMotherName) }

// DOB returns the declared date of birth in DD/MM/YYYY form, or "" when
// absent or unparseable.
func (r *Record) DOB() string { return r.dateField(FieldDOB) }

// AdmissionDate returns the admission date in DD/MM/YYYY form.
func (r *Record) AdmissionDate() string { return r.dateField(FieldAdmissionDate) }

// AadhaarNumber returns the Aadhaar number only when it passes format and
// Verhoeff checksum validation; otherwise "". A "" result means no
// alternate identity path exists for this student.
func (r *Record) AadhaarNumber() string {
	v := r.field(FieldAadhaarNumber)
	if v == "" || !ValidAadhaar(v) {
		return ""
	}
	return v
}

// AadhaarName returns the name linked to the Aadhaar record, if any.
func (r *Record) AadhaarName() string { return r.field(FieldAadhaarName) }

// AadhaarDOB returns the Aadhaar-linked date of birth in DD/MM/YYYY form.
func (r *Record) AadhaarDOB() string { return r.dateField(FieldAadhaarDOB) }

// ResolvedPEN returns the PEN found by a fallback identity search, or "".
func (r *Record) ResolvedPEN() string { return r.resolvedPEN }

// ConfirmedDOB returns the DOB confirmed by the external system, or "".
func (r *Record) ConfirmedDOB() string { return r.confirmedDOB }

// CurrentSchool returns the school the external system reported the student
// active at, or "".
func (r *Record) CurrentSchool() string { return r.currentSchool }

// SetResolvedIdentity records the PEN and DOB recovered by a fallback
// search. Write-once: a later pass may overwrite only if nothing was set.
func (r *Record) SetResolvedIdentity(pen, dob string) bool {
	if r.resolvedPEN != "" || r.confirmedDOB != "" {
		return false
	}
	r.resolvedPEN = pen
	r.confirmedDOB = dob
	return true
}

// SetConfirmedDOB records the DOB the external system accepted.
// Write-once per pass.
func (r *Record) SetConfirmedDOB(dob string) bool {
	if r.confirmedDOB != "" {
		return false
	}
	r.confirmedDOB = dob
	return true
}

// SetCurrentSchool records the school the external system reported the
// student active at. Write-once per pass.
func (r *Record) SetCurrentSchool(school string) bool {
	if r.currentSchool != "" {
		return false
	}
	r.currentSchool = school
	return true
}
