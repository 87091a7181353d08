package claims

import (
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/GeekSage/Machete/internal/ir"
)

// Party is a named person or organization with its address, identifiers
// and contact. Which fields are carried depends on the loop it comes from.
type Party struct {
	EntityType     ir.Value[string] // NM102: 1 person, 2 organization
	Name           ir.Value[string] // last name or organization name
	FirstName      ir.Value[string]
	MiddleName     ir.Value[string]
	Suffix         ir.Value[string]
	IDQualifier    ir.Value[string]
	ID             ir.Value[string]
	Address1       ir.Value[string]
	Address2       ir.Value[string]
	City           ir.Value[string]
	State          ir.Value[string]
	PostalCode     ir.Value[string]
	ContactName    ir.Value[string]
	Phone          ir.Value[string]
	TaxIDQualifier ir.Value[string]
	TaxID          ir.Value[string]
	Taxonomy       ir.Value[string]
	BirthDate      ir.Value[time.Time]
	Gender         ir.Value[string]
}

// NewParty returns an empty Party.
func NewParty() *Party { return &Party{} }

// Slots implements ir.Entity.
func (p *Party) Slots() []ir.FieldSlot {
	return []ir.FieldSlot{
		{Key: "EntityType", Slot: &p.EntityType},
		{Key: "Name", Slot: &p.Name},
		{Key: "FirstName", Slot: &p.FirstName},
		{Key: "MiddleName", Slot: &p.MiddleName},
		{Key: "Suffix", Slot: &p.Suffix},
		{Key: "IDQualifier", Slot: &p.IDQualifier},
		{Key: "ID", Slot: &p.ID},
		{Key: "Address1", Slot: &p.Address1},
		{Key: "Address2", Slot: &p.Address2},
		{Key: "City", Slot: &p.City},
		{Key: "State", Slot: &p.State},
		{Key: "PostalCode", Slot: &p.PostalCode},
		{Key: "ContactName", Slot: &p.ContactName},
		{Key: "Phone", Slot: &p.Phone},
		{Key: "TaxIDQualifier", Slot: &p.TaxIDQualifier},
		{Key: "TaxID", Slot: &p.TaxID},
		{Key: "Taxonomy", Slot: &p.Taxonomy},
		{Key: "BirthDate", Slot: &p.BirthDate},
		{Key: "Gender", Slot: &p.Gender},
	}
}

// Batch is one 837P transaction set.
type Batch struct {
	ControlNumber    ir.Value[string] // ST02
	Purpose          ir.Value[string] // BHT02
	ReferenceID      ir.Value[string] // BHT03
	Created          ir.Value[time.Time]
	CreatedTime      ir.Value[string]
	ClaimType        ir.Value[string] // BHT06
	Submitter        ir.Value[*Party]
	Receiver         ir.Value[*Party]
	BillingProviders ir.ValueList[*BillingProvider]
}

// NewBatch returns an empty Batch.
func NewBatch() *Batch { return &Batch{} }

// Slots implements ir.Entity.
func (b *Batch) Slots() []ir.FieldSlot {
	return []ir.FieldSlot{
		{Key: "ControlNumber", Slot: &b.ControlNumber},
		{Key: "Purpose", Slot: &b.Purpose},
		{Key: "ReferenceID", Slot: &b.ReferenceID},
		{Key: "Created", Slot: &b.Created},
		{Key: "CreatedTime", Slot: &b.CreatedTime},
		{Key: "ClaimType", Slot: &b.ClaimType},
		{Key: "Submitter", Slot: &b.Submitter},
		{Key: "Receiver", Slot: &b.Receiver},
		{Key: "BillingProviders", Slot: &b.BillingProviders},
	}
}

// BillingProvider is the 2000A level.
type BillingProvider struct {
	Taxonomy    ir.Value[string]
	Provider    ir.Value[*Party]
	PayTo       ir.Value[*Party]
	Subscribers ir.ValueList[*Subscriber]
}

// NewBillingProvider returns an empty BillingProvider.
func NewBillingProvider() *BillingProvider { return &BillingProvider{} }

// Slots implements ir.Entity.
func (b *BillingProvider) Slots() []ir.FieldSlot {
	return []ir.FieldSlot{
		{Key: "Taxonomy", Slot: &b.Taxonomy},
		{Key: "Provider", Slot: &b.Provider},
		{Key: "PayTo", Slot: &b.PayTo},
		{Key: "Subscribers", Slot: &b.Subscribers},
	}
}

// Subscriber is the 2000B level. Claims directly under a subscriber are
// claims where the subscriber is the patient.
type Subscriber struct {
	PayerResponsibility ir.Value[string] // SBR01
	Relationship        ir.Value[string] // SBR02
	GroupNumber         ir.Value[string]
	GroupName           ir.Value[string]
	InsuranceType       ir.Value[string]
	FilingIndicator     ir.Value[string] // SBR09
	Member              ir.Value[*Party]
	Payer               ir.Value[*Party]
	Claims              ir.ValueList[*Claim]
	Patients            ir.ValueList[*Patient]
}

// NewSubscriber returns an empty Subscriber.
func NewSubscriber() *Subscriber { return &Subscriber{} }

// Slots implements ir.Entity.
func (s *Subscriber) Slots() []ir.FieldSlot {
	return []ir.FieldSlot{
		{Key: "PayerResponsibility", Slot: &s.PayerResponsibility},
		{Key: "Relationship", Slot: &s.Relationship},
		{Key: "GroupNumber", Slot: &s.GroupNumber},
		{Key: "GroupName", Slot: &s.GroupName},
		{Key: "InsuranceType", Slot: &s.InsuranceType},
		{Key: "FilingIndicator", Slot: &s.FilingIndicator},
		{Key: "Member", Slot: &s.Member},
		{Key: "Payer", Slot: &s.Payer},
		{Key: "Claims", Slot: &s.Claims},
		{Key: "Patients", Slot: &s.Patients},
	}
}

// Patient is the 2000C level, a dependent of the subscriber.
type Patient struct {
	Relationship ir.Value[string] // PAT01
	Person       ir.Value[*Party]
	Claims       ir.ValueList[*Claim]
}

// NewPatient returns an empty Patient.
func NewPatient() *Patient { return &Patient{} }

// Slots implements ir.Entity.
func (p *Patient) Slots() []ir.FieldSlot {
	return []ir.FieldSlot{
		{Key: "Relationship", Slot: &p.Relationship},
		{Key: "Person", Slot: &p.Person},
		{Key: "Claims", Slot: &p.Claims},
	}
}

// Claim is the 2300 loop.
type Claim struct {
	ClaimID              ir.Value[string]
	TotalCharge          ir.Value[apd.Decimal]
	FacilityCode         ir.Value[string] // CLM05-01, place of service
	FacilityQualifier    ir.Value[string]
	FrequencyCode        ir.Value[string]
	ProviderSignature    ir.Value[string]
	AcceptAssignment     ir.Value[string]
	BenefitsAssignment   ir.Value[string]
	ReleaseOfInformation ir.Value[string]
	OnsetDate            ir.Value[time.Time]
	AccidentDate         ir.Value[time.Time]
	PatientPaid          ir.Value[apd.Decimal]
	PriorAuthorization   ir.Value[string]
	OriginalClaimNumber  ir.Value[string]
	Diagnoses            ir.ValueList[*Diagnosis]
	RenderingProvider    ir.Value[*Party]
	Lines                ir.ValueList[*ServiceLine]
}

// NewClaim returns an empty Claim.
func NewClaim() *Claim { return &Claim{} }

// Slots implements ir.Entity.
func (c *Claim) Slots() []ir.FieldSlot {
	return []ir.FieldSlot{
		{Key: "ClaimID", Slot: &c.ClaimID},
		{Key: "TotalCharge", Slot: &c.TotalCharge},
		{Key: "FacilityCode", Slot: &c.FacilityCode},
		{Key: "FacilityQualifier", Slot: &c.FacilityQualifier},
		{Key: "FrequencyCode", Slot: &c.FrequencyCode},
		{Key: "ProviderSignature", Slot: &c.ProviderSignature},
		{Key: "AcceptAssignment", Slot: &c.AcceptAssignment},
		{Key: "BenefitsAssignment", Slot: &c.BenefitsAssignment},
		{Key: "ReleaseOfInformation", Slot: &c.ReleaseOfInformation},
		{Key: "OnsetDate", Slot: &c.OnsetDate},
		{Key: "AccidentDate", Slot: &c.AccidentDate},
		{Key: "PatientPaid", Slot: &c.PatientPaid},
		{Key: "PriorAuthorization", Slot: &c.PriorAuthorization},
		{Key: "OriginalClaimNumber", Slot: &c.OriginalClaimNumber},
		{Key: "Diagnoses", Slot: &c.Diagnoses},
		{Key: "RenderingProvider", Slot: &c.RenderingProvider},
		{Key: "Lines", Slot: &c.Lines},
	}
}

// Diagnosis is one HI code: ABK principal, ABF other (ICD-10).
type Diagnosis struct {
	Qualifier ir.Value[string]
	Code      ir.Value[string]
}

// NewDiagnosis returns an empty Diagnosis.
func NewDiagnosis() *Diagnosis { return &Diagnosis{} }

// Slots implements ir.Entity.
func (d *Diagnosis) Slots() []ir.FieldSlot {
	return []ir.FieldSlot{
		{Key: "Qualifier", Slot: &d.Qualifier},
		{Key: "Code", Slot: &d.Code},
	}
}

// ServiceLine is the 2400 loop.
type ServiceLine struct {
	LineNumber         ir.Value[int64]
	ProcedureQualifier ir.Value[string]
	Procedure          ir.Value[string]
	Modifiers          ir.ValueList[string]
	Description        ir.Value[string]
	Charge             ir.Value[apd.Decimal]
	Unit               ir.Value[string]
	Quantity           ir.Value[apd.Decimal]
	PlaceOfService     ir.Value[string]
	DiagnosisPointers  ir.ValueList[int64]
	ServiceDate        ir.Value[time.Time]
	ServiceEndDate     ir.Value[time.Time]
	ControlNumber      ir.Value[string]
}

// NewServiceLine returns an empty ServiceLine.
func NewServiceLine() *ServiceLine { return &ServiceLine{} }

// Slots implements ir.Entity.
func (l *ServiceLine) Slots() []ir.FieldSlot {
	return []ir.FieldSlot{
		{Key: "LineNumber", Slot: &l.LineNumber},
		{Key: "ProcedureQualifier", Slot: &l.ProcedureQualifier},
		{Key: "Procedure", Slot: &l.Procedure},
		{Key: "Modifiers", Slot: &l.Modifiers},
		{Key: "Description", Slot: &l.Description},
		{Key: "Charge", Slot: &l.Charge},
		{Key: "Unit", Slot: &l.Unit},
		{Key: "Quantity", Slot: &l.Quantity},
		{Key: "PlaceOfService", Slot: &l.PlaceOfService},
		{Key: "DiagnosisPointers", Slot: &l.DiagnosisPointers},
		{Key: "ServiceDate", Slot: &l.ServiceDate},
		{Key: "ServiceEndDate", Slot: &l.ServiceEndDate},
		{Key: "ControlNumber", Slot: &l.ControlNumber},
	}
}
