package claims

import (
	"time"

	"github.com/GeekSage/Machete/internal/document"
	"github.com/GeekSage/Machete/internal/ir"
	"github.com/GeekSage/Machete/internal/schema"
	"github.com/GeekSage/Machete/internal/translate"
)

type (
	inSpec[R ir.Entity]       = translate.Spec[R, *document.Layout, *Directory]
	inCtx[R ir.Entity]        = translate.Context[R, *document.Layout, *Directory]
	inTranslator[R ir.Entity] = translate.Translator[R, *document.Layout, *Directory]
)

func layoutOf(loop *schema.Loop) func() *document.Layout {
	return func() *document.Layout { return document.NewLayout(loop) }
}

// compileInbound builds the layout-to-Batch translator. Name loops and
// service lines use shared compiled translators; the HL levels and claims
// are inline specifications validated as one tree.
func compileInbound(ls loops) (*inTranslator[*Batch], error) {
	parties := make(map[*schema.Loop]*inTranslator[*Party])
	for _, loop := range ls.names() {
		t, err := translate.Compile(partyIn(loop))
		if err != nil {
			return nil, err
		}
		parties[loop] = t
	}
	diagnoses, err := translate.Compile(diagnosisIn(ls.diagnosis))
	if err != nil {
		return nil, err
	}
	lines, err := translate.Compile(lineIn(ls.line))
	if err != nil {
		return nil, err
	}

	claim := func(s *inSpec[*Claim]) {
		readText(s, "ClaimID", "CLM", "CLM01")
		readDecimal(s, "TotalCharge", "CLM", "CLM02")
		readComponent(s, "FacilityCode", "CLM", "CLM05", "CLM05-01")
		readComponent(s, "FacilityQualifier", "CLM", "CLM05", "CLM05-02")
		readComponent(s, "FrequencyCode", "CLM", "CLM05", "CLM05-03")
		readText(s, "ProviderSignature", "CLM", "CLM06")
		readText(s, "AcceptAssignment", "CLM", "CLM07")
		readText(s, "BenefitsAssignment", "CLM", "CLM08")
		readText(s, "ReleaseOfInformation", "CLM", "CLM09")
		readDate(s, "OnsetDate", "DTP_OnsetDate")
		readDate(s, "AccidentDate", "DTP_AccidentDate")
		readDecimal(s, "PatientPaid", "AMT_PatientPaid", "AMT02")
		readText(s, "PriorAuthorization", "REF_PriorAuthorization", "REF02")
		readText(s, "OriginalClaimNumber", "REF_ClaimNumber", "REF02")
		translate.TranslateEach(s, "Diagnoses", diagnoses, diagnosisCodes)
		translate.Translate(s, "RenderingProvider", parties[ls.rendering], loopOf[*Claim]("2310B"))
		translate.TranslateEach(s, "Lines", lines, loopsOf[*Claim]("2400"))
	}

	patient := func(s *inSpec[*Patient]) {
		readText(s, "Relationship", "PAT", "PAT01")
		translate.Translate(s, "Person", parties[ls.patientName], loopOf[*Patient]("2010CA"))
		translate.TranslateEachInline(s, "Claims", NewClaim, layoutOf(ls.claim), claim, loopsOf[*Patient]("2300"))
	}

	subscriber := func(s *inSpec[*Subscriber]) {
		readText(s, "PayerResponsibility", "SBR", "SBR01")
		readText(s, "Relationship", "SBR", "SBR02")
		readText(s, "GroupNumber", "SBR", "SBR03")
		readText(s, "GroupName", "SBR", "SBR04")
		readText(s, "InsuranceType", "SBR", "SBR05")
		readText(s, "FilingIndicator", "SBR", "SBR09")
		translate.Translate(s, "Member", parties[ls.subscriberName], loopOf[*Subscriber]("2010BA"))
		translate.Translate(s, "Payer", parties[ls.payerName], loopOf[*Subscriber]("2010BB"))
		translate.TranslateEachInline(s, "Claims", NewClaim, layoutOf(ls.claim), claim, loopsOf[*Subscriber]("2300"))
		translate.TranslateEachInline(s, "Patients", NewPatient, layoutOf(ls.patient), patient, loopsOf[*Subscriber]("2000C"))
	}

	billing := func(s *inSpec[*BillingProvider]) {
		readText(s, "Taxonomy", "PRV", "PRV03")
		translate.Translate(s, "Provider", parties[ls.billingName], loopOf[*BillingProvider]("2010AA"))
		translate.Translate(s, "PayTo", parties[ls.payTo], loopOf[*BillingProvider]("2010AB"))
		translate.TranslateEachInline(s, "Subscribers", NewSubscriber, layoutOf(ls.subscriber), subscriber, loopsOf[*BillingProvider]("2000B"))
	}

	batch := translate.New[*Batch, *document.Layout, *Directory]("inbound."+ls.name, NewBatch, layoutOf(ls.tx))
	readText(batch, "ControlNumber", "ST", "ST02")
	readText(batch, "Purpose", "BHT", "BHT02")
	readText(batch, "ReferenceID", "BHT", "BHT03")
	translate.SetValue(batch, "Created", func(ctx *inCtx[*Batch]) (ir.Value[time.Time], error) {
		bht := ctx.Input.Segment("BHT")
		if bht == nil {
			return ir.Missing[time.Time](), nil
		}
		return ir.Get[time.Time](bht, "BHT04"), nil
	})
	readText(batch, "CreatedTime", "BHT", "BHT05")
	readText(batch, "ClaimType", "BHT", "BHT06")
	translate.Translate(batch, "Submitter", parties[ls.submitter], loopOf[*Batch]("1000A"))
	translate.Translate(batch, "Receiver", parties[ls.receiver], loopOf[*Batch]("1000B"))
	translate.TranslateEachInline(batch, "BillingProviders", NewBillingProvider, layoutOf(ls.billing), billing, loopsOf[*Batch]("2000A"))
	return translate.Compile(batch)
}

// partyIn reads a name loop: NM1 plus whichever of N3, N4, PER,
// REF_TaxID, PRV and DMG the loop carries.
func partyIn(loop *schema.Loop) *inSpec[*Party] {
	s := translate.New[*Party, *document.Layout, *Directory]("inbound.Party."+loop.ID, NewParty, layoutOf(loop))
	readText(s, "EntityType", "NM1", "NM102")
	translate.SetOptional(s, "Name", func(ctx *inCtx[*Party]) (string, bool, error) {
		if name, ok := text(ctx.Input, "NM1", "NM103"); ok {
			return name, true, nil
		}
		if payer, ok := lookupPayer(ctx.State, ctx.Input); ok {
			return payer.Name, true, nil
		}
		return "", false, nil
	})
	readText(s, "FirstName", "NM1", "NM104")
	readText(s, "MiddleName", "NM1", "NM105")
	readText(s, "Suffix", "NM1", "NM107")
	readText(s, "IDQualifier", "NM1", "NM108")
	readText(s, "ID", "NM1", "NM109")
	readText(s, "Address1", "N3", "N301")
	readText(s, "Address2", "N3", "N302")
	readText(s, "City", "N4", "N401")
	readText(s, "State", "N4", "N402")
	readText(s, "PostalCode", "N4", "N403")
	readText(s, "ContactName", "PER", "PER02")
	translate.SetOptional(s, "Phone", func(ctx *inCtx[*Party]) (string, bool, error) {
		per := ctx.Input.Segment("PER")
		if per == nil {
			return "", false, nil
		}
		for _, pair := range [][2]string{{"PER03", "PER04"}, {"PER05", "PER06"}, {"PER07", "PER08"}} {
			if q, _ := per.Text(pair[0]).Get(); q == "TE" {
				v, ok := per.Text(pair[1]).Get()
				return v, ok, nil
			}
		}
		return "", false, nil
	})
	readText(s, "TaxIDQualifier", "REF_TaxID", "REF01")
	readText(s, "TaxID", "REF_TaxID", "REF02")
	readText(s, "Taxonomy", "PRV", "PRV03")
	translate.SetValue(s, "BirthDate", func(ctx *inCtx[*Party]) (ir.Value[time.Time], error) {
		start, _, err := period(ctx.Input, "DMG", "DMG01", "DMG02")
		return start, err
	})
	readText(s, "Gender", "DMG", "DMG03")
	return s
}

// lookupPayer resolves a name loop identified by payer ID.
func lookupPayer(dir *Directory, l *document.Layout) (Payer, bool) {
	qualifier, _ := text(l, "NM1", "NM108")
	id, ok := text(l, "NM1", "NM109")
	if !ok || qualifier != "PI" {
		return Payer{}, false
	}
	return dir.Payer(id)
}

// diagnosisIn reads one HI composite by position: code list qualifier,
// then industry code.
func diagnosisIn(hi schema.Element) *translate.Spec[*Diagnosis, *document.Composite, *Directory] {
	s := translate.New[*Diagnosis, *document.Composite, *Directory]("inbound.Diagnosis", NewDiagnosis,
		func() *document.Composite { return document.NewComposite(hi) })
	translate.SetOptional(s, "Qualifier", func(ctx *translate.Context[*Diagnosis, *document.Composite, *Directory]) (string, bool, error) {
		v, ok := componentAt(ctx.Input, 0)
		return v, ok, nil
	})
	translate.SetOptional(s, "Code", func(ctx *translate.Context[*Diagnosis, *document.Composite, *Directory]) (string, bool, error) {
		v, ok := componentAt(ctx.Input, 1)
		return v, ok, nil
	})
	return s
}

// diagnosisCodes narrows a claim to its present HI composites in element
// order.
func diagnosisCodes(ctx *inCtx[*Claim]) ([]*document.Composite, bool, error) {
	hi := ctx.Input.Segment("HI_Diagnosis")
	if hi == nil {
		return nil, false, nil
	}
	var out []*document.Composite
	for _, fs := range hi.Slots() {
		v, ok := fs.Slot.(*ir.Value[*document.Composite])
		if !ok {
			continue
		}
		if c, present := v.Get(); present && c != nil {
			out = append(out, c)
		}
	}
	return out, len(out) > 0, nil
}

// lineIn reads a 2400 service line.
func lineIn(loop *schema.Loop) *inSpec[*ServiceLine] {
	s := translate.New[*ServiceLine, *document.Layout, *Directory]("inbound.ServiceLine", NewServiceLine, layoutOf(loop))
	translate.SetValue(s, "LineNumber", func(ctx *inCtx[*ServiceLine]) (ir.Value[int64], error) {
		return integer(ctx.Input, "LX", "LX01"), nil
	})
	readComponent(s, "ProcedureQualifier", "SV1", "SV101", "SV101-01")
	readComponent(s, "Procedure", "SV1", "SV101", "SV101-02")
	translate.SetList(s, "Modifiers", func(ctx *inCtx[*ServiceLine]) (ir.ValueList[string], error) {
		var mods []string
		for _, ref := range modifierRefs {
			if v, ok := component(ctx.Input, "SV1", "SV101", ref); ok {
				mods = append(mods, v)
			}
		}
		if len(mods) == 0 {
			return ir.MissingList[string](), nil
		}
		return ir.PresentList(mods...), nil
	})
	readComponent(s, "Description", "SV1", "SV101", "SV101-07")
	readDecimal(s, "Charge", "SV1", "SV102")
	readText(s, "Unit", "SV1", "SV103")
	readDecimal(s, "Quantity", "SV1", "SV104")
	readText(s, "PlaceOfService", "SV1", "SV105")
	translate.SetList(s, "DiagnosisPointers", func(ctx *inCtx[*ServiceLine]) (ir.ValueList[int64], error) {
		sv1 := ctx.Input.Segment("SV1")
		if sv1 == nil || sv1.Composite("SV107") == nil {
			return ir.MissingList[int64](), nil
		}
		c := sv1.Composite("SV107")
		var ptrs []int64
		for _, ref := range pointerRefs {
			if v, ok := ir.Get[int64](c, ir.FieldKey(ref)).Get(); ok {
				ptrs = append(ptrs, v)
			}
		}
		return ir.PresentList(ptrs...), nil
	})
	translate.SetValue(s, "ServiceDate", func(ctx *inCtx[*ServiceLine]) (ir.Value[time.Time], error) {
		start, _, err := period(ctx.Input, "DTP_ServiceDate", "DTP02", "DTP03")
		return start, err
	})
	translate.SetValue(s, "ServiceEndDate", func(ctx *inCtx[*ServiceLine]) (ir.Value[time.Time], error) {
		_, end, err := period(ctx.Input, "DTP_ServiceDate", "DTP02", "DTP03")
		return end, err
	})
	readText(s, "ControlNumber", "REF_LineItemControl", "REF02")
	return s
}

var (
	modifierRefs = []string{"SV101-03", "SV101-04", "SV101-05", "SV101-06"}
	pointerRefs  = []string{"SV107-01", "SV107-02", "SV107-03", "SV107-04"}
)
