package claims

import (
	"fmt"
	"time"

	"github.com/GeekSage/Machete/internal/document"
	"github.com/GeekSage/Machete/internal/ir"
	"github.com/GeekSage/Machete/internal/schema"
	"github.com/GeekSage/Machete/internal/translate"
)

type (
	outSpec[I ir.Entity]       = translate.Spec[*document.Layout, I, *Directory]
	outCtx[I ir.Entity]        = translate.Context[*document.Layout, I, *Directory]
	outTranslator[I ir.Entity] = translate.Translator[*document.Layout, I, *Directory]
)

const (
	maxDiagnoses = 12
	maxPointers  = 4
	maxModifiers = 4
)

// compileOutbound builds the Batch-to-layout translator from shared
// compiled translators, bottom up.
func compileOutbound(ls loops) (*outTranslator[*Batch], error) {
	scrub, err := translate.Compile(scrubParty())
	if err != nil {
		return nil, err
	}
	parties := make(map[*schema.Loop]*outTranslator[*Party])
	for _, loop := range ls.names() {
		t, err := translate.Compile(partyOut(loop))
		if err != nil {
			return nil, err
		}
		parties[loop] = t
	}
	lines, err := translate.Compile(lineOut(ls.line))
	if err != nil {
		return nil, err
	}
	claims, err := translate.Compile(claimOut(ls, scrub, parties[ls.rendering], lines))
	if err != nil {
		return nil, err
	}

	patient := translate.New[*document.Layout, *Patient, *Directory]("outbound.Patient", layoutOf(ls.patient), NewPatient)
	writeSegment(patient, ls.patient, "HL", always[*Patient])
	writeSegment(patient, ls.patient, "PAT", func(f *filler, ctx *outCtx[*Patient]) bool {
		put(f, "PAT01", ctx.Input.Relationship)
		return true
	})
	translate.Translate(patient, "2010CA", parties[ls.patientName], partyOf(scrub, func(p *Patient) ir.Value[*Party] { return p.Person }))
	translate.TranslateEach(patient, "2300", claims, itemsOf(func(p *Patient) ir.ValueList[*Claim] { return p.Claims }))
	patients, err := translate.Compile(patient)
	if err != nil {
		return nil, err
	}

	subscriber := translate.New[*document.Layout, *Subscriber, *Directory]("outbound.Subscriber", layoutOf(ls.subscriber), NewSubscriber)
	writeSegment(subscriber, ls.subscriber, "HL", always[*Subscriber])
	writeSegment(subscriber, ls.subscriber, "SBR", func(f *filler, ctx *outCtx[*Subscriber]) bool {
		sub := ctx.Input
		put(f, "SBR01", sub.PayerResponsibility)
		put(f, "SBR02", sub.Relationship)
		put(f, "SBR03", sub.GroupNumber)
		put(f, "SBR04", sub.GroupName)
		put(f, "SBR05", sub.InsuranceType)
		put(f, "SBR09", sub.FilingIndicator)
		return true
	})
	subscriber.Exclude("PAT")
	translate.Translate(subscriber, "2010BA", parties[ls.subscriberName], partyOf(scrub, func(s *Subscriber) ir.Value[*Party] { return s.Member }))
	translate.Translate(subscriber, "2010BB", parties[ls.payerName], partyOf(scrub, func(s *Subscriber) ir.Value[*Party] { return s.Payer }))
	translate.TranslateEach(subscriber, "2300", claims, itemsOf(func(s *Subscriber) ir.ValueList[*Claim] { return s.Claims }))
	translate.TranslateEach(subscriber, "2000C", patients, itemsOf(func(s *Subscriber) ir.ValueList[*Patient] { return s.Patients }))
	subscribers, err := translate.Compile(subscriber)
	if err != nil {
		return nil, err
	}

	billing := translate.New[*document.Layout, *BillingProvider, *Directory]("outbound.BillingProvider", layoutOf(ls.billing), NewBillingProvider)
	writeSegment(billing, ls.billing, "HL", always[*BillingProvider])
	writeSegment(billing, ls.billing, "PRV", func(f *filler, ctx *outCtx[*BillingProvider]) bool {
		if ctx.Input.Taxonomy.IsMissing() {
			return false
		}
		putText(f, "PRV01", "BI")
		putText(f, "PRV02", "PXC")
		put(f, "PRV03", ctx.Input.Taxonomy)
		return true
	})
	translate.Translate(billing, "2010AA", parties[ls.billingName], partyOf(scrub, func(b *BillingProvider) ir.Value[*Party] { return b.Provider }))
	translate.Translate(billing, "2010AB", parties[ls.payTo], partyOf(scrub, func(b *BillingProvider) ir.Value[*Party] { return b.PayTo }))
	translate.TranslateEach(billing, "2000B", subscribers, itemsOf(func(b *BillingProvider) ir.ValueList[*Subscriber] { return b.Subscribers }))
	billings, err := translate.Compile(billing)
	if err != nil {
		return nil, err
	}

	batch := translate.New[*document.Layout, *Batch, *Directory]("outbound."+ls.name, layoutOf(ls.tx), NewBatch)
	writeSegment(batch, ls.tx, "ST", func(f *filler, ctx *outCtx[*Batch]) bool {
		put(f, "ST02", ctx.Input.ControlNumber)
		return true
	})
	writeSegment(batch, ls.tx, "BHT", func(f *filler, ctx *outCtx[*Batch]) bool {
		b := ctx.Input
		putText(f, "BHT01", "0019")
		put(f, "BHT02", b.Purpose)
		put(f, "BHT03", b.ReferenceID)
		put(f, "BHT04", b.Created)
		put(f, "BHT05", b.CreatedTime)
		put(f, "BHT06", b.ClaimType)
		return true
	})
	translate.Translate(batch, "1000A", parties[ls.submitter], partyOf(scrub, func(b *Batch) ir.Value[*Party] { return b.Submitter }))
	translate.Translate(batch, "1000B", parties[ls.receiver], partyOf(scrub, func(b *Batch) ir.Value[*Party] { return b.Receiver }))
	translate.TranslateEach(batch, "2000A", billings, itemsOf(func(b *Batch) ir.ValueList[*BillingProvider] { return b.BillingProviders }))
	batch.Exclude("SE")
	return translate.Compile(batch)
}

// scrubParty normalizes a party before it is written: postal codes and
// phone numbers keep their digits only.
func scrubParty() *translate.Spec[*Party, *Party, *Directory] {
	s := translate.New[*Party, *Party, *Directory]("outbound.ScrubParty", NewParty, NewParty)
	s.Copy("EntityType", "Name", "FirstName", "MiddleName", "Suffix", "IDQualifier", "ID",
		"Address1", "Address2", "City", "State", "ContactName",
		"TaxIDQualifier", "TaxID", "Taxonomy", "BirthDate", "Gender")
	for _, key := range []ir.FieldKey{"PostalCode", "Phone"} {
		translate.SetOptional(s, key, func(ctx *translate.Context[*Party, *Party, *Directory]) (string, bool, error) {
			v, ok := ir.Get[string](ctx.Input, key).Get()
			if !ok {
				return "", false, nil
			}
			return digits(v), true, nil
		})
	}
	return s
}

// partyFills writes the name-loop segments a Party carries.
var partyFills = map[string]fillFunc[*Party]{
	"NM1": func(f *filler, ctx *outCtx[*Party]) bool {
		p := ctx.Input
		entity := p.EntityType
		if entity.IsMissing() {
			entity = ir.Present("2")
			if p.FirstName.IsPresent() {
				entity = ir.Present("1")
			}
		}
		name := p.Name
		if name.IsMissing() && p.IDQualifier.OrElse("") == "PI" {
			if payer, ok := ctx.State.Payer(p.ID.OrElse("")); ok {
				name = ir.Present(payer.Name)
			}
		}
		put(f, "NM102", entity)
		put(f, "NM103", name)
		put(f, "NM104", p.FirstName)
		put(f, "NM105", p.MiddleName)
		put(f, "NM107", p.Suffix)
		put(f, "NM108", p.IDQualifier)
		put(f, "NM109", p.ID)
		return true
	},
	"N3": func(f *filler, ctx *outCtx[*Party]) bool {
		p := ctx.Input
		if p.Address1.IsMissing() {
			return false
		}
		put(f, "N301", p.Address1)
		put(f, "N302", p.Address2)
		return true
	},
	"N4": func(f *filler, ctx *outCtx[*Party]) bool {
		p := ctx.Input
		if p.City.IsMissing() && p.State.IsMissing() && p.PostalCode.IsMissing() {
			return false
		}
		put(f, "N401", p.City)
		put(f, "N402", p.State)
		put(f, "N403", p.PostalCode)
		return true
	},
	"PER": func(f *filler, ctx *outCtx[*Party]) bool {
		p := ctx.Input
		if p.ContactName.IsMissing() && p.Phone.IsMissing() {
			return false
		}
		putText(f, "PER01", "IC")
		put(f, "PER02", p.ContactName)
		if p.Phone.IsPresent() {
			putText(f, "PER03", "TE")
			put(f, "PER04", p.Phone)
		}
		return true
	},
	"REF_TaxID": func(f *filler, ctx *outCtx[*Party]) bool {
		p := ctx.Input
		if p.TaxID.IsMissing() {
			return false
		}
		putText(f, "REF01", p.TaxIDQualifier.OrElse("EI"))
		put(f, "REF02", p.TaxID)
		return true
	},
	"PRV": func(f *filler, ctx *outCtx[*Party]) bool {
		p := ctx.Input
		if p.Taxonomy.IsMissing() {
			return false
		}
		putText(f, "PRV01", "PE")
		putText(f, "PRV02", "PXC")
		put(f, "PRV03", p.Taxonomy)
		return true
	},
	"DMG": func(f *filler, ctx *outCtx[*Party]) bool {
		p := ctx.Input
		if p.BirthDate.IsMissing() && p.Gender.IsMissing() {
			return false
		}
		if born, ok := p.BirthDate.Get(); ok {
			putText(f, "DMG01", dateFormatD8)
			putText(f, "DMG02", born.Format(dateLayout))
		}
		put(f, "DMG03", p.Gender)
		return true
	},
}

// partyOut writes a name loop. Every segment reference of the loop that a
// Party cannot fill is excluded, so the same rules serve every name loop.
func partyOut(loop *schema.Loop) *outSpec[*Party] {
	s := translate.New[*document.Layout, *Party, *Directory]("outbound.Party."+loop.ID, layoutOf(loop), NewParty)
	for _, ref := range loop.Children {
		fill, ok := partyFills[ref.Name]
		switch {
		case !ok || ref.IsLoop():
			s.Exclude(ir.FieldKey(ref.Name))
		case ref.Single():
			writeSegment(s, loop, ref.Name, fill)
		default:
			writeSegments(s, loop, ref.Name, fill)
		}
	}
	return s
}

// claimOut writes a 2300 claim loop.
func claimOut(ls loops, scrub *translate.Translator[*Party, *Party, *Directory], rendering *outTranslator[*Party], lines *outTranslator[*ServiceLine]) *outSpec[*Claim] {
	loop := ls.claim
	s := translate.New[*document.Layout, *Claim, *Directory]("outbound.Claim", layoutOf(loop), NewClaim)
	writeSegment(s, loop, "CLM", func(f *filler, ctx *outCtx[*Claim]) bool {
		c := ctx.Input
		put(f, "CLM01", c.ClaimID)
		put(f, "CLM02", c.TotalCharge)
		putComposite(f, "CLM05", c.FacilityCode, c.FacilityQualifier, c.FrequencyCode)
		put(f, "CLM06", c.ProviderSignature)
		put(f, "CLM07", c.AcceptAssignment)
		put(f, "CLM08", c.BenefitsAssignment)
		put(f, "CLM09", c.ReleaseOfInformation)
		return true
	})
	writeSegment(s, loop, "DTP_OnsetDate", datePeriod(func(c *Claim) (ir.Value[time.Time], ir.Value[time.Time]) {
		return c.OnsetDate, ir.Missing[time.Time]()
	}))
	writeSegment(s, loop, "DTP_AccidentDate", datePeriod(func(c *Claim) (ir.Value[time.Time], ir.Value[time.Time]) {
		return c.AccidentDate, ir.Missing[time.Time]()
	}))
	writeSegment(s, loop, "AMT_PatientPaid", func(f *filler, ctx *outCtx[*Claim]) bool {
		if ctx.Input.PatientPaid.IsMissing() {
			return false
		}
		put(f, "AMT02", ctx.Input.PatientPaid)
		return true
	})
	writeSegment(s, loop, "REF_PriorAuthorization", reference(func(c *Claim) ir.Value[string] { return c.PriorAuthorization }))
	writeSegment(s, loop, "REF_ClaimNumber", reference(func(c *Claim) ir.Value[string] { return c.OriginalClaimNumber }))
	writeSegment(s, loop, "HI_Diagnosis", func(f *filler, ctx *outCtx[*Claim]) bool {
		codes := ctx.Input.Diagnoses.Items()
		if len(codes) == 0 {
			return false
		}
		if len(codes) > maxDiagnoses {
			f.err = fmt.Errorf("%d diagnoses, at most %d allowed", len(codes), maxDiagnoses)
			return true
		}
		for i, d := range codes {
			putComposite(f, fmt.Sprintf("HI%02d", i+1), d.Qualifier, d.Code)
		}
		return true
	})
	translate.Translate(s, "2310B", rendering, partyOf(scrub, func(c *Claim) ir.Value[*Party] { return c.RenderingProvider }))
	translate.TranslateEach(s, "2400", lines, itemsOf(func(c *Claim) ir.ValueList[*ServiceLine] { return c.Lines }))
	return s
}

// lineOut writes a 2400 service line loop.
func lineOut(loop *schema.Loop) *outSpec[*ServiceLine] {
	s := translate.New[*document.Layout, *ServiceLine, *Directory]("outbound.ServiceLine", layoutOf(loop), NewServiceLine)
	writeSegment(s, loop, "LX", func(f *filler, ctx *outCtx[*ServiceLine]) bool {
		put(f, "LX01", ctx.Input.LineNumber)
		return true
	})
	writeSegment(s, loop, "SV1", func(f *filler, ctx *outCtx[*ServiceLine]) bool {
		l := ctx.Input
		mods := l.Modifiers.Items()
		if len(mods) > maxModifiers {
			f.err = fmt.Errorf("%d procedure modifiers, at most %d allowed", len(mods), maxModifiers)
			return true
		}
		procedure := []ir.Value[string]{l.ProcedureQualifier, l.Procedure}
		for i := range maxModifiers {
			procedure = append(procedure, l.Modifiers.At(i))
		}
		procedure = append(procedure, l.Description)
		putComposite(f, "SV101", procedure...)
		put(f, "SV102", l.Charge)
		put(f, "SV103", l.Unit)
		put(f, "SV104", l.Quantity)
		put(f, "SV105", l.PlaceOfService)

		ptrs := l.DiagnosisPointers.Items()
		if len(ptrs) > maxPointers {
			f.err = fmt.Errorf("%d diagnosis pointers, at most %d allowed", len(ptrs), maxPointers)
			return true
		}
		pointers := make([]ir.Value[int64], len(ptrs))
		for i, p := range ptrs {
			pointers[i] = ir.Present(p)
		}
		putComposite(f, "SV107", pointers...)
		return true
	})
	writeSegment(s, loop, "DTP_ServiceDate", datePeriod(func(l *ServiceLine) (ir.Value[time.Time], ir.Value[time.Time]) {
		return l.ServiceDate, l.ServiceEndDate
	}))
	writeSegment(s, loop, "REF_LineItemControl", reference(func(l *ServiceLine) ir.Value[string] { return l.ControlNumber }))
	return s
}

// datePeriod writes a DTP segment whose qualifier the reference pins: D8
// for a single date, RD8 when an end date is present.
func datePeriod[I ir.Entity](get func(I) (start, end ir.Value[time.Time])) fillFunc[I] {
	return func(f *filler, ctx *outCtx[I]) bool {
		start, end := get(ctx.Input)
		from, ok := start.Get()
		if !ok {
			return false
		}
		if to, ok := end.Get(); ok {
			putText(f, "DTP02", dateFormatRD8)
			putText(f, "DTP03", from.Format(dateLayout)+"-"+to.Format(dateLayout))
			return true
		}
		putText(f, "DTP02", dateFormatD8)
		putText(f, "DTP03", from.Format(dateLayout))
		return true
	}
}

// reference writes a REF segment whose qualifier the reference pins.
func reference[I ir.Entity](get func(I) ir.Value[string]) fillFunc[I] {
	return func(f *filler, ctx *outCtx[I]) bool {
		v := get(ctx.Input)
		if v.IsMissing() {
			return false
		}
		put(f, "REF02", v)
		return true
	}
}
