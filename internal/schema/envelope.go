package schema

func el(ref, name string, t ElementType, u Usage, minLen, maxLen int) Element {
	return Element{Ref: ref, Name: name, Type: t, Usage: u, MinLength: minLen, MaxLength: maxLen}
}

// Envelope segment descriptors. ISA elements are fixed width.
var (
	ISA = &Segment{Tag: "ISA", Name: "Interchange Control Header", Elements: []Element{
		el("ISA01", "Authorization Information Qualifier", TypeID, UsageRequired, 2, 2),
		el("ISA02", "Authorization Information", TypeAN, UsageRequired, 10, 10),
		el("ISA03", "Security Information Qualifier", TypeID, UsageRequired, 2, 2),
		el("ISA04", "Security Information", TypeAN, UsageRequired, 10, 10),
		el("ISA05", "Interchange ID Qualifier", TypeID, UsageRequired, 2, 2),
		el("ISA06", "Interchange Sender ID", TypeAN, UsageRequired, 15, 15),
		el("ISA07", "Interchange ID Qualifier", TypeID, UsageRequired, 2, 2),
		el("ISA08", "Interchange Receiver ID", TypeAN, UsageRequired, 15, 15),
		el("ISA09", "Interchange Date", TypeDT, UsageRequired, 6, 6),
		el("ISA10", "Interchange Time", TypeTM, UsageRequired, 4, 4),
		el("ISA11", "Repetition Separator", TypeAN, UsageRequired, 1, 1),
		el("ISA12", "Interchange Control Version Number", TypeID, UsageRequired, 5, 5),
		el("ISA13", "Interchange Control Number", TypeN0, UsageRequired, 9, 9),
		el("ISA14", "Acknowledgment Requested", TypeID, UsageRequired, 1, 1),
		el("ISA15", "Interchange Usage Indicator", TypeID, UsageRequired, 1, 1),
		el("ISA16", "Component Element Separator", TypeAN, UsageRequired, 1, 1),
	}}

	IEA = &Segment{Tag: "IEA", Name: "Interchange Control Trailer", Elements: []Element{
		el("IEA01", "Number of Included Functional Groups", TypeN0, UsageRequired, 1, 5),
		el("IEA02", "Interchange Control Number", TypeN0, UsageRequired, 9, 9),
	}}

	GS = &Segment{Tag: "GS", Name: "Functional Group Header", Elements: []Element{
		el("GS01", "Functional Identifier Code", TypeID, UsageRequired, 2, 2),
		el("GS02", "Application Sender's Code", TypeAN, UsageRequired, 2, 15),
		el("GS03", "Application Receiver's Code", TypeAN, UsageRequired, 2, 15),
		el("GS04", "Date", TypeDT, UsageRequired, 8, 8),
		el("GS05", "Time", TypeTM, UsageRequired, 4, 8),
		el("GS06", "Group Control Number", TypeN0, UsageRequired, 1, 9),
		el("GS07", "Responsible Agency Code", TypeID, UsageRequired, 1, 2),
		el("GS08", "Version / Release / Industry Identifier Code", TypeAN, UsageRequired, 1, 12),
	}}

	GE = &Segment{Tag: "GE", Name: "Functional Group Trailer", Elements: []Element{
		el("GE01", "Number of Transaction Sets Included", TypeN0, UsageRequired, 1, 6),
		el("GE02", "Group Control Number", TypeN0, UsageRequired, 1, 9),
	}}

	ST = &Segment{Tag: "ST", Name: "Transaction Set Header", Elements: []Element{
		el("ST01", "Transaction Set Identifier Code", TypeID, UsageRequired, 3, 3),
		el("ST02", "Transaction Set Control Number", TypeAN, UsageRequired, 4, 9),
		el("ST03", "Implementation Convention Reference", TypeAN, UsageSituational, 1, 35),
	}}

	SE = &Segment{Tag: "SE", Name: "Transaction Set Trailer", Elements: []Element{
		el("SE01", "Number of Included Segments", TypeN0, UsageRequired, 1, 10),
		el("SE02", "Transaction Set Control Number", TypeAN, UsageRequired, 4, 9),
	}}
)

// Envelope reference and loop names, used as field keys on bound layouts.
const (
	InterchangeLoopID = "ISA_LOOP"
	GroupLoopID       = "GS_LOOP"
	GroupRef          = "FunctionalGroup"
)

// Interchange wraps transaction bodies in the ISA/GS/ST envelope:
//
//	ISA
//	GS loop (1..>1)
//	  GS
//	  <one ST loop reference per transaction, named after it> (0..>1)
//	    ST (qualified by ST01 and, when set, ST03)
//	    <transaction body>
//	    SE
//	  GE
//	IEA
func Interchange(txs ...*Transaction) *Loop {
	group := &Loop{ID: GroupLoopID, Name: "Functional Group"}
	group.Children = append(group.Children, &Reference{Name: "GS", Min: 1, Max: 1, Segment: GS})
	for _, tx := range txs {
		group.Children = append(group.Children, &Reference{
			Name: tx.Name,
			Min:  0,
			Max:  Unbounded,
			Loop: TransactionLoop(tx),
		})
	}
	group.Children = append(group.Children, &Reference{Name: "GE", Min: 1, Max: 1, Segment: GE})

	return &Loop{
		ID:   InterchangeLoopID,
		Name: "Interchange",
		Children: []*Reference{
			{Name: "ISA", Min: 1, Max: 1, Segment: ISA},
			{Name: GroupRef, Min: 1, Max: Unbounded, Loop: group},
			{Name: "IEA", Min: 1, Max: 1, Segment: IEA},
		},
	}
}

// TransactionLoop returns the ST..SE loop of one transaction.
func TransactionLoop(tx *Transaction) *Loop {
	qualifiers := []Qualifier{{Element: 1, Values: []string{tx.ID}}}
	if tx.Version != "" {
		qualifiers = append(qualifiers, Qualifier{Element: 3, Values: []string{tx.Version}})
	}

	loop := &Loop{ID: "ST_" + tx.Name, Name: tx.Title}
	loop.Children = append(loop.Children, &Reference{Name: "ST", Min: 1, Max: 1, Segment: ST, Qualifiers: qualifiers})
	if tx.Body != nil {
		loop.Children = append(loop.Children, tx.Body.Children...)
	}
	loop.Children = append(loop.Children, &Reference{Name: "SE", Min: 1, Max: 1, Segment: SE})
	return loop
}
