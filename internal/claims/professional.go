package claims

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GeekSage/Machete/internal/document"
	"github.com/GeekSage/Machete/internal/ir"
	"github.com/GeekSage/Machete/internal/schema"
	"github.com/GeekSage/Machete/internal/translate"
	"github.com/GeekSage/Machete/internal/x12"
)

// TransactionName is the catalog name of the 837 professional claim.
const TransactionName = "837P"

// Envelope is the interchange and functional group header data around the
// batches of an interchange.
type Envelope struct {
	SenderQualifier     string
	SenderID            string
	ReceiverQualifier   string
	ReceiverID          string
	Date                time.Time
	Time                string
	ControlNumber       int64
	AckRequested        string
	Usage               string // T test, P production
	ApplicationSender   string
	ApplicationReceiver string
	GroupControlNumber  int64
}

// Interchange is a decoded 837P interchange.
type Interchange struct {
	Envelope   Envelope
	Delimiters x12.Delimiters
	Batches    []*Batch
}

// loops are the 837P loop descriptors the specifications are built on.
type loops struct {
	name string
	tx   *schema.Loop

	submitter, receiver                   *schema.Loop
	billing, billingName, payTo           *schema.Loop
	subscriber, subscriberName, payerName *schema.Loop
	patient, patientName                  *schema.Loop
	claim, rendering, line                *schema.Loop

	diagnosis schema.Element
}

// names returns the name loops, each read and written as a Party.
func (ls loops) names() []*schema.Loop {
	return []*schema.Loop{
		ls.submitter, ls.receiver, ls.billingName, ls.payTo,
		ls.subscriberName, ls.payerName, ls.patientName, ls.rendering,
	}
}

// resolver walks loop references and keeps the first error.
type resolver struct {
	err error
}

func (r *resolver) loop(parent *schema.Loop, name string) *schema.Loop {
	if r.err != nil {
		return nil
	}
	ref, _, ok := parent.Child(name)
	if !ok || !ref.IsLoop() {
		r.err = fmt.Errorf("loop %s has no %s loop", parent.ID, name)
		return nil
	}
	return ref.Loop
}

func resolveLoops(name string, tx *schema.Loop) (loops, error) {
	var r resolver
	ls := loops{name: name, tx: tx}
	ls.submitter = r.loop(tx, "1000A")
	ls.receiver = r.loop(tx, "1000B")
	ls.billing = r.loop(tx, "2000A")
	if ls.billing != nil {
		ls.billingName = r.loop(ls.billing, "2010AA")
		ls.payTo = r.loop(ls.billing, "2010AB")
		ls.subscriber = r.loop(ls.billing, "2000B")
	}
	if ls.subscriber != nil {
		ls.subscriberName = r.loop(ls.subscriber, "2010BA")
		ls.payerName = r.loop(ls.subscriber, "2010BB")
		ls.claim = r.loop(ls.subscriber, "2300")
		ls.patient = r.loop(ls.subscriber, "2000C")
	}
	if ls.patient != nil {
		ls.patientName = r.loop(ls.patient, "2010CA")
	}
	if ls.claim != nil {
		ls.rendering = r.loop(ls.claim, "2310B")
		ls.line = r.loop(ls.claim, "2400")
	}
	if r.err != nil {
		return loops{}, fmt.Errorf("%s: %w", name, r.err)
	}

	hi, _, ok := ls.claim.Child("HI_Diagnosis")
	if !ok || hi.IsLoop() {
		return loops{}, fmt.Errorf("%s: loop %s has no HI_Diagnosis segment", name, ls.claim.ID)
	}
	first, ok := hi.Segment.Element("HI01")
	if !ok || !first.IsComposite() {
		return loops{}, fmt.Errorf("%s: HI01 is not a composite", name)
	}
	ls.diagnosis = first
	return ls, nil
}

// Professional translates 837P transactions to and from Batch entities.
// It is immutable and safe for concurrent use.
type Professional struct {
	root      *schema.Loop
	loops     loops
	version   string
	directory *Directory
	inbound   *inTranslator[*Batch]
	outbound  *outTranslator[*Batch]
}

// NewProfessional compiles the 837P translators against cat. The
// directory may be nil.
func NewProfessional(cat *schema.Catalog, dir *Directory) (*Professional, error) {
	tx, ok := cat.Transaction(TransactionName)
	if !ok {
		return nil, fmt.Errorf("catalog has no %s transaction", TransactionName)
	}
	root, err := cat.Interchange(TransactionName)
	if err != nil {
		return nil, err
	}
	group, _, _ := root.Child(schema.GroupRef)
	txRef, _, _ := group.Loop.Child(TransactionName)

	ls, err := resolveLoops(TransactionName, txRef.Loop)
	if err != nil {
		return nil, err
	}
	in, err := compileInbound(ls)
	if err != nil {
		return nil, fmt.Errorf("compile inbound %s: %w", TransactionName, err)
	}
	out, err := compileOutbound(ls)
	if err != nil {
		return nil, fmt.Errorf("compile outbound %s: %w", TransactionName, err)
	}
	slog.Debug("compiled claim translators", "transaction", TransactionName,
		"inbound_rules", len(in.Rules()), "outbound_rules", len(out.Rules()), "payers", dir.Len())
	return &Professional{
		root:      root,
		loops:     ls,
		version:   tx.Version,
		directory: dir,
		inbound:   in,
		outbound:  out,
	}, nil
}

// Schema returns the interchange schema 837P documents bind against.
func (p *Professional) Schema() *schema.Loop {
	return p.root
}

// Inbound returns the layout-to-Batch translator.
func (p *Professional) Inbound() *translate.Translator[*Batch, *document.Layout, *Directory] {
	return p.inbound
}

// Outbound returns the Batch-to-layout translator.
func (p *Professional) Outbound() *translate.Translator[*document.Layout, *Batch, *Directory] {
	return p.outbound
}

// Register adds both translators to reg.
func (p *Professional) Register(reg *translate.Registry) error {
	if err := translate.Register(reg, p.inbound); err != nil {
		return err
	}
	return translate.Register(reg, p.outbound)
}

// Decode translates every 837P transaction of doc. Transactions of other
// types are skipped.
func (p *Professional) Decode(doc *document.Document) (*Interchange, error) {
	ic := &Interchange{Delimiters: doc.Delimiters}
	if isa := doc.Root.Segment("ISA"); isa != nil {
		ic.Envelope = readEnvelope(isa, firstGS(doc.Root))
	}
	for i, tx := range doc.Transactions() {
		if tx.Descriptor().ID != p.loops.tx.ID {
			slog.Debug("skipping transaction", "index", i, "loop", tx.Descriptor().ID)
			continue
		}
		batch, err := p.inbound.Translate(tx, p.directory)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		ic.Batches = append(ic.Batches, batch)
	}
	return ic, nil
}

// DecodeLayout translates one bound 837P transaction layout.
func (p *Professional) DecodeLayout(tx *document.Layout) (*Batch, error) {
	if tx.Descriptor().ID != p.loops.tx.ID {
		return nil, fmt.Errorf("layout %s is not a %s transaction", tx.Descriptor().ID, TransactionName)
	}
	return p.inbound.Translate(tx, p.directory)
}

// Encode builds a sealed document from ic: one functional group holding a
// transaction per batch. Batches without a control number are numbered
// by position; hierarchical levels are numbered per transaction.
func (p *Professional) Encode(ic *Interchange) (*document.Document, error) {
	d := ic.Delimiters
	if d.Element == 0 {
		d = x12.DefaultDelimiters()
	}
	doc := document.New(p.root, d)

	isa, err := doc.Root.NewSegment("ISA")
	if err != nil {
		return nil, err
	}
	group, err := doc.Root.NewLoop(schema.GroupRef)
	if err != nil {
		return nil, err
	}
	if err := writeEnvelope(isa, group.Segment("GS"), ic.Envelope, d, p.version); err != nil {
		return nil, err
	}

	for i, batch := range ic.Batches {
		tx, err := p.outbound.Translate(batch, p.directory)
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", i, err)
		}
		st := tx.Segment("ST")
		if st != nil && st.Text("ST02").IsMissing() {
			if err := st.SetText("ST02", document.ControlNumber(i+1)); err != nil {
				return nil, err
			}
		}
		if err := document.NumberLevels(tx); err != nil {
			return nil, fmt.Errorf("batch %d: %w", i, err)
		}
		if err := group.AddLoop(TransactionName, tx); err != nil {
			return nil, err
		}
	}
	if err := document.SealEnvelope(doc); err != nil {
		return nil, err
	}
	slog.Debug("encoded interchange", "batches", len(ic.Batches))
	return doc, nil
}

func firstGS(root *document.Layout) *document.Segment {
	group := root.Loop(schema.GroupRef)
	if group == nil {
		return nil
	}
	return group.Segment("GS")
}

// trimmed returns a fixed-width text element without its padding.
func trimmed(seg *document.Segment, ref string) string {
	return strings.TrimRight(seg.Text(ref).OrElse(""), " ")
}

func readEnvelope(isa, gs *document.Segment) Envelope {
	env := Envelope{
		SenderQualifier:   trimmed(isa, "ISA05"),
		SenderID:          trimmed(isa, "ISA06"),
		ReceiverQualifier: trimmed(isa, "ISA07"),
		ReceiverID:        trimmed(isa, "ISA08"),
		Date:              ir.Get[time.Time](isa, "ISA09").OrElse(time.Time{}),
		Time:              trimmed(isa, "ISA10"),
		ControlNumber:     ir.Get[int64](isa, "ISA13").OrElse(0),
		AckRequested:      trimmed(isa, "ISA14"),
		Usage:             trimmed(isa, "ISA15"),
	}
	if gs != nil {
		env.ApplicationSender = trimmed(gs, "GS02")
		env.ApplicationReceiver = trimmed(gs, "GS03")
		env.GroupControlNumber = ir.Get[int64](gs, "GS06").OrElse(0)
		if date, ok := ir.Get[time.Time](gs, "GS04").Get(); ok {
			env.Date = date
		}
	}
	return env
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func writeEnvelope(isa, gs *document.Segment, env Envelope, d x12.Delimiters, version string) error {
	repetition := "^"
	if d.Repetition != 0 {
		repetition = string(d.Repetition)
	}
	f := &filler{seg: isa}
	putText(f, "ISA01", "00")
	putText(f, "ISA02", "")
	putText(f, "ISA03", "00")
	putText(f, "ISA04", "")
	putText(f, "ISA05", orDefault(env.SenderQualifier, "ZZ"))
	putText(f, "ISA06", env.SenderID)
	putText(f, "ISA07", orDefault(env.ReceiverQualifier, "ZZ"))
	putText(f, "ISA08", env.ReceiverID)
	put(f, "ISA09", ir.Present(env.Date))
	putText(f, "ISA10", env.Time)
	putText(f, "ISA11", repetition)
	putText(f, "ISA12", "00501")
	put(f, "ISA13", ir.Present(env.ControlNumber))
	putText(f, "ISA14", orDefault(env.AckRequested, "0"))
	putText(f, "ISA15", orDefault(env.Usage, "P"))
	putText(f, "ISA16", string(d.Component))
	if f.err != nil {
		return fmt.Errorf("ISA: %w", f.err)
	}

	f = &filler{seg: gs}
	putText(f, "GS01", "HC")
	putText(f, "GS02", orDefault(env.ApplicationSender, env.SenderID))
	putText(f, "GS03", orDefault(env.ApplicationReceiver, env.ReceiverID))
	put(f, "GS04", ir.Present(env.Date))
	putText(f, "GS05", env.Time)
	put(f, "GS06", ir.Present(env.GroupControlNumber))
	putText(f, "GS07", "X")
	putText(f, "GS08", version)
	if f.err != nil {
		return fmt.Errorf("GS: %w", f.err)
	}
	return nil
}
