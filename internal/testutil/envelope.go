package testutil

import (
	"fmt"
	"strings"
)

// Envelope builds X12 interchanges around transaction bodies with the
// default delimiters (* : ^ ~). Trailer counts and control numbers are
// computed, so fixtures only spell out the segments under test.
type Envelope struct {
	Sender   string
	Receiver string
	Usage    string // ISA15, T or P

	Interchange int64 // ISA13
	Group       int64 // GS06

	TransactionID string // ST01
	Version       string // ST03 and GS08

	// Suffix follows every terminator, "\n" for readable fixtures.
	Suffix string
}

// NewEnvelope returns an 837P test envelope.
func NewEnvelope() Envelope {
	return Envelope{
		Sender:        "SUBMITTERID",
		Receiver:      "RECEIVERID",
		Usage:         "T",
		Interchange:   905,
		Group:         1,
		TransactionID: "837",
		Version:       "005010X222A1",
	}
}

// ISA returns the fixed-width interchange header.
func (e Envelope) ISA() string {
	return fmt.Sprintf("ISA*00*%-10s*00*%-10s*ZZ*%-15s*ZZ*%-15s*230101*1253*^*00501*%09d*0*%s*:",
		"", "", e.Sender, e.Receiver, e.Interchange, e.Usage)
}

// Build wraps each body (segments without terminators) in ST/SE, all of
// them in one GS/GE group, and the group in ISA/IEA.
func (e Envelope) Build(bodies ...[]string) string {
	segs := []string{
		e.ISA(),
		fmt.Sprintf("GS*HC*%s*%s*20230101*1253*%d*X*%s", e.Sender, e.Receiver, e.Group, e.Version),
	}
	for i, body := range bodies {
		control := fmt.Sprintf("%04d", i+1)
		st := fmt.Sprintf("ST*%s*%s", e.TransactionID, control)
		if e.Version != "" {
			st += "*" + e.Version
		}
		segs = append(segs, st)
		segs = append(segs, body...)
		segs = append(segs, fmt.Sprintf("SE*%d*%s", len(body)+2, control))
	}
	segs = append(segs,
		fmt.Sprintf("GE*%d*%d", len(bodies), e.Group),
		fmt.Sprintf("IEA*1*%09d", e.Interchange),
	)
	return Join(e.Suffix, segs...)
}

// Join terminates every segment with "~" plus suffix.
func Join(suffix string, segs ...string) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s)
		b.WriteByte('~')
		b.WriteString(suffix)
	}
	return b.String()
}

// Professional837 is a two-subscriber 837P body: one subscriber is the
// patient, the other has a dependent patient level.
func Professional837() []string {
	return []string{
		"BHT*0019*00*244579*20230101*1253*CH",
		"NM1*41*2*ACME BILLING*****46*123456789",
		"PER*IC*JANE DOE*TE*5555551234",
		"NM1*40*2*PAYER CLEARINGHOUSE*****46*987654321",
		"HL*1**20*1",
		"PRV*BI*PXC*207Q00000X",
		"NM1*85*2*ACME CLINIC*****XX*1234567893",
		"N3*123 MAIN ST",
		"N4*SPRINGFIELD*IL*627010000",
		"REF*EI*371234567",
		"HL*2*1*22*0",
		"SBR*P*18*GRP123******CI",
		"NM1*IL*1*DOE*JOHN****MI*W123456789",
		"N3*456 OAK AVE",
		"N4*SPRINGFIELD*IL*62702",
		"DMG*D8*19800115*M",
		"NM1*PR*2*ACME HEALTH PLAN*****PI*PAYER01",
		"CLM*PATIENT001*150.00***11:B:1*Y*A*Y*Y",
		"HI*ABK:J069",
		"LX*1",
		"SV1*HC:99213*100.00*UN*1***1",
		"DTP*472*D8*20230101",
		"LX*2",
		"SV1*HC:87880*50.00*UN*1***1",
		"DTP*472*D8*20230101",
		"HL*3*1*22*1",
		"SBR*P**GRP456******CI",
		"NM1*IL*1*SMITH*JANE****MI*W987654321",
		"NM1*PR*2*ACME HEALTH PLAN*****PI*PAYER01",
		"HL*4*3*23*0",
		"PAT*19",
		"NM1*QC*1*SMITH*TOMMY",
		"N3*789 ELM ST",
		"N4*SPRINGFIELD*IL*62704",
		"DMG*D8*20150601*F",
		"CLM*PATIENT002*75.00***11:B:1*Y*A*Y*Y",
		"HI*ABK:R509*ABF:R05",
		"LX*1",
		"SV1*HC:99212*75.00*UN*1***1:2",
		"DTP*472*D8*20230102",
	}
}
