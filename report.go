package phishcheck

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/synqronlabs/phishcheck/tlscheck"
)

// Report is the full record of one evaluation.
type Report struct {
	// ID is a ULID assigned per evaluation.
	ID          string    `json:"id"`
	EvaluatedAt time.Time `json:"evaluated_at"`

	Email string `json:"email,omitempty"`
	URL   string `json:"url,omitempty"`

	// Domain is the sender domain derived from Email.
	Domain string `json:"domain,omitempty"`

	// Host is the host extracted from URL.
	Host string `json:"host,omitempty"`

	Verdict  Verdict  `json:"verdict"`
	Outcomes Outcomes `json:"outcomes"`
	Signals  []Signal `json:"signals"`

	SPFRecord string `json:"spf_record,omitempty"`

	// SPFAll is the qualifier of the SPF "all" mechanism, empty when the
	// record has none.
	SPFAll string `json:"spf_all,omitempty"`

	// DMARCDomain is the domain the DMARC record was found at.
	DMARCDomain string `json:"dmarc_domain,omitempty"`
	DMARCPolicy string `json:"dmarc_policy,omitempty"`

	Addresses   []string           `json:"addresses,omitempty"`
	Certificate *tlscheck.CertInfo `json:"certificate,omitempty"`

	Duration time.Duration `json:"duration_ns"`
}

// newID returns a ULID stamped with t, or with the current time when t is
// outside the range a ULID can encode.
func newID(t time.Time) string {
	id, err := ulid.New(ulid.Timestamp(t), ulid.DefaultEntropy())
	if err != nil {
		return ulid.Make().String()
	}
	return id.String()
}

// ToJSON serializes the report to JSON bytes.
func (r *Report) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// ToJSONIndent serializes the report to pretty-printed JSON bytes.
func (r *Report) ToJSONIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON deserializes a report from JSON bytes.
func FromJSON(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// WriteText writes a human-readable summary of the report to w.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Evaluation %s\n", r.ID)
	fmt.Fprintf(&b, "Classification: %s (score %d)\n", r.Verdict.Classification, r.Verdict.Score)
	if len(r.Verdict.Reasons) > 0 {
		b.WriteString("Reasons:\n")
		for _, reason := range r.Verdict.Reasons {
			fmt.Fprintf(&b, "  - %s\n", reason)
		}
	}

	b.WriteString("Checks:\n")
	writeOutcome(&b, "SPF", r.Outcomes.SPF)
	writeOutcome(&b, "DMARC", r.Outcomes.DMARC)
	writeOutcome(&b, "URL", r.Outcomes.URL)
	writeOutcome(&b, "TLS", r.Outcomes.TLS)
	if c := r.Outcomes.Classifier; c != nil {
		fmt.Fprintf(&b, "  %-10s probability %.3f (threshold %.2f)\n", "Classifier", c.Probability, c.Threshold)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeOutcome(b *strings.Builder, name string, o CheckOutcome) {
	fmt.Fprintf(b, "  %-10s %s\n", name, o)
}
