package phishcheck

import (
	"fmt"
	"time"

	"github.com/tinylib/msgp/msgp"

	"github.com/synqronlabs/phishcheck/check"
	"github.com/synqronlabs/phishcheck/tlscheck"
)

var (
	_ msgp.Marshaler   = (*Report)(nil)
	_ msgp.Unmarshaler = (*Report)(nil)
)

// ToMessagePack serializes the report to MessagePack bytes.
func (r *Report) ToMessagePack() ([]byte, error) {
	return r.MarshalMsg(nil)
}

// FromMessagePack deserializes a report from MessagePack bytes.
func FromMessagePack(data []byte) (*Report, error) {
	var r Report
	if _, err := r.UnmarshalMsg(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	return &r, nil
}

// MarshalMsg implements msgp.Marshaler. Keys match the JSON field names.
func (r *Report) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.AppendMapHeader(b, 16)
	o = msgp.AppendString(o, "id")
	o = msgp.AppendString(o, r.ID)
	o = msgp.AppendString(o, "evaluated_at")
	o = msgp.AppendTime(o, r.EvaluatedAt)
	o = msgp.AppendString(o, "email")
	o = msgp.AppendString(o, r.Email)
	o = msgp.AppendString(o, "url")
	o = msgp.AppendString(o, r.URL)
	o = msgp.AppendString(o, "domain")
	o = msgp.AppendString(o, r.Domain)
	o = msgp.AppendString(o, "host")
	o = msgp.AppendString(o, r.Host)

	o = msgp.AppendString(o, "verdict")
	o = msgp.AppendMapHeader(o, 3)
	o = msgp.AppendString(o, "classification")
	o = msgp.AppendString(o, string(r.Verdict.Classification))
	o = msgp.AppendString(o, "score")
	o = msgp.AppendInt(o, r.Verdict.Score)
	o = msgp.AppendString(o, "reasons")
	o = appendStrings(o, r.Verdict.Reasons)

	o = msgp.AppendString(o, "outcomes")
	o = msgp.AppendMapHeader(o, 5)
	o = msgp.AppendString(o, "spf")
	o = appendOutcome(o, r.Outcomes.SPF)
	o = msgp.AppendString(o, "dmarc")
	o = appendOutcome(o, r.Outcomes.DMARC)
	o = msgp.AppendString(o, "url")
	o = appendOutcome(o, r.Outcomes.URL)
	o = msgp.AppendString(o, "tls")
	o = appendOutcome(o, r.Outcomes.TLS)
	o = msgp.AppendString(o, "classifier")
	if c := r.Outcomes.Classifier; c == nil {
		o = msgp.AppendNil(o)
	} else {
		o = msgp.AppendMapHeader(o, 3)
		o = msgp.AppendString(o, "probability")
		o = msgp.AppendFloat64(o, c.Probability)
		o = msgp.AppendString(o, "threshold")
		o = msgp.AppendFloat64(o, c.Threshold)
		o = msgp.AppendString(o, "weight")
		o = msgp.AppendInt(o, c.Weight)
	}

	o = msgp.AppendString(o, "signals")
	o = msgp.AppendArrayHeader(o, uint32(len(r.Signals)))
	for _, s := range r.Signals {
		o = msgp.AppendMapHeader(o, 3)
		o = msgp.AppendString(o, "source")
		o = msgp.AppendString(o, string(s.Source))
		o = msgp.AppendString(o, "weight")
		o = msgp.AppendInt(o, s.Weight)
		o = msgp.AppendString(o, "reason")
		o = msgp.AppendString(o, s.Reason)
	}

	o = msgp.AppendString(o, "spf_record")
	o = msgp.AppendString(o, r.SPFRecord)
	o = msgp.AppendString(o, "spf_all")
	o = msgp.AppendString(o, r.SPFAll)
	o = msgp.AppendString(o, "dmarc_domain")
	o = msgp.AppendString(o, r.DMARCDomain)
	o = msgp.AppendString(o, "dmarc_policy")
	o = msgp.AppendString(o, r.DMARCPolicy)
	o = msgp.AppendString(o, "addresses")
	o = appendStrings(o, r.Addresses)

	o = msgp.AppendString(o, "certificate")
	if c := r.Certificate; c == nil {
		o = msgp.AppendNil(o)
	} else {
		o = msgp.AppendMapHeader(o, 5)
		o = msgp.AppendString(o, "subject")
		o = msgp.AppendString(o, c.Subject)
		o = msgp.AppendString(o, "issuer")
		o = msgp.AppendString(o, c.Issuer)
		o = msgp.AppendString(o, "not_before")
		o = msgp.AppendTime(o, c.NotBefore)
		o = msgp.AppendString(o, "not_after")
		o = msgp.AppendTime(o, c.NotAfter)
		o = msgp.AppendString(o, "validity")
		o = msgp.AppendString(o, string(c.Validity))
	}

	o = msgp.AppendString(o, "duration_ns")
	o = msgp.AppendInt64(o, int64(r.Duration))
	return o, nil
}

func appendStrings(o []byte, ss []string) []byte {
	o = msgp.AppendArrayHeader(o, uint32(len(ss)))
	for _, s := range ss {
		o = msgp.AppendString(o, s)
	}
	return o
}

func appendOutcome(o []byte, out CheckOutcome) []byte {
	o = msgp.AppendMapHeader(o, 3)
	o = msgp.AppendString(o, "status")
	o = msgp.AppendString(o, string(out.Status))
	o = msgp.AppendString(o, "detail")
	o = msgp.AppendString(o, out.Detail)
	o = msgp.AppendString(o, "skipped")
	o = msgp.AppendBool(o, out.Skipped)
	return o
}

// UnmarshalMsg implements msgp.Unmarshaler. Unknown keys are skipped.
func (r *Report) UnmarshalMsg(bts []byte) (o []byte, err error) {
	err = readMap(&bts, func(key string) error {
		var err error
		switch key {
		case "id":
			r.ID, bts, err = msgp.ReadStringBytes(bts)
		case "evaluated_at":
			r.EvaluatedAt, bts, err = readTime(bts)
		case "email":
			r.Email, bts, err = msgp.ReadStringBytes(bts)
		case "url":
			r.URL, bts, err = msgp.ReadStringBytes(bts)
		case "domain":
			r.Domain, bts, err = msgp.ReadStringBytes(bts)
		case "host":
			r.Host, bts, err = msgp.ReadStringBytes(bts)
		case "verdict":
			err = r.Verdict.readMsg(&bts)
		case "outcomes":
			err = r.Outcomes.readMsg(&bts)
		case "signals":
			r.Signals, err = readSignals(&bts)
		case "spf_record":
			r.SPFRecord, bts, err = msgp.ReadStringBytes(bts)
		case "spf_all":
			r.SPFAll, bts, err = msgp.ReadStringBytes(bts)
		case "dmarc_domain":
			r.DMARCDomain, bts, err = msgp.ReadStringBytes(bts)
		case "dmarc_policy":
			r.DMARCPolicy, bts, err = msgp.ReadStringBytes(bts)
		case "addresses":
			r.Addresses, err = readStrings(&bts)
		case "certificate":
			r.Certificate, err = readCertInfo(&bts)
		case "duration_ns":
			var d int64
			d, bts, err = msgp.ReadInt64Bytes(bts)
			r.Duration = time.Duration(d)
		default:
			bts, err = msgp.Skip(bts)
		}
		return wrapError(err, key)
	})
	return bts, err
}

// readMap reads a map header from *bts and calls fn for each key with *bts
// positioned at the value.
func readMap(bts *[]byte, fn func(key string) error) error {
	n, rest, err := msgp.ReadMapHeaderBytes(*bts)
	if err != nil {
		return err
	}
	*bts = rest
	for ; n > 0; n-- {
		var field []byte
		field, *bts, err = msgp.ReadMapKeyZC(*bts)
		if err != nil {
			return err
		}
		if err := fn(string(field)); err != nil {
			return err
		}
	}
	return nil
}

// wrapError adds key context to a non-nil err.
func wrapError(err error, key any) error {
	if err == nil {
		return nil
	}
	return msgp.WrapError(err, key)
}

// readNil consumes a nil value and reports whether one was present.
func readNil(bts *[]byte) (bool, error) {
	if !msgp.IsNil(*bts) {
		return false, nil
	}
	rest, err := msgp.ReadNilBytes(*bts)
	*bts = rest
	return true, err
}

func readTime(bts []byte) (time.Time, []byte, error) {
	t, rest, err := msgp.ReadTimeBytes(bts)
	return t.UTC(), rest, err
}

func readStrings(bts *[]byte) ([]string, error) {
	if isNil, err := readNil(bts); isNil || err != nil {
		return nil, err
	}
	n, rest, err := msgp.ReadArrayHeaderBytes(*bts)
	if err != nil {
		return nil, err
	}
	*bts = rest
	ss := make([]string, n)
	for i := range ss {
		ss[i], *bts, err = msgp.ReadStringBytes(*bts)
		if err != nil {
			return nil, err
		}
	}
	return ss, nil
}

func (v *Verdict) readMsg(bts *[]byte) error {
	return readMap(bts, func(key string) error {
		var err error
		switch key {
		case "classification":
			var s string
			s, *bts, err = msgp.ReadStringBytes(*bts)
			v.Classification = Classification(s)
		case "score":
			v.Score, *bts, err = msgp.ReadIntBytes(*bts)
		case "reasons":
			v.Reasons, err = readStrings(bts)
		default:
			*bts, err = msgp.Skip(*bts)
		}
		return wrapError(err, key)
	})
}

func (o *Outcomes) readMsg(bts *[]byte) error {
	return readMap(bts, func(key string) error {
		var err error
		switch key {
		case "spf":
			o.SPF, err = readOutcome(bts)
		case "dmarc":
			o.DMARC, err = readOutcome(bts)
		case "url":
			o.URL, err = readOutcome(bts)
		case "tls":
			o.TLS, err = readOutcome(bts)
		case "classifier":
			o.Classifier, err = readClassifierResult(bts)
		default:
			*bts, err = msgp.Skip(*bts)
		}
		return wrapError(err, key)
	})
}

func readOutcome(bts *[]byte) (out CheckOutcome, err error) {
	err = readMap(bts, func(key string) error {
		var err error
		switch key {
		case "status":
			var s string
			s, *bts, err = msgp.ReadStringBytes(*bts)
			out.Status = check.Status(s)
		case "detail":
			out.Detail, *bts, err = msgp.ReadStringBytes(*bts)
		case "skipped":
			out.Skipped, *bts, err = msgp.ReadBoolBytes(*bts)
		default:
			*bts, err = msgp.Skip(*bts)
		}
		return wrapError(err, key)
	})
	return out, err
}

func readClassifierResult(bts *[]byte) (*ClassifierResult, error) {
	if isNil, err := readNil(bts); isNil || err != nil {
		return nil, err
	}
	c := &ClassifierResult{}
	err := readMap(bts, func(key string) error {
		var err error
		switch key {
		case "probability":
			c.Probability, *bts, err = msgp.ReadFloat64Bytes(*bts)
		case "threshold":
			c.Threshold, *bts, err = msgp.ReadFloat64Bytes(*bts)
		case "weight":
			c.Weight, *bts, err = msgp.ReadIntBytes(*bts)
		default:
			*bts, err = msgp.Skip(*bts)
		}
		return wrapError(err, key)
	})
	return c, err
}

func readSignals(bts *[]byte) ([]Signal, error) {
	if isNil, err := readNil(bts); isNil || err != nil {
		return nil, err
	}
	n, rest, err := msgp.ReadArrayHeaderBytes(*bts)
	if err != nil {
		return nil, err
	}
	*bts = rest
	signals := make([]Signal, n)
	for i := range signals {
		s := &signals[i]
		err = readMap(bts, func(key string) error {
			var err error
			switch key {
			case "source":
				var v string
				v, *bts, err = msgp.ReadStringBytes(*bts)
				s.Source = Source(v)
			case "weight":
				s.Weight, *bts, err = msgp.ReadIntBytes(*bts)
			case "reason":
				s.Reason, *bts, err = msgp.ReadStringBytes(*bts)
			default:
				*bts, err = msgp.Skip(*bts)
			}
			return wrapError(err, key)
		})
		if err != nil {
			return nil, msgp.WrapError(err, i)
		}
	}
	return signals, nil
}

func readCertInfo(bts *[]byte) (*tlscheck.CertInfo, error) {
	if isNil, err := readNil(bts); isNil || err != nil {
		return nil, err
	}
	c := &tlscheck.CertInfo{}
	err := readMap(bts, func(key string) error {
		var err error
		switch key {
		case "subject":
			c.Subject, *bts, err = msgp.ReadStringBytes(*bts)
		case "issuer":
			c.Issuer, *bts, err = msgp.ReadStringBytes(*bts)
		case "not_before":
			c.NotBefore, *bts, err = readTime(*bts)
		case "not_after":
			c.NotAfter, *bts, err = readTime(*bts)
		case "validity":
			var v string
			v, *bts, err = msgp.ReadStringBytes(*bts)
			c.Validity = tlscheck.Validity(v)
		default:
			*bts, err = msgp.Skip(*bts)
		}
		return wrapError(err, key)
	})
	return c, err
}
