// Phishcheck classifies a message as phishing or not from the sender's domain
// and a link found in the message.
//
// Four checks run concurrently: the SPF and DMARC policies published by the
// sender domain, resolution of the URL host, and the validity of the
// certificate that host serves. Each check yields a typed outcome; a fixed
// weight table turns the outcomes into a score, and a positive score is
// Phishing.
//
// # Evaluator
//
// Create an evaluator using the fluent builder API:
//
//	evaluator, err := phishcheck.New().
//	    Resolver(dns.NewResolver(dns.ResolverConfig{})).
//	    DNSTimeout(5 * time.Second).
//	    TLSTimeout(5 * time.Second).
//	    Logger(logger).
//	    Metrics(metrics.New(prometheus.DefaultRegisterer)).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	verdict := evaluator.Evaluate(ctx, "alice@example.com", "https://example.com/login")
//	if verdict.IsPhishing() {
//	    for _, reason := range verdict.Reasons {
//	        fmt.Println(reason)
//	    }
//	}
//
// Evaluate never fails. DNS errors, timeouts, refused connections and
// malformed input all become outcomes that feed the score.
//
// # Scoring
//
//	SPF or DMARC record found            -1 each
//	SPF or DMARC check failed            +1 each
//	URL host missing or URL malformed    +2 (certificate not checked)
//	certificate invalid or unreachable   +1
//	certificate valid                    -1
//	classifier probability >= threshold  +weight (optional)
//
// A check skipped for lack of input contributes nothing.
//
// # Reports
//
// Inspect returns the verdict together with every outcome, the parsed SPF
// and DMARC facts and the certificate details:
//
//	report := evaluator.Inspect(ctx, phishcheck.Submission{
//	    Email: "alice@example.com",
//	    URL:   "https://example.com/login",
//	    Body:  messageText,
//	})
//
// JSON Serialization:
//
//	jsonData, err := report.ToJSON()
//
// MessagePack Serialization:
//
//	msgpackData, err := report.ToMessagePack()
//
// MessagePack Deserialization:
//
//	report, err := phishcheck.FromMessagePack(msgpackData)
package phishcheck
