package validator

import (
	"errors"

	"policylens-be/pkg/policy"
)

// Decision is the outcome of validating one classification.
type Decision struct {
	Accepted bool
	Reason   string
	Code     policy.RefusalCode
}

func accept() Decision { return Decision{Accepted: true} }

func reject(code policy.RefusalCode, reason string) Decision {
	return Decision{Code: code, Reason: reason}
}

// Validate is the single gate between classifier output and any lookup.
func Validate(c *policy.Classification, err error) Decision {
	if err != nil {
		var ce *policy.ClassificationError
		if errors.As(err, &ce) {
			switch ce.Kind {
			case policy.KindMalformed, policy.KindMissingField:
				return reject(policy.RefusalClassificationFailed, "JSON parse failed. Refusing to guess.")
			case policy.KindTimeout, policy.KindUnavailable:
				return reject(policy.RefusalClassificationFailed, "Router error: the classifier is unavailable.")
			}
		}
		return reject(policy.RefusalClassificationFailed, "Router error: "+err.Error())
	}
	if c == nil {
		return reject(policy.RefusalClassificationFailed, "JSON parse failed. Refusing to guess.")
	}
	if c.Intent == policy.IntentOutOfScope {
		return reject(policy.RefusalOutOfScope, "Question is out of scope for course policy.")
	}
	if c.Confidence < policy.MinClassifierConfidence {
		return reject(policy.RefusalLowConfidence, "Low confidence. Question may be out of scope.")
	}
	return accept()
}
