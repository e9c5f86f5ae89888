package hunt

import (
	"fmt"
	"strings"
)

// CredentialsError marks tag-query failures caused by missing or expired
// AWS credentials, so callers can prompt for re-authentication instead of
// retrying blindly.
type CredentialsError struct {
	Err error
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("aws credentials are missing or expired — run 'aws sso login' or refresh your keys: %v", e.Err)
}

func (e *CredentialsError) Unwrap() error { return e.Err }

// credentialMarkers are substrings the SDK emits for credential-shaped
// failures across auth mechanisms (static keys, SSO, IMDS).
var credentialMarkers = []string{
	"ExpiredToken",
	"InvalidClientTokenId",
	"UnrecognizedClientException",
	"failed to retrieve credentials",
	"no EC2 IMDS role found",
	"token has expired",
	"static credentials are empty",
}

// classifyAWSError wraps credential-shaped SDK failures in a
// CredentialsError and passes everything else through untouched.
func classifyAWSError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, marker := range credentialMarkers {
		if strings.Contains(msg, marker) {
			return &CredentialsError{Err: err}
		}
	}
	return err
}
