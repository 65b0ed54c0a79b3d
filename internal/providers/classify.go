// Package providers holds helpers shared by the text and image backends.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"reelgen/internal/domain"
)

// StatusError classifies a non-2xx HTTP response. Authentication and
// configuration problems (bad key, unknown model) are not worth retrying.
func StatusError(provider string, status int, detail string) *domain.ProviderError {
	err := fmt.Errorf("%s status %d", provider, status)
	if detail != "" {
		err = fmt.Errorf("%s status %d: %s", provider, status, detail)
	}
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusNotFound:
		return domain.NewProviderError(provider, domain.FailureUnauthorized, err)
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return domain.NewProviderError(provider, domain.FailureTimeout, err)
	case status == http.StatusTooManyRequests, status >= 500:
		return domain.NewProviderError(provider, domain.FailureUnavailable, err)
	default:
		return domain.NewProviderError(provider, domain.FailureInvalidResponse, err)
	}
}

// TransportError classifies a failed round trip.
func TransportError(provider string, err error) *domain.ProviderError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.NewProviderError(provider, domain.FailureTimeout, err)
	}
	return domain.NewProviderError(provider, domain.FailureUnavailable, err)
}

// InvalidResponse wraps a decoding or structural problem in a 2xx response.
func InvalidResponse(provider string, err error) *domain.ProviderError {
	return domain.NewProviderError(provider, domain.FailureInvalidResponse, err)
}
