package taskapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"todo/internal/service"
	"todo/internal/session"
)

// bearerTransport authenticates outbound requests with the stored access
// token and silently repairs expired tokens. Per request: attach the most
// recently stored access token at send time; on 401, exchange the refresh
// token for a new access token, persist it, and retry the original request
// exactly once. The retry's outcome is final. Refresh failure is returned
// to the caller and the stored session is left as-is.
type bearerTransport struct {
	base       http.RoundTripper
	sessions   session.Store
	refreshURL string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	sess, err := t.sessions.Get()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, service.ErrNotLoggedIn
	}

	resp, err := t.send(req, sess.AccessToken)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	access, err := t.refresh(req.Context(), sess.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh access token: %w", err)
	}
	sess.AccessToken = access
	if err := t.sessions.Set(*sess); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
	}
	return t.send(req, access)
}

// send issues a copy of req with the given bearer token. The body is
// re-materialized through GetBody so the request can be sent twice.
func (t *bearerTransport) send(req *http.Request, accessToken string) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	clone.Header.Set("Authorization", "Bearer "+accessToken)
	return t.base.RoundTrip(clone)
}

// refresh exchanges the refresh token for a new access token. The refresh
// endpoint is authenticated by the refresh token as bearer credential.
func (t *bearerTransport) refresh(ctx context.Context, refreshToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.refreshURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+refreshToken)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := googleapi.CheckResponse(resp); err != nil {
		return "", err
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &service.ValidationError{Field: "refresh response", Reason: "malformed body"}
	}
	if payload.AccessToken == "" {
		return "", &service.ValidationError{Field: "access_token", Reason: "missing in refresh response"}
	}
	return payload.AccessToken, nil
}
