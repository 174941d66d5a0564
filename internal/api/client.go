// Package api is the authenticated request layer: token injection, the
// single-retry-on-401 policy, and error normalization over the portal's REST
// surface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bekzodm/murojaat-desk/internal/auth"
	"github.com/bekzodm/murojaat-desk/internal/domain"
)

// Client wraps http.Client with Bearer injection from the token store.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *auth.TokenStore
}

func NewClient(baseURL string, tokens *auth.TokenStore) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
	}
}

// NewRefresher returns the auth.Refresher backed by POST /auth/token/refresh/.
// It is standalone (no token store) so the store and client can be
// constructed without a cycle.
func NewRefresher(baseURL string) auth.Refresher {
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := &http.Client{Timeout: 15 * time.Second}

	return func(ctx context.Context, refreshToken string) (string, error) {
		payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
		if err != nil {
			return "", err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/auth/token/refresh/", bytes.NewReader(payload))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := httpClient.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return "", fmt.Errorf("%w: %s", auth.ErrRefreshRejected, normalizeError(resp.StatusCode, body).Message)
		}
		if resp.StatusCode != http.StatusOK {
			return "", normalizeError(resp.StatusCode, body)
		}

		var out struct {
			Access string `json:"access"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return "", err
		}
		if out.Access == "" {
			return "", fmt.Errorf("%w: refresh response carried no access token", auth.ErrRefreshRejected)
		}
		return out.Access, nil
	}
}

// do issues one authenticated request. On a 401 it retries exactly once with
// a re-acquired token (ValidToken refreshes, or joins an in-flight refresh);
// a second 401 clears the session. There is never more than one retry.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	resp, respBody, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		log.Printf("[API] 401 on %s %s, retrying with refreshed token", method, path)
		if _, err := c.tokens.Refresh(ctx); err != nil {
			c.tokens.Logout(context.Background())
			return &Error{Status: http.StatusUnauthorized, Message: "authentication failed"}
		}
		resp, respBody, err = c.send(ctx, method, path, query, body)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.tokens.Logout(context.Background())
			return normalizeError(resp.StatusCode, respBody)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return normalizeError(resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Response, []byte, error) {
	token, err := c.tokens.ValidToken(ctx)
	if err != nil {
		return nil, nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, nil, err
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, respBody, nil
}

// LoginResponse is the staff-login payload.
type LoginResponse struct {
	Access   string           `json:"access"`
	Refresh  string           `json:"refresh"`
	UserUUID string           `json:"user_uuid"`
	Role     domain.StaffRole `json:"role"`
}

// StaffLogin authenticates with identifier/password. It is unauthenticated
// and bypasses the token store; on success the caller installs the pair.
func (c *Client) StaffLogin(ctx context.Context, identifier, password string) (*LoginResponse, error) {
	payload, err := json.Marshal(map[string]string{
		"identifier": identifier,
		"password":   password,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/staff-login/", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, normalizeError(resp.StatusCode, body)
	}

	var out LoginResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
