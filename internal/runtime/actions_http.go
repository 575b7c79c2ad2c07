package runtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/listflow/listflow/pkg/domain"
	"github.com/listflow/listflow/pkg/pattern"
	"github.com/listflow/listflow/pkg/ports"
)

// runFetch interpolates url, headers and body, applies one auth scheme and
// issues the HTTP call. The parsed body is stored as "response" and under
// the optional "as" name. Non-2xx status and transport failures both raise
// an ActionError carrying whatever response text is available.
func (e *Engine) runFetch(ctx context.Context, node *domain.ActionNode, ec *Context) error {
	if e.http == nil {
		return fmt.Errorf("no HTTP capability configured")
	}
	opts := node.Fetch
	if opts == nil {
		opts = &domain.FetchOptions{}
	}

	url, err := pattern.Interpolate(node.Value, ec.Vars)
	if err != nil {
		return err
	}
	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = "GET"
	}

	headers := make(map[string]string, len(opts.Headers)+1)
	for k, v := range opts.Headers {
		hv, err := pattern.Interpolate(v, ec.Vars)
		if err != nil {
			return err
		}
		headers[k] = hv
	}

	body := ""
	if opts.Body != "" {
		body, err = pattern.Interpolate(opts.Body, ec.Vars)
		if err != nil {
			return err
		}
	}

	if opts.Auth != nil {
		if err := applyAuth(opts.Auth, headers, ec.Vars); err != nil {
			return err
		}
	}

	resp, err := e.http.Do(ctx, ports.HTTPRequest{
		Method:  method,
		URL:     url,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return &domain.ActionError{
			Kind: domain.KindFetch,
			Msg:  fmt.Sprintf("%s %s: %v", method, url, err),
			Err:  err,
		}
	}
	if resp.Status < 200 || resp.Status > 299 {
		return &domain.ActionError{
			Kind:   domain.KindFetch,
			Status: resp.Status,
			Msg:    fmt.Sprintf("%s %s: HTTP %d: %s", method, url, resp.Status, strings.TrimSpace(resp.Body)),
			Output: resp.Body,
		}
	}

	parsed := sniffBody(resp.Body)
	ec.LastResponse = parsed
	ec.Vars["response"] = parsed
	if opts.As != "" {
		ec.Vars[opts.As] = parsed
	}
	return nil
}

// applyAuth writes one authentication scheme into the header map.
func applyAuth(auth *domain.AuthOptions, headers map[string]string, vars map[string]any) error {
	interp := func(s string) (string, error) {
		if s == "" {
			return "", nil
		}
		return pattern.Interpolate(s, vars)
	}

	switch strings.ToLower(auth.Type) {
	case "basic":
		user, err := interp(auth.User)
		if err != nil {
			return err
		}
		pass, err := interp(auth.Pass)
		if err != nil {
			return err
		}
		cred := base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
		headers["Authorization"] = "Basic " + cred
	case "bearer":
		token, err := interp(auth.Token)
		if err != nil {
			return err
		}
		headers["Authorization"] = "Bearer " + token
	case "apikey":
		key, err := interp(auth.Key)
		if err != nil {
			return err
		}
		name := auth.Header
		if name == "" {
			name = "X-Api-Key"
		}
		headers[name] = key
	default:
		return fmt.Errorf("unknown auth type %q", auth.Type)
	}
	return nil
}

// sniffBody content-sniffs JSON vs. plain text.
func sniffBody(body string) any {
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var out any
		if err := json.Unmarshal([]byte(trimmed), &out); err == nil {
			return out
		}
	}
	return body
}
