package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/recviewer/internal/common"
	"github.com/dmitrijs2005/recviewer/internal/models"
)

var errNoHTTPBase = errors.New("media relay address is not configured")

func (s *GRPCClient) mediaURL(org, device, folderName string, role models.Role) string {
	return fmt.Sprintf("%s/api/organizations/%s/devices/%s/sessions/%s/media/%s",
		s.httpBaseURL,
		url.PathEscape(org), url.PathEscape(device), url.PathEscape(folderName), url.PathEscape(string(role)))
}

// OpenMedia streams one stored track through the server's HTTP relay. The
// caller closes the returned body.
func (s *GRPCClient) OpenMedia(ctx context.Context, org, device, folderName string, role models.Role) (io.ReadCloser, error) {
	if s.httpBaseURL == "" {
		return nil, errNoHTTPBase
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.mediaURL(org, device, folderName, role), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())

	resp, err := s.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, common.NewTransportError("open media", err)
	}
	if resp.StatusCode == http.StatusOK {
		return resp.Body, nil
	}
	defer resp.Body.Close()
	return nil, relayError(resp)
}

type problem struct {
	Detail string `json:"detail"`
}

func relayError(resp *http.Response) error {
	var p problem
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&p)
	detail := p.Detail
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", detail, common.ErrorNotFound)
	case resp.StatusCode == http.StatusBadRequest:
		return common.NewValidationError("request", detail)
	case resp.StatusCode == http.StatusBadGateway, resp.StatusCode == http.StatusServiceUnavailable, resp.StatusCode == http.StatusGatewayTimeout:
		return common.NewTransportError("open media", errors.New(detail))
	default:
		return fmt.Errorf("relay status %d: %s: %w", resp.StatusCode, detail, common.ErrorInternal)
	}
}
