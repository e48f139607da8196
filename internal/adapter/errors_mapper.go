// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-doc-sync/models"
)

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))

	switch status := resp.StatusCode(); {
	case status == http.StatusConflict:
		var server models.RemoteDocument
		if err := json.Unmarshal(resp.Body(), &server); err != nil {
			return fmt.Errorf("%w: undecodable conflict body: %s", ErrVersionConflict, body)
		}
		return &ConflictError{Server: server}
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, body)
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		if body == "" {
			body = http.StatusText(status)
		}
		return fmt.Errorf("%w: http %d: %s", ErrTransient, status, body)
	case status >= http.StatusBadRequest:
		verr := &ValidationError{Status: status}
		var payload models.ErrorResponse
		if err := json.Unmarshal(resp.Body(), &payload); err == nil {
			verr.Message = payload.Message
			verr.Fields = payload.Errors
		} else {
			verr.Message = body
		}
		if verr.Message == "" {
			verr.Message = http.StatusText(status)
		}
		return verr
	default:
		if body == "" {
			body = http.StatusText(status)
		}
		return fmt.Errorf("http %d: %s", status, body)
	}
}
