// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/models"
)

const (
	workflowPath = "/api/workflows/{id}"
	healthPath   = "/api/health"
)

type httpServerAdapter struct {
	client *resty.Client
	logger *logger.Logger
}

// NewHTTPServerAdapter constructs an HTTP/REST implementation of [ServerAdapter].
// It normalises and validates the base URL from adapterCfg.HTTPAddress and
// configures the underlying HTTP client with the resolved base URL and
// request timeout. The timeout is the implicit push timeout: an expired
// request is reported as [ErrTransient].
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPServerAdapter(adapterCfg config.ClientAdapter, logger *logger.Logger) (ServerAdapter, error) {
	client := resty.New()
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client.
		SetBaseURL(baseURL).
		SetTimeout(adapterCfg.RequestTimeout).
		SetHeader("Accept", "application/json")

	return &httpServerAdapter{client: client, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// GetDocument implements [ServerAdapter]. It issues
// GET /api/workflows/{id} and decodes the authoritative document.
func (h *httpServerAdapter) GetDocument(ctx context.Context, id string) (models.RemoteDocument, error) {
	var doc models.RemoteDocument

	resp, err := h.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&doc).
		Get(workflowPath)
	if err != nil {
		h.logger.Debug().Err(err).Str("func", "httpServerAdapter.GetDocument").Str("document_id", id).Msg("request failed")
		return models.RemoteDocument{}, fmt.Errorf("%w: get document request: %w", ErrTransient, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RemoteDocument{}, err
	}

	if doc.ID == "" {
		doc.ID = id
	}
	return doc, nil
}

// UpdateDocument implements [ServerAdapter]. It issues
// PUT /api/workflows/{id} with req as the body.
func (h *httpServerAdapter) UpdateDocument(ctx context.Context, id string, req models.UpdateRequest) (models.UpdateResponse, error) {
	var result models.UpdateResponse

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetPathParam("id", id).
		SetBody(req).
		SetResult(&result).
		Put(workflowPath)
	if err != nil {
		h.logger.Debug().Err(err).
			Str("func", "httpServerAdapter.UpdateDocument").
			Str("document_id", id).
			Int64("expected_version", req.ExpectedVersion).
			Msg("request failed")
		return models.UpdateResponse{}, fmt.Errorf("%w: update request: %w", ErrTransient, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.UpdateResponse{}, err
	}

	return result, nil
}

// Ping implements [ServerAdapter] with GET /api/health.
func (h *httpServerAdapter) Ping(ctx context.Context) error {
	resp, err := h.client.R().
		SetContext(ctx).
		Get(healthPath)
	if err != nil {
		return fmt.Errorf("%w: health request: %w", ErrTransient, err)
	}
	return mapHTTPError(resp)
}
