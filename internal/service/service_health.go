// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
)

// Pinger is implemented by storages that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthService struct {
	pinger Pinger
	logger *logger.Logger
}

func NewHealthService(pinger Pinger, logger *logger.Logger) HealthService {
	return &healthService{pinger: pinger, logger: logger}
}

func (s *healthService) Check(ctx context.Context) error {
	if err := s.pinger.Ping(ctx); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("func", "healthService.Check").Msg("storage is not reachable")
		return err
	}
	return nil
}
