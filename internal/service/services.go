// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"fmt"

	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/models"
)

type Services struct {
	DocumentService DocumentService
	AppInfoService  AppInfoService
	HealthService   HealthService
}

func NewServices(storages *store.Storages, cfg config.App, build models.AppBuildInfo, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg, build, logger)
	if err != nil {
		return nil, fmt.Errorf("app info service: %w", err)
	}

	documents := NewDocumentValidationService().Wrap(NewDocumentService(storages.DocumentRepository, logger))

	return &Services{
		DocumentService: documents,
		AppInfoService:  appInfo,
		HealthService:   NewHealthService(storages, logger),
	}, nil
}
