package app

import (
	"github.com/bitwarden/akd-watch/internal/akdwatch"
	"github.com/bitwarden/akd-watch/internal/config"
)

// reconcile merges a freshly loaded namespace configuration with its
// existing stored record, if any. existing is the namespace's current
// stored record if present; cfg is the freshly loaded configuration for
// that namespace. It returns the record that should end up in the
// NamespaceRepository and whether it differs from existing (irrelevant
// when !existingOK, since that case always calls Add rather than Update).
func reconcile(existing akdwatch.NamespaceInfo, existingOK bool, cfg config.NamespaceConfig) (akdwatch.NamespaceInfo, bool) {
	status := cfg.Status
	if status == "" {
		status = akdwatch.StatusOnline
	}

	if !existingOK {
		return akdwatch.NamespaceInfo{
			Name:          cfg.Name,
			Configuration: cfg.Configuration,
			LogDirectory:  cfg.LogDirectory,
			StartingEpoch: cfg.StartingEpoch,
			Status:        status,
		}, false
	}

	if existing.Status.IsSticky() {
		return existing, false
	}

	updated := existing
	updated.Configuration = cfg.Configuration
	updated.LogDirectory = cfg.LogDirectory
	updated.StartingEpoch = cfg.StartingEpoch

	if existing.LastVerifiedEpoch != nil && *existing.LastVerifiedEpoch < cfg.StartingEpoch {
		updated.LastVerifiedEpoch = nil
		updated.Status = status
		return updated, true
	}

	updated.Status = status
	return updated, statusChanged(existing, updated)
}

// statusChanged reports whether updated's configured fields differ from
// existing's.
func statusChanged(existing, updated akdwatch.NamespaceInfo) bool {
	return existing.Status != updated.Status ||
		existing.Configuration != updated.Configuration ||
		existing.LogDirectory != updated.LogDirectory ||
		existing.StartingEpoch != updated.StartingEpoch
}
