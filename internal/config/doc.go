// Package config handles HCL configuration parsing, validation, and
// serialization.
//
// # Overview
//
// Palisade uses HCL (HashiCorp Configuration Language) for its
// configuration files. This package provides:
//   - HCL parsing into the [Config] struct
//   - Cross-rule validation (duplicates, profile names, enums)
//   - HCL generation via hclwrite, used by the importer
//
// # Configuration Blocks
//
//   - firewall: master switch for the firewall service (ensure running/stopped)
//   - profile: per network profile enable flag (domain, public, standard)
//   - rule: one named rule of the catalog
//
// # Example
//
//	firewall {
//	  ensure = "running"
//	}
//
//	profile "domain" { enabled = true }
//
//	rule "winrm-http" {
//	  display_name = "WINRM-HTTP-In-TCP"
//	  direction    = "in"
//	  action       = "allow"
//	  protocol     = "tcp"
//	  local_port   = "5985"
//	}
//
// Per-rule field semantics (selector exclusivity, port patterns, path
// checks) are validated by the firewall package when the blocks are
// converted to domain rules; this package checks everything that spans
// rules.
package config
