package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/identity-federation/hub/internal/policy/domain"
)

const sampleConfig = `
transactions:
  - entity_id: https://transaction.example.com
    levels_of_assurance: [LEVEL_1, LEVEL_2]
    matching_service_entity_id: https://msa.example.com
    uses_matching: true
    cycle3_attribute: NationalInsuranceNumber
    user_account_creation_attributes: [FIRST_NAME, SURNAME]
    eidas_countries:
      - entity_id: https://country.example.eu
        simple_id: EU
        overridden_sso_url: https://country.example.eu/sso
identity_providers:
  - entity_id: https://idp.example.com
    levels_of_assurance: [LEVEL_1, LEVEL_2]
    enabled: true
    enabled_for_registration: true
  - entity_id: https://second-idp.example.com
    levels_of_assurance: [LEVEL_2]
    enabled: true
    enabled_for_registration: true
    onboarding_transaction_entity_ids: [https://other.example.com]
  - entity_id: https://disabled-idp.example.com
    levels_of_assurance: [LEVEL_2]
    enabled: false
matching_services:
  - entity_id: https://msa.example.com
    uri: https://msa.example.com/matching
    user_account_creation_uri: https://msa.example.com/uac
  - entity_id: https://bare-msa.example.com
    uri: https://bare-msa.example.com/matching
`

func parseSample(t *testing.T) *Federation {
	t.Helper()
	fed, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return fed
}

func TestParseTransactionConfig(t *testing.T) {
	fed := parseSample(t)

	levels, err := fed.LevelsOfAssurance("https://transaction.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 2 || levels[0] != domain.Level1 || levels[1] != domain.Level2 {
		t.Errorf("Expected [LEVEL_1 LEVEL_2], got %v", levels)
	}

	msa, err := fed.MatchingServiceEntityID("https://transaction.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msa != "https://msa.example.com" {
		t.Errorf("Expected 'https://msa.example.com', got '%s'", msa)
	}

	uses, err := fed.UsesMatching("https://transaction.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !uses {
		t.Error("Expected the transaction to use matching")
	}

	process, err := fed.MatchingProcess("https://transaction.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if process.AttributeName != "NationalInsuranceNumber" {
		t.Errorf("Expected cycle3 attribute 'NationalInsuranceNumber', got '%s'", process.AttributeName)
	}

	attrs, err := fed.UserAccountCreationAttributes("https://transaction.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attrs) != 2 || attrs[0] != "FIRST_NAME" {
		t.Errorf("Expected user account creation attributes, got %v", attrs)
	}

	countries, err := fed.EidasCountries("https://transaction.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(countries) != 1 {
		t.Fatalf("Expected one country, got %d", len(countries))
	}
	if countries[0].SimpleID != "EU" {
		t.Errorf("Expected simple id 'EU', got '%s'", countries[0].SimpleID)
	}
	if countries[0].OverriddenSsoURL != "https://country.example.eu/sso" {
		t.Errorf("Expected overridden SSO URL, got '%s'", countries[0].OverriddenSsoURL)
	}
}

func TestParseUnknownTransaction(t *testing.T) {
	fed := parseSample(t)

	if _, err := fed.LevelsOfAssurance("https://unknown.example.com"); err == nil {
		t.Error("Expected an error for an unknown transaction")
	}
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		expected string
	}{
		{
			name:     "not yaml",
			doc:      "{{{",
			expected: "parse federation config",
		},
		{
			name:     "missing transactions",
			doc:      "identity_providers:\n  - entity_id: https://idp.example.com\n    levels_of_assurance: [LEVEL_2]\n",
			expected: "validate federation config",
		},
		{
			name: "transaction without levels",
			doc: "transactions:\n  - entity_id: https://transaction.example.com\n" +
				"identity_providers:\n  - entity_id: https://idp.example.com\n    levels_of_assurance: [LEVEL_2]\n",
			expected: "validate federation config",
		},
		{
			name: "unknown level name",
			doc: "transactions:\n  - entity_id: https://transaction.example.com\n    levels_of_assurance: [LEVEL_9]\n" +
				"identity_providers:\n  - entity_id: https://idp.example.com\n    levels_of_assurance: [LEVEL_2]\n",
			expected: "unknown level of assurance",
		},
		{
			name: "duplicate transaction",
			doc: "transactions:\n" +
				"  - entity_id: https://transaction.example.com\n    levels_of_assurance: [LEVEL_2]\n" +
				"  - entity_id: https://transaction.example.com\n    levels_of_assurance: [LEVEL_2]\n" +
				"identity_providers:\n  - entity_id: https://idp.example.com\n    levels_of_assurance: [LEVEL_2]\n",
			expected: "duplicate transaction entity id",
		},
		{
			name: "duplicate identity provider",
			doc: "transactions:\n  - entity_id: https://transaction.example.com\n    levels_of_assurance: [LEVEL_2]\n" +
				"identity_providers:\n" +
				"  - entity_id: https://idp.example.com\n    levels_of_assurance: [LEVEL_2]\n" +
				"  - entity_id: https://idp.example.com\n    levels_of_assurance: [LEVEL_2]\n",
			expected: "duplicate identity provider entity id",
		},
		{
			name: "duplicate matching service",
			doc: "transactions:\n  - entity_id: https://transaction.example.com\n    levels_of_assurance: [LEVEL_2]\n" +
				"identity_providers:\n  - entity_id: https://idp.example.com\n    levels_of_assurance: [LEVEL_2]\n" +
				"matching_services:\n" +
				"  - entity_id: https://msa.example.com\n    uri: https://msa.example.com/matching\n" +
				"  - entity_id: https://msa.example.com\n    uri: https://msa.example.com/matching\n",
			expected: "duplicate matching service entity id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.expected) {
				t.Errorf("Expected error containing '%s', got '%s'", tt.expected, err.Error())
			}
		})
	}
}

func TestEnabledForAuthnRequest(t *testing.T) {
	fed := parseSample(t)

	t.Run("signing in", func(t *testing.T) {
		enabled, err := fed.EnabledForAuthnRequest("https://transaction.example.com", false, domain.Level2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(enabled) != 2 {
			t.Fatalf("Expected two enabled providers, got %v", enabled)
		}
	})

	t.Run("registering excludes onboarding providers", func(t *testing.T) {
		enabled, err := fed.EnabledForAuthnRequest("https://transaction.example.com", true, domain.Level2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(enabled) != 1 || enabled[0] != "https://idp.example.com" {
			t.Errorf("Expected only the open provider, got %v", enabled)
		}
	})

	t.Run("level filtering", func(t *testing.T) {
		enabled, err := fed.EnabledForAuthnRequest("https://transaction.example.com", false, domain.Level1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(enabled) != 1 || enabled[0] != "https://idp.example.com" {
			t.Errorf("Expected only the LEVEL_1 provider, got %v", enabled)
		}
	})

	t.Run("unknown transaction", func(t *testing.T) {
		if _, err := fed.EnabledForAuthnRequest("https://unknown.example.com", false, domain.Level2); err == nil {
			t.Error("Expected an error for an unknown transaction")
		}
	})
}

func TestEnabledForRegistration(t *testing.T) {
	fed := parseSample(t)

	tests := []struct {
		name        string
		idp         string
		transaction string
		loa         domain.LevelOfAssurance
		expected    bool
	}{
		{"open provider", "https://idp.example.com", "https://transaction.example.com", domain.Level2, true},
		{"onboarding provider wrong transaction", "https://second-idp.example.com", "https://transaction.example.com", domain.Level2, false},
		{"onboarding provider listed transaction", "https://second-idp.example.com", "https://other.example.com", domain.Level2, true},
		{"disabled provider", "https://disabled-idp.example.com", "https://transaction.example.com", domain.Level2, false},
		{"unsupported level", "https://second-idp.example.com", "https://other.example.com", domain.Level1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enabled, err := fed.EnabledForRegistration(tt.idp, tt.transaction, tt.loa)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if enabled != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, enabled)
			}
		})
	}

	if _, err := fed.EnabledForRegistration("https://unknown-idp.example.com", "https://transaction.example.com", domain.Level2); err == nil {
		t.Error("Expected an error for an unknown provider")
	}
}

func TestIdpLookup(t *testing.T) {
	fed := parseSample(t)

	idp, err := fed.Idp("https://idp.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idp.EntityID != "https://idp.example.com" {
		t.Errorf("Expected entity id 'https://idp.example.com', got '%s'", idp.EntityID)
	}
	if len(idp.SupportedLevelsOfAssurance) != 2 {
		t.Errorf("Expected two supported levels, got %v", idp.SupportedLevelsOfAssurance)
	}

	if _, err := fed.Idp("https://unknown-idp.example.com"); err == nil {
		t.Error("Expected an error for an unknown provider")
	}
}

func TestMatchingServiceLookup(t *testing.T) {
	fed := parseSample(t)

	ms, err := fed.MatchingService("https://msa.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ms.URI != "https://msa.example.com/matching" {
		t.Errorf("Expected matching URI, got '%s'", ms.URI)
	}
	if ms.UserAccountCreationURI != "https://msa.example.com/uac" {
		t.Errorf("Expected dedicated user account creation URI, got '%s'", ms.UserAccountCreationURI)
	}

	// Without a dedicated URI, account creation falls back to the matching URI.
	bare, err := fed.MatchingService("https://bare-msa.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bare.UserAccountCreationURI != "https://bare-msa.example.com/matching" {
		t.Errorf("Expected fallback to the matching URI, got '%s'", bare.UserAccountCreationURI)
	}

	if _, err := fed.MatchingService("https://unknown-msa.example.com"); err == nil {
		t.Error("Expected an error for an unknown matching service")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "federation.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fed, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fed.Transactions) != 1 {
		t.Errorf("Expected one transaction, got %d", len(fed.Transactions))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
