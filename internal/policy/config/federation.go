// Package config loads the federation configuration: the relying parties,
// identity providers and matching services the hub brokers between. The
// configuration is read once at startup from a YAML document and served
// from memory.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/identity-federation/hub/internal/policy/domain"
)

type Transaction struct {
	EntityID                      string              `yaml:"entity_id" validate:"required"`
	LevelsOfAssurance             []string            `yaml:"levels_of_assurance" validate:"required,min=1,dive,required"`
	MatchingServiceEntityID       string              `yaml:"matching_service_entity_id"`
	UsesMatching                  bool                `yaml:"uses_matching"`
	Cycle3Attribute               string              `yaml:"cycle3_attribute"`
	UserAccountCreationAttributes []string            `yaml:"user_account_creation_attributes"`
	EidasCountries                []EidasCountryEntry `yaml:"eidas_countries"`
}

type EidasCountryEntry struct {
	EntityID         string `yaml:"entity_id" validate:"required"`
	SimpleID         string `yaml:"simple_id" validate:"required"`
	OverriddenSsoURL string `yaml:"overridden_sso_url"`
}

type IdentityProvider struct {
	EntityID               string   `yaml:"entity_id" validate:"required"`
	LevelsOfAssurance      []string `yaml:"levels_of_assurance" validate:"required,min=1,dive,required"`
	UseExactComparisonType bool     `yaml:"use_exact_comparison_type"`
	Enabled                bool     `yaml:"enabled"`
	EnabledForRegistration bool     `yaml:"enabled_for_registration"`

	// OnboardingTransactionEntityIDs restricts registrations to the listed
	// relying parties while a provider is onboarding. Empty means no
	// restriction.
	OnboardingTransactionEntityIDs []string `yaml:"onboarding_transaction_entity_ids"`
}

type MatchingService struct {
	EntityID               string `yaml:"entity_id" validate:"required"`
	URI                    string `yaml:"uri" validate:"required"`
	UserAccountCreationURI string `yaml:"user_account_creation_uri"`
	Onboarding             bool   `yaml:"onboarding"`
}

type Federation struct {
	Transactions      []Transaction      `yaml:"transactions" validate:"required,min=1,dive"`
	IdentityProviders []IdentityProvider `yaml:"identity_providers" validate:"required,min=1,dive"`
	MatchingServices  []MatchingService  `yaml:"matching_services" validate:"dive"`

	transactions     map[string]*Transaction
	providers        map[string]*IdentityProvider
	matchingServices map[string]*MatchingService
}

// Load reads and validates the federation configuration file.
func Load(path string) (*Federation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read federation config: %w", err)
	}
	return Parse(raw)
}

// Parse validates a federation configuration document.
func Parse(raw []byte) (*Federation, error) {
	var fed Federation
	if err := yaml.Unmarshal(raw, &fed); err != nil {
		return nil, fmt.Errorf("parse federation config: %w", err)
	}
	if err := validator.New().Struct(&fed); err != nil {
		return nil, fmt.Errorf("validate federation config: %w", err)
	}

	fed.transactions = make(map[string]*Transaction, len(fed.Transactions))
	for i := range fed.Transactions {
		tx := &fed.Transactions[i]
		if _, dup := fed.transactions[tx.EntityID]; dup {
			return nil, fmt.Errorf("duplicate transaction entity id %q", tx.EntityID)
		}
		if _, err := parseLevels(tx.LevelsOfAssurance); err != nil {
			return nil, fmt.Errorf("transaction %q: %w", tx.EntityID, err)
		}
		fed.transactions[tx.EntityID] = tx
	}
	fed.providers = make(map[string]*IdentityProvider, len(fed.IdentityProviders))
	for i := range fed.IdentityProviders {
		idp := &fed.IdentityProviders[i]
		if _, dup := fed.providers[idp.EntityID]; dup {
			return nil, fmt.Errorf("duplicate identity provider entity id %q", idp.EntityID)
		}
		if _, err := parseLevels(idp.LevelsOfAssurance); err != nil {
			return nil, fmt.Errorf("identity provider %q: %w", idp.EntityID, err)
		}
		fed.providers[idp.EntityID] = idp
	}
	fed.matchingServices = make(map[string]*MatchingService, len(fed.MatchingServices))
	for i := range fed.MatchingServices {
		ms := &fed.MatchingServices[i]
		if _, dup := fed.matchingServices[ms.EntityID]; dup {
			return nil, fmt.Errorf("duplicate matching service entity id %q", ms.EntityID)
		}
		fed.matchingServices[ms.EntityID] = ms
	}
	return &fed, nil
}

func parseLevels(names []string) ([]domain.LevelOfAssurance, error) {
	levels := make([]domain.LevelOfAssurance, 0, len(names))
	for _, name := range names {
		level, err := domain.ParseLevelOfAssurance(name)
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, nil
}

func (f *Federation) transaction(entityID string) (*Transaction, error) {
	tx, ok := f.transactions[entityID]
	if !ok {
		return nil, fmt.Errorf("unknown transaction %q", entityID)
	}
	return tx, nil
}

// LevelsOfAssurance implements domain.TransactionConfig.
func (f *Federation) LevelsOfAssurance(transactionEntityID string) ([]domain.LevelOfAssurance, error) {
	tx, err := f.transaction(transactionEntityID)
	if err != nil {
		return nil, err
	}
	return parseLevels(tx.LevelsOfAssurance)
}

func (f *Federation) MatchingServiceEntityID(transactionEntityID string) (string, error) {
	tx, err := f.transaction(transactionEntityID)
	if err != nil {
		return "", err
	}
	return tx.MatchingServiceEntityID, nil
}

func (f *Federation) MatchingProcess(transactionEntityID string) (domain.MatchingProcess, error) {
	tx, err := f.transaction(transactionEntityID)
	if err != nil {
		return domain.MatchingProcess{}, err
	}
	return domain.MatchingProcess{AttributeName: tx.Cycle3Attribute}, nil
}

func (f *Federation) UserAccountCreationAttributes(transactionEntityID string) ([]string, error) {
	tx, err := f.transaction(transactionEntityID)
	if err != nil {
		return nil, err
	}
	return tx.UserAccountCreationAttributes, nil
}

func (f *Federation) UsesMatching(transactionEntityID string) (bool, error) {
	tx, err := f.transaction(transactionEntityID)
	if err != nil {
		return false, err
	}
	return tx.UsesMatching, nil
}

func (f *Federation) EidasCountries(transactionEntityID string) ([]domain.EidasCountry, error) {
	tx, err := f.transaction(transactionEntityID)
	if err != nil {
		return nil, err
	}
	countries := make([]domain.EidasCountry, 0, len(tx.EidasCountries))
	for _, entry := range tx.EidasCountries {
		countries = append(countries, domain.EidasCountry{
			EntityID:         entry.EntityID,
			SimpleID:         entry.SimpleID,
			OverriddenSsoURL: entry.OverriddenSsoURL,
		})
	}
	return countries, nil
}

// EnabledForAuthnRequest implements domain.IdentityProviderConfig.
func (f *Federation) EnabledForAuthnRequest(transactionEntityID string, registering bool, loa domain.LevelOfAssurance) ([]string, error) {
	if _, err := f.transaction(transactionEntityID); err != nil {
		return nil, err
	}
	var enabled []string
	for _, idp := range f.IdentityProviders {
		if !idp.Enabled {
			continue
		}
		levels, err := parseLevels(idp.LevelsOfAssurance)
		if err != nil {
			return nil, err
		}
		if !containsLevel(levels, loa) {
			continue
		}
		if registering && !f.registrationAllowed(&idp, transactionEntityID) {
			continue
		}
		enabled = append(enabled, idp.EntityID)
	}
	return enabled, nil
}

func (f *Federation) Idp(idpEntityID string) (domain.IdpConfig, error) {
	idp, ok := f.providers[idpEntityID]
	if !ok {
		return domain.IdpConfig{}, fmt.Errorf("unknown identity provider %q", idpEntityID)
	}
	levels, err := parseLevels(idp.LevelsOfAssurance)
	if err != nil {
		return domain.IdpConfig{}, err
	}
	return domain.IdpConfig{
		EntityID:                   idp.EntityID,
		SupportedLevelsOfAssurance: levels,
		UseExactComparisonType:     idp.UseExactComparisonType,
	}, nil
}

func (f *Federation) EnabledForRegistration(idpEntityID, transactionEntityID string, loa domain.LevelOfAssurance) (bool, error) {
	idp, ok := f.providers[idpEntityID]
	if !ok {
		return false, fmt.Errorf("unknown identity provider %q", idpEntityID)
	}
	if !idp.Enabled {
		return false, nil
	}
	levels, err := parseLevels(idp.LevelsOfAssurance)
	if err != nil {
		return false, err
	}
	if !containsLevel(levels, loa) {
		return false, nil
	}
	return f.registrationAllowed(idp, transactionEntityID), nil
}

func (f *Federation) registrationAllowed(idp *IdentityProvider, transactionEntityID string) bool {
	if !idp.EnabledForRegistration {
		return false
	}
	if len(idp.OnboardingTransactionEntityIDs) == 0 {
		return true
	}
	for _, tx := range idp.OnboardingTransactionEntityIDs {
		if tx == transactionEntityID {
			return true
		}
	}
	return false
}

// MatchingService implements domain.MatchingServiceConfig.
func (f *Federation) MatchingService(entityID string) (domain.MatchingServiceInfo, error) {
	ms, ok := f.matchingServices[entityID]
	if !ok {
		return domain.MatchingServiceInfo{}, fmt.Errorf("unknown matching service %q", entityID)
	}
	uacURI := ms.UserAccountCreationURI
	if uacURI == "" {
		uacURI = ms.URI
	}
	return domain.MatchingServiceInfo{
		EntityID:               ms.EntityID,
		URI:                    ms.URI,
		UserAccountCreationURI: uacURI,
		Onboarding:             ms.Onboarding,
	}, nil
}

func containsLevel(levels []domain.LevelOfAssurance, level domain.LevelOfAssurance) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}
