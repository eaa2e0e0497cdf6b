package config

import (
	"context"
	"fmt"

	dbxconfig "github.com/databricks/databricks-sdk-go/config"
	"github.com/snowflakedb/gosnowflake"
	"gopkg.in/ini.v1"
)

// Profile is one named cost source in the registry file.
type Profile struct {
	Provider         string // "azure", "aws", "databricks" or "snowflake"
	SubscriptionID   string
	SubscriptionName string
	AWSProfile       string
	AccountID        string
	AccountName      string
	WorkspaceID      string
	WorkspaceName    string
	HTTPPath         string
	DBURate          float64
	CreditRate       float64
}

type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, name string) (*Profile, error)
	GetDatabricksConfig(ctx context.Context, name string) (*dbxconfig.Config, error)
	GetSnowflakeConfig(ctx context.Context, name string) (*gosnowflake.Config, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

// NewRegistry loads an ini registry file; each section is one cost source.
func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg}, nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetProfile(_ context.Context, name string) (*Profile, error) {
	section, err := cr.cfg.GetSection(name)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found", name)
	}

	profile := &Profile{
		Provider:         section.Key("provider").String(),
		SubscriptionID:   section.Key("subscription_id").String(),
		SubscriptionName: section.Key("subscription_name").String(),
		AWSProfile:       section.Key("aws_profile").String(),
		AccountID:        section.Key("account_id").String(),
		AccountName:      section.Key("account_name").String(),
		WorkspaceID:      section.Key("workspace_id").String(),
		WorkspaceName:    section.Key("workspace_name").String(),
		HTTPPath:         section.Key("http_path").String(),
		DBURate:          section.Key("dbu_rate").MustFloat64(0),
		CreditRate:       section.Key("credit_rate").MustFloat64(0),
	}
	if profile.Provider == "" {
		return nil, fmt.Errorf("profile %s has no provider", name)
	}
	return profile, nil
}

// GetDatabricksConfig builds the SDK auth config for a databricks profile.
func (cr *cfgRegistry) GetDatabricksConfig(_ context.Context, name string) (*dbxconfig.Config, error) {
	section, err := cr.cfg.GetSection(name)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found", name)
	}

	host := section.Key("host").String()
	token := section.Key("token").String()
	if host == "" || token == "" {
		return nil, fmt.Errorf("profile %s is missing host or token", name)
	}

	return &dbxconfig.Config{
		Host:  host,
		Token: token,
	}, nil
}

// GetSnowflakeConfig builds the driver config for a snowflake profile.
func (cr *cfgRegistry) GetSnowflakeConfig(_ context.Context, name string) (*gosnowflake.Config, error) {
	section, err := cr.cfg.GetSection(name)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found", name)
	}

	cfg := &gosnowflake.Config{
		Account:   section.Key("account").String(),
		User:      section.Key("user").String(),
		Password:  section.Key("password").String(),
		Database:  section.Key("database").String(),
		Warehouse: section.Key("warehouse").String(),
		Role:      section.Key("role").String(),
	}
	if cfg.Account == "" || cfg.User == "" {
		return nil, fmt.Errorf("profile %s is missing account or user", name)
	}
	return cfg, nil
}
