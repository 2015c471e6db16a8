package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/clientcredentials"
	"gopkg.in/yaml.v2"
)

// Config represents the entire application configuration. The yaml file is
// passed through os.ExpandEnv before parsing so that credentials can be left
// in the process environment, for example:
//
//	graph:
//	  client_secret: ${GRAPH_CLIENT_SECRET}
type Config struct {
	DatabasePath   string               `yaml:"database_path"`
	Web            WebConfig            `yaml:"web"`
	Mail           MailConfig           `yaml:"mail"`
	Graph          GraphConfig          `yaml:"graph"`
	SMTP           SMTPConfig           `yaml:"smtp"`
	ActiveCampaign ActiveCampaignConfig `yaml:"activecampaign"`
	Storage        StorageConfig        `yaml:"storage"`
}

// WebConfig holds settings specific to the web server.
type WebConfig struct {
	ListenAddress   string `yaml:"listen_address"`
	DevelopmentMode bool   `yaml:"development_mode"`
}

// MailConfig holds firm-wide mail settings used by the notification composer.
type MailConfig struct {
	FromAddress string `yaml:"from_address"`
	FromName    string `yaml:"from_name"`
	// StaffDomain forms fee earner addresses as initials@StaffDomain.
	StaffDomain string `yaml:"staff_domain"`
	// TemplatesPath optionally overrides the embedded templates in development.
	TemplatesPath string `yaml:"templates_path"`
}

// GraphConfig holds Microsoft Graph client-credentials settings. The OAuth2
// config is derived during validation.
type GraphConfig struct {
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Credentials  *clientcredentials.Config
}

// Configured reports whether Graph sending has been set up.
func (g GraphConfig) Configured() bool {
	return g.TenantID != "" || g.ClientID != "" || g.ClientSecret != ""
}

// SMTPConfig holds the optional SMTP fallback transport settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Configured reports whether the SMTP fallback has been set up.
func (s SMTPConfig) Configured() bool {
	return s.Host != ""
}

// ActiveCampaignConfig holds lead CRM API settings, used by the
// import-enquiries command and the enquiry acid lookups.
type ActiveCampaignConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIToken string `yaml:"api_token"`
}

// Configured reports whether the ActiveCampaign client has been set up.
func (a ActiveCampaignConfig) Configured() bool {
	return a.BaseURL != ""
}

// StorageConfig selects the document blob backend: a cloud bucket in
// production, or a local directory for development and testing.
type StorageConfig struct {
	Bucket   string `yaml:"bucket"`
	LocalDir string `yaml:"local_dir"`
}

// Load loads and validates the configuration from the given file path.
func Load(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", filePath)
	}

	configFile, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	err = yaml.Unmarshal([]byte(os.ExpandEnv(string(configFile))), &cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse YAML config file: %w", err)
	}

	if err := validateAndPrepare(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validateAndPrepare checks for required fields and sets up derived values.
func validateAndPrepare(c *Config) error {
	// General
	if c.DatabasePath == "" {
		return errors.New("database_path is missing")
	}

	// Web
	if c.Web.ListenAddress == "" {
		return errors.New("web.listen_address is missing")
	}

	// Mail
	if c.Mail.FromAddress == "" {
		return errors.New("mail.from_address is missing")
	}
	if !strings.Contains(c.Mail.FromAddress, "@") {
		return fmt.Errorf("mail.from_address %q is not an email address", c.Mail.FromAddress)
	}
	if c.Mail.FromName == "" {
		c.Mail.FromName = "Instructions Team"
	}
	if c.Mail.StaffDomain == "" {
		_, domain, _ := strings.Cut(c.Mail.FromAddress, "@")
		c.Mail.StaffDomain = domain
	}

	// Graph: either fully configured or absent.
	gc := &c.Graph
	if gc.Configured() {
		if gc.TenantID == "" {
			return errors.New("graph.tenant_id is missing")
		}
		if gc.ClientID == "" {
			return errors.New("graph.client_id is missing")
		}
		if gc.ClientSecret == "" {
			return errors.New("graph.client_secret is missing")
		}
		gc.Credentials = &clientcredentials.Config{
			ClientID:     gc.ClientID,
			ClientSecret: gc.ClientSecret,
			TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", gc.TenantID),
			Scopes:       []string{"https://graph.microsoft.com/.default"},
		}
	}

	// SMTP fallback.
	if c.SMTP.Configured() && c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}

	// ActiveCampaign.
	ac := &c.ActiveCampaign
	if ac.Configured() && ac.APIToken == "" {
		return errors.New("activecampaign.api_token is missing")
	}

	// Storage: at most one backend.
	if c.Storage.Bucket != "" && c.Storage.LocalDir != "" {
		return errors.New("storage.bucket and storage.local_dir are mutually exclusive")
	}

	return nil
}
