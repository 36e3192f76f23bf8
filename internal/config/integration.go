package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	SyncModeInline = "inline"
	SyncModeQueue  = "queue"

	DefaultBaseURL        = "https://www.wixapis.com"
	DefaultRetryAttempts  = 3
	DefaultTimeoutSeconds = 30

	// Upper bounds enforced by Validate.
	MaxRetryAttempts  = 10
	MaxTimeoutSeconds = 300

	// RetryWaitCap is the longest backoff interval between two attempts
	// before jitter.
	RetryWaitCap = 10 * time.Second
)

// FieldToggles selects which item fields are pushed to the catalog.
type FieldToggles struct {
	Name        bool `json:"name"`
	Description bool `json:"description"`
	Price       bool `json:"price"`
	Images      bool `json:"images"`
	Categories  bool `json:"categories"`
}

// Integration is the Wix connection and sync configuration.
type Integration struct {
	Enabled   bool   `json:"enabled"`
	SiteID    string `json:"site_id"`
	APIKey    string `json:"-"`
	AccountID string `json:"account_id"`
	TestMode  bool   `json:"test_mode"`

	BaseURL       string `json:"base_url" validate:"required,url"`
	WebhookSecret string `json:"-"`
	ImageBaseURL  string `json:"image_base_url" validate:"omitempty,url"`

	AutoSync bool   `json:"auto_sync"`
	SyncMode string `json:"sync_mode" validate:"oneof=inline queue"`

	Fields FieldToggles `json:"fields"`

	RetryAttempts  int `json:"retry_attempts" validate:"gte=0,lte=10"`
	TimeoutSeconds int `json:"timeout_seconds" validate:"gte=1,lte=300"`
}

type credentials struct {
	SiteID    string `json:"site_id" validate:"required"`
	APIKey    string `json:"api_key" validate:"required"`
	AccountID string `json:"account_id" validate:"required"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// LoadIntegration reads the integration settings from the environment.
func LoadIntegration() (*Integration, error) {
	i := &Integration{
		Enabled:       getEnvAsBool("WIX_ENABLED", false),
		SiteID:        getEnv("WIX_SITE_ID", ""),
		APIKey:        getEnv("WIX_API_KEY", ""),
		AccountID:     getEnv("WIX_ACCOUNT_ID", ""),
		TestMode:      getEnvAsBool("WIX_TEST_MODE", false),
		BaseURL:       strings.TrimRight(getEnv("WIX_BASE_URL", DefaultBaseURL), "/"),
		WebhookSecret: getEnv("WIX_WEBHOOK_SECRET", ""),
		ImageBaseURL:  strings.TrimRight(getEnv("WIX_IMAGE_BASE_URL", ""), "/"),
		AutoSync:      getEnvAsBool("WIX_AUTO_SYNC", true),
		SyncMode:      getEnv("WIX_SYNC_MODE", SyncModeInline),
		Fields: FieldToggles{
			Name:        getEnvAsBool("WIX_SYNC_NAME", true),
			Description: getEnvAsBool("WIX_SYNC_DESCRIPTION", true),
			Price:       getEnvAsBool("WIX_SYNC_PRICE", true),
			Images:      getEnvAsBool("WIX_SYNC_IMAGES", true),
			Categories:  getEnvAsBool("WIX_SYNC_CATEGORIES", false),
		},
		RetryAttempts:  getEnvAsInt("WIX_RETRY_ATTEMPTS", DefaultRetryAttempts),
		TimeoutSeconds: getEnvAsInt("WIX_TIMEOUT_SECONDS", DefaultTimeoutSeconds),
	}

	if err := i.Validate(); err != nil {
		return nil, err
	}
	return i, nil
}

// Validate checks the bounds of the numeric and enumerated settings.
// Missing credentials are not an error here; see MissingCredentials.
func (i *Integration) Validate() error {
	if err := getValidator().Struct(i); err != nil {
		return fmt.Errorf("invalid integration config: %w", err)
	}
	return nil
}

// MissingCredentials lists the credential fields that are empty.
func (i *Integration) MissingCredentials() []string {
	err := getValidator().Struct(credentials{
		SiteID:    i.SiteID,
		APIKey:    i.APIKey,
		AccountID: i.AccountID,
	})
	if err == nil {
		return nil
	}

	var missing []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			missing = append(missing, fe.Field())
		}
	}
	return missing
}

// CallBudget is the longest one connector call can run with these
// settings: every attempt at the full timeout plus the backoff waits, which
// jitter can stretch by half.
func (i Integration) CallBudget() time.Duration {
	retries := i.RetryAttempts
	if retries < 0 {
		retries = 0
	}
	timeout := i.TimeoutSeconds
	if timeout <= 0 {
		timeout = DefaultTimeoutSeconds
	}
	attempts := time.Duration(retries+1) * time.Duration(timeout) * time.Second
	return attempts + time.Duration(retries)*RetryWaitCap*3/2
}

// SyncBudget bounds one sync attempt. Test mode adds a connection check
// ahead of the product call.
func (i Integration) SyncBudget() time.Duration {
	if i.TestMode {
		return 2 * i.CallBudget()
	}
	return i.CallBudget()
}

// MaxSyncBudget is SyncBudget for the largest settings Validate accepts.
func MaxSyncBudget() time.Duration {
	return Integration{
		TestMode:       true,
		RetryAttempts:  MaxRetryAttempts,
		TimeoutSeconds: MaxTimeoutSeconds,
	}.SyncBudget()
}

// Store holds the active integration settings and swaps them on reload.
type Store struct {
	current atomic.Pointer[Integration]
	loader  func() (*Integration, error)
}

func NewStore(initial Integration) *Store {
	s := &Store{loader: reloadIntegration}
	s.current.Store(&initial)
	return s
}

// Current returns a copy of the active settings.
func (s *Store) Current() Integration {
	return *s.current.Load()
}

// Set replaces the active settings.
func (s *Store) Set(i Integration) {
	s.current.Store(&i)
}

// Reload re-reads the settings. The previous settings stay active on error.
func (s *Store) Reload() (Integration, error) {
	next, err := s.loader()
	if err != nil {
		return s.Current(), err
	}
	s.current.Store(next)
	return *next, nil
}

func reloadIntegration() (*Integration, error) {
	// A missing .env file is fine; the process environment still applies.
	_ = godotenv.Overload()
	return LoadIntegration()
}
