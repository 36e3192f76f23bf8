package productsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalogsync/internal/config"
	"catalogsync/internal/database"
	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/services/wix"

	"gorm.io/datatypes"
)

// ItemStore is the item persistence the service needs.
type ItemStore interface {
	Get(ctx context.Context, code string) (*models.Item, error)
	UpdateSyncFields(ctx context.Context, item *models.Item) error
	Find(ctx context.Context, filter database.ItemFilter) ([]models.Item, error)
	CountByStatus(ctx context.Context) (map[models.SyncStatus]int64, error)
	LastSyncedAt(ctx context.Context) (*time.Time, error)
	MarkStalled(ctx context.Context, cutoff time.Time, message string) (int64, error)
}

// LogStore is the append-only integration log.
type LogStore interface {
	Create(ctx context.Context, entry *models.IntegrationLog) error
	List(ctx context.Context, filter database.LogFilter) ([]models.IntegrationLog, error)
	CountFailuresSince(ctx context.Context, since time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CategoryResolver maps an item group to an external category id.
type CategoryResolver interface {
	CategoryID(ctx context.Context, itemGroup string) (string, error)
}

// Connector is the remote catalog.
type Connector interface {
	CreateProduct(ctx context.Context, product *wix.Product) (*wix.ProductResponse, error)
	UpdateProduct(ctx context.Context, productID string, product *wix.Product) (*wix.ProductResponse, error)
	GetProduct(ctx context.Context, productID string) (*wix.ProductResponse, error)
	TestConnection(ctx context.Context) (*wix.SiteProperties, error)
}

type Trigger string

const (
	TriggerManual Trigger = "manual"
	TriggerAuto   Trigger = "auto"
	TriggerBatch  Trigger = "batch"
	TriggerQueue  Trigger = "queue"
)

type Outcome string

const (
	OutcomeSynced  Outcome = "synced"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Error kinds produced before the connector is reached.
const (
	KindConfiguration = "configuration"
	KindValidation    = "validation"
	KindLock          = "lock"
)

const (
	ReasonNotEligible = "item is not enabled for sync"
	ReasonDisabled    = "item is disabled"
	ReasonIntegration = "integration is disabled"
	ReasonInProgress  = "sync already in progress"

	StalledMessage = "sync interrupted"
)

const writeBackTimeout = 10 * time.Second

// ErrNotLinked is returned by remote lookups for items without a catalog product.
var ErrNotLinked = errors.New("item is not linked to a catalog product")

// Result describes one sync attempt. It is returned for every call, including
// skipped and failed ones.
type Result struct {
	ItemCode          string              `json:"item_code"`
	Trigger           Trigger             `json:"trigger"`
	Outcome           Outcome             `json:"outcome"`
	Operation         models.LogOperation `json:"operation,omitempty"`
	SyncStatus        models.SyncStatus   `json:"sync_status"`
	ExternalProductID string              `json:"external_product_id,omitempty"`
	Message           string              `json:"message,omitempty"`
	Errors            []string            `json:"errors,omitempty"`
	ErrorKind         string              `json:"error_kind,omitempty"`
	DurationMS        int64               `json:"duration_ms"`

	Err          error `json:"-"`
	PersistError error `json:"-"`
}

func (r *Result) Success() bool {
	return r.Outcome == OutcomeSynced
}

// ConfigurationError means the integration cannot be used as configured.
type ConfigurationError struct {
	Missing []string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return "integration is not configured: missing " + strings.Join(e.Missing, ", ")
	}
	return fmt.Sprintf("integration is not configured: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ValidationError carries every local validation failure for a payload.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, "; ")
}

// ErrorKind extends wix.ErrorKind with the service's own error types.
func ErrorKind(err error) string {
	var cfgErr *ConfigurationError
	var valErr *ValidationError
	switch {
	case errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.As(err, &valErr):
		return KindValidation
	default:
		return wix.ErrorKind(err)
	}
}

type Service struct {
	settings   *config.Store
	items      ItemStore
	logs       LogStore
	categories CategoryResolver
	connector  Connector
	locker     Locker
	logger     *logger.Logger
	now        func() time.Time
}

// NewService wires the orchestrator. categories may be nil when no mapping
// store is available; locker defaults to an in-process lock.
func NewService(settings *config.Store, items ItemStore, logs LogStore, categories CategoryResolver, connector Connector, locker Locker, logger *logger.Logger) *Service {
	if locker == nil {
		locker = NewMemoryLocker()
	}
	return &Service{
		settings:   settings,
		items:      items,
		logs:       logs,
		categories: categories,
		connector:  connector,
		locker:     locker,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Sync pushes item to the catalog and records the outcome on the item and in
// the integration log. item is updated in place.
func (s *Service) Sync(ctx context.Context, item *models.Item, trigger Trigger) *Result {
	start := time.Now()
	result := &Result{ItemCode: item.Code, Trigger: trigger}
	defer func() {
		result.SyncStatus = item.SyncStatus
		if item.IsLinked() {
			result.ExternalProductID = *item.ExternalProductID
		}
		result.DurationMS = time.Since(start).Milliseconds()
		observe(result, time.Since(start))
	}()

	cfg := s.settings.Current()
	if reason := skipReason(item, cfg); reason != "" {
		result.Outcome = OutcomeSkipped
		result.Message = reason
		return result
	}

	release, acquired, err := s.locker.TryLock(ctx, item.Code, lockTTL(cfg))
	if err != nil {
		s.logger.Error("Failed to acquire sync lock for %s: %v", item.Code, err)
		s.fail(result, KindLock, fmt.Errorf("acquire sync lock: %w", err))
		return result
	}
	if !acquired {
		s.logger.Info("Skipping %s: %s", item.Code, ReasonInProgress)
		result.Outcome = OutcomeSkipped
		result.Message = ReasonInProgress
		return result
	}
	defer release()

	if err := s.checkPrerequisites(ctx, cfg); err != nil {
		s.logger.Warn("Cannot sync %s: %v", item.Code, err)
		s.fail(result, KindConfiguration, err)
		return result
	}

	item.MarkPending()
	if err := s.items.UpdateSyncFields(ctx, item); err != nil {
		s.logger.Warn("Failed to mark %s pending: %v", item.Code, err)
	}

	product := wix.Transform(wix.SourceFromItem(item, s.categoryFor(ctx, item, cfg), cfg.ImageBaseURL), cfg.Fields)

	if errs := wix.Validate(product); len(errs) > 0 {
		verr := &ValidationError{Errors: errs}
		item.MarkError(verr.Error(), s.now())
		result.Operation = models.OperationValidate
		result.Errors = errs
		s.fail(result, KindValidation, verr)
		s.persist(ctx, item, result)
		s.writeLog(ctx, &models.IntegrationLog{
			Direction:     models.DirectionOutbound,
			Operation:     models.OperationValidate,
			ReferenceCode: item.Code,
			Status:        models.LogStatusFailure,
			Message:       verr.Error(),
			ErrorKind:     KindValidation,
			Trigger:       string(trigger),
			Request:       toJSON(product),
		})
		return result
	}

	var resp *wix.ProductResponse
	var body *wix.Product
	if item.IsLinked() {
		result.Operation = models.OperationUpdate
		body = product.ForUpdate(cfg.Fields)
		resp, err = s.connector.UpdateProduct(ctx, *item.ExternalProductID, body)
	} else {
		result.Operation = models.OperationCreate
		body = product
		resp, err = s.connector.CreateProduct(ctx, body)
	}

	entry := &models.IntegrationLog{
		Direction:     models.DirectionOutbound,
		Operation:     result.Operation,
		ReferenceCode: item.Code,
		Trigger:       string(trigger),
		Request:       toJSON(body),
	}

	if err != nil {
		item.MarkError(err.Error(), s.now())
		s.fail(result, ErrorKind(err), err)
		s.logger.Error("Sync %s of %s failed: %v", result.Operation, item.Code, err)

		entry.Status = models.LogStatusFailure
		entry.Message = err.Error()
		entry.ErrorKind = result.ErrorKind
		entry.Response = models.Snippet(err.Error())
	} else {
		externalID := ""
		if result.Operation == models.OperationCreate {
			externalID = resp.ID
		}
		item.MarkSynced(externalID, s.now())
		result.Outcome = OutcomeSynced
		result.Message = "product updated"
		if result.Operation == models.OperationCreate {
			result.Message = "product created"
		}

		productID := ""
		if item.IsLinked() {
			productID = *item.ExternalProductID
		}
		s.logger.Info("Synced %s (%s, product %s)", item.Code, result.Operation, productID)

		entry.Status = models.LogStatusSuccess
		entry.Message = result.Message + " " + productID
		entry.Response = models.Snippet(resp.Body)
	}

	s.persist(ctx, item, result)
	s.writeLog(ctx, entry)
	return result
}

// SyncByCode loads an item and syncs it.
func (s *Service) SyncByCode(ctx context.Context, code string, trigger Trigger) (*Result, error) {
	item, err := s.items.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.Sync(ctx, item, trigger), nil
}

// TriggerAutoSync runs the record-save hook: it syncs only when auto-sync is
// on. The returned result is nil when nothing was attempted.
func (s *Service) TriggerAutoSync(ctx context.Context, item *models.Item) *Result {
	if !s.settings.Current().AutoSync {
		return nil
	}
	return s.Sync(ctx, item, TriggerAuto)
}

// RecentLogs lists integration log entries, newest first.
func (s *Service) RecentLogs(ctx context.Context, filter database.LogFilter) ([]models.IntegrationLog, error) {
	return s.logs.List(ctx, filter)
}

// RecordInbound writes the log entry for a received webhook.
func (s *Service) RecordInbound(ctx context.Context, event *wix.Event, action string) {
	webhookEvents.WithLabelValues(action).Inc()
	s.writeLog(ctx, &models.IntegrationLog{
		Direction:     models.DirectionInbound,
		Operation:     models.OperationWebhook,
		ReferenceCode: event.EntityID,
		Status:        models.LogStatusSuccess,
		Message:       fmt.Sprintf("%s: %s", event.EventType, action),
		Request:       toJSON(event),
	})
}

// RecordDeletion writes the outbound log entry for an item the host deleted.
// The catalog product is left in place for manual cleanup.
func (s *Service) RecordDeletion(ctx context.Context, item *models.Item) {
	message := "item deleted, no catalog product linked"
	if item.IsLinked() {
		message = fmt.Sprintf("item deleted, catalog product %s needs manual cleanup", *item.ExternalProductID)
	}
	s.logger.Info("Item %s: %s", item.Code, message)
	s.writeLog(ctx, &models.IntegrationLog{
		Direction:     models.DirectionOutbound,
		Operation:     models.OperationDelete,
		ReferenceCode: item.Code,
		Status:        models.LogStatusSuccess,
		Message:       message,
		Trigger:       string(TriggerAuto),
	})
}

// RemoteProduct reads the catalog product linked to an item.
func (s *Service) RemoteProduct(ctx context.Context, code string) (*wix.ProductResponse, error) {
	item, err := s.items.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if !item.IsLinked() {
		return nil, ErrNotLinked
	}
	cfg := s.settings.Current()
	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		return nil, &ConfigurationError{Missing: missing}
	}
	return s.connector.GetProduct(ctx, *item.ExternalProductID)
}

func skipReason(item *models.Item, cfg config.Integration) string {
	switch {
	case !cfg.Enabled:
		return ReasonIntegration
	case !item.SyncEnabled:
		return ReasonNotEligible
	case item.Disabled:
		return ReasonDisabled
	}
	return ""
}

func (s *Service) checkPrerequisites(ctx context.Context, cfg config.Integration) error {
	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	if cfg.TestMode {
		if _, err := s.connector.TestConnection(ctx); err != nil {
			return &ConfigurationError{Err: err}
		}
	}
	return nil
}

func (s *Service) categoryFor(ctx context.Context, item *models.Item, cfg config.Integration) string {
	if !cfg.Fields.Categories || s.categories == nil || item.ItemGroup == nil || *item.ItemGroup == "" {
		return ""
	}
	id, err := s.categories.CategoryID(ctx, *item.ItemGroup)
	if err != nil {
		s.logger.Warn("Failed to resolve category for group %s: %v", *item.ItemGroup, err)
		return ""
	}
	return id
}

func (s *Service) fail(result *Result, kind string, err error) {
	result.Outcome = OutcomeFailed
	result.Err = err
	result.ErrorKind = kind
	result.Message = err.Error()
}

// writeBackContext detaches the outcome writes from the caller so a client
// disconnect or shutdown after the remote call still records the result.
func writeBackContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), writeBackTimeout)
}

func (s *Service) persist(ctx context.Context, item *models.Item, result *Result) {
	ctx, cancel := writeBackContext(ctx)
	defer cancel()
	if err := s.items.UpdateSyncFields(ctx, item); err != nil {
		s.logger.Error("Failed to save sync status for %s: %v", item.Code, err)
		result.PersistError = err
	}
}

func (s *Service) writeLog(ctx context.Context, entry *models.IntegrationLog) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	ctx, cancel := writeBackContext(ctx)
	defer cancel()
	if err := s.logs.Create(ctx, entry); err != nil {
		s.logger.Warn("Failed to write integration log for %s: %v", entry.ReferenceCode, err)
	}
}

func toJSON(v interface{}) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
