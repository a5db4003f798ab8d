package iot

import (
	"context"
	"time"

	"gorm.io/gorm"
	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/db"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . IRegistry,IMetric,ISession,IAnalytics,IIngest,IConfig

// IRegistry writes take the ingestion transaction; reads take a context.
type IRegistry interface {
	UpsertDevice(tx *gorm.DB, input *models.Device, receivedAt time.Time) (created bool, err error)
	GetDevice(ctx context.Context, deviceID string) (*models.Device, error)
	ListDevices(ctx context.Context) ([]models.Device, error)
}

type IMetric interface {
	AppendMetrics(tx *gorm.DB, deviceID string, receivedAt time.Time, payload *Payload, detection Detection) (RecordCounts, error)
	LatestMetrics(ctx context.Context, deviceID string) (*LatestMetrics, error)
	GetDeviceMetrics(ctx context.Context, deviceID string, since time.Time) (*MetricHistory, error)
}

type ISession interface {
	EvaluateSession(tx *gorm.DB, deviceID string, obs Observation) (*SessionOutcome, error)
	GetSessionState(ctx context.Context, deviceID string) (*models.DeviceSession, error)
	ListSessionStates(ctx context.Context) ([]models.DeviceSession, error)
	GetSessionEvents(ctx context.Context, deviceID string) ([]models.SessionEvent, error)
}

type IAnalytics interface {
	Compute(ctx context.Context, window time.Duration) (*models.AnalyticsSnapshot, error)
	ListDeviceViews(ctx context.Context) ([]models.DeviceView, error)
	SessionIssues(ctx context.Context, deviceID string, hours int) (*models.SessionIssuesReport, error)
}

type IIngest interface {
	Ingest(ctx context.Context, payload *Payload) (*IngestResult, error)
}

// IConfig persists per-device rate limit overrides.
type IConfig interface {
	UpsertLimiterConfig(ctx context.Context, input *models.LimiterConfig) error
	ListLimiterConfigs(ctx context.Context) ([]models.LimiterConfig, error)
}

const DefaultAnalyticsInterval = 30 * time.Second

type Options struct {
	// StalenessWindow separates online from offline devices.
	StalenessWindow time.Duration
	// RiskStalenessWindow is the shorter silence that already costs health
	// score points.
	RiskStalenessWindow time.Duration
	Session             SessionPolicy
	LockTimeout         time.Duration
	StoreTimeout        time.Duration
	Patterns            DetectionPatterns
	Clock               common.Clock
}

func DefaultOptions() Options {
	return Options{
		StalenessWindow:     5 * time.Minute,
		RiskStalenessWindow: 2 * time.Minute,
		Session:             DefaultSessionPolicy(),
		LockTimeout:         2 * time.Second,
		StoreTimeout:        5 * time.Second,
		Patterns:            DefaultDetectionPatterns(),
		Clock:               common.RealClock{},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.StalenessWindow <= 0 {
		o.StalenessWindow = d.StalenessWindow
	}
	if o.RiskStalenessWindow <= 0 {
		o.RiskStalenessWindow = d.RiskStalenessWindow
	}
	if o.Session.RiskThreshold <= 0 {
		o.Session.RiskThreshold = d.Session.RiskThreshold
	}
	// zero takes the default grace; a negative grace turns reconnects off
	switch {
	case o.Session.ReconnectGrace == 0:
		o.Session.ReconnectGrace = d.Session.ReconnectGrace
	case o.Session.ReconnectGrace < 0:
		o.Session.ReconnectGrace = 0
	}
	if o.LockTimeout <= 0 {
		o.LockTimeout = d.LockTimeout
	}
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = d.StoreTimeout
	}
	if len(o.Patterns.Myob) == 0 && len(o.Patterns.Scanner) == 0 {
		o.Patterns = d.Patterns
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	return o
}

type IOT struct {
	Db       db.DB
	Options  Options
	Clock    common.Clock
	Detector *Detector
	Locks    *DeviceLockStore
	Notifier *Notifier

	Registry  IRegistry
	Metric    IMetric
	Session   ISession
	Analytics IAnalytics
	Ingestion IIngest
	Config    IConfig
}

type ServiceOpts struct {
	Registry  IRegistry
	Metric    IMetric
	Session   ISession
	Analytics IAnalytics
	Ingestion IIngest
	Config    IConfig
}

// New wires an engine over database with its default services.
func New(database *db.DB, opts Options) *IOT {
	opts = opts.withDefaults()
	i := &IOT{
		Db:       *database,
		Options:  opts,
		Clock:    opts.Clock,
		Detector: NewDetector(opts.Patterns),
		Locks:    NewDeviceLockStore(),
		Notifier: NewNotifier(),
	}
	return i.WithServices(ServiceOpts{
		Registry:  i.GetIRegistry(),
		Metric:    i.GetIMetric(),
		Session:   i.GetISession(),
		Analytics: i.GetIAnalytics(),
		Ingestion: i.GetIIngest(),
		Config:    i.GetIConfig(),
	})
}

func (i *IOT) WithServices(opts ServiceOpts) *IOT {
	if opts.Registry != nil {
		i.Registry = opts.Registry
	}
	if opts.Metric != nil {
		i.Metric = opts.Metric
	}
	if opts.Session != nil {
		i.Session = opts.Session
	}
	if opts.Analytics != nil {
		i.Analytics = opts.Analytics
	}
	if opts.Ingestion != nil {
		i.Ingestion = opts.Ingestion
	}
	if opts.Config != nil {
		i.Config = opts.Config
	}
	return i
}
