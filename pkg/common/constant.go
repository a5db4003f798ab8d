package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyIOTDBType string = "IOT_DB_TYPE"
	EnvKeyIOTDbPath string = "IOT_DB_PATH"
	EnvKeyIOTLogDir string = "IOT_LOG_DIR"

	EnvKeyIOTHttpHostPort string = "IOT_HTTP_HOST_PORT"
	EnvKeyIOTGrpcHostPort string = "IOT_GRPC_HOST_PORT"

	EnvKeyIOTDefaultRate  string = "IOT_DEFAULT_RATE"
	EnvKeyIOTDefaultBurst string = "IOT_DEFAULT_BURST"

	EnvKeyIOTStalenessWindow     string = "IOT_STALENESS_WINDOW"
	EnvKeyIOTRiskStalenessWindow string = "IOT_RISK_STALENESS_WINDOW"
	EnvKeyIOTTimeoutRiskSeconds  string = "IOT_TIMEOUT_RISK_SECONDS"
	EnvKeyIOTReconnectGrace      string = "IOT_RECONNECT_GRACE"
	EnvKeyIOTLockTimeout         string = "IOT_LOCK_TIMEOUT"
	EnvKeyIOTStoreTimeout        string = "IOT_STORE_TIMEOUT"
	EnvKeyIOTAnalyticsInterval   string = "IOT_ANALYTICS_INTERVAL"

	EnvKeyIOTDetectionPatternsFile string = "IOT_DETECTION_PATTERNS_FILE"

	EnvKeyIOTMqttBroker   string = "IOT_MQTT_BROKER"
	EnvKeyIOTMqttTopic    string = "IOT_MQTT_TOPIC"
	EnvKeyIOTMqttClientID string = "IOT_MQTT_CLIENT_ID"

	EnvKeyIOTNatsURL     string = "IOT_NATS_URL"
	EnvKeyIOTNatsSubject string = "IOT_NATS_SUBJECT"

	LoggerNameIOTCore        string = "iot_core"
	LoggerNameRestfulServer  string = "restful_server"
	LoggerNameGrpcServer     string = "grpc_server"
	LoggerNameMqttSubscriber string = "mqtt_subscriber"
	LoggerNameNatsPublisher  string = "nats_publisher"

	LoggerFieldIOTCategory     string = "category"
	LoggerCategoryIOTIngest    string = "ingest"
	LoggerCategoryIOTRegistry  string = "registry"
	LoggerCategoryIOTMetric    string = "metric"
	LoggerCategoryIOTSession   string = "session"
	LoggerCategoryIOTAnalytics string = "analytics"
	LoggerCategoryIOTNotifier  string = "notifier"
	LoggerCategoryIOTScheduler string = "scheduler"
	LoggerCategoryIOTConfig    string = "config"
)
