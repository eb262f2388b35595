// Package cloudant provides the Cloudant input component for document queries
package cloudant

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	gateway "github.com/Noaman7/BluemixPOC/cloudant"
	"github.com/Noaman7/BluemixPOC/component"
	"github.com/Noaman7/BluemixPOC/errors"
	"github.com/Noaman7/BluemixPOC/message"
	"github.com/Noaman7/BluemixPOC/metric"
	"github.com/Noaman7/BluemixPOC/natsclient"
	"github.com/Noaman7/BluemixPOC/storage/couchstore"
)

// Config holds configuration for the Cloudant input component
type Config struct {
	Ports      *component.PortConfig `json:"ports"      schema:"type:ports,description:Port configuration,category:basic"`
	Database   string                `json:"database"   schema:"type:string,description:Database to query,category:basic,required"`
	Mode       string                `json:"mode"       schema:"type:enum,description:Query mode,category:basic,default:id,enum:id|index|all"`
	Connection string                `json:"connection" schema:"type:string,description:Registered connection name,category:basic"`
	Service    string                `json:"service"    schema:"type:string,description:Bound service name,category:basic"`
	Design     string                `json:"design"     schema:"type:string,description:Design document for index queries,category:advanced"`
	Index      string                `json:"index"      schema:"type:string,description:Search index for index queries,category:advanced"`
	Limit      int                   `json:"limit"      schema:"type:int,description:Result limit for index queries,category:advanced,default:200"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Database == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "database is required")
	}

	if c.Mode != "" {
		mode, err := gateway.ParseQueryMode(c.Mode)
		if err != nil {
			return err
		}
		if mode == gateway.QueryByIndex && (c.Design == "" || c.Index == "") {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"index mode requires design and index")
		}
	}

	if c.Connection == "" && c.Service == "" {
		return errors.WrapInvalid(errors.ErrNoCredentials, "Config", "Validate",
			"either connection or service is required")
	}

	return nil
}

// DefaultConfig returns default configuration for Cloudant input
func DefaultConfig() Config {
	return Config{
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "nats_input",
					Type:        "nats",
					Subject:     "flow.queries.>",
					Required:    true,
					Description: "NATS subjects carrying query triggers",
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        "nats_output",
					Type:        "nats",
					Subject:     "flow.queries.results",
					Required:    true,
					Description: "Query results",
				},
			},
		},
		Mode:  "id",
		Limit: gateway.DefaultSearchLimit,
	}
}

// inputSchema defines the configuration schema for the Cloudant input component
var inputSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Input queries a Cloudant-style database in response to trigger messages
type Input struct {
	name          string
	subjects      []string
	resultSubject string
	databaseRaw   string
	mode          gateway.QueryMode
	design        string
	index         string
	limit         int
	settings      gateway.ResolverSettings

	natsClient *natsclient.Client
	profiles   gateway.ProfileSource
	metrics    *metric.Metrics
	logger     *component.Logger

	profile gateway.ConnectionProfile
	store   gateway.Store
	reader  *gateway.ReadGateway
	// connect is swappable in tests
	connect func(ctx context.Context, profile gateway.ConnectionProfile) (gateway.Store, error)

	// Lifecycle management
	running     bool
	draining    bool
	startTime   time.Time
	mu          sync.RWMutex
	lifecycleMu sync.Mutex
	wg          sync.WaitGroup

	// Counters
	queriesServed int64
	errorCount    int64
	lastActivity  time.Time
}

// NewInput creates a new Cloudant input from configuration
func NewInput(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	var config Config
	if err := component.SafeUnmarshal(rawConfig, &config); err != nil {
		return nil, errors.WrapInvalid(err, "Input", "NewInput", "config unmarshal")
	}

	if config.Ports == nil {
		config.Ports = DefaultConfig().Ports
	}
	if config.Mode == "" {
		config.Mode = "id"
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	mode, err := gateway.ParseQueryMode(config.Mode)
	if err != nil {
		return nil, err
	}

	var inputSubjects []string
	for _, input := range config.Ports.Inputs {
		if input.Type == "nats" {
			inputSubjects = append(inputSubjects, input.Subject)
		}
	}
	if len(inputSubjects) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Input", "NewInput", "no input subjects configured")
	}

	var resultSubject string
	for _, output := range config.Ports.Outputs {
		if output.Type == "nats" || output.Type == "" {
			resultSubject = output.Subject
			break
		}
	}
	if resultSubject == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Input", "NewInput", "no output subject configured")
	}

	profiles, _ := deps.Profiles.(gateway.ProfileSource)

	var metrics *metric.Metrics
	if deps.MetricsRegistry != nil {
		metrics = deps.MetricsRegistry.CoreMetrics()
	}

	var conn *nats.Conn
	if deps.NATSClient != nil {
		conn = deps.NATSClient.GetConnection()
	}
	logger := component.NewLogger("cloudant-input", "", conn, deps.GetLoggerWithComponent("cloudant-input"))

	return &Input{
		name:          "cloudant-input",
		subjects:      inputSubjects,
		resultSubject: resultSubject,
		databaseRaw:   config.Database,
		mode:          mode,
		design:        config.Design,
		index:         config.Index,
		limit:         config.Limit,
		settings: gateway.ResolverSettings{
			ConnectionName: config.Connection,
			ServiceName:    config.Service,
		},
		natsClient: deps.NATSClient,
		profiles:   profiles,
		metrics:    metrics,
		logger:     logger,
		connect: func(ctx context.Context, profile gateway.ConnectionProfile) (gateway.Store, error) {
			return couchstore.Connect(ctx, profile)
		},
	}, nil
}

// Initialize resolves the connection profile
func (in *Input) Initialize() error {
	services, err := gateway.BoundServicesFromEnv()
	if err != nil {
		return err
	}

	profile, err := gateway.NewResolver(in.profiles, services).Resolve(in.settings)
	if err != nil {
		return err
	}
	in.profile = profile
	return nil
}

// Start connects to the backend and begins consuming trigger messages
func (in *Input) Start(ctx context.Context) error {
	in.lifecycleMu.Lock()
	defer in.lifecycleMu.Unlock()

	if in.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Input", "Start", "check running state")
	}
	if in.natsClient == nil {
		return errors.WrapFatal(errors.ErrMissingConfig, "Input", "Start", "NATS client required")
	}

	if in.store == nil {
		store, err := in.connect(ctx, in.profile)
		if err != nil {
			return err
		}
		in.store = store
	}

	db, changed := gateway.NormalizeDatabaseName(in.databaseRaw)
	if changed {
		in.logger.Warn(fmt.Sprintf("database name %q normalized to %q", in.databaseRaw, db))
	}
	in.reader = gateway.NewReadGateway(in.store, db)

	for _, subject := range in.subjects {
		if err := in.natsClient.Subscribe(ctx, subject, in.handleMessage); err != nil {
			return errors.WrapTransient(err, "Input", "Start", fmt.Sprintf("subscribe to %s", subject))
		}
	}

	in.mu.Lock()
	in.running = true
	in.startTime = time.Now()
	in.mu.Unlock()

	return nil
}

// Stop gracefully stops the input and releases the backend client
func (in *Input) Stop(timeout time.Duration) error {
	in.lifecycleMu.Lock()
	defer in.lifecycleMu.Unlock()

	if !in.running {
		return nil
	}

	// Flip draining under the same lock beginWork takes, so no late
	// trigger can register work once the wait starts
	in.mu.Lock()
	in.draining = true
	in.mu.Unlock()

	waitCh := make(chan struct{})
	go func() {
		in.wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
	case <-time.After(timeout):
		return errors.WrapTransient(fmt.Errorf("shutdown timeout after %v", timeout), "Input", "Stop", "shutdown")
	}

	if in.store != nil {
		if err := in.store.Close(); err != nil {
			in.logger.Warn(fmt.Sprintf("closing backend client: %v", err))
		}
	}

	in.mu.Lock()
	in.running = false
	in.mu.Unlock()

	return nil
}

// handleMessage runs one query per trigger message. Failures are reported
// and halt processing for this message only.
func (in *Input) handleMessage(ctx context.Context, msgData []byte) {
	if !in.beginWork() {
		return
	}
	defer in.wg.Done()

	envelope := decodeEnvelope(msgData)
	params := in.queryParams(envelope)

	start := time.Now()
	result, err := in.reader.Query(ctx, in.mode, params)

	db := in.reader.Database()
	if in.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		in.metrics.RecordDocumentRead(db, in.mode.String(), status)
		in.metrics.RecordStoreOperation(db, "query_"+in.mode.String(), time.Since(start))
	}

	if err != nil {
		atomic.AddInt64(&in.errorCount, 1)
		in.logger.ErrorContext(ctx, fmt.Sprintf("%s query against %q failed", in.mode, db), err)
		return
	}

	if result.Warning != "" {
		in.logger.WarnContext(ctx, result.Warning)
	}

	atomic.AddInt64(&in.queriesServed, 1)
	in.emitResult(ctx, result)
}

// beginWork registers an in-flight query unless shutdown has begun. The
// waitgroup Add happens under the same lock Stop uses to flip draining, so
// a late trigger can never slip in after the drain wait starts.
func (in *Input) beginWork() bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.draining {
		return false
	}
	in.wg.Add(1)
	in.lastActivity = time.Now()
	return true
}

// queryParams assembles per-message query inputs from the envelope. The
// message can override the query and sort for index queries.
func (in *Input) queryParams(envelope *message.EnvelopePayload) gateway.QueryParams {
	params := gateway.QueryParams{
		Payload: envelope.Body(),
		Design:  in.design,
		Index:   in.index,
		Limit:   in.limit,
	}

	if envelope.Data != nil {
		if q, ok := envelope.Data["query"].(string); ok {
			params.Query = q
		}
		if sortSpec, ok := envelope.Data["sort"]; ok {
			params.Sort = sortSpec
		}
	}

	return params
}

// emitResult publishes the normalized result on the output port
func (in *Input) emitResult(ctx context.Context, result *gateway.Result) {
	msg := message.NewBaseMessage(message.ResultType,
		message.NewResult(result.Payload, result.Raw), in.name)

	data, err := json.Marshal(msg)
	if err != nil {
		in.logger.ErrorContext(ctx, "marshal result message", err)
		return
	}
	if err := in.natsClient.Publish(ctx, in.resultSubject, data); err != nil {
		in.logger.ErrorContext(ctx, fmt.Sprintf("publish result to %s", in.resultSubject), err)
	}
}

// decodeEnvelope interprets inbound bytes as a flow envelope message,
// falling back to treating them as a bare JSON payload.
func decodeEnvelope(msgData []byte) *message.EnvelopePayload {
	var msg message.BaseMessage
	if err := json.Unmarshal(msgData, &msg); err == nil {
		if envelope, ok := msg.Payload().(*message.EnvelopePayload); ok {
			return envelope
		}
	}

	var raw map[string]any
	if err := json.Unmarshal(msgData, &raw); err == nil {
		return message.NewEnvelope(raw)
	}
	return message.NewEnvelope(map[string]any{"payload": string(msgData)})
}

// Discoverable interface implementation

// Meta returns component metadata
func (in *Input) Meta() component.Metadata {
	return component.Metadata{
		Name:        in.name,
		Type:        "input",
		Description: "Cloudant input for document queries",
		Version:     "1.0.0",
	}
}

// InputPorts returns configured input port definitions
func (in *Input) InputPorts() []component.Port {
	ports := make([]component.Port, len(in.subjects))
	for i, subj := range in.subjects {
		ports[i] = component.Port{
			Name:      fmt.Sprintf("input_%d", i),
			Direction: component.DirectionInput,
			Required:  true,
			Config:    component.NATSPort{Subject: subj},
		}
	}
	return ports
}

// OutputPorts returns the result port
func (in *Input) OutputPorts() []component.Port {
	return []component.Port{{
		Name:      "results",
		Direction: component.DirectionOutput,
		Required:  true,
		Config:    component.NATSPort{Subject: in.resultSubject},
	}}
}

// ConfigSchema returns the configuration schema
func (in *Input) ConfigSchema() component.ConfigSchema {
	return inputSchema
}

// Health returns the current health status
func (in *Input) Health() component.HealthStatus {
	in.mu.RLock()
	defer in.mu.RUnlock()

	return component.HealthStatus{
		Healthy:    in.running,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&in.errorCount)),
		Uptime:     time.Since(in.startTime),
	}
}

// DataFlow returns current data flow metrics
func (in *Input) DataFlow() component.FlowMetrics {
	in.mu.RLock()
	defer in.mu.RUnlock()

	served := atomic.LoadInt64(&in.queriesServed)
	errorCount := atomic.LoadInt64(&in.errorCount)

	var errorRate float64
	if total := served + errorCount; total > 0 {
		errorRate = float64(errorCount) / float64(total)
	}

	return component.FlowMetrics{
		ErrorRate:    errorRate,
		LastActivity: in.lastActivity,
	}
}

// Register registers the Cloudant input component with the given registry
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "cloudant-in",
		Factory:     NewInput,
		Schema:      inputSchema,
		Type:        "input",
		Protocol:    "couchdb",
		Domain:      "storage",
		Description: "Cloudant input for by-id, indexed, and full-listing queries",
		Version:     "1.0.0",
	})
}
