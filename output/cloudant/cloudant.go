// Package cloudant provides the Cloudant output component for document writes
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

// Operation names accepted in configuration
const (
	OperationInsert = "insert"
	OperationDelete = "delete"
)

// Config holds configuration for the Cloudant output component
type Config struct {
	Ports        *component.PortConfig `json:"ports"         schema:"type:ports,description:Port configuration,category:basic"`
	Database     string                `json:"database"      schema:"type:string,description:Target database name,category:basic,required"`
	Operation    string                `json:"operation"     schema:"type:enum,description:Write operation,category:basic,default:insert,enum:insert|delete"`
	Connection   string                `json:"connection"    schema:"type:string,description:Registered connection name,category:basic"`
	Service      string                `json:"service"       schema:"type:string,description:Bound service name,category:basic"`
	PayloadField string                `json:"payload_field" schema:"type:string,description:Field name for wrapped scalar payloads,category:advanced,default:payload"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Database == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "database is required")
	}

	switch c.Operation {
	case "", OperationInsert, OperationDelete:
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("operation must be %q or %q", OperationInsert, OperationDelete))
	}

	if c.Connection == "" && c.Service == "" {
		return errors.WrapInvalid(errors.ErrNoCredentials, "Config", "Validate",
			"either connection or service is required")
	}

	return nil
}

// DefaultConfig returns default configuration for Cloudant output
func DefaultConfig() Config {
	return Config{
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "nats_input",
					Type:        "nats",
					Subject:     "flow.documents.>",
					Required:    true,
					Description: "NATS subjects carrying documents to write",
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        "nats_output",
					Type:        "nats",
					Subject:     "flow.documents.results",
					Description: "Write results (backend id and revision)",
				},
			},
		},
		Operation:    OperationInsert,
		PayloadField: "payload",
	}
}

// outputSchema defines the configuration schema for the Cloudant output component
var outputSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Output writes flow messages to a Cloudant-style database
type Output struct {
	name          string
	subjects      []string
	resultSubject string
	databaseRaw   string
	operation     string
	payloadField  string
	settings      gateway.ResolverSettings

	natsClient *natsclient.Client
	profiles   gateway.ProfileSource
	metrics    *metric.Metrics
	logger     *component.Logger

	profile gateway.ConnectionProfile
	store   gateway.Store
	writer  *gateway.WriteGateway
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
	messagesWritten int64
	errorCount      int64
	lastActivity    time.Time
}

// NewOutput creates a new Cloudant output from configuration
func NewOutput(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	var config Config
	if err := component.SafeUnmarshal(rawConfig, &config); err != nil {
		return nil, errors.WrapInvalid(err, "Output", "NewOutput", "config unmarshal")
	}

	if config.Ports == nil {
		config.Ports = DefaultConfig().Ports
	}
	if config.Operation == "" {
		config.Operation = OperationInsert
	}
	if config.PayloadField == "" {
		config.PayloadField = "payload"
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var inputSubjects []string
	for _, input := range config.Ports.Inputs {
		if input.Type == "nats" {
			inputSubjects = append(inputSubjects, input.Subject)
		}
	}
	if len(inputSubjects) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Output", "NewOutput", "no input subjects configured")
	}

	var resultSubject string
	for _, output := range config.Ports.Outputs {
		if output.Type == "nats" || output.Type == "" {
			resultSubject = output.Subject
			break
		}
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
	logger := component.NewLogger("cloudant-output", "", conn, deps.GetLoggerWithComponent("cloudant-output"))

	return &Output{
		name:          "cloudant-output",
		subjects:      inputSubjects,
		resultSubject: resultSubject,
		databaseRaw:   config.Database,
		operation:     config.Operation,
		payloadField:  config.PayloadField,
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

// Initialize resolves the connection profile. A configuration with no
// resolvable profile fails here, before any message is accepted.
func (o *Output) Initialize() error {
	services, err := gateway.BoundServicesFromEnv()
	if err != nil {
		return err
	}

	profile, err := gateway.NewResolver(o.profiles, services).Resolve(o.settings)
	if err != nil {
		return err
	}
	o.profile = profile
	return nil
}

// Start connects to the backend and begins consuming messages
func (o *Output) Start(ctx context.Context) error {
	o.lifecycleMu.Lock()
	defer o.lifecycleMu.Unlock()

	if o.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Output", "Start", "check running state")
	}
	if o.natsClient == nil {
		return errors.WrapFatal(errors.ErrMissingConfig, "Output", "Start", "NATS client required")
	}

	if o.store == nil {
		store, err := o.connect(ctx, o.profile)
		if err != nil {
			return err
		}
		o.store = store
	}

	db, changed := gateway.NormalizeDatabaseName(o.databaseRaw)
	if changed {
		o.logger.Warn(fmt.Sprintf("database name %q normalized to %q", o.databaseRaw, db))
	}
	o.writer = gateway.NewWriteGateway(o.store, db)
	if o.metrics != nil {
		o.writer.NotifyCreate(func(status string) {
			o.metrics.RecordDatabaseCreate(db, status)
		})
	}

	for _, subject := range o.subjects {
		if err := o.natsClient.Subscribe(ctx, subject, o.handleMessage); err != nil {
			return errors.WrapTransient(err, "Output", "Start", fmt.Sprintf("subscribe to %s", subject))
		}
	}

	o.mu.Lock()
	o.running = true
	o.startTime = time.Now()
	o.mu.Unlock()

	return nil
}

// Stop gracefully stops the output and releases the backend client
func (o *Output) Stop(timeout time.Duration) error {
	o.lifecycleMu.Lock()
	defer o.lifecycleMu.Unlock()

	if !o.running {
		return nil
	}

	// Flip draining under the same lock beginWork takes, so no late
	// delivery can register work once the wait starts
	o.mu.Lock()
	o.draining = true
	o.mu.Unlock()

	waitCh := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
	case <-time.After(timeout):
		return errors.WrapTransient(fmt.Errorf("shutdown timeout after %v", timeout), "Output", "Stop", "shutdown")
	}

	if o.store != nil {
		if err := o.store.Close(); err != nil {
			o.logger.Warn(fmt.Sprintf("closing backend client: %v", err))
		}
	}

	o.mu.Lock()
	o.running = false
	o.mu.Unlock()

	return nil
}

// handleMessage processes one inbound flow message. Failures are reported
// and halt processing for this message only.
func (o *Output) handleMessage(ctx context.Context, msgData []byte) {
	if !o.beginWork() {
		return
	}
	defer o.wg.Done()

	envelope := decodeEnvelope(msgData)

	var resp map[string]any
	var err error
	start := time.Now()
	switch o.operation {
	case OperationDelete:
		resp, err = o.deleteDocument(ctx, envelope)
	default:
		resp, err = o.insertDocument(ctx, envelope)
	}

	db := o.writer.Database()
	if o.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		o.metrics.RecordDocumentWrite(db, o.operation, status)
		o.metrics.RecordStoreOperation(db, o.operation, time.Since(start))
	}

	if err != nil {
		atomic.AddInt64(&o.errorCount, 1)
		o.logger.ErrorContext(ctx, fmt.Sprintf("%s into %q failed", o.operation, db), err)
		return
	}

	atomic.AddInt64(&o.messagesWritten, 1)
	o.emitResult(ctx, resp)
}

// beginWork registers an in-flight message unless shutdown has begun. The
// waitgroup Add happens under the same lock Stop uses to flip draining, so
// a late delivery can never slip in after the drain wait starts.
func (o *Output) beginWork() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.draining {
		return false
	}
	o.wg.Add(1)
	o.lastActivity = time.Now()
	return true
}

// insertDocument coerces and sanitizes the payload, then writes it
func (o *Output) insertDocument(ctx context.Context, envelope *message.EnvelopePayload) (map[string]any, error) {
	doc := gateway.CoerceDocument(envelope.Body(), o.payloadField)

	sanitized, renamed, err := gateway.Sanitize(doc)
	if err != nil {
		return nil, err
	}
	for _, field := range renamed {
		o.logger.WarnContext(ctx, fmt.Sprintf("reserved field %q renamed during sanitization", field))
	}

	return o.writer.Insert(ctx, sanitized)
}

// deleteDocument extracts id and revision and issues the delete. No field
// renaming happens on the delete path.
func (o *Output) deleteDocument(ctx context.Context, envelope *message.EnvelopePayload) (map[string]any, error) {
	doc := gateway.CoerceDocument(envelope.Body(), o.payloadField)

	// Message-level id/rev take effect when the payload carries none
	if _, ok := doc.ID(); !ok {
		if id := envelope.DocumentID(); id != "" {
			doc["_id"] = id
		}
	}
	if _, ok := doc.Revision(); !ok {
		if rev := envelope.Revision(); rev != "" {
			doc["_rev"] = rev
		}
	}

	return o.writer.Delete(ctx, doc)
}

// emitResult publishes the backend response on the result port, when one is
// configured
func (o *Output) emitResult(ctx context.Context, resp map[string]any) {
	if o.resultSubject == "" {
		return
	}

	msg := message.NewBaseMessage(message.ResultType, message.NewResult(resp, resp), o.name)
	data, err := json.Marshal(msg)
	if err != nil {
		o.logger.ErrorContext(ctx, "marshal result message", err)
		return
	}
	if err := o.natsClient.Publish(ctx, o.resultSubject, data); err != nil {
		o.logger.ErrorContext(ctx, fmt.Sprintf("publish result to %s", o.resultSubject), err)
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
func (o *Output) Meta() component.Metadata {
	return component.Metadata{
		Name:        o.name,
		Type:        "output",
		Description: "Cloudant output for writing flow messages as documents",
		Version:     "1.0.0",
	}
}

// InputPorts returns configured input port definitions
func (o *Output) InputPorts() []component.Port {
	ports := make([]component.Port, len(o.subjects))
	for i, subj := range o.subjects {
		ports[i] = component.Port{
			Name:      fmt.Sprintf("input_%d", i),
			Direction: component.DirectionInput,
			Required:  true,
			Config:    component.NATSPort{Subject: subj},
		}
	}
	return ports
}

// OutputPorts returns the result port, when configured
func (o *Output) OutputPorts() []component.Port {
	if o.resultSubject == "" {
		return []component.Port{}
	}
	return []component.Port{{
		Name:      "results",
		Direction: component.DirectionOutput,
		Config:    component.NATSPort{Subject: o.resultSubject},
	}}
}

// ConfigSchema returns the configuration schema
func (o *Output) ConfigSchema() component.ConfigSchema {
	return outputSchema
}

// Health returns the current health status
func (o *Output) Health() component.HealthStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return component.HealthStatus{
		Healthy:    o.running,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&o.errorCount)),
		Uptime:     time.Since(o.startTime),
	}
}

// DataFlow returns current data flow metrics
func (o *Output) DataFlow() component.FlowMetrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	written := atomic.LoadInt64(&o.messagesWritten)
	errorCount := atomic.LoadInt64(&o.errorCount)

	var errorRate float64
	if total := written + errorCount; total > 0 {
		errorRate = float64(errorCount) / float64(total)
	}

	return component.FlowMetrics{
		ErrorRate:    errorRate,
		LastActivity: o.lastActivity,
	}
}

// Register registers the Cloudant output component with the given registry
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "cloudant-out",
		Factory:     NewOutput,
		Schema:      outputSchema,
		Type:        "output",
		Protocol:    "couchdb",
		Domain:      "storage",
		Description: "Cloudant output for document inserts and deletes",
		Version:     "1.0.0",
	})
}
